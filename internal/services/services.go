// package services defines interface Service for interacting with the picking backend HTTP API
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deachawatss/pickbench/internal/models"
)

// Service defines the read-side picking backend operations the workstation consumes.
type Service interface {
	// GetRun retrieves run metadata and its batch rows by run number.
	GetRun(ctx context.Context, runNumber int) (*models.RunHeader, []models.BatchRow, error)

	// GetBatchItems retrieves the item lines for one batch row of a run.
	GetBatchItems(ctx context.Context, runNumber, rowNumber int) ([]models.BatchItem, error)

	// Health checks backend reachability.
	Health(ctx context.Context) error

	// Name returns the name of the backend (e.g., "picking-api")
	Name() string
}

// APIError is a structured backend error carrying the code and correlation id
// from the `{error: {...}}` response body.
type APIError struct {
	Code          string          `json:"code"`
	Message       string          `json:"message"`
	CorrelationID string          `json:"correlationId"`
	Details       json.RawMessage `json:"details,omitempty"`
	Status        int             `json:"-"` // HTTP status the body arrived with
}

func (e *APIError) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("%s: %s (correlation %s)", e.Code, e.Message, e.CorrelationID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// envelope is the standard `{success, data, message}` response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message"`
}

// errorBody is the structured error response shape.
type errorBody struct {
	Error *APIError `json:"error"`
}

// runResponse is the GET run-by-number payload: header plus batch rows.
type runResponse struct {
	Run  models.RunHeader  `json:"run"`
	Rows []models.BatchRow `json:"batches"`
}
