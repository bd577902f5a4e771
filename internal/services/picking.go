// Picking backend HTTP implementation of [Service]
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deachawatss/pickbench/internal/models"
	"github.com/deachawatss/pickbench/internal/shared"
)

const defaultBaseURL string = "http://localhost:7075/api"

// codeRunNotFound is the backend's error code for an unknown run number.
const codeRunNotFound = "RUN_NOT_FOUND"

// BackendService implements [Service] against the picking backend HTTP API.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendService creates a new picking backend client.
// A nil client gets a default with a 10 second timeout.
func NewBackendService(baseURL string, client *http.Client) *BackendService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &BackendService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Name returns the service name.
func (b *BackendService) Name() string {
	return "picking-api"
}

// GetRun retrieves run metadata and its batch rows by run number.
func (b *BackendService) GetRun(ctx context.Context, runNumber int) (*models.RunHeader, []models.BatchRow, error) {
	var resp runResponse
	endpoint := fmt.Sprintf("/runs/%d", runNumber)

	if err := b.doRequest(ctx, http.MethodGet, endpoint, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeRunNotFound {
			return nil, nil, fmt.Errorf("run %d: %w", runNumber, shared.ErrRunNotFound)
		}
		return nil, nil, err
	}

	return &resp.Run, resp.Rows, nil
}

// GetBatchItems retrieves the item lines for one batch row of a run.
func (b *BackendService) GetBatchItems(ctx context.Context, runNumber, rowNumber int) ([]models.BatchItem, error) {
	var items []models.BatchItem
	endpoint := fmt.Sprintf("/runs/%d/rows/%d/items", runNumber, rowNumber)

	if err := b.doRequest(ctx, http.MethodGet, endpoint, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// Health checks backend reachability via the health endpoint.
func (b *BackendService) Health(ctx context.Context) error {
	return b.doRequest(ctx, http.MethodGet, "/health", nil)
}

// doRequest issues a request, unwraps the response envelope, and decodes data into result.
//
// Structured error bodies become [*APIError] so callers retain the backend's
// code and correlation id. Transport failures come back wrapped in
// [shared.ErrAPIRequest].
func (b *BackendService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	apiURL := b.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody errorBody
		if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error != nil {
			errBody.Error.Status = resp.StatusCode
			return errBody.Error
		}
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}

	if !env.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, env.Message)
	}

	if result == nil || len(env.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}
