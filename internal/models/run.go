package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunHeader represents production run metadata from the picking backend.
type RunHeader struct {
	RunNumber   int    `json:"runNo"`
	FormulaID   string `json:"formulaId"`
	FormulaDesc string `json:"formulaDesc"`
	Status      string `json:"status"`
	BatchCount  int    `json:"batchCount"`
}

// BatchRow represents a single batch row belonging to a run.
type BatchRow struct {
	RunNumber int    `json:"runNo"`
	RowNumber int    `json:"rowNum"`
	BatchNo   string `json:"batchNo"`
}

// BatchItem represents an item line within a batch row.
type BatchItem struct {
	RunNumber    int     `json:"runNo"`
	RowNumber    int     `json:"rowNum"`
	LineID       int     `json:"lineId"`
	ItemKey      string  `json:"itemKey"`
	Description  string  `json:"description"`
	ToPickedQty  float64 `json:"toPickedStdQty"`
	PickedQty    float64 `json:"pickedQty"`
	Tolerance    float64 `json:"tolerance"` // Allowed deviation from target weight, in KG
	Unit         string  `json:"unit"`
	LotTracked   bool    `json:"lotTracked"`
	PickComplete bool    `json:"pickComplete"`
}

// RunDetail is a fully hydrated run snapshot: header plus every batch row with its items.
//
// This is the unit the gateway fetches, the cache stores, and the UI consumes.
type RunDetail struct {
	Header RunHeader   `json:"header"`
	Rows   []BatchRow  `json:"rows"`
	Items  []BatchItem `json:"items"`
}

// CachedRun is a durable run snapshot kept for offline fallback.
//
// The payload is the JSON encoding of a [RunDetail]. Re-caching the same run
// number refreshes the payload, the cachedAt timestamp, and the insertion
// sequence used for FIFO eviction.
type CachedRun struct {
	id        string
	seq       int
	runNumber int
	payload   []byte
	cachedAt  time.Time
}

// NewCachedRun creates a CachedRun for the given run number with cachedAt set to now.
func NewCachedRun(seq, runNumber int, payload []byte) *CachedRun {
	return &CachedRun{
		seq:       seq,
		runNumber: runNumber,
		payload:   payload,
		cachedAt:  time.Now(),
	}
}

func (c *CachedRun) ID() string           { return c.id }
func (c *CachedRun) Seq() int             { return c.seq }
func (c *CachedRun) RunNumber() int       { return c.runNumber }
func (c *CachedRun) Payload() []byte      { return c.payload }
func (c *CachedRun) CachedAt() time.Time  { return c.cachedAt }
func (c *CachedRun) CreatedAt() time.Time { return c.cachedAt }
func (c *CachedRun) UpdatedAt() time.Time { return c.cachedAt }

func (c *CachedRun) SetID(id string)           { c.id = id }
func (c *CachedRun) SetSeq(seq int)            { c.seq = seq }
func (c *CachedRun) SetCachedAt(t time.Time)   { c.cachedAt = t }
func (c *CachedRun) SetPayload(payload []byte) { c.payload = payload }

// Validate checks that the cached run has a positive run number and a decodable payload.
func (c *CachedRun) Validate() error {
	if c.runNumber <= 0 {
		return fmt.Errorf("invalid run number: %d", c.runNumber)
	}
	if len(c.payload) == 0 {
		return fmt.Errorf("empty payload for run %d", c.runNumber)
	}
	if !json.Valid(c.payload) {
		return fmt.Errorf("payload for run %d is not valid JSON", c.runNumber)
	}
	return nil
}

// Detail decodes the stored payload back into a [RunDetail].
func (c *CachedRun) Detail() (*RunDetail, error) {
	var detail RunDetail
	if err := json.Unmarshal(c.payload, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode cached run %d: %w", c.runNumber, err)
	}
	return &detail, nil
}
