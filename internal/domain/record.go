package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus represents the outcome stored in a cache record
type RecordStatus string

// Possible record status values
const (
	RecordStatusSuccess RecordStatus = "success"
	RecordStatusFailure RecordStatus = "failure"
)

// Prompt is the rendered request a result was generated from. Exemplars are
// sampled per request, so it cannot be rebuilt from the work item later.
type Prompt struct {
	System string `json:"system,omitempty"`
	User   string `json:"user"`
}

// CacheRecord is the durable result for one identifier. A success record
// is never replaced; later runs read it instead of calling the remote
// service again. A failure record only marks an earlier attempt and may be
// replaced by a success.
type CacheRecord struct {
	ID             uuid.UUID    `json:"id"`
	RequestPayload string       `json:"request_payload"`
	Auxiliary      string       `json:"auxiliary,omitempty"`
	Result         string       `json:"result"`
	Status         RecordStatus `json:"status"`
	Model          string       `json:"model,omitempty"`
	Prompt         *Prompt      `json:"prompt,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewSuccessRecord creates a successful CacheRecord for the given item
// and generated result. prompt may be nil when the request is unknown.
// Returns an error if validation fails.
func NewSuccessRecord(item *WorkItem, result, model string, prompt *Prompt) (*CacheRecord, error) {
	record := &CacheRecord{
		ID:             item.ResolveID(),
		RequestPayload: item.Payload,
		Auxiliary:      item.Auxiliary,
		Result:         result,
		Status:         RecordStatusSuccess,
		Model:          model,
		Prompt:         prompt,
		CreatedAt:      time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the CacheRecord has valid data.
func (r *CacheRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrInvalidID
	}

	if r.RequestPayload == "" {
		return ErrEmptyPayload
	}

	switch r.Status {
	case RecordStatusSuccess:
		if r.Result == "" {
			return ErrEmptyResult
		}
	case RecordStatusFailure:
	default:
		return ErrInvalidRecordStatus
	}

	return nil
}

// Succeeded reports whether the record holds a usable result.
func (r *CacheRecord) Succeeded() bool {
	return r.Status == RecordStatusSuccess
}
