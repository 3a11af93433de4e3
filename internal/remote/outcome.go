package remote

import (
	"errors"
	"fmt"
)

// DuplicateServerID is the sentinel recorded when the remote reports the
// record already exists but returns no identifier of its own.
const DuplicateServerID = "DUPLICATE"

// DeliveryErrorCode categorizes delivery failures.
type DeliveryErrorCode string

const (
	// ErrCodeNetwork indicates no usable response after all attempts.
	ErrCodeNetwork DeliveryErrorCode = "NETWORK_ERROR"

	// ErrCodeNoServerID indicates a success-range response carrying no
	// usable identifier. Not retried: the remote may already consider the
	// record processed, and resubmitting risks a duplicate remote effect.
	ErrCodeNoServerID DeliveryErrorCode = "NO_SERVER_ID"

	// ErrCodeRejected indicates a validation rejection. Not retried:
	// resubmission without a payload change cannot succeed.
	ErrCodeRejected DeliveryErrorCode = "REJECTED"

	// ErrCodeServer indicates an unexpected status that persisted through
	// the retry budget.
	ErrCodeServer DeliveryErrorCode = "SERVER_ERROR"
)

// DeliveryError is a delivery failure with enough structure for the
// pipeline to log and for callers to distinguish the taxonomy.
type DeliveryError struct {
	Code    DeliveryErrorCode
	Message string

	// Status is the last HTTP status seen, 0 when no response arrived.
	Status int

	// Body is the (truncated) last response body.
	Body string
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode extracts the delivery error code from an error.
// Returns "" if the error is not a DeliveryError.
func ErrorCode(err error) DeliveryErrorCode {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Payload is the delivery request body for one attendance record.
type Payload struct {
	UserID string `json:"user_id"`
	Time   string `json:"time"`
	Pass   string `json:"pass,omitempty"`
}
