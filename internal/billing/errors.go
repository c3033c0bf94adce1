package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks a missing base URL or API key. No request is attempted.
	ErrConfig = errors.New("billing configuration error")

	ErrNoBillingAccount = errors.New("billing account not found")
)

// Reasons carried by ProtocolError.
var (
	ErrBadDate            = errors.New("bad remote date")
	ErrBadAmount          = errors.New("bad remote amount")
	ErrBadIdentifier      = errors.New("bad remote identifier")
	ErrBadFlag            = errors.New("bad remote flag")
	ErrBadText            = errors.New("bad remote text")
	ErrMissingDescription = errors.New("missing remote description")
	ErrMissingSnapshot    = errors.New("missing transaction snapshot")
	ErrSnapshotMismatch   = errors.New("snapshot does not match event")
	ErrUnknownEvent       = errors.New("unknown event kind")
	ErrUpdateNonexistent  = errors.New("update for nonexistent transaction")
	ErrDeleteNonexistent  = errors.New("delete for nonexistent transaction")
	ErrForeignTransaction = errors.New("billing transaction belongs to another account")
)

// ProtocolError reports upstream data that cannot be applied. It aborts the
// whole batch.
type ProtocolError struct {
	Err           error
	Field         string
	TransactionID int64 // external id, 0 when not yet known
	EventID       int64
	Value         string
}

func (e *ProtocolError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" in field %q", e.Field)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.TransactionID != 0 {
		msg += fmt.Sprintf(" for billing transaction %d", e.TransactionID)
	}
	if e.EventID != 0 {
		msg += fmt.Sprintf(" at event %d", e.EventID)
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

type GatewayKind string

const (
	GatewayForbidden    GatewayKind = "forbidden"
	GatewayNotFound     GatewayKind = "not_found"
	GatewayUpstream     GatewayKind = "upstream"
	GatewayInvalidJSON  GatewayKind = "invalid_json"
	GatewayInvalidShape GatewayKind = "invalid_shape"
)

// GatewayError is a response from the billing service that could not be used.
type GatewayError struct {
	Op         string
	Kind       GatewayKind
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	var msg string
	switch e.Kind {
	case GatewayForbidden:
		msg = "billing service rejected the API key"
	case GatewayNotFound:
		msg = "billing service has no data for the configured account"
	case GatewayInvalidJSON:
		msg = "billing service returned invalid JSON"
	case GatewayInvalidShape:
		msg = "billing service returned an unexpected payload"
	default:
		msg = "billing service error"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return e.Op + ": " + msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ConnectivityError is a transport failure before any response arrived.
type ConnectivityError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: cannot reach billing service at %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// StorageError is a failed local write. Phase is "apply" for the data commit
// and "confirm" for the cursor confirmation commit.
type StorageError struct {
	Phase string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local storage failed during %s: %v", e.Phase, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AckError is a failed acknowledgment after the batch was committed locally.
type AckError struct {
	Err error
}

func (e *AckError) Error() string {
	return fmt.Sprintf("acknowledgment failed, changes kept locally: %v", e.Err)
}

func (e *AckError) Unwrap() error { return e.Err }

func protocolErr(reason error, field string, txID int64) *ProtocolError {
	return &ProtocolError{Err: reason, Field: field, TransactionID: txID}
}
