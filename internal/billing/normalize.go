package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/hance08/keasync/internal/constants"
	"github.com/hance08/keasync/internal/model"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// ChangeEvent is a validated feed event. Snapshot is nil when neither the
// event nor the page carried a payload for the transaction.
type ChangeEvent struct {
	ID            int64
	Stream        Stream
	Kind          EventKind
	TransactionID int64
	Snapshot      *RawSnapshot
}

// TransactionFields are the row values taken from a snapshot, merged with the
// previously stored row where the remote left a field blank.
type TransactionFields struct {
	Date                 time.Time
	Amount               decimal.Decimal
	Description          string
	Notes                string
	ExportableMovementID *int64
	IsCustomInkwell      bool
}

// Availability is available only for exportable movements not overridden upstream.
func (f TransactionFields) Availability() model.SyncStatus {
	if f.ExportableMovementID != nil && !f.IsCustomInkwell {
		return model.SyncStatusAvailable
	}
	return model.SyncStatusUnavailable
}

// NormalizeEvents validates both event streams of a page and pairs every event
// with its snapshot. Transaction events come first, then changes, each in
// array order.
func NormalizeEvents(page *FeedPage) ([]ChangeEvent, error) {
	snapshots := make(map[int64]*RawSnapshot, len(page.Snapshots))
	for i := range page.Snapshots {
		snap := &page.Snapshots[i]
		id, err := ParseID("transactions.id", snap.ID)
		if err != nil {
			return nil, err
		}
		snapshots[id] = snap
	}

	events := make([]ChangeEvent, 0, len(page.TransactionEvents)+len(page.Changes))
	for _, stream := range []struct {
		name Stream
		raw  []RawEvent
	}{
		{StreamTransactions, page.TransactionEvents},
		{StreamChanges, page.Changes},
	} {
		for _, raw := range stream.raw {
			ev, err := normalizeEvent(stream.name, raw, snapshots)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
	}

	return events, nil
}

func normalizeEvent(stream Stream, raw RawEvent, snapshots map[int64]*RawSnapshot) (ChangeEvent, error) {
	id, err := ParseID(string(stream)+".id", raw.ID)
	if err != nil {
		return ChangeEvent{}, err
	}

	txID, err := ParseID(string(stream)+".transaction_id", raw.TransactionID)
	if err != nil {
		return ChangeEvent{}, annotate(err, 0, id)
	}

	kind := EventKind(strings.ToLower(strings.TrimSpace(raw.Event)))
	switch kind {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return ChangeEvent{}, &ProtocolError{
			Err: ErrUnknownEvent, Field: "event", Value: raw.Event,
			TransactionID: txID, EventID: id,
		}
	}

	snap := raw.Transaction
	if snap == nil {
		snap = snapshots[txID]
	}
	if snap != nil && !isNull(snap.ID) {
		snapID, err := ParseID("transaction.id", snap.ID)
		if err != nil {
			return ChangeEvent{}, annotate(err, txID, id)
		}
		if snapID != txID {
			return ChangeEvent{}, &ProtocolError{
				Err: ErrSnapshotMismatch, Field: "transaction.id", Value: strconv.FormatInt(snapID, 10),
				TransactionID: txID, EventID: id,
			}
		}
	}

	return ChangeEvent{ID: id, Stream: stream, Kind: kind, TransactionID: txID, Snapshot: snap}, nil
}

// NormalizeSnapshot converts a snapshot into row values. previous is the row
// currently staged for the transaction, or nil when it does not exist yet.
func NormalizeSnapshot(ev ChangeEvent, previous *model.Transaction) (TransactionFields, error) {
	var fields TransactionFields
	if ev.Snapshot == nil {
		return fields, &ProtocolError{Err: ErrMissingSnapshot, Field: "transaction", TransactionID: ev.TransactionID, EventID: ev.ID}
	}
	snap := ev.Snapshot
	wrap := func(err error) error { return annotate(err, ev.TransactionID, ev.ID) }

	var err error
	if fields.Date, err = ParseDate(snap.Date); err != nil {
		return fields, wrap(err)
	}
	if fields.Amount, err = ParseAmount(snap.Amount); err != nil {
		return fields, wrap(err)
	}

	description, err := rawText("description", snap.Description)
	if err != nil {
		return fields, wrap(err)
	}
	description = strings.TrimSpace(description)
	if description == "" && previous != nil {
		description = previous.Description
	}
	if description == "" {
		return fields, wrap(protocolErr(ErrMissingDescription, "description", 0))
	}
	fields.Description = description

	notes, err := rawText("notes", snap.Notes)
	if err != nil {
		return fields, wrap(err)
	}
	notes = strings.TrimSpace(notes)
	if notes == "" && previous != nil {
		notes = previous.Notes
	}
	fields.Notes = notes

	if fields.ExportableMovementID, err = ParseOptionalID("exportable_movement_id", snap.ExportableMovementID); err != nil {
		return fields, wrap(err)
	}
	if fields.IsCustomInkwell, err = ParseFlag("is_custom_inkwell", snap.IsCustomInkwell); err != nil {
		return fields, wrap(err)
	}

	return fields, nil
}

var dateLayouts = []string{
	constants.DateFormat,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate accepts a calendar date or an ISO-8601 timestamp and keeps the
// date as written, without shifting it to UTC.
func ParseDate(raw json.RawMessage) (time.Time, error) {
	text, err := rawText("date", raw)
	if err != nil {
		return time.Time{}, &ProtocolError{Err: ErrBadDate, Field: "date", Value: string(raw)}
	}
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &ProtocolError{Err: ErrBadDate, Field: "date", Value: text}
}

// ParseAmount accepts decimal strings and JSON numbers.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text, err := rawText("amount", raw)
	if err != nil {
		return decimal.Zero, &ProtocolError{Err: ErrBadAmount, Field: "amount", Value: string(raw)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, &ProtocolError{Err: ErrBadAmount, Field: "amount"}
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, &ProtocolError{Err: ErrBadAmount, Field: "amount", Value: text}
	}
	return amount, nil
}

// ParseID coerces a JSON number or numeric string to a positive identifier.
// Zero is reserved for "unknown".
func ParseID(field string, raw json.RawMessage) (int64, error) {
	id, err := ParseOptionalID(field, raw)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, &ProtocolError{Err: ErrBadIdentifier, Field: field}
	}
	if *id <= 0 {
		return 0, &ProtocolError{Err: ErrBadIdentifier, Field: field, Value: strconv.FormatInt(*id, 10)}
	}
	return *id, nil
}

// ParseOptionalID is ParseID for nullable fields.
func ParseOptionalID(field string, raw json.RawMessage) (*int64, error) {
	if isNull(raw) {
		return nil, nil
	}
	text, err := rawText(field, raw)
	if err != nil {
		return nil, &ProtocolError{Err: ErrBadIdentifier, Field: field, Value: string(raw)}
	}
	text = strings.TrimSpace(text)
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// 501.0 is still an integer
		d, derr := decimal.NewFromString(text)
		if derr != nil || !d.IsInteger() || !d.BigInt().IsInt64() {
			return nil, &ProtocolError{Err: ErrBadIdentifier, Field: field, Value: text}
		}
		id = d.IntPart()
	}
	return &id, nil
}

// ParseFlag reads a boolean that may arrive as a bool, 0/1 or a string.
func ParseFlag(field string, raw json.RawMessage) (bool, error) {
	if isNull(raw) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	text, err := rawText(field, raw)
	if err == nil {
		if b, err := strconv.ParseBool(strings.TrimSpace(text)); err == nil {
			return b, nil
		}
	}
	return false, &ProtocolError{Err: ErrBadFlag, Field: field, Value: string(raw)}
}

var syncedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseSyncedAt is lenient: values without an offset are UTC and anything
// unparseable is treated as absent.
func ParseSyncedAt(raw json.RawMessage) *time.Time {
	if isNull(raw) {
		return nil
	}
	text, err := rawText("synced_at", raw)
	if err != nil {
		return nil
	}
	text = strings.TrimSpace(text)
	for _, layout := range syncedAtLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// rawText returns a JSON string's value or a JSON number's literal. null and
// absent values read as "".
func rawText(field string, raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	trimmed := bytes.TrimSpace(raw)
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", &ProtocolError{Err: err, Field: field}
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", &ProtocolError{Err: err, Field: field}
		}
		return n.String(), nil
	default:
		return "", &ProtocolError{Err: ErrBadText, Field: field, Value: string(trimmed)}
	}
}

// annotate stamps the transaction and event ids on a ProtocolError.
func annotate(err error, txID, eventID int64) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		if txID != 0 {
			pe.TransactionID = txID
		}
		if eventID != 0 {
			pe.EventID = eventID
		}
	}
	return err
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
