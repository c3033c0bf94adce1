package billing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
)

// Counts are the events applied by one batch. A create followed by an update
// of the same transaction counts once in each field.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// stagedTransaction holds one external id for the duration of a batch.
type stagedTransaction struct {
	externalID int64
	original   *model.Transaction // as loaded, nil when it did not exist
	current    *model.Transaction // nil while absent
	dirty      bool
	deleted    bool // deleted earlier in this batch

	state      *model.BillingSyncState
	stateDirty bool
}

// Engine replays one ordered batch against the transaction table. It is not
// safe for reuse across batches.
type Engine struct {
	repo      store.Repository
	accountID int64
	logger    *slog.Logger

	staged map[int64]*stagedTransaction
	order  []int64
	counts Counts
}

func NewEngine(repo store.Repository, accountID int64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:      repo,
		accountID: accountID,
		logger:    logger,
		staged:    make(map[int64]*stagedTransaction),
	}
}

// Apply processes events in order and writes the net effect per transaction.
// Any error leaves the caller's database transaction to be rolled back.
func (e *Engine) Apply(events []ChangeEvent) (Counts, error) {
	for _, ev := range events {
		if err := e.applyEvent(ev); err != nil {
			return e.counts, err
		}
	}
	if err := e.flush(); err != nil {
		return e.counts, err
	}
	return e.counts, nil
}

func (e *Engine) applyEvent(ev ChangeEvent) error {
	st, err := e.stage(ev.TransactionID)
	if err != nil {
		return err
	}

	if st.isReplay(ev) {
		e.counts.Skipped++
		e.logger.Debug("skipping replayed billing event",
			"event_id", ev.ID, "stream", ev.Stream, "billing_transaction_id", ev.TransactionID)
		return nil
	}

	if st.deleted {
		// No resurrection from events that follow a delete in the same batch.
		e.logger.Debug("ignoring billing event after delete",
			"event_id", ev.ID, "event", ev.Kind, "billing_transaction_id", ev.TransactionID)
		st.track(ev, model.SyncStatusUnavailable, nil)
		return nil
	}

	switch ev.Kind {
	case EventCreated:
		// A create carries the whole record; no fallback to stored text.
		fields, err := NormalizeSnapshot(ev, nil)
		if err != nil {
			return err
		}
		if st.current == nil {
			id := ev.TransactionID
			st.current = &model.Transaction{AccountID: e.accountID, BillingTransactionID: &id}
		}
		st.set(fields)
		st.track(ev, fields.Availability(), &fields)
		e.counts.Created++

	case EventUpdated:
		if st.current == nil {
			return &ProtocolError{Err: ErrUpdateNonexistent, TransactionID: ev.TransactionID, EventID: ev.ID}
		}
		fields, err := NormalizeSnapshot(ev, st.current)
		if err != nil {
			return err
		}
		st.set(fields)
		st.track(ev, fields.Availability(), &fields)
		e.counts.Updated++

	case EventDeleted:
		if st.current == nil {
			return &ProtocolError{Err: ErrDeleteNonexistent, TransactionID: ev.TransactionID, EventID: ev.ID}
		}
		st.current = nil
		st.deleted = true
		st.track(ev, model.SyncStatusUnavailable, nil)
		e.counts.Deleted++

	default:
		return &ProtocolError{Err: ErrUnknownEvent, Field: "event", Value: string(ev.Kind), TransactionID: ev.TransactionID, EventID: ev.ID}
	}

	return nil
}

// stage loads the row and sync state for an external id on first reference.
func (e *Engine) stage(externalID int64) (*stagedTransaction, error) {
	if st, ok := e.staged[externalID]; ok {
		return st, nil
	}

	st := &stagedTransaction{externalID: externalID}

	row, err := e.repo.GetTransactionByBillingID(externalID)
	switch {
	case err == nil:
		if row.AccountID != e.accountID {
			return nil, &ProtocolError{
				Err: ErrForeignTransaction, Field: "transaction_id",
				Value: fmt.Sprintf("account %d", row.AccountID), TransactionID: externalID,
			}
		}
		st.original = row
		cp := *row
		st.current = &cp
	case errors.Is(err, store.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("failed to load billing transaction %d: %w", externalID, err)
	}

	state, err := e.repo.GetSyncState(externalID)
	switch {
	case err == nil:
		st.state = state
	case errors.Is(err, store.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("failed to load sync state %d: %w", externalID, err)
	}

	e.staged[externalID] = st
	e.order = append(e.order, externalID)
	return st, nil
}

// flush writes the net row change and the sync state of every staged id.
func (e *Engine) flush() error {
	for _, id := range e.order {
		st := e.staged[id]

		switch {
		case st.original != nil && st.current == nil:
			if err := e.repo.DeleteTransaction(st.original.ID); err != nil {
				return fmt.Errorf("failed to delete billing transaction %d: %w", id, err)
			}
		case st.original == nil && st.current != nil:
			newID, err := e.repo.InsertTransaction(st.current)
			if err != nil {
				return fmt.Errorf("failed to insert billing transaction %d: %w", id, err)
			}
			st.current.ID = newID
		case st.current != nil && st.dirty:
			if err := e.repo.UpdateTransaction(st.current); err != nil {
				return fmt.Errorf("failed to update billing transaction %d: %w", id, err)
			}
		}

		if st.stateDirty {
			if err := e.repo.UpsertSyncState(st.state); err != nil {
				return err
			}
		}
	}
	return nil
}

// isReplay reports whether the event is at or below the stream's high-water mark.
func (st *stagedTransaction) isReplay(ev ChangeEvent) bool {
	if st.state == nil {
		return false
	}
	mark := st.state.LastChangeEventID
	if ev.Stream == StreamTransactions {
		mark = st.state.LastTransactionEventID
	}
	return mark != nil && ev.ID <= *mark
}

func (st *stagedTransaction) set(f TransactionFields) {
	st.current.Date = f.Date
	st.current.Amount = f.Amount
	st.current.Description = f.Description
	st.current.Notes = f.Notes
	st.dirty = true
}

// track records the event on the sync state. fields is nil for events that
// carry no usable snapshot, which keeps the last known cross-reference.
func (st *stagedTransaction) track(ev ChangeEvent, status model.SyncStatus, fields *TransactionFields) {
	if st.state == nil {
		st.state = &model.BillingSyncState{BillingTransactionID: st.externalID}
	}
	if fields != nil {
		st.state.ExportableMovementID = fields.ExportableMovementID
		st.state.IsCustomInkwell = fields.IsCustomInkwell
	}
	st.state.Status = status
	st.state.UpdatedAtEventID = ev.ID

	id := ev.ID
	if ev.Stream == StreamTransactions {
		st.state.LastTransactionEventID = &id
	} else {
		st.state.LastChangeEventID = &id
	}
	st.stateDirty = true
}
