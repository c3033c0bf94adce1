package store

import (
	"context"
	"time"

	"github.com/hance08/keasync/internal/model"
)

type AccountRepository interface {
	CreateAccount(acc *model.Account) (int64, error)
	GetAccountByID(id int64) (*model.Account, error)
	GetAccountByName(name string) (*model.Account, error)
	GetBillingAccount() (*model.Account, error)
	GetAccountBalances(includeInactive bool) ([]*model.AccountBalance, error)

	// Billing cursors
	SaveBillingCheckpoints(accountID int64, transactionsCheckpoint, changesCheckpoint *int64) error
	SaveBillingConfirmation(accountID int64, transactionsConfirmed, changesConfirmed *int64, syncedAt time.Time) error
	ResetBillingCursors(accountID int64) error
}

type TransactionRepository interface {
	GetTransactionByBillingID(billingID int64) (*model.Transaction, error)
	GetTransactionsByAccount(accountID int64, limit int) ([]*model.Transaction, error)
	InsertTransaction(tx *model.Transaction) (int64, error)
	UpdateTransaction(tx *model.Transaction) error
	DeleteTransaction(txID int64) error
}

type SyncStateRepository interface {
	GetSyncState(billingID int64) (*model.BillingSyncState, error)
	UpsertSyncState(state *model.BillingSyncState) error
	CountSyncStates() (map[model.SyncStatus]int, error)
}

type Repository interface {
	AccountRepository
	TransactionRepository
	SyncStateRepository

	// ExecTx runs fn against a Repository bound to one database transaction.
	// The transaction commits only if fn returns nil.
	ExecTx(ctx context.Context, fn func(Repository) error) error

	Close() error
}
