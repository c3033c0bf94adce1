package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hance08/keasync/internal/model"
	"github.com/shopspring/decimal"
)

const accountColumns = `
    id, name, currency, opening_balance, is_active, is_billing, created_at,
    billing_transactions_checkpoint, billing_transactions_confirmed,
    billing_changes_checkpoint, billing_changes_confirmed, billing_synced_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) CreateAccount(acc *model.Account) (int64, error) {
	stmt, err := s.db.Prepare(`
        INSERT INTO accounts (name, currency, opening_balance, is_active, is_billing)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id;
    `)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare SQL : %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	var newID int64
	err = stmt.QueryRow(acc.Name, acc.Currency, acc.OpeningBalance.String(), acc.IsActive, acc.IsBilling).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("failed to create account '%s': %w", acc.Name, ErrAccountExists)
		}
		return 0, fmt.Errorf("failed to executing SQL insertion : %w", err)
	}

	return newID, nil
}

func (s *Store) GetAccountByID(id int64) (*model.Account, error) {
	row := s.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with ID %d: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query account with ID %d: %w", id, err)
	}
	return acc, nil
}

func (s *Store) GetAccountByName(name string) (*model.Account, error) {
	row := s.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE name = ?", name)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account '%s': %w", name, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query account '%s' : %w", name, err)
	}
	return acc, nil
}

// GetBillingAccount returns the active account fed by the billing service.
func (s *Store) GetBillingAccount() (*model.Account, error) {
	row := s.db.QueryRow(`SELECT ` + accountColumns + `
        FROM accounts
        WHERE is_billing = 1 AND is_active = 1
        ORDER BY id
        LIMIT 1`)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("billing account: %w", ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query billing account: %w", err)
	}
	return acc, nil
}

func (s *Store) GetAccountBalances(includeInactive bool) ([]*model.AccountBalance, error) {
	query := "SELECT " + accountColumns + " FROM accounts"
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	balances := make([]*model.AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		total, err := s.sumAmounts(acc.ID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, &model.AccountBalance{
			Account: acc,
			Balance: acc.OpeningBalance.Add(total),
		})
	}

	return balances, nil
}

// sumAmounts adds amounts in Go; SQLite would sum the TEXT column as floats.
func (s *Store) sumAmounts(accountID int64) (decimal.Decimal, error) {
	rows, err := s.db.Query(`SELECT amount FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to calculate balance: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

func (s *Store) SaveBillingCheckpoints(accountID int64, transactionsCheckpoint, changesCheckpoint *int64) error {
	result, err := s.db.Exec(`
        UPDATE accounts
        SET billing_transactions_checkpoint = COALESCE(?, billing_transactions_checkpoint),
            billing_changes_checkpoint = COALESCE(?, billing_changes_checkpoint)
        WHERE id = ?
    `, transactionsCheckpoint, changesCheckpoint, accountID)
	if err != nil {
		return fmt.Errorf("failed to save billing checkpoints: %w", err)
	}
	return expectOneRow(result, "account", accountID)
}

func (s *Store) SaveBillingConfirmation(accountID int64, transactionsConfirmed, changesConfirmed *int64, syncedAt time.Time) error {
	result, err := s.db.Exec(`
        UPDATE accounts
        SET billing_transactions_confirmed = COALESCE(?, billing_transactions_confirmed),
            billing_changes_confirmed = COALESCE(?, billing_changes_confirmed),
            billing_synced_at = ?
        WHERE id = ?
    `, transactionsConfirmed, changesConfirmed, syncedAt.UTC(), accountID)
	if err != nil {
		return fmt.Errorf("failed to save billing confirmation: %w", err)
	}
	return expectOneRow(result, "account", accountID)
}

func (s *Store) ResetBillingCursors(accountID int64) error {
	result, err := s.db.Exec(`
        UPDATE accounts
        SET billing_transactions_checkpoint = NULL,
            billing_transactions_confirmed = NULL,
            billing_changes_checkpoint = NULL,
            billing_changes_confirmed = NULL,
            billing_synced_at = NULL
        WHERE id = ?
    `, accountID)
	if err != nil {
		return fmt.Errorf("failed to reset billing cursors: %w", err)
	}
	return expectOneRow(result, "account", accountID)
}

func scanAccount(row rowScanner) (*model.Account, error) {
	acc := &model.Account{}
	var (
		txCheckpoint, txConfirmed           sql.NullInt64
		changesCheckpoint, changesConfirmed sql.NullInt64
		syncedAt                            sql.NullTime
	)

	err := row.Scan(
		&acc.ID, &acc.Name, &acc.Currency, &acc.OpeningBalance,
		&acc.IsActive, &acc.IsBilling, &acc.CreatedAt,
		&txCheckpoint, &txConfirmed, &changesCheckpoint, &changesConfirmed,
		&syncedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Cursors = model.BillingCursors{
		TransactionsCheckpoint: nullableInt(txCheckpoint),
		TransactionsConfirmed:  nullableInt(txConfirmed),
		ChangesCheckpoint:      nullableInt(changesCheckpoint),
		ChangesConfirmed:       nullableInt(changesConfirmed),
	}
	if syncedAt.Valid {
		t := syncedAt.Time.UTC()
		acc.SyncedAt = &t
	}

	return acc, nil
}

func expectOneRow(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s with ID %d: %w", entity, id, ErrRecordNotFound)
	}
	return nil
}
