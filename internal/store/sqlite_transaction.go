package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hance08/keasync/internal/constants"
	"github.com/hance08/keasync/internal/model"
)

const transactionColumns = `id, account_id, date, description, amount, notes, created_at, billing_transaction_id`

func (s *Store) GetTransactionByBillingID(billingID int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`
        SELECT `+transactionColumns+`
        FROM transactions
        WHERE billing_transaction_id = ?
    `, billingID)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction with billing ID %d: %w", billingID, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return tx, nil
}

// GetTransactionsByAccount returns the newest transactions of an account first.
func (s *Store) GetTransactionsByAccount(accountID int64, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
        SELECT `+transactionColumns+`
        FROM transactions
        WHERE account_id = ?
        ORDER BY date DESC, id DESC
        LIMIT ?
    `, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var transactions []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func (s *Store) InsertTransaction(tx *model.Transaction) (int64, error) {
	stmt, err := s.db.Prepare(`
        INSERT INTO transactions (account_id, date, description, amount, notes, billing_transaction_id)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING id;
    `)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare transaction SQL: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	var newTxID int64
	err = stmt.QueryRow(
		tx.AccountID,
		tx.Date.Format(constants.DateFormat),
		tx.Description,
		tx.Amount.String(),
		tx.Notes,
		tx.BillingTransactionID,
	).Scan(&newTxID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("failed to insert transaction: %w", ErrDuplicateBillingTransaction)
		}
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("failed to insert transaction for account %d: %w", tx.AccountID, ErrConstraintViolation)
		}
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return newTxID, nil
}

func (s *Store) UpdateTransaction(tx *model.Transaction) error {
	result, err := s.db.Exec(`
        UPDATE transactions
        SET date = ?, description = ?, amount = ?, notes = ?
        WHERE id = ?
    `, tx.Date.Format(constants.DateFormat), tx.Description, tx.Amount.String(), tx.Notes, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return expectOneRow(result, "transaction", tx.ID)
}

func (s *Store) DeleteTransaction(txID int64) error {
	result, err := s.db.Exec(`
        DELETE FROM transactions
        WHERE id = ?
    `, txID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectOneRow(result, "transaction", txID)
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	tx := &model.Transaction{}
	var (
		date      string
		billingID sql.NullInt64
	)

	err := row.Scan(
		&tx.ID, &tx.AccountID, &date, &tx.Description,
		&tx.Amount, &tx.Notes, &tx.CreatedAt, &billingID,
	)
	if err != nil {
		return nil, err
	}

	tx.Date, err = time.Parse(constants.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	tx.BillingTransactionID = nullableInt(billingID)

	return tx, nil
}
