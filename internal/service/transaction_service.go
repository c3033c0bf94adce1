package service

import (
	"fmt"

	"github.com/hance08/keasync/internal/constants"
	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
)

type TransactionService struct {
	repo store.Repository
}

func NewTransactionService(repo store.Repository) *TransactionService {
	return &TransactionService{repo: repo}
}

// GetTransactionHistory returns the newest transactions of an account. An
// empty name selects the billing account.
func (ts *TransactionService) GetTransactionHistory(accountName string, limit int) (*model.Account, []*model.Transaction, error) {
	if limit <= 0 {
		limit = constants.DefaultListLimit
	}

	var (
		account *model.Account
		err     error
	)
	if accountName == "" {
		account, err = ts.repo.GetBillingAccount()
	} else {
		account, err = ts.repo.GetAccountByName(accountName)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("account not found: %w", err)
	}

	transactions, err := ts.repo.GetTransactionsByAccount(account.ID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get transaction history: %w", err)
	}

	return account, transactions, nil
}
