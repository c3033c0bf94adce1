package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
	"github.com/hance08/keasync/internal/utils"
	"github.com/hance08/keasync/internal/validation"
)

var ErrBillingAccountExists = errors.New("a billing account already exists")

type AccountService struct {
	repo   store.AccountRepository
	config *config.Config
}

func NewAccountService(repo store.AccountRepository, cfg *config.Config) *AccountService {
	return &AccountService{repo: repo, config: cfg}
}

type CreateAccountInput struct {
	Name           string
	Currency       string
	OpeningBalance string
	Billing        bool
}

// CreateAccount validates the input and stores a new active account. Only one
// account may receive the billing feed.
func (as *AccountService) CreateAccount(in CreateAccountInput) (*model.Account, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateAccountName(name); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = as.config.Defaults.Currency
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if err := validation.ValidateOpeningBalance(in.OpeningBalance); err != nil {
		return nil, err
	}
	opening, err := utils.ParseAmount(in.OpeningBalance)
	if err != nil {
		return nil, err
	}

	if in.Billing {
		existing, err := as.repo.GetBillingAccount()
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: '%s'", ErrBillingAccountExists, existing.Name)
		case !errors.Is(err, store.ErrRecordNotFound):
			return nil, err
		}
	}

	acc := &model.Account{
		Name:           name,
		Currency:       currency,
		OpeningBalance: opening,
		IsActive:       true,
		IsBilling:      in.Billing,
	}
	acc.ID, err = as.repo.CreateAccount(acc)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (as *AccountService) GetAccountByName(name string) (*model.Account, error) {
	return as.repo.GetAccountByName(name)
}

func (as *AccountService) ListAccounts(includeInactive bool) ([]*model.AccountBalance, error) {
	balances, err := as.repo.GetAccountBalances(includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return balances, nil
}

func (as *AccountService) DefaultCurrency() string {
	return as.config.Defaults.Currency
}
