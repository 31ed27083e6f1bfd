package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/bank"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type aggregatorClient interface {
	ExchangeToken(ctx context.Context, code string, provider domain.BankProvider) (*bank.ExchangeResult, error)
	FetchBalance(ctx context.Context, providerRef string, provider domain.BankProvider) (*bank.BalanceResult, error)
}

type linkedAccountRepo interface {
	Create(ctx context.Context, account *domain.LinkedAccount) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.LinkedAccount, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.LinkedAccount, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance int64, currency domain.Currency, syncedAt time.Time) error
}

type rateConverter interface {
	Convert(amount int64, from, to domain.Currency) (int64, error)
}

// Wealth is the profile balance plus every linked account converted into the
// profile currency.
type Wealth struct {
	Balance  int64
	Linked   int64
	Total    int64
	Currency domain.Currency
}

type BankAccountService struct {
	provider aggregatorClient
	accounts linkedAccountRepo
	profiles profileRepo
	rates    rateConverter
}

func NewBankAccountService(provider aggregatorClient, accounts linkedAccountRepo, profiles profileRepo, rates rateConverter) *BankAccountService {
	return &BankAccountService{
		provider: provider,
		accounts: accounts,
		profiles: profiles,
		rates:    rates,
	}
}

// Link exchanges an aggregator link-flow code for an account reference and
// pulls the first balance snapshot.
func (s *BankAccountService) Link(ctx context.Context, userID uuid.UUID, code string, provider domain.BankProvider, name string) (*domain.LinkedAccount, error) {
	if !provider.IsValid() || provider == domain.BankProviderManual {
		return nil, fmt.Errorf("Link: provider %q: %w", provider, domain.ErrInvalidRequest)
	}
	if code == "" {
		return nil, fmt.Errorf("Link: %w", domain.ErrInvalidRequest)
	}

	exchanged, err := s.provider.ExchangeToken(ctx, code, provider)
	if err != nil {
		return nil, fmt.Errorf("Link: %w", err)
	}

	snapshot, err := s.provider.FetchBalance(ctx, exchanged.ProviderRef, provider)
	if err != nil {
		return nil, fmt.Errorf("Link: %w", err)
	}

	if name == "" {
		name = exchanged.Name
	}

	now := time.Now().UTC()
	account := &domain.LinkedAccount{
		ID:           uuid.New(),
		UserID:       userID,
		Provider:     provider,
		Name:         name,
		Balance:      snapshot.Balance,
		Currency:     snapshot.Currency,
		ProviderRef:  &exchanged.ProviderRef,
		LastSyncedAt: &now,
		CreatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("Link: %w", err)
	}

	logging.FromContext(ctx).Info("bank account linked",
		"user_id", userID,
		"account_id", account.ID,
		"provider", provider,
	)

	return account, nil
}

// AddManual registers an account the user keys in by hand; it has no
// provider to sync against.
func (s *BankAccountService) AddManual(ctx context.Context, userID uuid.UUID, name string, balance int64, currency domain.Currency) (*domain.LinkedAccount, error) {
	if name == "" {
		return nil, fmt.Errorf("AddManual: %w", domain.ErrEmptyName)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("AddManual: %w", domain.ErrInvalidCurrency)
	}

	now := time.Now().UTC()
	account := &domain.LinkedAccount{
		ID:        uuid.New(),
		UserID:    userID,
		Provider:  domain.BankProviderManual,
		Name:      name,
		Balance:   balance,
		Currency:  currency,
		CreatedAt: now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("AddManual: %w", err)
	}
	return account, nil
}

func (s *BankAccountService) List(ctx context.Context, userID uuid.UUID) ([]domain.LinkedAccount, error) {
	accounts, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return accounts, nil
}

// Refresh re-fetches the provider balance for a linked account. Manual
// accounts have nothing to refresh.
func (s *BankAccountService) Refresh(ctx context.Context, userID, accountID uuid.UUID) (*domain.LinkedAccount, error) {
	account, err := s.accounts.GetByID(ctx, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}
	if account.Provider == domain.BankProviderManual || account.ProviderRef == nil {
		return nil, fmt.Errorf("Refresh: manual account: %w", domain.ErrInvalidRequest)
	}

	snapshot, err := s.provider.FetchBalance(ctx, *account.ProviderRef, account.Provider)
	if err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}

	now := time.Now().UTC()
	if err := s.accounts.UpdateBalance(ctx, account.ID, snapshot.Balance, snapshot.Currency, now); err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}

	account.Balance = snapshot.Balance
	account.Currency = snapshot.Currency
	account.LastSyncedAt = &now
	return account, nil
}

// TotalWealth converts every linked balance into the profile currency and
// adds the running balance.
func (s *BankAccountService) TotalWealth(ctx context.Context, userID uuid.UUID) (*Wealth, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("TotalWealth: %w", err)
	}

	accounts, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("TotalWealth: %w", err)
	}

	var linked int64
	for _, account := range accounts {
		converted, err := s.rates.Convert(account.Balance, account.Currency, profile.Currency)
		if err != nil {
			return nil, fmt.Errorf("TotalWealth: account %s: %w", account.ID, err)
		}
		linked += converted
	}

	return &Wealth{
		Balance:  profile.Balance,
		Linked:   linked,
		Total:    profile.Balance + linked,
		Currency: profile.Currency,
	}, nil
}
