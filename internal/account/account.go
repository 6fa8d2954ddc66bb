package account

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"parking-session-backend/internal/kv"
	"parking-session-backend/internal/model"
)

// Persistence keys.
const (
	KeyAuthorized = "is_auth"
	KeyUserName   = "user_name"
	KeyBalance    = "balance"
)

var (
	ErrEmptyName     = errors.New("name must not be empty")
	ErrInvalidAmount = errors.New("top-up amount must be positive")
)

// Accounts keeps the local identity and balance.
type Accounts struct {
	store           *kv.Store
	guestName       string
	startingBalance int
}

// New creates an account store. Login credits startingBalance.
func New(store *kv.Store, guestName string, startingBalance int) *Accounts {
	return &Accounts{store: store, guestName: guestName, startingBalance: startingBalance}
}

// Identity returns the current user, or guest defaults.
func (a *Accounts) Identity(ctx context.Context) (model.Identity, error) {
	authorized, err := a.store.GetBool(ctx, KeyAuthorized, false)
	if err != nil {
		return model.Identity{}, fmt.Errorf("read identity: %w", err)
	}
	name, err := a.store.GetString(ctx, KeyUserName, a.guestName)
	if err != nil {
		return model.Identity{}, fmt.Errorf("read identity: %w", err)
	}
	return model.Identity{Authorized: authorized, DisplayName: name}, nil
}

// Login authorizes name and resets the balance to the starting credit.
func (a *Accounts) Login(ctx context.Context, name string) (model.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Identity{}, ErrEmptyName
	}
	err := a.store.SetAll(ctx, map[string]any{
		KeyAuthorized: true,
		KeyUserName:   name,
		KeyBalance:    max(0, a.startingBalance),
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("write identity: %w", err)
	}
	return model.Identity{Authorized: true, DisplayName: name}, nil
}

// Balance returns the stored balance.
func (a *Accounts) Balance(ctx context.Context) (int, error) {
	b, err := a.store.GetInt(ctx, KeyBalance, 0)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return max(0, b), nil
}

// SetBalance stores v, floored at zero.
func (a *Accounts) SetBalance(ctx context.Context, v int) error {
	if err := a.store.SetInt(ctx, KeyBalance, max(0, v)); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

// TopUp adds amount to the balance and returns the new balance. An amount
// that would overflow the balance is rejected with ErrInvalidAmount.
func (a *Accounts) TopUp(ctx context.Context, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	current, err := a.Balance(ctx)
	if err != nil {
		return 0, err
	}
	if amount > math.MaxInt-current {
		return 0, fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)
	}
	next := current + amount
	if err := a.SetBalance(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Reset restores guest defaults and a zero balance.
func (a *Accounts) Reset(ctx context.Context) error {
	err := a.store.SetAll(ctx, map[string]any{
		KeyAuthorized: false,
		KeyUserName:   a.guestName,
		KeyBalance:    0,
	})
	if err != nil {
		return fmt.Errorf("reset identity: %w", err)
	}
	return nil
}
