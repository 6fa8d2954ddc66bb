package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"parking-session-backend/config"
	"parking-session-backend/internal/account"
	"parking-session-backend/internal/billing"
	"parking-session-backend/internal/model"
	"parking-session-backend/internal/session"
)

// Gateway sets a place's status remotely. The call carries only the target
// status, so concurrent clients race last-write-wins.
type Gateway interface {
	SetStatus(ctx context.Context, id int, status model.PlaceStatus) error
}

// Registry is the cached view of place statuses.
type Registry interface {
	StatusOf(id int) model.PlaceStatus
	Refresh(ctx context.Context) error
}

// Ledger stores completed trips.
type Ledger interface {
	Append(ctx context.Context, rec model.TripRecord) error
	Recent(ctx context.Context, limit int) ([]model.TripRecord, error)
	Clear(ctx context.Context) error
}

// Transactor groups local writes so they commit or roll back together.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// commitTimeout bounds the local commit once the gateway has accepted an
// intent. The commit does not follow the caller's cancellation.
const commitTimeout = 10 * time.Second

// Options holds deployment choices.
type Options struct {
	Policy billing.Policy
	// Tx makes the exit commit atomic. Without it local writes run one by
	// one, which is only safe for stores that cannot fail mid-way.
	Tx Transactor
	// UnknownDuration is config.UnknownDurationRefuse or config.UnknownDurationBillMinimum.
	UnknownDuration     string
	ClearLedgerOnLogout bool
	Now                 func() time.Time
}

// ExitOptions carries per-request choices for RequestExit.
type ExitOptions struct {
	// ConfirmUnknownDuration accepts a one-minute charge when the session
	// start time was lost.
	ConfirmUnknownDuration bool
}

// Receipt describes a completed exit.
type Receipt struct {
	PlaceID           int              `json:"place_id"`
	Quote             billing.Quote    `json:"quote"`
	BalanceBefore     int              `json:"balance_before"`
	BalanceAfter      int              `json:"balance_after"`
	Record            model.TripRecord `json:"record"`
	EstimatedDuration bool             `json:"estimated_duration"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// View is a read-only picture of the engine state.
type View struct {
	Identity model.Identity `json:"identity"`
	Balance  int            `json:"balance"`
	Session  *model.Session `json:"session"`
	Phase    Phase          `json:"phase"`
	Policy   string         `json:"policy"`
}

// Coordinator applies enter/exit intents against the registry and gateway.
// mu serializes every mutation, remote calls included, so a completion is
// applied before the next intent is looked at.
type Coordinator struct {
	gateway  Gateway
	registry Registry
	sessions *session.Tracker
	accounts *account.Accounts
	ledger   Ledger
	opts     Options
	log      logrus.FieldLogger

	mu       sync.Mutex
	inFlight inFlight
}

// New wires a coordinator. opts.Policy is required.
func New(gw Gateway, reg Registry, sessions *session.Tracker, accounts *account.Accounts, ledger Ledger, opts Options, log logrus.FieldLogger) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UnknownDuration == "" {
		opts.UnknownDuration = config.UnknownDurationRefuse
	}
	return &Coordinator{
		gateway:  gw,
		registry: reg,
		sessions: sessions,
		accounts: accounts,
		ledger:   ledger,
		opts:     opts,
		log:      log,
	}
}

// RequestEnter occupies place id for the local user.
func (c *Coordinator) RequestEnter(ctx context.Context, id int) (model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := c.log.WithField("place_id", id)

	identity, err := c.accounts.Identity(ctx)
	if err != nil {
		return model.None, err
	}
	if !identity.Authorized {
		return model.None, ErrNotAuthorized
	}

	current, active, err := c.sessions.Active(ctx)
	if err != nil {
		return model.None, err
	}
	if active {
		log.WithField("occupied_place_id", current.PlaceID).Info("enter rejected: already occupying")
		return model.None, fmt.Errorf("%w: place %d", ErrAlreadyOccupying, current.PlaceID)
	}

	status := c.registry.StatusOf(id)
	if status == model.StatusUnknown {
		if err := c.registry.Refresh(ctx); err != nil {
			log.WithError(err).Warn("enter aborted: cannot look up place")
			return model.None, err
		}
		status = c.registry.StatusOf(id)
	}
	switch status {
	case model.StatusUnknown:
		return model.None, fmt.Errorf("%w: %d", ErrPlaceNotFound, id)
	case model.StatusBusy:
		log.Info("enter rejected: place is busy")
		return model.None, fmt.Errorf("%w: %d", ErrPlaceNotFree, id)
	}

	c.inFlight.set(PhaseEntering)
	defer c.inFlight.clear()

	// Admitted: from here on the intent runs to completion even if the
	// caller goes away, so remote and local state cannot drift apart.
	opCtx := context.WithoutCancel(ctx)

	if err := c.gateway.SetStatus(opCtx, id, model.StatusBusy); err != nil {
		log.WithError(err).Warn("enter failed at gateway")
		return model.None, err
	}

	now := c.opts.Now().UnixMilli()
	commitCtx, cancel := context.WithTimeout(opCtx, commitTimeout)
	defer cancel()
	if err := c.sessions.Begin(commitCtx, id, now); err != nil {
		log.WithError(err).Error("failed to record session after gateway accepted enter")
		c.compensate(opCtx, id, model.StatusFree)
		return model.None, err
	}

	log.WithField("started_at", now).Info("place occupied")
	c.refreshAfterTransition(opCtx)
	return model.Session{PlaceID: id, StartedAt: now}, nil
}

// RequestExit releases place id, charges the balance and records the trip.
func (c *Coordinator) RequestExit(ctx context.Context, id int, exitOpts ExitOptions) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := c.log.WithField("place_id", id)

	current, active, err := c.sessions.Active(ctx)
	if err != nil {
		return Receipt{}, err
	}
	if !active {
		return Receipt{}, ErrNoActiveSession
	}
	if current.PlaceID != id {
		return Receipt{}, fmt.Errorf("%w: you can only exit place %d", ErrWrongPlace, current.PlaceID)
	}

	receipt := Receipt{PlaceID: id}
	if status := c.registry.StatusOf(id); status != model.StatusBusy {
		// The registry may lag the service; this is not a reason to keep
		// the user parked.
		log.WithField("registry_status", status).Warn("registry does not report the place as busy, exiting anyway")
		receipt.Warnings = append(receipt.Warnings, fmt.Sprintf("%v: registry reports %s", ErrPlaceNotBusy, status))
	}

	now := c.opts.Now()
	quote, err := billing.Calculate(current.StartedAt, now.UnixMilli(), c.opts.Policy)
	if errors.Is(err, billing.ErrUnknownDuration) {
		if c.opts.UnknownDuration != config.UnknownDurationBillMinimum && !exitOpts.ConfirmUnknownDuration {
			log.Warn("exit refused: session start time is unknown")
			return Receipt{}, fmt.Errorf("%w: confirm the exit to be billed the minimum duration", ErrUnknownDuration)
		}
		quote = billing.QuoteMinutes(1, c.opts.Policy)
		receipt.EstimatedDuration = true
	} else if err != nil {
		return Receipt{}, err
	}

	balanceBefore, err := c.accounts.Balance(ctx)
	if err != nil {
		return Receipt{}, err
	}

	c.inFlight.set(PhaseExiting)
	defer c.inFlight.clear()

	opCtx := context.WithoutCancel(ctx)

	if err := c.gateway.SetStatus(opCtx, id, model.StatusFree); err != nil {
		log.WithError(err).Warn("exit failed at gateway, session kept")
		return Receipt{}, err
	}

	balanceAfter := billing.ApplyCost(balanceBefore, quote.Cost)
	record := model.TripRecord{
		PlaceID:         id,
		DurationMinutes: quote.DurationMinutes,
		BilledUnits:     quote.BilledUnits,
		Cost:            quote.Cost,
		BalanceAfter:    balanceAfter,
		Policy:          quote.Policy,
		EndedAt:         now.UTC(),
	}

	commitCtx, cancel := context.WithTimeout(opCtx, commitTimeout)
	defer cancel()
	err = c.inTx(commitCtx, func(ctx context.Context) error {
		if err := c.ledger.Append(ctx, record); err != nil {
			return err
		}
		if err := c.accounts.SetBalance(ctx, balanceAfter); err != nil {
			return err
		}
		if _, err := c.sessions.End(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to commit exit after gateway accepted it")
		c.compensate(opCtx, id, model.StatusBusy)
		return Receipt{}, err
	}

	log.WithFields(logrus.Fields{
		"duration_minutes": quote.DurationMinutes,
		"cost":             quote.Cost,
		"balance_after":    balanceAfter,
	}).Info("place released")

	receipt.Quote = quote
	receipt.BalanceBefore = balanceBefore
	receipt.BalanceAfter = balanceAfter
	receipt.Record = record
	c.refreshAfterTransition(opCtx)
	return receipt, nil
}

// compensate restores the remote status after a local write failed, so that
// local and remote state agree again. Best effort.
func (c *Coordinator) compensate(ctx context.Context, id int, status model.PlaceStatus) {
	if err := c.gateway.SetStatus(ctx, id, status); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"place_id": id,
			"status":   status,
		}).Error("failed to restore remote place status")
	}
}

func (c *Coordinator) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.opts.Tx == nil {
		return fn(ctx)
	}
	return c.opts.Tx.InTx(ctx, fn)
}

func (c *Coordinator) refreshAfterTransition(ctx context.Context) {
	if err := c.registry.Refresh(ctx); err != nil {
		c.log.WithError(err).Warn("registry refresh after transition failed")
	}
}

// Login authorizes name and credits the starting balance.
func (c *Coordinator) Login(ctx context.Context, name string) (model.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	identity, err := c.accounts.Login(ctx, name)
	if err != nil {
		return model.Identity{}, err
	}
	c.log.WithField("user", identity.DisplayName).Info("user logged in")
	return identity, nil
}

// TopUp adds amount to the balance of the logged-in user.
func (c *Coordinator) TopUp(ctx context.Context, amount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuthorized(ctx); err != nil {
		return 0, err
	}
	balance, err := c.accounts.TopUp(ctx, amount)
	if err != nil {
		return 0, err
	}
	c.log.WithFields(logrus.Fields{"amount": amount, "balance": balance}).Info("balance topped up")
	return balance, nil
}

// Logout drops the session locally, zeroes the balance and restores guest
// defaults. The remote place status is not touched. The ledger is cleared
// only when configured to.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAuthorized(ctx); err != nil {
		return err
	}
	current, active, err := c.sessions.Active(ctx)
	switch {
	case err != nil:
		c.log.WithError(err).Warn("cannot read session before logout, clearing it anyway")
	case active:
		c.log.WithField("place_id", current.PlaceID).Warn("logging out with an active session, the place stays busy remotely")
	}

	err = c.inTx(ctx, func(ctx context.Context) error {
		if err := c.sessions.Reset(ctx); err != nil {
			return err
		}
		if err := c.accounts.Reset(ctx); err != nil {
			return err
		}
		if c.opts.ClearLedgerOnLogout {
			return c.ledger.Clear(ctx)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("user logged out")
	return nil
}

// History returns up to limit trips, newest first.
func (c *Coordinator) History(ctx context.Context, limit int) ([]model.TripRecord, error) {
	return c.ledger.Recent(ctx, limit)
}

// ClearHistory empties the ledger.
func (c *Coordinator) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Clear(ctx)
}

// Status reports the current state. It does not wait for in-flight intents.
func (c *Coordinator) Status(ctx context.Context) (View, error) {
	identity, err := c.accounts.Identity(ctx)
	if err != nil {
		return View{}, err
	}
	balance, err := c.accounts.Balance(ctx)
	if err != nil {
		return View{}, err
	}
	current, active, err := c.sessions.Active(ctx)
	if err != nil {
		return View{}, err
	}

	view := View{Identity: identity, Balance: balance, Policy: c.opts.Policy.Name()}
	if active {
		view.Session = &current
	}
	view.Phase = c.phase(active)
	return view, nil
}

// Phase reports where the local user is in the enter/exit cycle. It does not
// wait for in-flight intents.
func (c *Coordinator) Phase(ctx context.Context) (Phase, error) {
	if p, ok := c.inFlight.get(); ok {
		return p, nil
	}
	_, active, err := c.sessions.Active(ctx)
	if err != nil {
		return PhaseUnengaged, err
	}
	return c.phase(active), nil
}

func (c *Coordinator) phase(active bool) Phase {
	if p, ok := c.inFlight.get(); ok {
		return p
	}
	if active {
		return PhaseOccupying
	}
	return PhaseUnengaged
}

func (c *Coordinator) requireAuthorized(ctx context.Context) error {
	identity, err := c.accounts.Identity(ctx)
	if err != nil {
		return err
	}
	if !identity.Authorized {
		return ErrNotAuthorized
	}
	return nil
}
