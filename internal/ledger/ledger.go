// Package ledger is the coordinator over the account directory, the balance
// store, and the transaction log. It is the only component that mutates
// more than one store per operation, and it makes each compound operation
// atomic to callers: validation failures mutate nothing, and a persist
// failure midway rolls the earlier writes back.
package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/passbook-dev/passbook/internal/accountid"
	"github.com/passbook-dev/passbook/internal/balances"
	"github.com/passbook-dev/passbook/internal/directory"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/passbook-dev/passbook/internal/txlog"
)

// Store file names within a ledger root directory.
const (
	AccountsFile     = "accounts.csv"
	BalancesFile     = "balances.csv"
	TransactionsFile = "transactions.csv"
)

// Params configures a Ledger. Zero values get defaults.
type Params struct {
	Root          string
	Logger        *zap.Logger
	RetryAttempts int           // persist retries after the first try (default 3)
	RetryBackoff  time.Duration // pause between retries (default 50ms)
	Actor         string        // recorded in the audit trail (default "admin")
}

// Ledger orchestrates the three stores.
type Ledger struct {
	root          string
	dir           *directory.Directory
	bal           *balances.Store
	log           *txlog.Log
	locks         *namedLocks
	regMu         sync.Mutex // serializes id allocation + append
	logger        *zap.Logger
	retryAttempts int
	retryBackoff  time.Duration
	actor         string
	now           func() time.Time
}

// Open loads the three stores from p.Root.
func Open(p Params) (*Ledger, error) {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.RetryAttempts == 0 {
		p.RetryAttempts = 3
	}
	if p.RetryBackoff == 0 {
		p.RetryBackoff = 50 * time.Millisecond
	}
	if p.Actor == "" {
		p.Actor = "admin"
	}

	dir, err := directory.Open(filepath.Join(p.Root, AccountsFile))
	if err != nil {
		return nil, err
	}
	bal, err := balances.Open(filepath.Join(p.Root, BalancesFile))
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		root:          p.Root,
		dir:           dir,
		bal:           bal,
		log:           txlog.Open(filepath.Join(p.Root, TransactionsFile)),
		locks:         newNamedLocks(),
		logger:        p.Logger,
		retryAttempts: p.RetryAttempts,
		retryBackoff:  p.RetryBackoff,
		actor:         p.Actor,
		now:           time.Now,
	}
	if err := l.recoverBalances(); err != nil {
		return nil, err
	}
	return l, nil
}

// recoverBalances reconciles the balance store against the transaction log
// at open. A crash between a balance write and its log append leaves a
// balance the log cannot account for; the log is authoritative, so each
// registered account's balance is reset to the resulting balance of its
// last logged record (zero when it has none).
func (l *Ledger) recoverBalances() error {
	records, err := l.log.All()
	if err != nil {
		return err
	}
	last := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		last[r.Name] = r.Balance
	}

	fixes := make(map[string]decimal.Decimal)
	for _, acct := range l.dir.All() {
		want := decimal.Zero
		if v, ok := last[acct.Name]; ok {
			want = v
		}
		if !l.bal.Get(acct.Name).Equal(want) {
			fixes[acct.Name] = want
		}
	}
	if len(fixes) == 0 {
		return nil
	}
	if err := l.bal.SetAll(fixes); err != nil {
		return err
	}
	for name, v := range fixes {
		l.logger.Warn("balance reconciled against transaction log",
			zap.String("account", name),
			zap.String("balance", v.StringFixed(2)))
	}
	return nil
}

// RegisterParams holds the fields collected by the registration form.
type RegisterParams struct {
	Name   string
	Gender model.Gender
	Age    int
	PIN    string
}

// Register validates the registration fields, allocates a fresh account id,
// and appends the account to the directory with status Enabled.
func (l *Ledger) Register(ctx context.Context, p RegisterParams) (model.Account, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.Account{}, model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	switch p.Gender {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
	default:
		return model.Account{}, model.ValidationError{Field: "gender", Reason: "must be Male, Female, or Other"}
	}
	if p.Age < 1 || p.Age > 99 {
		return model.Account{}, model.ValidationError{Field: "age", Reason: "must be between 1 and 99"}
	}
	if !validPIN(p.PIN) {
		return model.Account{}, model.ValidationError{Field: "pin", Reason: "must be exactly 4 digits"}
	}

	// One registration at a time, so two callers cannot draw the same id.
	l.regMu.Lock()
	defer l.regMu.Unlock()

	id, err := accountid.Allocate(l.dir.IDs())
	if err != nil {
		return model.Account{}, err
	}

	acct := model.Account{
		Name:   p.Name,
		ID:     id,
		Gender: p.Gender,
		Age:    p.Age,
		PIN:    p.PIN,
		Status: model.StatusEnabled,
	}
	if err := l.persist(ctx, func() error { return l.dir.Append(acct) }); err != nil {
		return model.Account{}, err
	}

	l.logger.Info("account registered",
		zap.String("account", acct.Name),
		zap.String("id", acct.ID))
	return acct, nil
}

// Authenticate checks a name/PIN pair. An unknown name and a wrong PIN are
// indistinguishable to the caller; a disabled account is reported as such
// only after the credential matches.
func (l *Ledger) Authenticate(ctx context.Context, name, pin string) (model.Account, error) {
	acct, err := l.dir.FindByName(name)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.Account{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, err
	}
	if acct.PIN != pin {
		return model.Account{}, model.ErrInvalidCredentials
	}
	if !acct.Enabled() {
		return model.Account{}, model.ErrAccountDisabled
	}
	return acct, nil
}

// ListAccounts returns every registered account in stored order.
func (l *Ledger) ListAccounts() []model.Account {
	return l.dir.All()
}

// FindAccount returns the account registered under name without any
// credential check; used by the admin console.
func (l *Ledger) FindAccount(name string) (model.Account, error) {
	return l.dir.FindByName(name)
}

// Balance returns the current balance for name, zero if none. The read
// holds the account's lock, so it never observes the middle of a compound
// operation on that account.
func (l *Ledger) Balance(name string) decimal.Decimal {
	release := l.locks.acquire(name)
	defer release()
	return l.bal.Get(name)
}

// Balances returns the balances for names as one consistent snapshot: all
// the named accounts stay locked for the duration of the read, so a
// transfer between two of them is either fully reflected or not at all.
func (l *Ledger) Balances(names ...string) map[string]decimal.Decimal {
	release := l.locks.acquire(names...)
	defer release()

	out := make(map[string]decimal.Decimal, len(names))
	for _, n := range names {
		out[n] = l.bal.Get(n)
	}
	return out
}

// History returns name's transaction records in chronological order, read
// under the account's lock.
func (l *Ledger) History(name string) ([]model.TransactionRecord, error) {
	release := l.locks.acquire(name)
	defer release()
	return l.log.HistoryFor(name)
}

// HistoryWithTotals returns name's history annotated with the running
// cumulative-deposited and cumulative-withdrawn totals.
func (l *Ledger) HistoryWithTotals(name string) ([]txlog.HistoryEntry, error) {
	records, err := l.History(name)
	if err != nil {
		return nil, err
	}
	return txlog.RunningTotals(records), nil
}

// persist runs op, retrying a bounded number of times when it reports
// storage unavailable. Any other error kind reflects caller input and is
// returned as-is on the first try.
func (l *Ledger) persist(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, model.ErrStorageUnavailable) {
			return err
		}
		if attempt >= l.retryAttempts {
			return err
		}
		l.logger.Warn("storage unavailable, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryBackoff):
		}
	}
}

func validPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// validAmount reports whether amount is positive with at most 2 decimal
// places.
func validAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	cents := amount.Mul(decimal.NewFromInt(100))
	return cents.Equal(cents.Floor())
}
