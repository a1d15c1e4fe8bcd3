package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/passbook-dev/passbook/internal/auditlog"
	"github.com/passbook-dev/passbook/internal/model"
)

// SetStatus enables or disables an account. Setting the status an account
// already has succeeds as a no-op. Balances and history are untouched.
func (l *Ledger) SetStatus(ctx context.Context, name string, status model.Status) error {
	release := l.locks.acquire(name)
	defer release()

	prev, err := l.dir.FindByName(name)
	if err != nil {
		return err
	}
	if err := l.persist(ctx, func() error { return l.dir.SetStatus(name, status) }); err != nil {
		return err
	}
	if prev.Status != status {
		l.audit(statusAction(status), name,
			fmt.Sprintf("status %s -> %s", prev.Status, status))
	}

	l.logger.Info("account status set",
		zap.String("account", name),
		zap.String("status", string(status)))
	return nil
}

// DeleteAccount removes the account, its balance record, and every
// transaction record whose subject is name. The three removals commit as
// one unit: a failure partway undoes the removals already applied.
func (l *Ledger) DeleteAccount(ctx context.Context, name string) error {
	release := l.locks.acquire(name)
	defer release()

	acct, err := l.dir.FindByName(name)
	if err != nil {
		return err
	}
	balance := l.bal.Get(name)

	if err := l.persist(ctx, func() error { return l.dir.Remove(name) }); err != nil {
		return err
	}

	if err := l.persist(ctx, func() error { return l.bal.Remove(name) }); err != nil {
		l.restoreAccount(ctx, acct)
		return err
	}

	var removed []model.TransactionRecord
	err = l.persist(ctx, func() error {
		var rerr error
		removed, rerr = l.log.RemoveAllFor(name)
		return rerr
	})
	if err != nil {
		l.restoreBalance(ctx, acct, balance)
		l.restoreAccount(ctx, acct)
		return err
	}

	l.audit("delete", name, fmt.Sprintf("removed %d transaction records", len(removed)))
	l.logger.Info("account deleted",
		zap.String("account", name),
		zap.Int("transactions_removed", len(removed)))
	return nil
}

func (l *Ledger) restoreAccount(ctx context.Context, acct model.Account) {
	if err := l.persist(ctx, func() error { return l.dir.Append(acct) }); err != nil {
		l.logger.Error("account restore failed",
			zap.String("account", acct.Name),
			zap.Error(err))
	}
}

func (l *Ledger) restoreBalance(ctx context.Context, acct model.Account, balance decimal.Decimal) {
	if balance.IsZero() {
		return
	}
	if err := l.persist(ctx, func() error { return l.bal.Set(acct.Name, balance) }); err != nil {
		l.logger.Error("balance restore failed",
			zap.String("account", acct.Name),
			zap.Error(err))
	}
}

// audit appends an administrative action to the audit trail. Audit is
// supplementary: a failure to record it is logged, not surfaced.
func (l *Ledger) audit(action, account, detail string) {
	entry := auditlog.Entry{
		Timestamp: l.now(),
		Actor:     l.actor,
		Action:    action,
		Account:   account,
		Detail:    detail,
	}
	if err := auditlog.Append(l.root, []auditlog.Entry{entry}); err != nil {
		l.logger.Warn("audit append failed",
			zap.String("action", action),
			zap.String("account", account),
			zap.Error(err))
	}
}

func statusAction(status model.Status) string {
	if status == model.StatusDisabled {
		return "disable"
	}
	return "enable"
}
