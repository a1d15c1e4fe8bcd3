package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/passbook-dev/passbook/internal/model"
)

// Deposit credits amount to name's balance and appends a Deposit record.
// The balance write and the log append commit together: if the append
// fails, the balance write is rolled back before the error is returned.
func (l *Ledger) Deposit(ctx context.Context, name string, amount decimal.Decimal) (model.TransactionRecord, error) {
	if !validAmount(amount) {
		return model.TransactionRecord{}, fmt.Errorf("%w: deposit of %s", model.ErrInvalidAmount, amount)
	}
	if _, err := l.dir.FindByName(name); err != nil {
		return model.TransactionRecord{}, err
	}

	release := l.locks.acquire(name)
	defer release()

	prev := l.bal.Get(name)
	next := prev.Add(amount)

	if err := l.persist(ctx, func() error { return l.bal.Set(name, next) }); err != nil {
		return model.TransactionRecord{}, err
	}

	rec := model.TransactionRecord{
		ID:        uuid.New(),
		Name:      name,
		Kind:      model.KindDeposit,
		Amount:    amount,
		Balance:   next,
		Timestamp: l.now(),
	}
	if err := l.persist(ctx, func() error { return l.log.Append(rec) }); err != nil {
		l.rollbackBalance(ctx, name, prev)
		return model.TransactionRecord{}, err
	}

	l.logger.Info("deposit committed",
		zap.String("account", name),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", next.StringFixed(2)))
	return rec, nil
}

// Withdraw debits amount from name's balance and appends a Withdraw record,
// with the same commit-together discipline as Deposit.
func (l *Ledger) Withdraw(ctx context.Context, name string, amount decimal.Decimal) (model.TransactionRecord, error) {
	if !validAmount(amount) {
		return model.TransactionRecord{}, fmt.Errorf("%w: withdrawal of %s", model.ErrInvalidAmount, amount)
	}
	if _, err := l.dir.FindByName(name); err != nil {
		return model.TransactionRecord{}, err
	}

	release := l.locks.acquire(name)
	defer release()

	prev := l.bal.Get(name)
	if amount.GreaterThan(prev) {
		return model.TransactionRecord{}, fmt.Errorf("%w: balance %s, requested %s",
			model.ErrInsufficientFunds, prev.StringFixed(2), amount.StringFixed(2))
	}
	next := prev.Sub(amount)

	if err := l.persist(ctx, func() error { return l.bal.Set(name, next) }); err != nil {
		return model.TransactionRecord{}, err
	}

	rec := model.TransactionRecord{
		ID:        uuid.New(),
		Name:      name,
		Kind:      model.KindWithdraw,
		Amount:    amount,
		Balance:   next,
		Timestamp: l.now(),
	}
	if err := l.persist(ctx, func() error { return l.log.Append(rec) }); err != nil {
		l.rollbackBalance(ctx, name, prev)
		return model.TransactionRecord{}, err
	}

	l.logger.Info("withdrawal committed",
		zap.String("account", name),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", next.StringFixed(2)))
	return rec, nil
}

// Transfer moves amount from sender to recipient: both balances change and
// exactly one TransferOut and one TransferIn record are appended, or
// nothing happens at all. Both accounts are locked for the duration, in
// lexicographic order.
func (l *Ledger) Transfer(ctx context.Context, sender, recipient string, amount decimal.Decimal) (model.TransactionRecord, model.TransactionRecord, error) {
	var none model.TransactionRecord

	if strings.EqualFold(sender, recipient) {
		return none, none, model.ErrSelfTransfer
	}
	if _, err := l.dir.FindByName(sender); err != nil {
		return none, none, err
	}
	recip, err := l.dir.FindByName(recipient)
	if err != nil {
		return none, none, err
	}
	if !recip.Enabled() {
		return none, none, fmt.Errorf("%q: %w", recipient, model.ErrRecipientDisabled)
	}
	if !validAmount(amount) {
		return none, none, fmt.Errorf("%w: transfer of %s", model.ErrInvalidAmount, amount)
	}

	release := l.locks.acquire(sender, recipient)
	defer release()

	senderPrev := l.bal.Get(sender)
	if amount.GreaterThan(senderPrev) {
		return none, none, fmt.Errorf("%w: balance %s, requested %s",
			model.ErrInsufficientFunds, senderPrev.StringFixed(2), amount.StringFixed(2))
	}
	recipPrev := l.bal.Get(recipient)

	senderNext := senderPrev.Sub(amount)
	recipNext := recipPrev.Add(amount)

	// Both balances go down in one atomic rewrite so no reader (and no
	// crash) can see the debit without the credit.
	commit := map[string]decimal.Decimal{sender: senderNext, recipient: recipNext}
	if err := l.persist(ctx, func() error { return l.bal.SetAll(commit) }); err != nil {
		return none, none, err
	}

	ts := l.now()
	out := model.TransactionRecord{
		ID:           uuid.New(),
		Name:         sender,
		Kind:         model.KindTransferOut,
		Amount:       amount,
		Balance:      senderNext,
		Counterparty: recipient,
		Timestamp:    ts,
	}
	in := model.TransactionRecord{
		ID:           uuid.New(),
		Name:         recipient,
		Kind:         model.KindTransferIn,
		Amount:       amount,
		Balance:      recipNext,
		Counterparty: sender,
		Timestamp:    ts,
	}
	// Both records go down in a single append so the log never holds one
	// half of a transfer.
	if err := l.persist(ctx, func() error { return l.log.Append(out, in) }); err != nil {
		l.rollbackBalances(ctx, map[string]decimal.Decimal{
			sender:    senderPrev,
			recipient: recipPrev,
		})
		return none, none, err
	}

	l.logger.Info("transfer committed",
		zap.String("sender", sender),
		zap.String("recipient", recipient),
		zap.String("amount", amount.StringFixed(2)))
	return out, in, nil
}

// rollbackBalance restores a balance after a later step of a compound
// operation failed. A rollback that itself fails leaves the stores
// inconsistent, so it is logged at error level for operator attention.
func (l *Ledger) rollbackBalance(ctx context.Context, name string, prev decimal.Decimal) {
	if err := l.persist(ctx, func() error { return l.bal.Set(name, prev) }); err != nil {
		l.logger.Error("balance rollback failed",
			zap.String("account", name),
			zap.String("balance", prev.StringFixed(2)),
			zap.Error(err))
		return
	}
	l.logger.Warn("operation rolled back",
		zap.String("account", name),
		zap.String("balance", prev.StringFixed(2)))
}

// rollbackBalances restores several balances as one write, mirroring the
// single-write commit it undoes.
func (l *Ledger) rollbackBalances(ctx context.Context, prev map[string]decimal.Decimal) {
	if err := l.persist(ctx, func() error { return l.bal.SetAll(prev) }); err != nil {
		for name, v := range prev {
			l.logger.Error("balance rollback failed",
				zap.String("account", name),
				zap.String("balance", v.StringFixed(2)),
				zap.Error(err))
		}
		return
	}
	for name, v := range prev {
		l.logger.Warn("operation rolled back",
			zap.String("account", name),
			zap.String("balance", v.StringFixed(2)))
	}
}
