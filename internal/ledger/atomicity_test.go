package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbook-dev/passbook/internal/balances"
	"github.com/passbook-dev/passbook/internal/model"
)

// blockTransactionLog makes every append to transactions.csv fail by
// putting a directory where the file should be.
func blockTransactionLog(t *testing.T, root string) {
	t.Helper()
	path := filepath.Join(root, TransactionsFile)
	if _, err := os.Stat(path); err == nil {
		require.NoError(t, os.Remove(path))
	}
	require.NoError(t, os.Mkdir(path, 0o755))
}

func fastRetryLedger(t *testing.T, root string) *Ledger {
	t.Helper()
	l, err := Open(Params{
		Root:          root,
		RetryAttempts: 1,
		RetryBackoff:  time.Millisecond,
	})
	require.NoError(t, err)
	return l
}

func TestDeposit_RollsBackBalanceWhenLogAppendFails(t *testing.T) {
	root := t.TempDir()
	l := fastRetryLedger(t, root)
	register(t, l, "Alice")
	ctx := context.Background()

	blockTransactionLog(t, root)

	_, err := l.Deposit(ctx, "Alice", dec("100.00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrStorageUnavailable))

	// The balance write was undone: no partial application.
	assert.True(t, l.Balance("Alice").IsZero())

	// Disk agrees after reopening.
	require.NoError(t, os.Remove(filepath.Join(root, TransactionsFile)))
	l2 := fastRetryLedger(t, root)
	assert.True(t, l2.Balance("Alice").IsZero())
}

func TestTransfer_RollsBackBothBalancesWhenLogAppendFails(t *testing.T) {
	root := t.TempDir()
	l := fastRetryLedger(t, root)
	register(t, l, "Alice")
	register(t, l, "Bob")
	ctx := context.Background()

	_, err := l.Deposit(ctx, "Alice", dec("500.00"))
	require.NoError(t, err)

	blockTransactionLog(t, root)

	_, _, err = l.Transfer(ctx, "Alice", "Bob", dec("200.00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrStorageUnavailable))

	// Neither side moved.
	assert.True(t, l.Balance("Alice").Equal(dec("500.00")))
	assert.True(t, l.Balance("Bob").IsZero())
}

func TestConcurrentDeposits_SerializePerAccount(t *testing.T) {
	l := openTestLedger(t)
	register(t, l, "Alice")
	ctx := context.Background()

	const workers = 8
	const each = 5

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_, err := l.Deposit(ctx, "Alice", dec("1.00"))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	want := fmt.Sprintf("%d.00", workers*each)
	assert.True(t, l.Balance("Alice").Equal(dec(want)),
		"got %s, want %s", l.Balance("Alice"), want)

	hist, err := l.History("Alice")
	require.NoError(t, err)
	assert.Len(t, hist, workers*each)

	// Every record's resulting balance is consistent with its position.
	for i, r := range hist {
		assert.True(t, r.Balance.Equal(dec(fmt.Sprintf("%d.00", i+1))),
			"record %d has balance %s", i, r.Balance)
	}
}

func TestConcurrentOppositeTransfers_NoDeadlock(t *testing.T) {
	l := openTestLedger(t)
	register(t, l, "Alice")
	register(t, l, "Bob")
	ctx := context.Background()

	_, err := l.Deposit(ctx, "Alice", dec("100.00"))
	require.NoError(t, err)
	_, err = l.Deposit(ctx, "Bob", dec("100.00"))
	require.NoError(t, err)

	const rounds = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, _, err := l.Transfer(ctx, "Alice", "Bob", dec("1.00"))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, _, err := l.Transfer(ctx, "Bob", "Alice", dec("1.00"))
			assert.NoError(t, err)
		}
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	// Money is conserved.
	total := l.Balance("Alice").Add(l.Balance("Bob"))
	assert.True(t, total.Equal(dec("200.00")), "total %s", total)
}

func TestConcurrentTransfers_ReadersSeeConservedTotal(t *testing.T) {
	l := openTestLedger(t)
	register(t, l, "Alice")
	register(t, l, "Bob")
	ctx := context.Background()

	_, err := l.Deposit(ctx, "Alice", dec("100.00"))
	require.NoError(t, err)
	_, err = l.Deposit(ctx, "Bob", dec("100.00"))
	require.NoError(t, err)

	// A reader sampling both balances must never catch a transfer with the
	// sender debited and the recipient not yet credited.
	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			b := l.Balances("Alice", "Bob")
			total := b["Alice"].Add(b["Bob"])
			assert.True(t, total.Equal(dec("200.00")),
				"reader observed total %s mid-transfer", total)
		}
	}()

	const rounds = 15
	var writers sync.WaitGroup
	writers.Add(2)
	go func() {
		defer writers.Done()
		for i := 0; i < rounds; i++ {
			_, _, err := l.Transfer(ctx, "Alice", "Bob", dec("1.00"))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer writers.Done()
		for i := 0; i < rounds; i++ {
			_, _, err := l.Transfer(ctx, "Bob", "Alice", dec("1.00"))
			assert.NoError(t, err)
		}
	}()
	writers.Wait()
	close(stop)
	readers.Wait()
}

func TestOpen_ReconcilesBalancesAgainstLog(t *testing.T) {
	root := t.TempDir()
	l := fastRetryLedger(t, root)
	register(t, l, "Alice")
	register(t, l, "Bob")
	ctx := context.Background()

	_, err := l.Deposit(ctx, "Alice", dec("100.00"))
	require.NoError(t, err)

	// Simulate a crash after a transfer's balance writes landed but before
	// its records reached the log.
	bal, err := balances.Open(filepath.Join(root, BalancesFile))
	require.NoError(t, err)
	require.NoError(t, bal.SetAll(map[string]decimal.Decimal{
		"Alice": dec("60.00"),
		"Bob":   dec("40.00"),
	}))

	// The log is authoritative: reopening resets both balances to the last
	// logged state.
	l2 := fastRetryLedger(t, root)
	assert.True(t, l2.Balance("Alice").Equal(dec("100.00")), "Alice %s", l2.Balance("Alice"))
	assert.True(t, l2.Balance("Bob").IsZero(), "Bob %s", l2.Balance("Bob"))
}
