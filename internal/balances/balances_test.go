package balances

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbook-dev/passbook/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGet_DefaultsToZero(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "balances.csv"))
	require.NoError(t, err)
	assert.True(t, s.Get("Alice").IsZero())
}

func TestSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.csv")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set("Alice", dec("500.00")))
	require.NoError(t, s.Set("Bob", dec("0.00")))
	require.NoError(t, s.Set("Alice", dec("300.00")))

	assert.True(t, s.Get("Alice").Equal(dec("300.00")))

	// Reopen: latest committed state is what readers see.
	s2, err := Open(path)
	require.NoError(t, err)
	assert.True(t, s2.Get("Alice").Equal(dec("300.00")))
	assert.True(t, s2.Get("Bob").IsZero())
}

func TestSetAll_CommitsAsOneWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.csv")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("Alice", dec("100.00")))

	require.NoError(t, s.SetAll(map[string]decimal.Decimal{
		"Alice": dec("60.00"),
		"Bob":   dec("40.00"),
	}))
	assert.True(t, s.Get("Alice").Equal(dec("60.00")))
	assert.True(t, s.Get("Bob").Equal(dec("40.00")))

	s2, err := Open(path)
	require.NoError(t, err)
	assert.True(t, s2.Get("Alice").Equal(dec("60.00")))
	assert.True(t, s2.Get("Bob").Equal(dec("40.00")))
}

func TestSetAll_RejectsNegativeWithoutMutating(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "balances.csv"))
	require.NoError(t, err)
	require.NoError(t, s.Set("Alice", dec("100.00")))

	err = s.SetAll(map[string]decimal.Decimal{
		"Alice": dec("50.00"),
		"Bob":   dec("-0.01"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidAmount))
	assert.True(t, s.Get("Alice").Equal(dec("100.00")))
	assert.True(t, s.Get("Bob").IsZero())
}

func TestSetAll_RevertsAllEntriesWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balances.csv")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("Alice", dec("100.00")))

	// Make the rewrite fail by replacing the file with a directory.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	err = s.SetAll(map[string]decimal.Decimal{
		"Alice": dec("60.00"),
		"Bob":   dec("40.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrStorageUnavailable))

	// Neither entry stuck.
	assert.True(t, s.Get("Alice").Equal(dec("100.00")))
	assert.True(t, s.Get("Bob").IsZero())
}

func TestSet_RejectsNegative(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "balances.csv"))
	require.NoError(t, err)

	err = s.Set("Alice", dec("-0.01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidAmount))
	assert.True(t, s.Get("Alice").IsZero())
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.csv")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("Alice", dec("10.00")))

	require.NoError(t, s.Remove("Alice"))
	assert.True(t, s.Get("Alice").IsZero())

	// Removing an absent name is a no-op.
	require.NoError(t, s.Remove("Alice"))

	s2, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, s2.All())
}

func TestTwoDecimalFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.csv")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("Alice", dec("1234.5")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice,1234.50")
}

func TestOpen_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.csv")
	data := "name,balance\nAlice,500.00\nnot a balance row\nBob,abc\nCarol,12.25\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, s.All(), 2)
	assert.True(t, s.Get("Alice").Equal(dec("500.00")))
	assert.True(t, s.Get("Carol").Equal(dec("12.25")))
}
