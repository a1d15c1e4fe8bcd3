package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	root := t.TempDir()

	first := Entry{
		Timestamp: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Actor:     "admin",
		Action:    "disable",
		Account:   "Alice",
		Detail:    "status Enabled -> Disabled",
	}
	require.NoError(t, Append(root, []Entry{first}))

	second := Entry{
		Timestamp: time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC),
		Actor:     "admin",
		Action:    "delete",
		Account:   "Bob",
	}
	require.NoError(t, Append(root, []Entry{second}))

	entries, err := Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "disable", entries[0].Action)
	assert.Equal(t, "Alice", entries[0].Account)
	assert.True(t, entries[0].Timestamp.Equal(first.Timestamp))
	assert.Equal(t, "delete", entries[1].Action)
}

func TestRead_MissingFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRead_SkipsMalformedRows(t *testing.T) {
	root := t.TempDir()

	first := Entry{
		Timestamp: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Actor:     "admin",
		Action:    "disable",
		Account:   "Alice",
	}
	require.NoError(t, Append(root, []Entry{first}))

	// Damage the file mid-stream, then keep appending.
	f, err := os.OpenFile(filepath.Join(root, "logs", "audit-log.csv"),
		os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not,an,entry\nbad-timestamp,admin,enable,Bob,\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	second := Entry{
		Timestamp: time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC),
		Actor:     "admin",
		Action:    "delete",
		Account:   "Carol",
	}
	require.NoError(t, Append(root, []Entry{second}))

	// One damaged row does not hide the rest of the trail.
	entries, err := Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alice", entries[0].Account)
	assert.Equal(t, "Carol", entries[1].Account)
}
