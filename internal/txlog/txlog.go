// Package txlog is the append-only ordered history of monetary events.
package txlog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/passbook-dev/passbook/internal/fsio"
	"github.com/passbook-dev/passbook/internal/model"
)

// Log wraps transactions.csv. Appends never rewrite prior records; only the
// cascading account delete rewrites the file, preserving the relative order
// of everything it keeps. Reads re-scan the file from the start, so history
// is restartable and always reflects the latest committed state.
type Log struct {
	mu   sync.RWMutex
	path string
}

// Open returns a Log backed by the file at path. The file is created lazily
// on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Append adds records to the end of the history as one write. It fails only
// on an underlying I/O fault and never touches already-written records.
func (l *Log) Append(records ...model.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var buf bytes.Buffer
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		buf.WriteString(Header)
		buf.WriteByte('\n')
	}
	if err := AppendRecords(&buf, records); err != nil {
		return fmt.Errorf("%w: encoding records: %v", model.ErrStorageUnavailable, err)
	}
	if err := fsio.AppendFile(l.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

// All returns every record in original chronological order.
func (l *Log) All() ([]model.TransactionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read()
}

// HistoryFor returns the records whose subject is name, in original
// chronological order. Each call re-reads from the start.
func (l *Log) HistoryFor(name string) ([]model.TransactionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records, err := l.read()
	if err != nil {
		return nil, err
	}

	var out []model.TransactionRecord
	for _, r := range records {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

// RemoveAllFor rewrites the log omitting every record whose subject is
// name, preserving the relative order of the remainder. Used only by the
// cascading account delete.
func (l *Log) RemoveAllFor(name string) ([]model.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return nil, err
	}

	var kept, removed []model.TransactionRecord
	for _, r := range records {
		if r.Name == name {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if err := l.rewrite(kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// Restore appends previously removed records back onto the log. It exists
// so the coordinator can undo a partially applied cascading delete.
func (l *Log) Restore(records []model.TransactionRecord) error {
	return l.Append(records...)
}

func (l *Log) read() ([]model.TransactionRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", model.ErrStorageUnavailable, l.path, err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrStorageUnavailable, l.path, err)
	}
	return records, nil
}

func (l *Log) rewrite(records []model.TransactionRecord) error {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, records); err != nil {
		return fmt.Errorf("%w: encoding records: %v", model.ErrStorageUnavailable, err)
	}
	if err := fsio.WriteFileAtomic(l.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

// HistoryEntry pairs a transaction record with the running totals shown by
// the monitoring view. The totals are derived on read, never stored.
type HistoryEntry struct {
	Record         model.TransactionRecord
	TotalDeposited decimal.Decimal
	TotalWithdrawn decimal.Decimal
}

// RunningTotals computes cumulative deposited and withdrawn amounts over
// records, which must already be in chronological order. Transfers count
// toward neither total, matching the monitoring view they feed.
func RunningTotals(records []model.TransactionRecord) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(records))
	deposited := decimal.Zero
	withdrawn := decimal.Zero
	for _, r := range records {
		switch r.Kind {
		case model.KindDeposit:
			deposited = deposited.Add(r.Amount)
		case model.KindWithdraw:
			withdrawn = withdrawn.Add(r.Amount)
		}
		entries = append(entries, HistoryEntry{
			Record:         r,
			TotalDeposited: deposited,
			TotalWithdrawn: withdrawn,
		})
	}
	return entries
}
