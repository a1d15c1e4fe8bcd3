// Package balances is the per-account balance store: one current-balance
// snapshot per account name.
package balances

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

// Store holds balances in memory and persists every mutation as a full
// atomic rewrite of balances.csv.
type Store struct {
	mu      sync.RWMutex
	path    string
	records []model.BalanceRecord
	byName  map[string]int
}

// Open loads balances.csv from path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, byName: make(map[string]int)}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", model.ErrStorageUnavailable, path, err)
	}
	defer f.Close()

	records, err := ReadBalances(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrStorageUnavailable, path, err)
	}

	s.records = records
	for i, b := range records {
		s.byName[b.Name] = i
	}
	return s, nil
}

// Get returns the balance for name, defaulting to zero if the name has no
// record. It never fails.
func (s *Store) Get(name string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.byName[name]; ok {
		return s.records[i].Balance
	}
	return decimal.Zero
}

// Set overwrites the balance for name and persists. A negative amount is
// rejected with model.ErrInvalidAmount: no operation may drive a stored
// balance below zero.
func (s *Store) Set(name string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: balance %s may not be negative", model.ErrInvalidAmount, amount.StringFixed(2))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byName[name]; ok {
		prev := s.records[i].Balance
		s.records[i].Balance = amount
		if err := s.save(); err != nil {
			s.records[i].Balance = prev
			return err
		}
		return nil
	}

	s.records = append(s.records, model.BalanceRecord{Name: name, Balance: amount})
	s.byName[name] = len(s.records) - 1
	if err := s.save(); err != nil {
		s.records = s.records[:len(s.records)-1]
		delete(s.byName, name)
		return err
	}
	return nil
}

// SetAll overwrites several balances as one persisted write: every entry
// commits in a single atomic rewrite, or none does. It is how the transfer
// moves both sides of the money in one step.
func (s *Store) SetAll(updates map[string]decimal.Decimal) error {
	for name, amount := range updates {
		if amount.IsNegative() {
			return fmt.Errorf("%w: balance %s for %q may not be negative",
				model.ErrInvalidAmount, amount.StringFixed(2), name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevRecords := make([]model.BalanceRecord, len(s.records))
	copy(prevRecords, s.records)
	prevByName := make(map[string]int, len(s.byName))
	for k, v := range s.byName {
		prevByName[k] = v
	}

	for name, amount := range updates {
		if i, ok := s.byName[name]; ok {
			s.records[i].Balance = amount
			continue
		}
		s.records = append(s.records, model.BalanceRecord{Name: name, Balance: amount})
		s.byName[name] = len(s.records) - 1
	}
	if err := s.save(); err != nil {
		s.records = prevRecords
		s.byName = prevByName
		return err
	}
	return nil
}

// Remove deletes the balance record for name and persists. Removing an
// absent name is a no-op; Remove exists only for the cascading delete.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byName[name]
	if !ok {
		return nil
	}

	removed := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.reindex()

	if err := s.save(); err != nil {
		s.records = append(s.records[:i], append([]model.BalanceRecord{removed}, s.records[i:]...)...)
		s.reindex()
		return err
	}
	return nil
}

// All returns every balance record in stored order.
func (s *Store) All() []model.BalanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BalanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) reindex() {
	s.byName = make(map[string]int, len(s.records))
	for i, b := range s.records {
		s.byName[b.Name] = i
	}
}

// save rewrites balances.csv atomically. Callers hold s.mu.
func (s *Store) save() error {
	var buf bytes.Buffer
	if err := WriteBalances(&buf, s.records); err != nil {
		return fmt.Errorf("%w: encoding balances: %v", model.ErrStorageUnavailable, err)
	}
	if err := fsio.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}
