// Package directory is the authoritative set of registered accounts:
// identity, credential, and administrative status.
package directory

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/passbook-dev/passbook/internal/fsio"
	"github.com/passbook-dev/passbook/internal/model"
)

// Directory holds the registered accounts in memory and persists every
// mutation as a full atomic rewrite of accounts.csv. It is the single
// source of truth for account records; callers must not cache them.
type Directory struct {
	mu       sync.RWMutex
	path     string
	accounts []model.Account
	byName   map[string]int // index into accounts
}

// Open loads accounts.csv from path. A missing file is an empty directory.
func Open(path string) (*Directory, error) {
	d := &Directory{path: path, byName: make(map[string]int)}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", model.ErrStorageUnavailable, path, err)
	}
	defer f.Close()

	accounts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrStorageUnavailable, path, err)
	}

	d.accounts = accounts
	for i, a := range accounts {
		d.byName[a.Name] = i
	}
	return d, nil
}

// All returns every account in stored order.
func (d *Directory) All() []model.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Account, len(d.accounts))
	copy(out, d.accounts)
	return out
}

// FindByName returns the account registered under name.
func (d *Directory) FindByName(name string) (model.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.byName[name]
	if !ok {
		return model.Account{}, fmt.Errorf("%q: %w", name, model.ErrAccountNotFound)
	}
	return d.accounts[i], nil
}

// IDs returns the set of allocated account identifiers.
func (d *Directory) IDs() map[string]struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make(map[string]struct{}, len(d.accounts))
	for _, a := range d.accounts {
		ids[a.ID] = struct{}{}
	}
	return ids
}

// Append adds a new account and persists. The name must not already be
// registered.
func (d *Directory) Append(acct model.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[acct.Name]; ok {
		return model.ValidationError{Field: "name", Reason: fmt.Sprintf("%q is already registered", acct.Name)}
	}

	d.accounts = append(d.accounts, acct)
	d.byName[acct.Name] = len(d.accounts) - 1

	if err := d.save(); err != nil {
		d.accounts = d.accounts[:len(d.accounts)-1]
		delete(d.byName, acct.Name)
		return err
	}
	return nil
}

// SetStatus updates an account's status and persists. Setting the status an
// account already has is a no-op, not an error.
func (d *Directory) SetStatus(name string, status model.Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, model.ErrAccountNotFound)
	}
	if d.accounts[i].Status == status {
		return nil
	}

	prev := d.accounts[i].Status
	d.accounts[i].Status = status
	if err := d.save(); err != nil {
		d.accounts[i].Status = prev
		return err
	}
	return nil
}

// Remove deletes the account registered under name and persists.
func (d *Directory) Remove(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, model.ErrAccountNotFound)
	}

	removed := d.accounts[i]
	d.accounts = append(d.accounts[:i], d.accounts[i+1:]...)
	d.reindex()

	if err := d.save(); err != nil {
		d.accounts = append(d.accounts[:i], append([]model.Account{removed}, d.accounts[i:]...)...)
		d.reindex()
		return err
	}
	return nil
}

func (d *Directory) reindex() {
	d.byName = make(map[string]int, len(d.accounts))
	for i, a := range d.accounts {
		d.byName[a.Name] = i
	}
}

// save rewrites accounts.csv atomically. Callers hold d.mu.
func (d *Directory) save() error {
	var buf bytes.Buffer
	if err := WriteAccounts(&buf, d.accounts); err != nil {
		return fmt.Errorf("%w: encoding accounts: %v", model.ErrStorageUnavailable, err)
	}
	if err := fsio.WriteFileAtomic(d.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}
