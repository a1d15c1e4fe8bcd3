package ledger

import (
	"sort"
	"sync"
)

// namedLocks serializes mutations per account. Locks for multiple accounts
// are always taken in lexicographic name order, regardless of the order the
// caller supplied, so opposite-direction transfers cannot deadlock.
type namedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNamedLocks() *namedLocks {
	return &namedLocks{locks: make(map[string]*sync.Mutex)}
}

func (n *namedLocks) get(name string) *sync.Mutex {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.locks[name]
	if !ok {
		l = &sync.Mutex{}
		n.locks[name] = l
	}
	return l
}

// acquire locks every named account and returns a release function. Names
// are deduplicated and sorted before locking; release unlocks in reverse.
func (n *namedLocks) acquire(names ...string) func() {
	uniq := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			uniq = append(uniq, name)
		}
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, name := range uniq {
		l := n.get(name)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
