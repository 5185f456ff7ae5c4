package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

// Lister is where the hub reads transactions from.
type Lister interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// ListerFunc adapts a plain function, such as a store method, to Lister.
type ListerFunc func(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)

func (f ListerFunc) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	return f(ctx, filter)
}

// Snapshot is the full transaction list as of one refresh, newest first.
type Snapshot struct {
	Transactions []*transaction.Transaction
	Pending      []*transaction.Transaction
	Seq          uint64
	At           time.Time
}

func newSnapshot(txs []*transaction.Transaction, seq uint64) Snapshot {
	pending := make([]*transaction.Transaction, 0, len(txs))

	for _, tx := range txs {
		if tx.Pending() {
			pending = append(pending, tx)
		}
	}

	return Snapshot{
		Transactions: txs,
		Pending:      pending,
		Seq:          seq,
		At:           time.Now(),
	}
}

// Hub pushes a fresh Snapshot to every subscriber after each change. Refreshes
// and deliveries happen one at a time, so subscribers see snapshots in the
// order the changes were reported and Seq only grows.
type Hub struct {
	source Lister
	limit  int

	// refresh is held while loading and delivering a snapshot.
	refresh sync.Mutex
	current *Snapshot
	seq     uint64

	mu     sync.Mutex
	subs   map[uint64]func(Snapshot)
	nextID uint64
}

// NewHub creates a hub reading from source. A positive limit caps the number
// of transactions per snapshot.
func NewHub(source Lister, limit int) *Hub {
	return &Hub{
		source: source,
		limit:  limit,
		subs:   make(map[uint64]func(Snapshot)),
	}
}

// Subscribe registers fn and immediately calls it with the current snapshot.
// fn is called from the hub's refresh path and must not block. The
// subscription ends when unsubscribe is called or ctx is done.
func (h *Hub) Subscribe(ctx context.Context, fn func(Snapshot)) (func(), error) {
	h.refresh.Lock()
	defer h.refresh.Unlock()

	if h.current == nil {
		if err := h.load(ctx); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	fn(*h.current)

	var once sync.Once

	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}

	context.AfterFunc(ctx, unsubscribe)

	return unsubscribe, nil
}

// TransactionsChanged reloads the snapshot and delivers it to all subscribers.
func (h *Hub) TransactionsChanged(ctx context.Context) error {
	h.refresh.Lock()
	defer h.refresh.Unlock()

	if err := h.load(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	fns := make([]func(Snapshot), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(*h.current)
	}

	return nil
}

// Current returns the latest snapshot, loading one if none exists yet.
func (h *Hub) Current(ctx context.Context) (Snapshot, error) {
	h.refresh.Lock()
	defer h.refresh.Unlock()

	if h.current == nil {
		if err := h.load(ctx); err != nil {
			return Snapshot{}, err
		}
	}

	return *h.current, nil
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

func (h *Hub) load(ctx context.Context) error {
	txs, err := h.source.List(ctx, transaction.ListFilter{Limit: h.limit})
	if err != nil {
		return fmt.Errorf("loading feed snapshot: %w", err)
	}

	h.seq++
	snap := newSnapshot(txs, h.seq)
	h.current = &snap

	return nil
}
