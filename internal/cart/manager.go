package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/config"
	"github.com/jfcardenas/storefront-core/pkg/debounce"
	"github.com/jfcardenas/storefront-core/pkg/kvstore"
	"github.com/jfcardenas/storefront-core/pkg/logger"
	"github.com/jfcardenas/storefront-core/pkg/state"
)

const syncErrorBuffer = 8

type syncClient interface {
	AddCartItem(ctx context.Context, token string, req api.AddCartItemRequest) error
	UpdateCartItem(ctx context.Context, token string, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, token string, productID int64) error
	CartSummary(ctx context.Context, token string) (*api.CartSummary, error)
}

// Manager holds the authoritative local cart state. Mutations apply
// immediately and atomically; each one persists a snapshot and starts a
// remote synchronization sequence. Quantity edits share a single global
// debounce slot so spinner bursts reach the backend once.
type Manager struct {
	store  kvstore.Store
	client syncClient
	logg   *logger.Logger
	token  func() string

	settle    time.Duration
	coalescer *debounce.Coalescer

	items *state.Value[[]Item]
	errs  chan error
}

// ManagerParams bundles the dependencies required to build a cart manager.
type ManagerParams struct {
	Store     kvstore.Store
	Client    syncClient
	Logger    *logger.Logger
	TokenFunc func() string
	Config    config.CartConfig
}

// NewManager constructs the manager and restores the persisted cart snapshot.
// Invalid persisted text recovers to an empty cart without error.
func NewManager(ctx context.Context, params ManagerParams) (*Manager, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if params.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if params.TokenFunc == nil {
		return nil, fmt.Errorf("token source is required")
	}
	window := params.Config.DebounceWindow
	if window <= 0 {
		window = 800 * time.Millisecond
	}
	settle := params.Config.SettleDelay
	if settle <= 0 {
		settle = time.Second
	}

	m := &Manager{
		store:     params.Store,
		client:    params.Client,
		logg:      params.Logger,
		token:     params.TokenFunc,
		settle:    settle,
		coalescer: debounce.New(window),
		items:     state.NewValue([]Item{}),
		errs:      make(chan error, syncErrorBuffer),
	}
	m.restore(ctx)
	return m, nil
}

// AddItem merges the product into the cart (summing quantities for an
// existing line) as one atomic transition, persists the snapshot, and starts
// a synchronization sequence.
func (m *Manager) AddItem(ctx context.Context, product api.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	m.items.Update(func(current []Item) []Item {
		next := make([]Item, len(current))
		copy(next, current)
		for i := range next {
			if next[i].Product.ID == product.ID {
				next[i].Quantity += quantity
				return next
			}
		}
		return append(next, Item{Product: product, Quantity: quantity})
	})
	m.persist(ctx)

	m.startSync(func(ctx context.Context) error {
		return m.client.AddCartItem(ctx, m.token(), api.AddCartItemRequest{
			ProductID: product.ID,
			Quantity:  quantity,
		})
	})
}

// RemoveItem drops the matching line. Absent product IDs are a no-op.
func (m *Manager) RemoveItem(ctx context.Context, productID int64) {
	removed := false
	m.items.Update(func(current []Item) []Item {
		next := make([]Item, 0, len(current))
		for _, item := range current {
			if item.Product.ID == productID {
				removed = true
				continue
			}
			next = append(next, item)
		}
		return next
	})
	if !removed {
		return
	}
	// A removal supersedes any quantity edit still waiting in the slot.
	m.coalescer.Stop()
	m.persist(ctx)

	m.startSync(func(ctx context.Context) error {
		return m.client.RemoveCartItem(ctx, m.token(), productID)
	})
}

// UpdateQuantity replaces a line quantity. Zero or negative behaves as
// RemoveItem. The local mutation is immediate; the remote synchronization is
// coalesced through the shared debounce slot, last call wins.
func (m *Manager) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	if quantity <= 0 {
		m.RemoveItem(ctx, productID)
		return
	}

	found := false
	m.items.Update(func(current []Item) []Item {
		next := make([]Item, len(current))
		copy(next, current)
		for i := range next {
			if next[i].Product.ID == productID {
				next[i].Quantity = quantity
				found = true
			}
		}
		return next
	})
	if !found {
		return
	}
	m.persist(ctx)

	m.coalescer.Trigger(func() {
		m.runSync(func(ctx context.Context) error {
			return m.client.UpdateCartItem(ctx, m.token(), productID, quantity)
		})
	})
}

// ClearCart empties the cart and removes the persisted snapshot. No remote
// call is made.
func (m *Manager) ClearCart(ctx context.Context) {
	m.coalescer.Stop()
	m.items.Set([]Item{})
	if err := m.store.Delete(ctx, kvstore.KeyCartItems); err != nil {
		m.logError(ctx, "removing cart snapshot failed", err)
	}
}

// Items exposes the observable item sequence for read-only binding.
func (m *Manager) Items() *state.Value[[]Item] {
	return m.items
}

// TotalItems recomputes the quantity sum from the item sequence.
func (m *Manager) TotalItems() int {
	return totalItems(m.items.Get())
}

// TotalPrice recomputes the cart total from the item sequence.
func (m *Manager) TotalPrice() int64 {
	return totalPrice(m.items.Get())
}

// Errors delivers synchronization failures for user-facing notification.
// Failed sequences keep the optimistic local state; nothing is retried.
func (m *Manager) Errors() <-chan error {
	return m.errs
}

// startSync launches the remote sequence immediately (add/remove path).
func (m *Manager) startSync(mutate func(context.Context) error) {
	go m.runSync(mutate)
}

// runSync is the synchronization sequence: mutate, wait for the backend to
// settle its recomputation, then overwrite local state with the authoritative
// summary. Sequences carry no cancellation: a logout or clear while one is in
// flight does not abort it, and a late resolution can overwrite newer local
// state. That window is inherited storefront behavior, not guarded here.
func (m *Manager) runSync(mutate func(context.Context) error) {
	ctx := context.Background()

	if err := mutate(ctx); err != nil {
		m.report(ctx, err)
		return
	}

	time.Sleep(m.settle)

	summary, err := m.client.CartSummary(ctx, m.token())
	if err != nil {
		m.report(ctx, err)
		return
	}
	m.applySummary(ctx, summary)
}

func (m *Manager) applySummary(ctx context.Context, summary *api.CartSummary) {
	next := make([]Item, 0, len(summary.Items))
	for _, line := range summary.Items {
		next = append(next, Item{
			ItemID:   line.CartItemID,
			Product:  line.Product,
			Quantity: line.Quantity,
		})
	}
	m.items.Set(next)
	m.persist(ctx)
}

func (m *Manager) restore(ctx context.Context) {
	var items []Item
	err := kvstore.GetJSON(ctx, m.store, kvstore.KeyCartItems, &items)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			m.logError(ctx, "reading cart snapshot failed, starting empty", err)
		}
		return
	}
	m.items.Set(items)
}

func (m *Manager) persist(ctx context.Context) {
	if err := kvstore.SetJSON(ctx, m.store, kvstore.KeyCartItems, m.items.Get()); err != nil {
		m.logError(ctx, "persisting cart snapshot failed", err)
	}
}

func (m *Manager) report(ctx context.Context, err error) {
	m.logError(ctx, "cart synchronization failed, keeping local state", err)
	select {
	case m.errs <- err:
	default:
	}
}

func (m *Manager) logError(ctx context.Context, msg string, err error) {
	if m.logg == nil {
		return
	}
	m.logg.Error(ctx, msg, err)
}
