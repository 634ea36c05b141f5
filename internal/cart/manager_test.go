package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/config"
	pkgerrors "github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/kvstore"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if val, ok := s.values[key]; ok {
		return val, nil
	}
	return "", kvstore.ErrNotFound
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

func (s *memStore) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

type stubSyncClient struct {
	mu            sync.Mutex
	addCalls      int
	updateCalls   int
	removeCalls   int
	summaryCalls  int
	lastUpdateID  int64
	lastUpdateQty int
	mutationErr   error
	summary       *api.CartSummary
}

func (c *stubSyncClient) AddCartItem(ctx context.Context, token string, req api.AddCartItemRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addCalls++
	return c.mutationErr
}

func (c *stubSyncClient) UpdateCartItem(ctx context.Context, token string, productID int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls++
	c.lastUpdateID = productID
	c.lastUpdateQty = quantity
	return c.mutationErr
}

func (c *stubSyncClient) RemoveCartItem(ctx context.Context, token string, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeCalls++
	return c.mutationErr
}

func (c *stubSyncClient) CartSummary(ctx context.Context, token string) (*api.CartSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaryCalls++
	if c.summary != nil {
		return c.summary, nil
	}
	return &api.CartSummary{}, nil
}

func (c *stubSyncClient) counts() (add, update, remove, summary int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addCalls, c.updateCalls, c.removeCalls, c.summaryCalls
}

// failingSyncClient never completes a sequence, so local state is purely
// optimistic and assertions cannot race an authoritative overwrite.
func failingSyncClient() *stubSyncClient {
	return &stubSyncClient{mutationErr: pkgerrors.New(pkgerrors.CodeTransport, "backend unavailable")}
}

func fastCartConfig() config.CartConfig {
	return config.CartConfig{
		DebounceWindow: 40 * time.Millisecond,
		SettleDelay:    5 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, store kvstore.Store, client syncClient) *Manager {
	t.Helper()

	m, err := NewManager(context.Background(), ManagerParams{
		Store:     store,
		Client:    client,
		TokenFunc: func() string { return "test-token" },
		Config:    fastCartConfig(),
	})
	require.NoError(t, err)
	return m
}

func laptop() api.Product {
	return api.Product{ID: 1, Name: "Laptop HP Pavilion", UnitPrice: 84034, TotalPrice: 100000, Stock: 15, Active: true, CategoryName: "Tecnología"}
}

func phone() api.Product {
	return api.Product{ID: 2, Name: "iPhone 15 Pro", UnitPrice: 4033613, TotalPrice: 4800000, Stock: 8, Active: true, CategoryName: "Tecnología"}
}

func assertTotalsConsistent(t *testing.T, m *Manager) {
	t.Helper()

	items := m.Items().Get()
	wantItems := 0
	var wantPrice int64
	for _, item := range items {
		wantItems += item.Quantity
		wantPrice += int64(item.Quantity) * item.Product.TotalPrice
	}
	require.Equal(t, wantItems, m.TotalItems())
	require.Equal(t, wantPrice, m.TotalPrice())
}

func TestAddItemSumsQuantitiesIntoSingleLine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, newMemStore(), failingSyncClient())

	m.AddItem(ctx, laptop(), 1)
	m.AddItem(ctx, laptop(), 2)
	m.AddItem(ctx, laptop(), 3)

	items := m.Items().Get()
	require.Len(t, items, 1)
	require.Equal(t, 6, items[0].Quantity)
	assertTotalsConsistent(t, m)
}

func TestAddRemoveScenarioTotals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, newMemStore(), failingSyncClient())

	m.AddItem(ctx, laptop(), 1)
	require.Equal(t, 1, m.TotalItems())
	require.Equal(t, int64(100000), m.TotalPrice())

	m.AddItem(ctx, laptop(), 2)
	require.Equal(t, 3, m.TotalItems())
	require.Equal(t, int64(300000), m.TotalPrice())

	m.RemoveItem(ctx, 1)
	require.Equal(t, 0, m.TotalItems())
	require.Equal(t, int64(0), m.TotalPrice())
	assertTotalsConsistent(t, m)
}

func TestUpdateQuantityZeroOrNegativeRemoves(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, newMemStore(), failingSyncClient())

	m.AddItem(ctx, laptop(), 2)
	m.UpdateQuantity(ctx, laptop().ID, 0)
	require.Empty(t, m.Items().Get())

	m.AddItem(ctx, laptop(), 2)
	m.UpdateQuantity(ctx, laptop().ID, -1)
	require.Empty(t, m.Items().Get())
}

func TestRemoveAbsentItemIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &stubSyncClient{}
	m := newTestManager(t, newMemStore(), client)

	m.RemoveItem(ctx, 99)
	require.Empty(t, m.Items().Get())

	time.Sleep(50 * time.Millisecond)
	_, _, removeCalls, _ := client.counts()
	require.Zero(t, removeCalls, "absent removal must not reach the backend")
}

func TestQuantityBurstCoalescesToOneSync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &stubSyncClient{
		summary: &api.CartSummary{
			Items:      []api.CartLine{{CartItemID: 1, Product: laptop(), Quantity: 1}},
			TotalItems: 1,
			TotalPrice: 100000,
		},
	}
	m := newTestManager(t, newMemStore(), client)

	m.AddItem(ctx, laptop(), 1)
	require.Eventually(t, func() bool {
		add, _, _, summary := client.counts()
		return add == 1 && summary == 1
	}, time.Second, 5*time.Millisecond, "add sequence should complete first")

	for qty := 2; qty <= 6; qty++ {
		m.UpdateQuantity(ctx, laptop().ID, qty)
	}

	// Local state reflects the last edit immediately.
	require.Equal(t, 6, m.Items().Get()[0].Quantity)

	require.Eventually(t, func() bool {
		_, update, _, _ := client.counts()
		return update == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	_, update, _, _ := client.counts()
	require.Equal(t, 1, update, "burst must coalesce into one remote update")

	client.mu.Lock()
	lastID, lastQty := client.lastUpdateID, client.lastUpdateQty
	client.mu.Unlock()
	require.Equal(t, laptop().ID, lastID)
	require.Equal(t, 6, lastQty)
}

func TestDebounceSlotIsGlobalAcrossProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &stubSyncClient{
		summary: &api.CartSummary{
			Items: []api.CartLine{
				{CartItemID: 1, Product: laptop(), Quantity: 1},
				{CartItemID: 2, Product: phone(), Quantity: 1},
			},
			TotalItems: 2,
			TotalPrice: 4900000,
		},
	}
	m := newTestManager(t, newMemStore(), client)

	m.AddItem(ctx, laptop(), 1)
	m.AddItem(ctx, phone(), 1)
	require.Eventually(t, func() bool {
		add, _, _, _ := client.counts()
		return add == 2
	}, time.Second, 5*time.Millisecond)

	m.UpdateQuantity(ctx, laptop().ID, 4)
	m.UpdateQuantity(ctx, phone().ID, 7)

	require.Eventually(t, func() bool {
		_, update, _, _ := client.counts()
		return update == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	_, update, _, _ := client.counts()
	require.Equal(t, 1, update, "only the most recent pending update survives")

	client.mu.Lock()
	lastID := client.lastUpdateID
	client.mu.Unlock()
	require.Equal(t, phone().ID, lastID)
}

func TestRemovalDiscardsPendingQuantitySync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &stubSyncClient{
		summary: &api.CartSummary{
			Items:      []api.CartLine{{CartItemID: 1, Product: laptop(), Quantity: 1}},
			TotalItems: 1,
			TotalPrice: 100000,
		},
	}
	m := newTestManager(t, newMemStore(), client)

	m.AddItem(ctx, laptop(), 1)
	require.Eventually(t, func() bool {
		add, _, _, summary := client.counts()
		return add == 1 && summary == 1
	}, time.Second, 5*time.Millisecond)

	m.UpdateQuantity(ctx, laptop().ID, 5)
	m.UpdateQuantity(ctx, laptop().ID, 0)

	require.Eventually(t, func() bool {
		_, _, remove, _ := client.counts()
		return remove == 1
	}, time.Second, 5*time.Millisecond)

	// Let the debounce window elapse: the superseded qty=5 edit must
	// not reach the backend after the removal.
	time.Sleep(150 * time.Millisecond)
	_, update, _, _ := client.counts()
	require.Zero(t, update, "superseded pending quantity update must be discarded")
}

func TestClearCartDiscardsPendingQuantitySync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &stubSyncClient{
		summary: &api.CartSummary{
			Items:      []api.CartLine{{CartItemID: 1, Product: laptop(), Quantity: 1}},
			TotalItems: 1,
			TotalPrice: 100000,
		},
	}
	m := newTestManager(t, newMemStore(), client)

	m.AddItem(ctx, laptop(), 1)
	require.Eventually(t, func() bool {
		add, _, _, summary := client.counts()
		return add == 1 && summary == 1
	}, time.Second, 5*time.Millisecond)

	m.UpdateQuantity(ctx, laptop().ID, 3)
	m.ClearCart(ctx)
	require.Empty(t, m.Items().Get())

	time.Sleep(150 * time.Millisecond)
	_, update, _, _ := client.counts()
	require.Zero(t, update, "clearing the cart must drop the pending quantity update")
}

func TestSummaryOverwritesLocalState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &stubSyncClient{
		summary: &api.CartSummary{
			Items: []api.CartLine{
				{CartItemID: 501, Product: laptop(), Quantity: 5},
			},
			TotalItems: 5,
			TotalPrice: 500000,
		},
	}
	m := newTestManager(t, newMemStore(), client)

	m.AddItem(ctx, laptop(), 1)

	require.Eventually(t, func() bool {
		items := m.Items().Get()
		return len(items) == 1 && items[0].ItemID == 501 && items[0].Quantity == 5
	}, time.Second, 5*time.Millisecond, "authoritative summary should replace local state")
	assertTotalsConsistent(t, m)
}

func TestSyncFailureKeepsOptimisticState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, newMemStore(), failingSyncClient())

	m.AddItem(ctx, laptop(), 2)

	select {
	case err := <-m.Errors():
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransport))
	case <-time.After(time.Second):
		t.Fatal("expected a surfaced sync error")
	}

	items := m.Items().Get()
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity, "optimistic state must not roll back")
}

func TestClearCartRemovesSnapshotAndSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	m := newTestManager(t, store, failingSyncClient())

	m.AddItem(ctx, laptop(), 3)
	require.True(t, store.has(kvstore.KeyCartItems))

	m.ClearCart(ctx)
	require.Empty(t, m.Items().Get())
	require.False(t, store.has(kvstore.KeyCartItems))

	restarted := newTestManager(t, store, failingSyncClient())
	require.Empty(t, restarted.Items().Get())
}

func TestRestoreFromSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	m := newTestManager(t, store, failingSyncClient())
	m.AddItem(ctx, laptop(), 2)
	m.AddItem(ctx, phone(), 1)

	restarted := newTestManager(t, store, failingSyncClient())
	items := restarted.Items().Get()
	require.Len(t, items, 2)
	require.Equal(t, 3, restarted.TotalItems())
}

func TestCorruptSnapshotRecoversToEmptyCart(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(kvstore.KeyCartItems, "{definitely not json")

	m := newTestManager(t, store, failingSyncClient())
	require.Empty(t, m.Items().Get())
	require.False(t, store.has(kvstore.KeyCartItems), "corrupt snapshot should be cleared")
}

func TestItemsObservableNotifies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, newMemStore(), failingSyncClient())

	var mu sync.Mutex
	var notified int
	cancel := m.Items().Subscribe(func(items []Item) {
		mu.Lock()
		notified++
		mu.Unlock()
	})
	defer cancel()

	m.AddItem(ctx, laptop(), 1)
	m.UpdateQuantity(ctx, laptop().ID, 2)
	m.ClearCart(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, notified, 3)
}
