package localsync

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDebounceAndOwnOrigin(t *testing.T) {
	bus := NewMemoryBus()
	a := NewSync(30*time.Millisecond, bus)
	b := NewSync(30*time.Millisecond, bus)
	defer a.Close()
	defer b.Close()

	var gotA, gotB atomic.Int32
	a.OnRemote(func(Signal) { gotA.Add(1) })
	b.OnRemote(func(Signal) { gotB.Add(1) })

	for i := 0; i < 5; i++ {
		a.Emit()
	}
	require.Eventually(t, func() bool { return gotB.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), gotB.Load())
	assert.Zero(t, gotA.Load(), "свой сигнал не возвращается")
}

func TestSyncDropsDuplicates(t *testing.T) {
	bus := NewMemoryBus()
	s := NewSync(time.Millisecond, bus)
	defer s.Close()
	var got atomic.Int32
	s.OnRemote(func(Signal) { got.Add(1) })

	sig := Signal{Origin: "other", Seq: 3, At: time.Now()}
	require.NoError(t, bus.Publish(context.Background(), sig))
	require.NoError(t, bus.Publish(context.Background(), sig))
	require.NoError(t, bus.Publish(context.Background(), Signal{Origin: "other", Seq: 2}))
	assert.Equal(t, int32(1), got.Load())

	require.NoError(t, bus.Publish(context.Background(), Signal{Origin: "other", Seq: 4}))
	assert.Equal(t, int32(2), got.Load())
}

func TestFileBusDeliversAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json.signal")
	busA, err := NewFileBus(path)
	require.NoError(t, err)
	busB, err := NewFileBus(path)
	require.NoError(t, err)

	a := NewSync(10*time.Millisecond, busA)
	b := NewSync(10*time.Millisecond, busB)
	defer a.Close()
	defer b.Close()

	var got atomic.Int32
	b.OnRemote(func(sig Signal) {
		if sig.Origin == a.Origin() {
			got.Add(1)
		}
	})
	a.Emit()
	require.Eventually(t, func() bool { return got.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPollingBus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json.signal")
	writer := NewPollingBus(path, 10*time.Millisecond)
	reader := NewPollingBus(path, 10*time.Millisecond)
	defer writer.Close()
	defer reader.Close()

	got := make(chan Signal, 4)
	reader.Subscribe(func(sig Signal) { got <- sig })

	require.NoError(t, writer.Publish(context.Background(), Signal{Origin: "tab-1", Seq: 1}))
	select {
	case sig := <-got:
		assert.Equal(t, "tab-1", sig.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("polling не увидел сигнал")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "pos", "state.json"))

	p, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, p)

	book := pos.SeedBook()
	carts := map[int64]pos.Cart{3: {{TempID: "t1", MenuItemID: 5, Quantity: 2}}}
	require.NoError(t, fs.Save(Persisted{Book: book, Carts: carts, ActiveID: 3}))

	p, err = fs.Load()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, persistedVersion, p.Version)
	assert.Len(t, p.Book.Comandas, len(book.Comandas))
	assert.Equal(t, int64(3), p.ActiveID)
	assert.Equal(t, 2, p.Carts[3][0].Quantity)
}

func TestFileStoreUpgradesLegacyKitchenFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := `{"book":{"menu_items":[],"categories":[{"id":"porcoes","label":"Porções"},{"id":"bebidas","label":"Bebidas"}],` +
		`"comandas":[],"orders":[],"order_items":[]}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	p, err := NewFileStore(path).Load()
	require.NoError(t, err)
	require.Len(t, p.Book.Categories, 2)
	for _, c := range p.Book.Categories {
		assert.Equal(t, c.ID == models.LegacyKitchenCategoryID, c.SendToKitchen, c.ID)
	}
}
