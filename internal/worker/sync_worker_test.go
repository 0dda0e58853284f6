package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/snapshot"
	"spendlog/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLoader struct {
	snap core.Snapshot
	err  error
}

func (l staticLoader) Load(context.Context) (core.Snapshot, error) {
	return l.snap, l.err
}

type countingRebuilder struct {
	calls atomic.Int64
	err   error
}

func (r *countingRebuilder) Rebuild(_ context.Context, expenses map[string]map[string]float64, _ map[string][]string) (int, error) {
	r.calls.Add(1)
	if r.err != nil {
		return 0, r.err
	}
	n := 0
	for _, bucket := range expenses {
		n += len(bucket)
	}
	return n, nil
}

type channelConsumer struct {
	msgs    chan *amqp.ChangeMessage
	mu      sync.Mutex
	handled []error
}

func (c *channelConsumer) ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.ChangeMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.msgs:
			err := handler(ctx, msg)
			c.mu.Lock()
			c.handled = append(c.handled, err)
			c.mu.Unlock()
		}
	}
}

func (c *channelConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handled)
}

func TestSyncWorker_HandleChangeRebuildsFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store, err := snapshot.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, core.Snapshot{
		Expenses:   map[string]map[string]float64{"january": {"rent": 1000, "food": 100}},
		Categories: map[string][]string{"Housing": {"rent"}},
		Budgets:    map[string]float64{},
	}))
	repo, err := storage.NewAnalyticsRepository(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	defer repo.Close()

	w := NewSyncWorker(store, repo, nil, 0)
	msg := amqp.NewChangeMessage(core.Change{Operation: core.OpExpenseAdded, Month: "january", Name: "food"})

	require.NoError(t, w.HandleChange(ctx, msg))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	breakdown, err := repo.CategoryBreakdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryTotal{
		{Category: "Housing", Total: 1000},
		{Category: core.Uncategorized, Total: 100},
	}, breakdown)
}

func TestSyncWorker_RefreshErrors(t *testing.T) {
	ctx := context.Background()

	w := NewSyncWorker(staticLoader{err: core.ErrPersistence}, &countingRebuilder{}, nil, 0)
	_, err := w.Refresh(ctx)
	assert.ErrorIs(t, err, core.ErrPersistence)

	w = NewSyncWorker(staticLoader{snap: core.NewSnapshot()}, &countingRebuilder{err: errors.New("locked")}, nil, 0)
	_, err = w.Refresh(ctx)
	assert.ErrorContains(t, err, "rebuild analytics")
}

func TestSyncWorker_RunConsumesUntilCancelled(t *testing.T) {
	snap := core.Snapshot{Expenses: map[string]map[string]float64{"may": {"tea": 3}}}
	rebuilder := &countingRebuilder{}
	consumer := &channelConsumer{msgs: make(chan *amqp.ChangeMessage, 1)}
	w := NewSyncWorker(staticLoader{snap: snap}, rebuilder, consumer, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	consumer.msgs <- amqp.NewChangeMessage(core.Change{Operation: core.OpAllCleared})
	require.Eventually(t, func() bool { return consumer.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	// startup rebuild plus one per message
	assert.Equal(t, int64(2), rebuilder.calls.Load())
}

func TestSyncWorker_RunRefreshesPeriodically(t *testing.T) {
	rebuilder := &countingRebuilder{}
	w := NewSyncWorker(staticLoader{snap: core.NewSnapshot()}, rebuilder, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return rebuilder.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
