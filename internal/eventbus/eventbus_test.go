package eventbus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.GetLoggerManager().DisableFiles()
	os.Exit(m.Run())
}

func mustEnvelope(t *testing.T, eventType string, payload interface{}) *Envelope {
	t.Helper()
	ev, err := NewEnvelope(eventType, payload)
	require.NoError(t, err)
	return ev
}

func TestNewEnvelope(t *testing.T) {
	ev := mustEnvelope(t, EventOptimized, CountPayload{Count: 7})
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, Source, ev.Source)
	assert.Equal(t, 1, ev.Version)

	var p CountPayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, 7, p.Count)
}

func TestMemoryBus_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(16)

	var all, scans []string
	_, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		all = append(all, ev.EventType)
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{Types: []string{EventScanCompleted}}, func(ctx context.Context, ev *Envelope) {
		scans = append(scans, ev.EventType)
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventScanCompleted, ScanCompletedPayload{})))
	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventChunksCleared, ChunksClearedPayload{All: true})))
	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventScanCompleted, ScanCompletedPayload{})))

	// Close дожидается доставки
	require.NoError(t, bus.Close())
	assert.Equal(t, []string{EventScanCompleted, EventChunksCleared, EventScanCompleted}, all)
	assert.Equal(t, []string{EventScanCompleted, EventScanCompleted}, scans)

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(5), stats.Consumed)

	assert.ErrorIs(t, bus.Publish(ctx, mustEnvelope(t, EventOptimized, CountPayload{})), ErrClosed)
	assert.NoError(t, bus.Close(), "повторное закрытие")
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(4)

	count := 0
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) { count++ })
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventOptimized, CountPayload{})))
	require.NoError(t, bus.Close())
	assert.Equal(t, 0, count)
}

func TestMemoryBus_Backpressure(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(1)

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	_, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		started <- struct{}{}
		<-release
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventOptimized, CountPayload{Count: 1})))
	<-started // обработчик занят первым событием

	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventOptimized, CountPayload{Count: 2})))
	// буфер заполнен: низкий приоритет отбрасывается
	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventOptimized, CountPayload{Count: 3})))

	high := mustEnvelope(t, EventOptimized, CountPayload{Count: 4})
	high.Priority = 9
	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(tctx, high), context.DeadlineExceeded)

	close(release)
	require.NoError(t, bus.Close())

	stats := bus.Metrics()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Consumed)
}

func TestRegisterMetrics(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(4)
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg, bus))

	require.NoError(t, bus.Publish(ctx, mustEnvelope(t, EventOptimized, CountPayload{})))
	require.NoError(t, bus.Close())

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		m := f.GetMetric()[0]
		if m.GetCounter() != nil {
			values[f.GetName()] = m.GetCounter().GetValue()
		} else {
			values[f.GetName()] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, 1.0, values["roadmap_eventbus_messages_published_total"])
	assert.Equal(t, 0.0, values["roadmap_eventbus_messages_dropped_total"])
	assert.Contains(t, values, "roadmap_eventbus_messages_inflight")

	assert.Error(t, RegisterMetrics(reg, bus), "повторная регистрация")
}

func TestOpen(t *testing.T) {
	bus, err := Open(config.EventsConfig{Backend: config.EventsNone})
	require.NoError(t, err)
	assert.Nil(t, bus)

	bus, err = Open(config.EventsConfig{Backend: config.EventsMemory, Buffer: 8})
	require.NoError(t, err)
	require.NotNil(t, bus)
	assert.NoError(t, bus.Close())

	_, err = Open(config.EventsConfig{Backend: "kafka"})
	assert.Error(t, err)
}

func TestJetStreamBus(t *testing.T) {
	url := os.Getenv("ROADMAP_TEST_NATS_URL")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}
	bus, err := NewJetStreamBus(url, "ROADMAP_TEST", time.Minute)
	if err != nil {
		t.Skipf("NATS JetStream недоступен: %v", err)
	}
	defer bus.Close()

	ctx := context.Background()
	received := make(chan *Envelope, 1)
	sub, err := bus.Subscribe(ctx, Filter{Types: []string{EventChunksCleared}}, func(ctx context.Context, ev *Envelope) {
		received <- ev
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ev := mustEnvelope(t, EventChunksCleared, ChunksClearedPayload{RemovedChunks: 3})
	require.NoError(t, bus.Publish(ctx, ev))

	select {
	case got := <-received:
		assert.Equal(t, ev.ID, got.ID)
		var p ChunksClearedPayload
		require.NoError(t, got.Decode(&p))
		assert.Equal(t, 3, p.RemovedChunks)
	case <-time.After(5 * time.Second):
		t.Fatal("событие не доставлено")
	}
	assert.Equal(t, uint64(1), bus.Metrics().Published)
}
