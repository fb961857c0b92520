package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harborgrid/keelson/event"
)

func managerPoolsConf() map[string]any {
	return map[string]any{
		"telemetry": map[string]any{
			"connector":        "fake",
			"maxSize":          3,
			"acquireTimeoutMS": 200,
			// Background loops off; tests drive the pool directly.
			"healthCheckIntervalMS": 0,
			"cleanupIntervalMS":     0,
		},
	}
}

func TestManagerSetupAndAcquire(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterConnector("fake", &testConnector{}))
	require.NoError(t, m.Setup(managerPoolsConf()))
	defer m.Shutdown()

	p := m.GetPool("telemetry")
	require.NotNil(t, p)
	require.Equal(t, "telemetry", p.Name())
	require.NotNil(t, p.Monitor())

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Return())

	require.Nil(t, m.GetPool("missing"))
}

func TestManagerConfigDefaults(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterConnector("fake", &testConnector{}))
	require.NoError(t, m.Setup(map[string]any{
		"sparse": map[string]any{"connector": "fake"},
	}))
	defer m.Shutdown()

	p := m.GetPool("sparse")
	require.NotNil(t, p)
	require.Equal(t, DefaultConfig().MaxSize, p.cfg.MaxSize)
	require.True(t, p.cfg.ValidateOnAcquire)
}

func TestManagerRejectsUnknownConnector(t *testing.T) {
	m := NewManager(nil)
	err := m.Setup(map[string]any{
		"orphan": map[string]any{"connector": "nowhere"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown connector")
}

func TestManagerRejectsDuplicates(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.RegisterConnector("fake", &testConnector{}))
	require.Error(t, m.RegisterConnector("fake", &testConnector{}))

	require.NoError(t, m.Setup(managerPoolsConf()))
	defer m.Shutdown()
	require.Error(t, m.Setup(managerPoolsConf()))
}

func TestManagerPublishesLifecycleEvents(t *testing.T) {
	pub := event.NewPublisher()
	require.NoError(t, pub.NewTopic(event.PoolItemCreated, 0))
	require.NoError(t, pub.NewTopic(event.PoolItemDestroyed, 0))
	require.NoError(t, pub.NewTopic(event.PoolClosed, 0))

	created := make(chan ItemEvent, 8)
	closed := make(chan PoolEvent, 1)
	require.NoError(t, pub.RegisterSubscriber(event.PoolItemCreated, func(param any) {
		created <- param.(ItemEvent)
	}))
	require.NoError(t, pub.RegisterSubscriber(event.PoolClosed, func(param any) {
		closed <- param.(PoolEvent)
	}))

	m := NewManager(pub)
	require.NoError(t, m.RegisterConnector("fake", &testConnector{}))
	require.NoError(t, m.Setup(managerPoolsConf()))

	p := m.GetPool("telemetry")
	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Return())

	ev := <-created
	require.Equal(t, "telemetry", ev.Pool)
	require.NotEmpty(t, ev.ItemID)

	require.NoError(t, m.Shutdown())
	require.Equal(t, PoolEvent{Pool: "telemetry"}, <-closed)
}
