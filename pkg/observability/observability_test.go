package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(typ domain.EventType, from, to domain.StateName, status domain.Status, at time.Time) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		Timestamp: at,
		Type:      typ,
		SessionID: "abc12345",
		Guide:     "pizza",
		From:      from,
		To:        to,
		Status:    status,
	}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()
	t0 := time.Now()

	hooks.OnSessionStart(ctx, event(domain.EventSessionStart, "START", "CHOOSE_CRUST", domain.StatusInProgress, t0))
	hooks.OnTransition(ctx, event(domain.EventTransition, "CHOOSE_CRUST", "CHOOSE_CATEGORY", domain.StatusInProgress, t0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions.WithLabelValues("pizza")))

	hooks.OnSessionEnd(ctx, event(domain.EventSessionEnd, "CONFIRM", "COMPLETE", domain.StatusComplete, t0.Add(3*time.Second)))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsStarted.WithLabelValues("pizza")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pizza", "CHOOSE_CRUST", "CHOOSE_CATEGORY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsEnded.WithLabelValues("pizza", "complete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeSessions.WithLabelValues("pizza")))
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.sessionsStarted, second.sessionsStarted)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hooks := LoggingHooks(logger)

	hooks.OnTransition(context.Background(), event(domain.EventTransition, "A", "B", domain.StatusInProgress, time.Now()))

	out := buf.String()
	assert.Contains(t, out, "msg=transition")
	assert.Contains(t, out, "from=A")
	assert.Contains(t, out, "to=B")
}

func TestStreamManager_SessionAndGlobalSubscribers(t *testing.T) {
	sm := NewStreamManager()
	session, cancelSession := sm.Subscribe("abc12345")
	defer cancelSession()
	all, cancelAll := sm.Subscribe(AllSessions)
	defer cancelAll()
	other, cancelOther := sm.Subscribe("zzz")
	defer cancelOther()

	sm.Hooks().OnTransition(context.Background(), event(domain.EventTransition, "A", "B", domain.StatusInProgress, time.Now()))

	for _, ch := range []<-chan string{session, all} {
		select {
		case msg := <-ch:
			var got domain.TransitionEvent
			require.NoError(t, json.Unmarshal([]byte(msg), &got))
			assert.Equal(t, domain.StateName("B"), got.To)
		case <-time.After(time.Second):
			t.Fatal("expected an event")
		}
	}
	select {
	case msg := <-other:
		t.Fatalf("unexpected event for other session: %s", msg)
	default:
	}
}

func TestStreamManager_CancelClosesAndIsIdempotent(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.NotPanics(t, func() { sm.Broadcast("s1", strings.Repeat("x", 3)) })
}
