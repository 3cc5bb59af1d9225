package gate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records delivered events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []gate.AuthEvent
}

func (s *captureSink) Record(ctx context.Context, event gate.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) all() []gate.AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gate.AuthEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestMaskSecrets(t *testing.T) {
	assert.Equal(t,
		"login failed for pepe with password "+gate.SecretMask,
		gate.MaskSecrets("login failed for pepe with password hunter2", "hunter2"),
	)

	t.Run("multiple secrets", func(t *testing.T) {
		masked := gate.MaskSecrets("key=abc token=xyz", "abc", "xyz")
		assert.NotContains(t, masked, "abc")
		assert.NotContains(t, masked, "xyz")
	})

	t.Run("empty secrets are ignored", func(t *testing.T) {
		assert.Equal(t, "unchanged", gate.MaskSecrets("unchanged", ""))
	})

	t.Run("mask width does not leak secret length", func(t *testing.T) {
		short := gate.MaskSecrets("x", "x")
		long := gate.MaskSecrets("averylongpasswordvalue", "averylongpasswordvalue")
		assert.Equal(t, short, long)
	})
}

func TestAuditTrailDeliversToSinks(t *testing.T) {
	sink := &captureSink{}
	trail := gate.NewAuditTrail(
		gate.WithAuditLogger(noopLogger{}),
		gate.WithAuditSink(sink),
	)

	trail.Record(context.Background(), gate.AuthEvent{
		Identity:      "clerk@example.com",
		SourceAddress: "10.0.0.1",
		Success:       true,
	})
	trail.Record(context.Background(), gate.AuthEvent{
		Identity: "clerk@example.com",
		Reason:   "invalid credentials",
	})
	trail.Close()

	events := sink.all()
	require.Len(t, events, 2)
	assert.True(t, events[0].Success)
	assert.Equal(t, "10.0.0.1", events[0].SourceAddress)
	assert.False(t, events[1].Success)
	assert.False(t, events[0].OccurredAt.IsZero())
}

func TestAuditTrailMasksSecretsBeforeDelivery(t *testing.T) {
	sink := &captureSink{}
	trail := gate.NewAuditTrail(
		gate.WithAuditLogger(noopLogger{}),
		gate.WithAuditSink(sink),
	)

	trail.Record(context.Background(), gate.AuthEvent{
		Identity: "clerk@example.com",
		Reason:   "bad password hunter2 supplied",
	}, "hunter2")
	trail.Close()

	events := sink.all()
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Reason, "hunter2")
	assert.Contains(t, events[0].Reason, gate.SecretMask)
}

func TestAuditTrailFlagsSuspiciousBursts(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sink := &captureSink{}
	trail := gate.NewAuditTrail(
		gate.WithAuditLogger(noopLogger{}),
		gate.WithAuditSink(sink),
		gate.WithSuspiciousThreshold(3, time.Minute),
		gate.WithAuditClock(func() time.Time { return now }),
	)

	for i := 0; i < 3; i++ {
		trail.Record(context.Background(), gate.AuthEvent{
			Identity: "clerk@example.com",
			Reason:   "invalid credentials",
		})
		now = now.Add(time.Second)
	}
	trail.Close()

	events := sink.all()
	require.Len(t, events, 3)
	assert.False(t, events[0].Suspicious)
	assert.False(t, events[1].Suspicious)
	assert.True(t, events[2].Suspicious, "third failure within the window should escalate")
}

func TestAuditTrailBurstWindowSlides(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sink := &captureSink{}
	trail := gate.NewAuditTrail(
		gate.WithAuditLogger(noopLogger{}),
		gate.WithAuditSink(sink),
		gate.WithSuspiciousThreshold(3, time.Minute),
		gate.WithAuditClock(func() time.Time { return now }),
	)

	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com"})
	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com"})

	// the first two age out of the window
	now = now.Add(2 * time.Minute)
	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com"})
	trail.Close()

	events := sink.all()
	require.Len(t, events, 3)
	assert.False(t, events[2].Suspicious)
}

func TestAuditTrailSuccessResetsBurstTracking(t *testing.T) {
	sink := &captureSink{}
	trail := gate.NewAuditTrail(
		gate.WithAuditLogger(noopLogger{}),
		gate.WithAuditSink(sink),
		gate.WithSuspiciousThreshold(3, time.Minute),
	)

	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com"})
	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com"})
	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com", Success: true})
	trail.Record(context.Background(), gate.AuthEvent{Identity: "clerk@example.com"})
	trail.Close()

	events := sink.all()
	require.Len(t, events, 4)
	assert.False(t, events[3].Suspicious, "success should reset the failure window")
}
