package gate

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SecretMask is the fixed-width replacement for credential material in audit
// reasons. Raw secrets must never reach a persistent sink.
const SecretMask = "*****"

// MaskSecrets replaces every occurrence of the given secrets inside text
// with the fixed-width mask. Empty secrets are ignored.
func MaskSecrets(text string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		text = strings.ReplaceAll(text, secret, SecretMask)
	}
	return text
}

// AuthEvent captures the outcome of one authentication attempt.
type AuthEvent struct {
	Identity      string
	SourceAddress string
	Success       bool
	Reason        string
	Suspicious    bool
	OccurredAt    time.Time
}

// AuditTrail records authentication outcomes. Successes log at INFO,
// failures at WARN, and a burst of failures from one identity escalates to
// an ERROR-level suspicious-activity signal. Sink delivery is asynchronous
// and best-effort so recording never blocks or fails a request.
type AuditTrail struct {
	logger Logger
	sinks  []AuthEventSink

	burst       int
	burstWindow time.Duration
	now         func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time

	events chan sinkDelivery
	done   chan struct{}
	once   sync.Once
}

type sinkDelivery struct {
	sink  AuthEventSink
	event AuthEvent
}

// AuditTrailOption customizes an AuditTrail.
type AuditTrailOption func(*AuditTrail)

// WithAuditLogger overrides the logger.
func WithAuditLogger(logger Logger) AuditTrailOption {
	return func(a *AuditTrail) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAuditSink adds a delivery sink, e.g. the bun-backed event store.
func WithAuditSink(sink AuthEventSink) AuditTrailOption {
	return func(a *AuditTrail) {
		if sink != nil {
			a.sinks = append(a.sinks, sink)
		}
	}
}

// WithSuspiciousThreshold sets how many failures within window escalate to
// the suspicious-activity signal.
func WithSuspiciousThreshold(count int, window time.Duration) AuditTrailOption {
	return func(a *AuditTrail) {
		if count > 0 {
			a.burst = count
		}
		if window > 0 {
			a.burstWindow = window
		}
	}
}

// WithAuditClock injects a custom clock (useful for tests).
func WithAuditClock(clock func() time.Time) AuditTrailOption {
	return func(a *AuditTrail) {
		if clock != nil {
			a.now = clock
		}
	}
}

// NewAuditTrail creates an audit trail and starts its delivery worker.
func NewAuditTrail(opts ...AuditTrailOption) *AuditTrail {
	a := &AuditTrail{
		logger:      defLogger{},
		burst:       10,
		burstWindow: time.Minute,
		now:         time.Now,
		failures:    map[string][]time.Time{},
		events:      make(chan sinkDelivery, 256),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(a)
	}

	go a.deliver()

	return a
}

// Record logs the event and queues sink delivery. Secrets listed in
// maskValues are masked out of the reason before anything is written.
func (a *AuditTrail) Record(ctx context.Context, event AuthEvent, maskValues ...string) {
	event.Reason = MaskSecrets(event.Reason, maskValues...)

	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now()
	}

	if event.Success {
		a.clearFailures(event.Identity)
		a.logger.Info("auth success",
			"identity", event.Identity,
			"source", event.SourceAddress,
		)
	} else {
		event.Suspicious = a.trackFailure(event.Identity, event.OccurredAt)
		if event.Suspicious {
			a.logger.Error("suspicious auth activity",
				"identity", event.Identity,
				"source", event.SourceAddress,
				"reason", event.Reason,
				"failures_in_window", a.burst,
			)
		} else {
			a.logger.Warn("auth failure",
				"identity", event.Identity,
				"source", event.SourceAddress,
				"reason", event.Reason,
			)
		}
	}

	for _, sink := range a.sinks {
		select {
		case a.events <- sinkDelivery{sink: sink, event: event}:
		default:
			// Queue full: drop rather than stall the request path.
			a.logger.Warn("audit sink queue full, dropping event", "identity", event.Identity)
		}
	}
}

// Close stops the delivery worker after draining queued events.
func (a *AuditTrail) Close() {
	a.once.Do(func() {
		close(a.events)
		<-a.done
	})
}

func (a *AuditTrail) deliver() {
	defer close(a.done)

	for d := range a.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.sink.Record(ctx, d.event); err != nil {
			a.logger.Warn("audit sink record error", "error", err)
		}
		cancel()
	}
}

// trackFailure appends a failure timestamp and reports whether the identity
// crossed the burst threshold within the window.
func (a *AuditTrail) trackFailure(identity string, at time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := at.Add(-a.burstWindow)
	recent := a.failures[identity][:0]
	for _, ts := range a.failures[identity] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	recent = append(recent, at)
	a.failures[identity] = recent

	return len(recent) >= a.burst
}

func (a *AuditTrail) clearFailures(identity string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, identity)
}
