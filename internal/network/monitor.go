// Package network observes connectivity and holds the in-memory queue of
// deferred calls that runs when the connection comes back.
package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
)

const defaultDrainDelay = 100 * time.Millisecond

// Listener receives the connectivity snapshot whenever the status changes.
// Raw events that do not change the status (wifi -> cellular at equal online
// status) produce no notification.
type Listener func(model.NetworkInfo)

type queuedCall struct {
	fn     func() error
	result chan error
}

// Monitor tracks the current NetworkInfo and a FIFO retry queue of deferred
// calls. It starts in the unknown state and never reports online until an
// event source delivers a connected, reachable event.
type Monitor struct {
	mu         sync.Mutex
	info       model.NetworkInfo
	listeners  map[int]Listener
	nextID     int
	queue      []queuedCall
	drainDelay time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{
		info: model.NetworkInfo{
			Status:      model.NetworkUnknown,
			IsConnected: false,
		},
		listeners:  make(map[int]Listener),
		drainDelay: defaultDrainDelay,
	}
}

// SetDrainDelay overrides the pause between retry-queue invocations. Tests use
// this to avoid real sleeps.
func (m *Monitor) SetDrainDelay(d time.Duration) {
	m.mu.Lock()
	m.drainDelay = d
	m.mu.Unlock()
}

// statusOf maps a raw event to a status: online needs both connected and
// reachable, a definite not-connected is offline, anything else is unknown.
func statusOf(e model.NetworkEvent) model.NetworkStatus {
	if e.Connected == nil {
		return model.NetworkUnknown
	}
	if !*e.Connected {
		return model.NetworkOffline
	}
	if e.InternetReachable != nil && *e.InternetReachable {
		return model.NetworkOnline
	}
	return model.NetworkUnknown
}

// HandleEvent recomputes the snapshot from a raw connectivity event, notifies
// listeners on status change only, and drains the retry queue when the status
// transitions to online.
func (m *Monitor) HandleEvent(e model.NetworkEvent) {
	info := model.NetworkInfo{
		Status:              statusOf(e),
		IsConnected:         e.Connected != nil && *e.Connected,
		ConnectionType:      e.Type,
		IsInternetReachable: e.InternetReachable != nil && *e.InternetReachable,
		Details:             e.Details,
	}

	m.mu.Lock()
	previous := m.info.Status
	m.info = info
	changed := previous != info.Status
	var toNotify []Listener
	if changed {
		for _, l := range m.listeners {
			toNotify = append(toNotify, l)
		}
	}
	var toDrain []queuedCall
	if changed && info.Status == model.NetworkOnline && len(m.queue) > 0 {
		toDrain = m.queue
		m.queue = nil
	}
	delay := m.drainDelay
	m.mu.Unlock()

	if changed {
		log.Info().
			Str("from", string(previous)).
			Str("to", string(info.Status)).
			Str("connection_type", info.ConnectionType).
			Msg("network status changed")
	}
	// Fire-and-forget relative to the event that triggered them.
	for _, l := range toNotify {
		go l(info)
	}
	if len(toDrain) > 0 {
		go drain(toDrain, delay)
	}
}

// drain runs queued calls sequentially with a fixed pause between them so the
// reconnect does not burst the network. Failures are logged and swallowed;
// each call's own result channel still carries the error.
func drain(calls []queuedCall, delay time.Duration) {
	for i, call := range calls {
		if i > 0 {
			time.Sleep(delay)
		}
		err := call.fn()
		if err != nil {
			log.Error().Err(err).Msg("queued network call failed during drain")
		}
		call.result <- err
		close(call.result)
	}
}

// Current returns the latest connectivity snapshot.
func (m *Monitor) Current() model.NetworkInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info.Status == model.NetworkOnline
}

func (m *Monitor) IsOffline() bool {
	return !m.IsOnline()
}

// AddListener registers a status-change listener and returns its handle.
func (m *Monitor) AddListener(l Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners[m.nextID] = l
	return m.nextID
}

func (m *Monitor) RemoveListener(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// AddToRetryQueue runs fn immediately when online, otherwise appends it to the
// retry queue. The returned channel carries fn's eventual result either way.
func (m *Monitor) AddToRetryQueue(fn func() error) <-chan error {
	result := make(chan error, 1)
	m.mu.Lock()
	if m.info.Status == model.NetworkOnline {
		m.mu.Unlock()
		go func() {
			result <- fn()
			close(result)
		}()
		return result
	}
	m.queue = append(m.queue, queuedCall{fn: fn, result: result})
	m.mu.Unlock()
	return result
}

// QueueLength reports how many calls are waiting for reconnect.
func (m *Monitor) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RetryOptions configures ExecuteWithRetry.
type RetryOptions struct {
	MaxRetries     int
	RetryDelay     time.Duration
	RetryOnOffline bool
}

// ExecuteWithRetry runs a fallible call with bounded local retries. When the
// monitor is offline and attempts remain, the call is deferred to the retry
// queue instead of being retried locally.
func (m *Monitor) ExecuteWithRetry(fn func() error, opts RetryOptions) error {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if opts.RetryOnOffline && m.IsOffline() && attempt < opts.MaxRetries {
			return <-m.AddToRetryQueue(fn)
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < opts.MaxRetries {
			time.Sleep(opts.RetryDelay)
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", opts.MaxRetries+1, lastErr)
}
