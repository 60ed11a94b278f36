// Package broadcast fans report updates out to registered subscribers.
package broadcast

import (
	"sync"

	"github.com/buemura/contractlens/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Token identifies a subscription.
type Token string

// Func receives a report, or nil when results were cleared.
type Func func(report *types.Report)

type subscriber struct {
	token Token
	fn    Func
}

// Hub delivers reports to subscribers in subscription order.
type Hub struct {
	mu     sync.Mutex
	subs   []subscriber
	closed bool
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{logger: logger}
}

// Subscribe registers fn. Subscribing to a closed hub returns a token that
// is never called.
func (h *Hub) Subscribe(fn Func) Token {
	token := Token(uuid.NewString())
	if fn == nil {
		return token
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.subs = append(h.subs, subscriber{token: token, fn: fn})
	}
	return token
}

// Unsubscribe removes the subscription and reports whether it was present.
func (h *Hub) Unsubscribe(token Token) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.token == token {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish calls every subscriber with its own copy of report. A subscriber
// that panics is logged and skipped.
func (h *Hub) Publish(report *types.Report) {
	h.mu.Lock()
	subs := make([]subscriber, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		h.deliver(s, report.Clone())
	}
}

func (h *Hub) deliver(s subscriber, report *types.Report) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("subscriber panicked", "token", s.token, "panic", r)
		}
	}()
	s.fn(report)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops every subscription. Later Subscribe calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = nil
	h.closed = true
}
