package exchange

import (
	"sync"
	"time"
)

// limiter tracks request weight against the exchange's per-minute budget
// and blocks requests while a rate-limit ban is in effect.
type limiter struct {
	mu            sync.Mutex
	currentWeight int
	windowResetAt time.Time
	maxWeight     int
	banUntil      time.Time
}

// Per-endpoint request weights, from the exchange API docs.
var endpointWeights = map[string]int{
	"/fapi/v2/positionRisk": 5,
	"/fapi/v2/account":      5,
	"/fapi/v1/order":        1,
	"/fapi/v1/openOrders":   1,
	"/fapi/v1/exchangeInfo": 1,
}

func newLimiter() *limiter {
	return &limiter{
		maxWeight:     2400,
		windowResetAt: time.Now().Add(time.Minute),
	}
}

func endpointWeight(endpoint string) int {
	if w, ok := endpointWeights[endpoint]; ok {
		return w
	}
	return 1
}

// acquire reserves weight for a request. It returns false when a ban is
// active or the weight budget for the current window is exhausted.
func (l *limiter) acquire(endpoint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Before(l.banUntil) {
		return false
	}
	if now.After(l.windowResetAt) {
		l.currentWeight = 0
		l.windowResetAt = now.Add(time.Minute)
	}

	w := endpointWeight(endpoint)
	if l.currentWeight+w > l.maxWeight {
		return false
	}
	l.currentWeight += w
	return true
}

// recordBan opens the circuit until the given time after a 429/418 response.
func (l *limiter) recordBan(until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until.After(l.banUntil) {
		l.banUntil = until
	}
}

// updateUsedWeight syncs the window counter from response headers.
func (l *limiter) updateUsedWeight(weight int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if weight > l.currentWeight {
		l.currentWeight = weight
	}
}
