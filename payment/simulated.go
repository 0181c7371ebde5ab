package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FailToken is the reserved payment method token the simulated provider
// always declines, for exercising the failure path end to end.
const FailToken = "tok_fail"

// SimulatedProvider mimics a payment provider for development and testing:
// a configurable network latency, deterministic declines for FailToken, and
// an optional random failure rate.
type SimulatedProvider struct {
	latency     time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// SimulatedOption configures a SimulatedProvider.
type SimulatedOption func(*SimulatedProvider)

// WithLatency sets the simulated round-trip delay per call.
func WithLatency(d time.Duration) SimulatedOption {
	return func(p *SimulatedProvider) {
		if d >= 0 {
			p.latency = d
		}
	}
}

// WithFailureRate makes the given fraction of calls fail at random, in
// addition to the deterministic FailToken declines. Values outside [0,1]
// are clamped.
func WithFailureRate(rate float64) SimulatedOption {
	return func(p *SimulatedProvider) {
		p.failureRate = min(max(rate, 0), 1)
	}
}

// WithSeed fixes the random source so failure injection is reproducible.
func WithSeed(seed int64) SimulatedOption {
	return func(p *SimulatedProvider) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSimulatedProvider creates a simulated provider. By default it sleeps
// 500ms per call and succeeds for every token except FailToken.
func NewSimulatedProvider(opts ...SimulatedOption) *SimulatedProvider {
	p := &SimulatedProvider{
		latency: 500 * time.Millisecond,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SimulatedProvider) Charge(ctx context.Context, token string, amount decimal.Decimal) (string, error) {
	if err := p.sleep(ctx); err != nil {
		return "", err
	}
	if strings.HasPrefix(token, FailToken) {
		return "", fmt.Errorf("card declined for token %s", token)
	}
	if p.roll() {
		return "", fmt.Errorf("provider unavailable")
	}
	return "txn_" + reference(), nil
}

func (p *SimulatedProvider) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	if err := p.sleep(ctx); err != nil {
		return "", err
	}
	if p.roll() {
		return "", fmt.Errorf("provider unavailable")
	}
	return "ref_" + reference(), nil
}

func (p *SimulatedProvider) sleep(ctx context.Context) error {
	if p.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.latency):
		return nil
	}
}

func (p *SimulatedProvider) roll() bool {
	if p.failureRate <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.failureRate
}

// reference produces the first 16 characters of a UUID, matching the
// provider reference shape downstream systems expect.
func reference() string {
	return uuid.NewString()[:16]
}
