package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaSirikonda/smart-subscription/payment"
)

func TestComputeRefund(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount string
		want   string
	}{
		{"100.00", "99"},
		{"50.00", "49.5"},
		{"7.50", "7.43"}, // 7.425 rounds half-up, not to even
		{"10.01", "9.91"},
		{"0.01", "0.01"},
		{"19.99", "19.79"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			t.Parallel()

			amount := decimal.RequireFromString(tt.amount)
			got := payment.ComputeRefund(amount)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"ComputeRefund(%s) = %s, want %s", tt.amount, got, tt.want)
		})
	}
}

func TestSimulatedProvider(t *testing.T) {
	t.Parallel()

	t.Run("charge returns prefixed reference", func(t *testing.T) {
		t.Parallel()

		p := payment.NewSimulatedProvider(payment.WithLatency(0))
		ref, err := p.Charge(context.Background(), "tok_valid", decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Regexp(t, `^txn_.{16}$`, ref)
	})

	t.Run("refund returns prefixed reference", func(t *testing.T) {
		t.Parallel()

		p := payment.NewSimulatedProvider(payment.WithLatency(0))
		ref, err := p.Refund(context.Background(), "txn_abc", decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Regexp(t, `^ref_.{16}$`, ref)
	})

	t.Run("fail token declines", func(t *testing.T) {
		t.Parallel()

		p := payment.NewSimulatedProvider(payment.WithLatency(0))
		_, err := p.Charge(context.Background(), payment.FailToken, decimal.NewFromInt(10))
		assert.Error(t, err)
	})

	t.Run("full failure rate fails every call", func(t *testing.T) {
		t.Parallel()

		p := payment.NewSimulatedProvider(payment.WithLatency(0), payment.WithFailureRate(1))
		_, err := p.Charge(context.Background(), "tok_valid", decimal.NewFromInt(10))
		assert.Error(t, err)
	})
}

func TestTimeoutProvider(t *testing.T) {
	t.Parallel()

	t.Run("expiry surfaces as provider failure", func(t *testing.T) {
		t.Parallel()

		slow := payment.NewSimulatedProvider(payment.WithLatency(time.Second))
		p := payment.NewTimeoutProvider(slow, 10*time.Millisecond)

		_, err := p.Charge(context.Background(), "tok_valid", decimal.NewFromInt(10))
		assert.ErrorIs(t, err, payment.ErrProviderFailure)
	})

	t.Run("fast calls pass through", func(t *testing.T) {
		t.Parallel()

		fast := payment.NewSimulatedProvider(payment.WithLatency(0))
		p := payment.NewTimeoutProvider(fast, time.Second)

		ref, err := p.Charge(context.Background(), "tok_valid", decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.NotEmpty(t, ref)
	})
}
