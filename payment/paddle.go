package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/shopspring/decimal"
)

// PaddleConfig holds configuration for the Paddle payment provider.
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider against the Paddle billing API.
// The opaque payment method token is interpreted as a Paddle catalog price
// ID; a charge creates a single-item transaction for it.
type PaddleProvider struct {
	client *paddle.SDK
	config PaddleConfig
}

// NewPaddleProvider creates a Paddle-backed payment provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{client: client, config: config}, nil
}

func (p *PaddleProvider) Charge(ctx context.Context, token string, amount decimal.Decimal) (string, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  token,
		Quantity: 1,
	})

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"amount": amount.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	return transaction.ID, nil
}

// Refund requests a refund adjustment for the transaction. Paddle refunds
// whole transactions; the 1% platform fee is retained on the settlement
// side, not by a partial provider refund.
func (p *PaddleProvider) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	adjustment, err := p.client.AdjustmentsClient.CreateAdjustment(ctx, &paddle.CreateAdjustmentRequest{
		Action:        paddle.AdjustmentActionRefund,
		TransactionID: transactionID,
		Reason:        "subscription payment cancelled",
		Type:          paddle.PtrTo(paddle.AdjustmentTypeFull),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create paddle adjustment: %w", err)
	}

	return adjustment.ID, nil
}
