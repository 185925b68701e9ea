package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const NameStripe = "stripe"

type StripeConfig struct {
	SecretKey string
	Timeout   time.Duration
	// BaseURL 覆盖 API 地址，测试时指向本地服务
	BaseURL string
}

// StripeGateway 基于 PaymentIntent 的 Stripe 实现
type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, stripe.NewBackendsWithConfig(backendCfg))
	return &StripeGateway{sc: sc}
}

func (g *StripeGateway) Name() string { return NameStripe }

func (g *StripeGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve payment intent %s: %w", reference, err)
	}

	return &Verification{
		Reference: pi.ID,
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
		Status:    string(pi.Status),
		Amount:    fromMinorUnits(pi.Amount),
		Currency:  strings.ToUpper(string(pi.Currency)),
	}, nil
}

func (g *StripeGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req.Authorization == "" {
		return &ChargeResult{Succeeded: false, FailureReason: "no saved payment method"}, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.Authorization),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		// 卡被拒等业务失败不视为系统错误
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return &ChargeResult{Succeeded: false, FailureReason: stripeErr.Msg}, nil
		}
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return &ChargeResult{
		Succeeded:     pi.Status == stripe.PaymentIntentStatusSucceeded,
		TransactionID: pi.ID,
		Status:        string(pi.Status),
	}, nil
}
