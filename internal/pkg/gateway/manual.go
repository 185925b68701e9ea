package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const NameManual = "manual"

// ManualGateway 线下收款（现金、POS、转账），由员工录入
type ManualGateway struct{}

func NewManualGateway() *ManualGateway { return &ManualGateway{} }

func (g *ManualGateway) Name() string { return NameManual }

// Verify 线下收款无法向第三方核实
func (g *ManualGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	return nil, ErrNotSupported
}

// Charge 线下收款视为即时成功，生成 MANUAL- 前缀交易号
func (g *ManualGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{
		Succeeded:     true,
		TransactionID: NewTransactionID("MANUAL"),
		Status:        "succeeded",
	}, nil
}

// NewTransactionID 生成带前缀的本地交易号，例如 MANUAL-3f2a9c0d1e
func NewTransactionID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(prefix) + "-" + id[:10]
}
