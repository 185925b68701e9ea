package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownGateway = errors.New("unknown payment gateway")
	ErrNotSupported   = errors.New("operation not supported by gateway")
)

// Gateway 支付网关：校验外部支付结果、对已保存的支付授权发起扣款
type Gateway interface {
	Name() string

	// Verify 按网关侧交易号查询支付结果
	Verify(ctx context.Context, reference string) (*Verification, error)

	// Charge 使用已保存的支付授权扣款（自动续费）
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

// Verification 网关返回的交易状态
type Verification struct {
	Reference string
	Succeeded bool
	Status    string
	Amount    decimal.Decimal
	Currency  string
}

type ChargeRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerID    string
	Authorization string // 已保存的支付方式
	Description   string
	Metadata      map[string]string
	// IdempotencyKey 相同 key 的重复请求只扣款一次
	IdempotencyKey string
}

type ChargeResult struct {
	Succeeded     bool
	TransactionID string
	Status        string
	FailureReason string
}

// Registry 按名称管理已配置的网关
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Name()] = g
}

func (r *Registry) Get(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
	}
	return g, nil
}

// Names 返回已注册的网关名，按字母排序
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// toMinorUnits 金额转换为最小货币单位（分/kobo）
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
