package service

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/qs3c/hms_go_server/internal/model"
)

const (
	counterBookings = "booking"
	counterOrders   = "order"
	defaultPrefix   = "HMS"
)

// ReferencePrefix 预订编号前缀：自定义前缀 > 酒店名缩写 > 租户名缩写 > HMS
func ReferencePrefix(t *model.Tenant) string {
	if t == nil {
		return defaultPrefix
	}
	if p := strings.TrimSpace(t.BookingPrefix); p != "" {
		return strings.ToUpper(p)
	}
	if name := strings.TrimSpace(t.HotelName); name != "" {
		if a := acronym(name); len(a) >= 2 {
			return a
		}
		return strings.ToUpper(truncate(name, 3))
	}
	if name := strings.TrimSpace(t.Name); name != "" {
		if a := acronym(name); a != "" {
			return a
		}
		if s := strings.ToUpper(truncate(alnum(name), 3)); s != "" {
			return s
		}
	}
	return defaultPrefix
}

// FormatReference 例如 GPH-2025-000042
func FormatReference(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// FormatOrderCode 例如 ORD-20250601-0007
func FormatOrderCode(at time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%04d", at.Format("20060102"), seq)
}

func acronym(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		r := []rune(w)[0]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// ceilUnits 区间包含多少个计价单位，向上取整，至少 1
func ceilUnits(start, end time.Time, unit time.Duration) int64 {
	n := int64(math.Ceil(float64(end.Sub(start)) / float64(unit)))
	if n < 1 {
		return 1
	}
	return n
}

// RoomPrice 房费：每晚价格 x 晚数
func RoomPrice(rate decimal.Decimal, start, end time.Time) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(ceilUnits(start, end, 24*time.Hour)))
}

// HallPrice 会议厅价格，按计价方式
func HallPrice(hall *model.EventHall, start, end time.Time) decimal.Decimal {
	switch hall.PricingType {
	case model.PricingPerHour:
		return hall.Price.Mul(decimal.NewFromInt(ceilUnits(start, end, time.Hour)))
	case model.PricingPerDay:
		return hall.Price.Mul(decimal.NewFromInt(ceilUnits(start, end, 24*time.Hour)))
	default:
		return hall.Price
	}
}
