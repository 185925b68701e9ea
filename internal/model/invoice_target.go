package model

import (
	"context"
	"fmt"
)

// TargetKind 账单目标类型
type TargetKind string

const (
	TargetBooking       TargetKind = "booking"
	TargetEventBooking  TargetKind = "event_booking"
	TargetGymMembership TargetKind = "gym_membership"
	TargetServiceOrder  TargetKind = "service_order"
	TargetSubscription  TargetKind = "subscription"
)

// InvoiceTarget 账单指向的唯一计费对象
type InvoiceTarget interface {
	Kind() TargetKind
	Accept(ctx context.Context, v TargetVisitor) error
}

// TargetVisitor 每种目标都必须处理，新增目标类型时编译器会要求补齐实现
type TargetVisitor interface {
	VisitBooking(ctx context.Context, t BookingTarget) error
	VisitEventBooking(ctx context.Context, t EventBookingTarget) error
	VisitGymMembership(ctx context.Context, t GymMembershipTarget) error
	VisitServiceOrders(ctx context.Context, t ServiceOrderTarget) error
	VisitSubscription(ctx context.Context, t SubscriptionTarget) error
}

type BookingTarget struct{ BookingID int64 }

type EventBookingTarget struct{ EventBookingID int64 }

type GymMembershipTarget struct{ MembershipID int64 }

// ServiceOrderTarget 所有 invoice_id 指向该账单的客房服务订单
type ServiceOrderTarget struct{ InvoiceID int64 }

type SubscriptionTarget struct{ TenantID int64 }

func (BookingTarget) Kind() TargetKind       { return TargetBooking }
func (EventBookingTarget) Kind() TargetKind  { return TargetEventBooking }
func (GymMembershipTarget) Kind() TargetKind { return TargetGymMembership }
func (ServiceOrderTarget) Kind() TargetKind  { return TargetServiceOrder }
func (SubscriptionTarget) Kind() TargetKind  { return TargetSubscription }

func (t BookingTarget) Accept(ctx context.Context, v TargetVisitor) error {
	return v.VisitBooking(ctx, t)
}

func (t EventBookingTarget) Accept(ctx context.Context, v TargetVisitor) error {
	return v.VisitEventBooking(ctx, t)
}

func (t GymMembershipTarget) Accept(ctx context.Context, v TargetVisitor) error {
	return v.VisitGymMembership(ctx, t)
}

func (t ServiceOrderTarget) Accept(ctx context.Context, v TargetVisitor) error {
	return v.VisitServiceOrders(ctx, t)
}

func (t SubscriptionTarget) Accept(ctx context.Context, v TargetVisitor) error {
	return v.VisitSubscription(ctx, t)
}

// SetTarget 写入目标类型与 ID
func (i *Invoice) SetTarget(t InvoiceTarget) {
	i.TargetKind = t.Kind()
	switch v := t.(type) {
	case BookingTarget:
		i.TargetID = v.BookingID
	case EventBookingTarget:
		i.TargetID = v.EventBookingID
	case GymMembershipTarget:
		i.TargetID = v.MembershipID
	case ServiceOrderTarget:
		i.TargetID = 0
	case SubscriptionTarget:
		i.TargetID = v.TenantID
	}
}

// Target 从持久化字段还原目标
func (i *Invoice) Target() (InvoiceTarget, error) {
	switch i.TargetKind {
	case TargetBooking:
		return BookingTarget{BookingID: i.TargetID}, nil
	case TargetEventBooking:
		return EventBookingTarget{EventBookingID: i.TargetID}, nil
	case TargetGymMembership:
		return GymMembershipTarget{MembershipID: i.TargetID}, nil
	case TargetServiceOrder:
		return ServiceOrderTarget{InvoiceID: i.ID}, nil
	case TargetSubscription:
		return SubscriptionTarget{TenantID: i.TargetID}, nil
	default:
		return nil, fmt.Errorf("invoice %d: unknown target kind %q", i.ID, i.TargetKind)
	}
}
