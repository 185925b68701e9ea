package service

import (
	"errors"

	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
)

// 领域错误，handler 按 errors.Is 映射为响应码
var (
	ErrResourceUnavailable       = errors.New("该资源已被他人预订，请重新选择")
	ErrInvalidTransition         = errors.New("当前状态不允许该操作")
	ErrPaymentVerificationFailed = errors.New("支付未通过，请重试或更换支付方式")
	ErrSubscriptionExpired       = errors.New("订阅已过期，请先完成续费")
	ErrTenantNotResolved         = tenancy.ErrNoTenant
	ErrInvalidInterval           = errors.New("结束时间必须晚于开始时间")
	ErrPermissionDenied          = errors.New("无权执行该操作")
	ErrInvalidRoomStatus         = errors.New("无效的房间状态")
)

var (
	ErrRoomNotFound         = errors.New("房间不存在")
	ErrHallNotFound         = errors.New("会议厅不存在")
	ErrBookingNotFound      = errors.New("预订不存在")
	ErrInvoiceNotFound      = errors.New("账单不存在")
	ErrTenantNotFound       = errors.New("租户不存在")
	ErrPlanNotFound         = errors.New("套餐不存在")
	ErrGymPlanNotFound      = errors.New("健身套餐不存在")
	ErrMenuItemNotFound     = errors.New("菜品不存在或已下架")
	ErrNotificationNotFound = errors.New("通知不存在")
)
