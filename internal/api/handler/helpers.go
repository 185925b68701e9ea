package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/service"
)

// invoicePaymentPath 账单的网关支付入口
func invoicePaymentPath(invoiceID int64) string {
	return fmt.Sprintf("/api/v1/payments/invoices/%d", invoiceID)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的ID")
		return 0, false
	}
	return id, true
}

// requireTenant 租户范围的接口读取当前租户；路由已挂 RequireTenant，这里只做兜底
func requireTenant(c *gin.Context) (*tenancy.TenantContext, bool) {
	tc := middleware.GetTenant(c)
	if tc == nil {
		response.TenantError(c, "")
		return nil, false
	}
	return tc, true
}

// optionalUserID 未登录的访客下单时为 nil
func optionalUserID(c *gin.Context) *int64 {
	if id, ok := middleware.GetUserID(c); ok {
		return &id
	}
	return nil
}

// actor 判断当前用户能否操作一条属于 ownerID 的记录：本人或具备能力的员工
type actor struct {
	policy      *service.Policy
	authService *service.AuthService
}

func (a actor) can(c *gin.Context, ownerID *int64, capability string) bool {
	user := middleware.CurrentUser(c, a.authService)
	if user == nil {
		return false
	}
	if ownerID != nil && *ownerID == user.ID {
		return true
	}

	var membership *model.Membership
	if tc := middleware.GetTenant(c); tc != nil {
		m, err := a.authService.Membership(c.Request.Context(), user.ID, tc.TenantID())
		if err != nil {
			return false
		}
		membership = m
	}
	return a.policy.Can(user, membership, capability)
}

func toBookingInfo(b *model.Booking) *dto.BookingInfo {
	return &dto.BookingInfo{
		ID:         b.ID,
		Reference:  b.Reference,
		RoomID:     b.RoomID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Status:     b.Status,
		TotalPrice: b.TotalPrice,
		CreatedAt:  b.CreatedAt,
	}
}

func toEventBookingInfo(b *model.EventBooking, inv *model.Invoice) *dto.EventBookingInfo {
	info := &dto.EventBookingInfo{
		ID:         b.ID,
		Reference:  b.Reference,
		HallID:     b.HallID,
		EventName:  b.EventName,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     b.Status,
		TotalPrice: b.TotalPrice,
	}
	if inv != nil {
		info.InvoiceID = inv.ID
		info.PaymentURL = invoicePaymentPath(inv.ID)
	}
	return info
}

func toInvoiceInfo(inv *model.Invoice) *dto.InvoiceInfo {
	return &dto.InvoiceInfo{
		ID:          inv.ID,
		TargetKind:  string(inv.TargetKind),
		TargetID:    inv.TargetID,
		Amount:      inv.Amount,
		Currency:    inv.Currency,
		Status:      inv.Status,
		Description: inv.Description,
		DueDate:     inv.DueDate,
		PaidAt:      inv.PaidAt,
	}
}

func toSettleResponse(res *service.SettleResult) *dto.SettleResponse {
	resp := &dto.SettleResponse{
		Invoice:        toInvoiceInfo(res.Invoice),
		AlreadySettled: res.AlreadySettled,
	}
	if res.Payment != nil {
		resp.PaymentID = res.Payment.ID
		resp.TransactionID = res.Payment.TransactionID
	}
	return resp
}
