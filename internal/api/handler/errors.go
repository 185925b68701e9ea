package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

var handlerLog = logger.WithComponent("api")

// respondError 领域错误映射为响应码；未识别的错误记录日志后返回 5000
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResourceUnavailable):
		response.UnavailableError(c, "")
	case errors.Is(err, service.ErrInvalidTransition):
		response.TransitionError(c, "")
	case errors.Is(err, service.ErrPaymentVerificationFailed):
		response.PaymentError(c, "")
	case errors.Is(err, service.ErrSubscriptionExpired):
		response.Error(c, response.CodeSubscriptionExpired, "")
	case errors.Is(err, service.ErrTenantNotResolved):
		response.TenantError(c, "")

	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrHallNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrTenantNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrGymPlanNotFound),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())

	case errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, service.ErrInvalidRoomStatus),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrSubdomainTaken),
		errors.Is(err, service.ErrFreePlan):
		response.ParamError(c, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		response.AuthError(c, err.Error())
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotTenantOwner):
		response.PermissionError(c, err.Error())

	default:
		handlerLog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		response.ServerError(c, "")
	}
}
