package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess             = 0
	CodeParamError          = 1000
	CodeAuthFailed          = 1001
	CodePermissionDenied    = 1002
	CodeResourceNotFound    = 1003
	CodeDuplicateAction     = 1005
	CodeResourceUnavailable = 1006
	CodeInvalidTransition   = 1007
	CodePaymentFailed       = 1008
	CodeSubscriptionExpired = 1009
	CodeTenantNotResolved   = 1010
	CodeServerError         = 5000
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeParamError:          "参数错误",
	CodeAuthFailed:          "认证失败",
	CodePermissionDenied:    "权限不足",
	CodeResourceNotFound:    "资源不存在",
	CodeDuplicateAction:     "重复操作",
	CodeResourceUnavailable: "该资源已被他人预订，请重新选择",
	CodeInvalidTransition:   "当前状态不允许该操作",
	CodePaymentFailed:       "支付未通过，请重试或更换支付方式",
	CodeSubscriptionExpired: "订阅已过期，请先完成续费",
	CodeTenantNotResolved:   "未识别的酒店站点",
	CodeServerError:         "服务器内部错误",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageData 分页数据结构
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	Success(c, PageData{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}

// Error 错误响应，message 为空时使用错误码默认消息
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 携带附加数据的错误响应（例如跳转地址）
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// DuplicateError 重复操作
func DuplicateError(c *gin.Context, message string) {
	Error(c, CodeDuplicateAction, message)
}

// UnavailableError 资源已被他人占用，需要重新选择
func UnavailableError(c *gin.Context, message string) {
	Error(c, CodeResourceUnavailable, message)
}

// TransitionError 状态机守卫不通过
func TransitionError(c *gin.Context, message string) {
	Error(c, CodeInvalidTransition, message)
}

// PaymentError 支付校验失败
func PaymentError(c *gin.Context, message string) {
	Error(c, CodePaymentFailed, message)
}

// SubscriptionExpiredError 订阅过期，附带支付页地址
func SubscriptionExpiredError(c *gin.Context, redirect string) {
	ErrorWithData(c, CodeSubscriptionExpired, "", gin.H{"redirect": redirect})
}

// TenantError 请求未绑定租户
func TenantError(c *gin.Context, message string) {
	Error(c, CodeTenantNotResolved, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}
