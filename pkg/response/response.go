package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
// 成功: {"success":true,"data":...}
// 失败: {"success":false,"error":{"code":"...","message":"...","details":...}}
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody 错误详情
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// 传输层错误码（业务错误码由各 handler 定义）
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeRateLimited    = "RATE_LIMITED"
	CodeBodyTooLarge   = "REQUEST_TOO_LARGE"
	CodeNotFound       = "NOT_FOUND"
	CodeInternalError  = "INTERNAL_SERVER_ERROR"
)

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// ── 错误响应 ──

// Fail 业务错误，HTTP 状态码保持 200，由 error.code 区分
func Fail(c *gin.Context, code, message string) {
	Error(c, http.StatusOK, code, message, nil)
}

// FailWithDetails 带详情的业务错误
func FailWithDetails(c *gin.Context, code, message string, details interface{}) {
	Error(c, http.StatusOK, code, message, details)
}

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code, message string, details interface{}) {
	c.JSON(httpStatus, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AbortWithError 中间件使用：写出错误并终止后续处理
func AbortWithError(c *gin.Context, httpStatus int, code, message string) {
	Error(c, httpStatus, code, message, nil)
	c.Abort()
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeInvalidRequest, message, nil)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	AbortWithError(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	AbortWithError(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternalError, "服务器内部错误", nil)
}
