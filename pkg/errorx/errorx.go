package errorx

import (
	"context"
	"errors"
	"fmt"
)

// CodeError 带业务错误码的自定义错误
// 实现了 error 接口，支持 %w 包装底层错误，且能被 errors.Is/errors.As 识别
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息
	cause error  // 被包装的底层错误
}

// Error 当存在底层错误时返回 "消息: 底层错误"，否则仅返回消息
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap 支持 errors.Is/errors.As 向下追溯
func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is 同码即视为同一错误，预定义实例可直接用于 errors.Is 比较
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误，添加业务错误码和消息
// 用法: errorx.Wrap(err, CodeNotFound, "会话不存在")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf 包装底层错误，支持格式化消息
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// GetCode 从错误中提取业务错误码，如果不是 CodeError 则返回默认码
func GetCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeServerBusy
}

// 业务状态码常量定义
const (
	CodeSuccess             = 1000 // 成功
	CodeInvalidParam        = 1001 // 请求参数错误
	CodeServerBusy          = 1005 // 服务繁忙
	CodeUnauthorized        = 1006 // 未授权/认证失败
	CodeForbidden           = 1007 // 角色不符或无权操作
	CodeNotFound            = 1008 // 资源不存在
	CodeDBError             = 1010 // 数据库错误
	CodeCacheError          = 1011 // 缓存错误
	CodeInvalidToken        = 1020 // 礼物安全令牌无效
	CodeInvalidRequest      = 1021 // 请求已被处理或已过期
	CodeDuplicateRequest    = 1022 // 重复提交
	CodeInsufficientBalance = 1023 // 余额不足
	CodeBlocked             = 1024 // 双方关系被屏蔽
	CodeTimeout             = 1030 // 调用超时
	CodeNetwork             = 1031 // 网络错误
	CodeInFlight            = 1032 // 同一请求正在处理中（客户端本地）
)

// 预定义常用错误实例
var (
	ErrInvalidParam        = New(CodeInvalidParam, "请求参数错误")
	ErrServerBusy          = New(CodeServerBusy, "服务繁忙")
	ErrForbidden           = New(CodeForbidden, "无权执行该操作")
	ErrInvalidToken        = New(CodeInvalidToken, "安全令牌无效")
	ErrInvalidRequest      = New(CodeInvalidRequest, "请求已处理或已过期")
	ErrDuplicateRequest    = New(CodeDuplicateRequest, "重复请求")
	ErrInsufficientBalance = New(CodeInsufficientBalance, "余额不足")
)

// kinds 错误码到线上 errorKind 字符串的映射
var kinds = map[int]string{
	CodeSuccess:             "",
	CodeInvalidParam:        "invalid_param",
	CodeServerBusy:          "server_busy",
	CodeUnauthorized:        "unauthorized",
	CodeForbidden:           "forbidden",
	CodeNotFound:            "not_found",
	CodeDBError:             "server_busy",
	CodeCacheError:          "server_busy",
	CodeInvalidToken:        "invalid_token",
	CodeInvalidRequest:      "invalid_request",
	CodeDuplicateRequest:    "duplicate_request",
	CodeInsufficientBalance: "insufficient_balance",
	CodeBlocked:             "blocked",
	CodeTimeout:             "timeout",
	CodeNetwork:             "network_error",
	CodeInFlight:            "in_flight",
}

// KindOf 返回错误码对应的 errorKind
func KindOf(code int) string {
	if k, ok := kinds[code]; ok {
		return k
	}
	return "server_busy"
}

// Kind 返回错误对应的 errorKind，nil 返回空串
func Kind(err error) string {
	if err == nil {
		return ""
	}
	return KindOf(GetCode(err))
}

// CodeOfKind 把线上的 errorKind 还原为错误码，未知的视为服务繁忙
func CodeOfKind(kind string) int {
	for code, k := range kinds {
		if k == kind && code != CodeDBError && code != CodeCacheError {
			return code
		}
	}
	return CodeServerBusy
}
