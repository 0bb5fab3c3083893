package api

import (
	"errors"

	"pair_chat_server/pkg/errorx"
)

// Result 用户操作的结构化结果，交给界面层展示
type Result struct {
	Success   bool   `json:"success"`
	ErrorKind string `json:"errorKind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OK 成功结果
func OK() Result {
	return Result{Success: true}
}

// ResultOf 把错误转换为结果，nil 视为成功
func ResultOf(err error) Result {
	if err == nil {
		return OK()
	}
	r := Result{ErrorKind: errorx.Kind(err), Message: err.Error()}
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		r.Message = codeErr.Msg
	}
	return r
}
