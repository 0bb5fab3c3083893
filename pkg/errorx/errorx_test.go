package errorx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := errors.New("record not found")
	err := Wrapf(cause, CodeNotFound, "查询会话 %s", "room-42")

	assert.Equal(t, "查询会话 room-42: record not found", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeNotFound, GetCode(fmt.Errorf("outer: %w", err)))
	assert.True(t, IsNotFound(err))
}

func TestPredefinedErrorsMatchByCode(t *testing.T) {
	err := Wrap(errors.New("rows affected 0"), CodeInsufficientBalance, "扣款失败")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
}

func TestGetCodeDefaults(t *testing.T) {
	assert.Equal(t, CodeSuccess, GetCode(nil))
	assert.Equal(t, CodeServerBusy, GetCode(errors.New("boom")))
	assert.Equal(t, CodeTimeout, GetCode(fmt.Errorf("call: %w", context.DeadlineExceeded)))
}

func TestKindRoundTrip(t *testing.T) {
	for _, code := range []int{CodeInsufficientBalance, CodeInvalidRequest, CodeDuplicateRequest, CodeInvalidToken, CodeForbidden} {
		kind := KindOf(code)
		assert.NotEmpty(t, kind)
		assert.Equal(t, code, CodeOfKind(kind), kind)
	}
	assert.Equal(t, "server_busy", Kind(New(CodeDBError, "db")))
	assert.Equal(t, CodeServerBusy, CodeOfKind("something_new"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Category
	}{
		{nil, CategoryNone},
		{errors.New("dial tcp: connection refused"), CategoryTransient},
		{New(CodeTimeout, "timeout"), CategoryTransient},
		{ErrInvalidToken, CategoryValidation},
		{ErrInvalidParam, CategoryValidation},
		{ErrInvalidRequest, CategoryConflict},
		{ErrDuplicateRequest, CategoryConflict},
		{ErrForbidden, CategoryAuthorization},
		{New(CodeBlocked, "blocked"), CategoryAuthorization},
		{ErrInsufficientBalance, CategoryBusiness},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
	assert.True(t, IsTransient(New(CodeNetwork, "reset")))
	assert.False(t, IsTransient(ErrInsufficientBalance))
}
