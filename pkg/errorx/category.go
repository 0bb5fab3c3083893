package errorx

// Category 错误分类，决定调用方的处理策略
type Category int

const (
	// CategoryNone 无错误
	CategoryNone Category = iota
	// CategoryTransient 超时、5xx、网络抖动；状态变更类调用最多重试一次，轮询类等下一轮
	CategoryTransient
	// CategoryValidation 参数或令牌错误；提示用户，不重试
	CategoryValidation
	// CategoryConflict 请求已被处理/重复；视为本地状态过期，刷新列表
	CategoryConflict
	// CategoryAuthorization 角色不符或关系被屏蔽；该配对后续禁用相应操作
	CategoryAuthorization
	// CategoryBusiness 业务规则拒绝（如余额不足），原样展示
	CategoryBusiness
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryTransient:
		return "transient"
	case CategoryValidation:
		return "validation"
	case CategoryConflict:
		return "conflict"
	case CategoryAuthorization:
		return "authorization"
	case CategoryBusiness:
		return "business"
	}
	return "unknown"
}

// Classify 按错误码归类
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}
	switch GetCode(err) {
	case CodeInvalidParam, CodeInvalidToken, CodeNotFound:
		return CategoryValidation
	case CodeInvalidRequest, CodeDuplicateRequest, CodeInFlight:
		return CategoryConflict
	case CodeUnauthorized, CodeForbidden, CodeBlocked:
		return CategoryAuthorization
	case CodeInsufficientBalance:
		return CategoryBusiness
	default:
		return CategoryTransient
	}
}

// IsTransient 是否为可重试的瞬时错误
func IsTransient(err error) bool {
	return Classify(err) == CategoryTransient
}

// IsNotFound 检查错误是否为"未找到"类型
func IsNotFound(err error) bool {
	return err != nil && GetCode(err) == CodeNotFound
}
