package constants

import "time"

const (
	CHANNEL_SIZE   = 100  // 通道大小
	REDIS_TIMEOUT  = 1    // redis timeout (分钟)
	MAX_BODY_RUNES = 2000 // 单条聊天消息最大字符数
)

// 角色
const (
	RoleModel  = "model"
	RoleClient = "client"
)

// 心跳活动类型
const (
	ActivityBrowsing  = "browsing"
	ActivityVideochat = "videochat"
)

// 信箱通知类型
const (
	NotifyPartnerWentNext    = "partner_went_next"
	NotifyPartnerLeftSession = "partner_left_session"
)

// MailboxKinds 消费时按此顺序查找
var MailboxKinds = []string{NotifyPartnerWentNext, NotifyPartnerLeftSession}

// 角色专属频道后缀
const (
	ScopeSuffixClient = "_client"
	ScopeSuffixModel  = "_model"
)

// 总线事件 key
const (
	EventSessionEnded     = "session.ended"
	EventDurationReported = "duration.reported"
	EventGiftSettled      = "gift.settled"
)

// 默认值，配置缺省时使用
const (
	DefaultDurationFloorSecs  = 30
	DefaultRatePerMinute      = 60
	DefaultRequestExpiry      = 2 * time.Minute
	DefaultPresenceTTL        = 45 * time.Second
	DefaultMailboxTTL         = 10 * time.Minute
	DefaultGiftCatalogTTL     = 5 * time.Minute
	DefaultGiftTokenMaxAge    = 10 * time.Minute
	DefaultStateChangeTimeout = 12 * time.Second
)
