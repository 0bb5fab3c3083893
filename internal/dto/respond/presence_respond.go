package respond

// OnlineUserItem 在线列表中的一项
type OnlineUserItem struct {
	UserId       string `json:"userId"`
	Role         string `json:"role"`
	ActivityKind string `json:"activityKind"`
	SessionId    string `json:"sessionId,omitempty"`
	LastSeen     int64  `json:"lastSeen"`
}
