package respond

import "encoding/json"

// SessionRespond 会话信息，PartnerId/Role 以调用方视角填写
// 使用位置:
//   - internal/service/room: Get
//   - internal/service/match: Search
type SessionRespond struct {
	SessionId string `json:"sessionId"`
	ModelId   string `json:"modelId"`
	ClientId  string `json:"clientId"`
	PartnerId string `json:"partnerId"`
	Role      string `json:"role"`
	State     string `json:"state"`
	EndReason string `json:"endReason,omitempty"`
	StartedAt int64  `json:"startedAt"`
	EndedAt   int64  `json:"endedAt,omitempty"`
}

// MatchRespond 匹配轮询结果
type MatchRespond struct {
	Matched bool            `json:"matched"`
	Session *SessionRespond `json:"session,omitempty"`
}

// EndSessionRespond 跳过/离开结果；Ended 为 false 表示会话此前已结束
type EndSessionRespond struct {
	SessionId string `json:"sessionId"`
	Ended     bool   `json:"ended"`
	State     string `json:"state"`
}

// SessionEventItem 会话审计事件
type SessionEventItem struct {
	EventKey   string          `json:"eventKey"`
	ActorId    string          `json:"actorId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt int64           `json:"occurredAt"` // unix ms
}
