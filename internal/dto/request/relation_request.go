package request

// BlockRequest 屏蔽 / 取消屏蔽
type BlockRequest struct {
	TargetId string `json:"targetId" binding:"required,max=40"`
}
