package chat

import (
	"strconv"

	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
)

// ToItem 转换为响应结构
func ToItem(m model.Message) respond.MessageItem {
	item := respond.MessageItem{
		Id:        strconv.FormatInt(m.Id, 10),
		RoomScope: m.RoomScope,
		SenderId:  m.SenderId,
		Type:      m.Type,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
	if len(m.ExtraData) > 0 {
		item.ExtraData = []byte(m.ExtraData)
	}
	return item
}
