package model

import (
	"encoding/json"
	"fmt"
)

// Payload 消息附加数据，每种消息类型对应一种结构
type Payload interface {
	MessageType() string
}

type TextPayload struct{}

type EmojiPayload struct {
	Emoji string `json:"emoji"`
}

// GiftInfo 礼物展示信息
type GiftInfo struct {
	GiftId   string `json:"giftId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageRef string `json:"imageRef"`
}

type GiftRequestPayload struct {
	GiftInfo
	RequestId   string `json:"requestId"`
	RequesterId string `json:"requesterId"`
	RecipientId string `json:"recipientId"`
	Message     string `json:"message,omitempty"`
}

// GiftSentPayload 只投递到付款方角色频道
type GiftSentPayload struct {
	GiftInfo
	TransactionId string `json:"transactionId"`
	RecipientId   string `json:"recipientId"`
	BalanceAfter  int64  `json:"balanceAfter"`
}

// GiftReceivedPayload 只投递到收款方角色频道
type GiftReceivedPayload struct {
	GiftInfo
	TransactionId string `json:"transactionId"`
	SenderId      string `json:"senderId"`
	BalanceAfter  int64  `json:"balanceAfter"`
}

func (TextPayload) MessageType() string         { return MessageText }
func (EmojiPayload) MessageType() string        { return MessageEmoji }
func (GiftRequestPayload) MessageType() string  { return MessageGiftRequest }
func (GiftSentPayload) MessageType() string     { return MessageGiftSent }
func (GiftReceivedPayload) MessageType() string { return MessageGiftReceived }

// EncodePayload 序列化附加数据；文本消息没有附加数据
func EncodePayload(p Payload) (msgType string, raw []byte, err error) {
	msgType = p.MessageType()
	if _, ok := p.(TextPayload); ok {
		return msgType, nil, nil
	}
	raw, err = json.Marshal(p)
	return
}

// DecodePayload 按消息类型反序列化附加数据
func DecodePayload(msgType string, raw []byte) (Payload, error) {
	switch msgType {
	case MessageText:
		return TextPayload{}, nil
	case MessageEmoji:
		var v EmojiPayload
		err := unmarshalOptional(raw, &v)
		return v, err
	case MessageGiftRequest:
		var v GiftRequestPayload
		err := unmarshalOptional(raw, &v)
		return v, err
	case MessageGiftSent:
		var v GiftSentPayload
		err := unmarshalOptional(raw, &v)
		return v, err
	case MessageGiftReceived:
		var v GiftReceivedPayload
		err := unmarshalOptional(raw, &v)
		return v, err
	}
	return nil, fmt.Errorf("unknown message type %q", msgType)
}

func unmarshalOptional(raw []byte, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// IsUserSendable 用户只能直接发送文本和表情，礼物消息由服务端生成
func IsUserSendable(msgType string) bool {
	return msgType == MessageText || msgType == MessageEmoji
}
