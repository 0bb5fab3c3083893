package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadByType(t *testing.T) {
	msgType, raw, err := EncodePayload(GiftSentPayload{
		GiftInfo:      GiftInfo{GiftId: "rose", Name: "Rose", Price: 80},
		TransactionId: "tx-1",
		RecipientId:   "M1",
		BalanceAfter:  20,
	})
	require.NoError(t, err)
	assert.Equal(t, MessageGiftSent, msgType)

	p, err := DecodePayload(msgType, raw)
	require.NoError(t, err)
	sent, ok := p.(GiftSentPayload)
	require.True(t, ok)
	assert.Equal(t, int64(80), sent.Price)
	assert.Equal(t, int64(20), sent.BalanceAfter)

	// 同样的 JSON 按收款类型解析得到另一种结构
	p, err = DecodePayload(MessageGiftReceived, raw)
	require.NoError(t, err)
	_, ok = p.(GiftReceivedPayload)
	assert.True(t, ok)
}

func TestTextHasNoExtraData(t *testing.T) {
	msgType, raw, err := EncodePayload(TextPayload{})
	require.NoError(t, err)
	assert.Equal(t, MessageText, msgType)
	assert.Nil(t, raw)

	p, err := DecodePayload(MessageEmoji, nil)
	require.NoError(t, err)
	assert.Equal(t, EmojiPayload{}, p)

	_, err = DecodePayload("voice", nil)
	assert.Error(t, err)
}

func TestPairSessionPartner(t *testing.T) {
	s := &PairSession{ModelId: "M1", ClientId: "C1"}
	p, ok := s.Partner("M1")
	assert.True(t, ok)
	assert.Equal(t, "C1", p)
	assert.Equal(t, "client", s.RoleOf("C1"))
	_, ok = s.Partner("X")
	assert.False(t, ok)
	assert.True(t, IsUserSendable(MessageEmoji))
	assert.False(t, IsUserSendable(MessageGiftSent))
}
