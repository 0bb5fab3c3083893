package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/servicetest"
	"pair_chat_server/pkg/errorx"
)

func TestSendAndRead(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now())
	svc := NewChatService(repos)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "C1", request.SendMessageRequest{RoomScope: "room-42", Body: " 你好 ", Type: model.MessageText})
	require.NoError(t, err)
	assert.Equal(t, "你好", sent.Body)
	assert.NotEmpty(t, sent.Id)

	emoji, err := svc.Send(ctx, "M1", request.SendMessageRequest{
		RoomScope: "room-42", Type: model.MessageEmoji, ExtraData: json.RawMessage(`{"emoji":"👋"}`),
	})
	require.NoError(t, err)
	p, err := model.DecodePayload(emoji.Type, emoji.ExtraData)
	require.NoError(t, err)
	assert.Equal(t, "👋", p.(model.EmojiPayload).Emoji)

	msgs, err := svc.Messages(ctx, "M1", "room-42")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, sent.Id, msgs[0].Id)
	assert.Equal(t, emoji.Id, msgs[1].Id)
}

func TestSendRejectsInvalid(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now())
	svc := NewChatService(repos)
	ctx := context.Background()

	_, err := svc.Send(ctx, "C1", request.SendMessageRequest{RoomScope: "room-42", Body: "hi", Type: model.MessageGiftSent})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = svc.Send(ctx, "C1", request.SendMessageRequest{RoomScope: "room-42_client", Body: "hi", Type: model.MessageText})
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))

	_, err = svc.Send(ctx, "C1", request.SendMessageRequest{RoomScope: "room-42", Body: "   ", Type: model.MessageText})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = svc.Send(ctx, "X1", request.SendMessageRequest{RoomScope: "room-42", Body: "hi", Type: model.MessageText})
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))
}

func TestRoleScopeVisibility(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now())
	svc := NewChatService(repos)
	ctx := context.Background()

	now := time.Now()
	sent, err := NewMessage("room-42_client", "C1", "", model.GiftSentPayload{TransactionId: "T1", RecipientId: "M1"}, now)
	require.NoError(t, err)
	received, err := NewMessage("room-42_model", "C1", "", model.GiftReceivedPayload{TransactionId: "T1", SenderId: "C1"}, now)
	require.NoError(t, err)
	require.NoError(t, repos.Message.Create(sent))
	require.NoError(t, repos.Message.Create(received))

	msgs, err := svc.Messages(ctx, "M1", "room-42_model")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.MessageGiftReceived, msgs[0].Type)

	_, err = svc.Messages(ctx, "M1", "room-42_client")
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))
}

func TestConversationsUnreadAndMarkRead(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now().Add(-time.Minute))
	servicetest.SeedSession(t, repos, "room-43", "M1", "C2", time.Now())
	svc := NewChatService(repos)
	ctx := context.Background()

	for _, body := range []string{"一", "二", "三"} {
		_, err := svc.Send(ctx, "C1", request.SendMessageRequest{RoomScope: "room-42", Body: body, Type: model.MessageText})
		require.NoError(t, err)
	}

	convs, err := svc.Conversations(ctx, "M1")
	require.NoError(t, err)
	// room-43 没有消息，不出现在列表里
	require.Len(t, convs, 1)
	assert.Equal(t, "room-42", convs[0].RoomName)
	assert.Equal(t, "C1", convs[0].PartnerId)
	require.NotNil(t, convs[0].UnreadCount)
	assert.Equal(t, int64(3), *convs[0].UnreadCount)
	assert.Equal(t, "三", convs[0].LastMessage.Body)

	// 发送方自己的消息不算未读
	convs, err = svc.Conversations(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(0), *convs[0].UnreadCount)

	mark, err := svc.MarkRead(ctx, "M1", request.MarkReadRequest{RoomScope: "room-42"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mark.LastSeenAt, convs[0].LastMessage.CreatedAt)

	convs, err = svc.Conversations(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), *convs[0].UnreadCount)
	assert.Equal(t, mark.LastSeenAt, convs[0].LastSeenAt)
}

func TestSendRejectedWhenBlocked(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now())
	require.NoError(t, repos.Block.Block("M1", "C1"))
	svc := NewChatService(repos)

	_, err := svc.Send(context.Background(), "C1", request.SendMessageRequest{RoomScope: "room-42", Body: "hi", Type: model.MessageText})
	assert.Equal(t, errorx.CodeBlocked, errorx.GetCode(err))
}
