// Package chat 会话内聊天消息、会话列表与已读位置
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/relation"
	"pair_chat_server/internal/service/room"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/snowflake"
)

const (
	messagePageSize   = 200
	conversationLimit = 50
)

type chatService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewChatService(repos *repository.Repositories) *chatService {
	return &chatService{repos: repos, now: time.Now}
}

// NewMessage 构造一条消息，Id 为雪花 ID
func NewMessage(scope, senderId, body string, p model.Payload, at time.Time) (*model.Message, error) {
	msgType, raw, err := model.EncodePayload(p)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "序列化消息附加数据")
	}
	roomName, _ := model.ParseScope(scope)
	m := &model.Message{
		Id:        snowflake.GenerateID(),
		RoomName:  roomName,
		RoomScope: scope,
		SenderId:  senderId,
		Type:      msgType,
		Body:      body,
		CreatedAt: at,
	}
	if raw != nil {
		m.ExtraData = datatypes.JSON(raw)
	}
	return m, nil
}

// checkScope 主频道双方可读，角色频道只有对应角色可读
func checkScope(repos *repository.Repositories, scope, userId string) (*model.PairSession, string, error) {
	roomName, scopeRole := model.ParseScope(scope)
	sess, err := room.LoadParticipant(repos, roomName, userId)
	if err != nil {
		return nil, "", err
	}
	if scopeRole != "" && scopeRole != sess.RoleOf(userId) {
		return nil, "", errorx.New(errorx.CodeForbidden, "无权读取该频道")
	}
	return sess, scopeRole, nil
}

// Messages 频道内消息，按 created_at, id 升序
func (s *chatService) Messages(ctx context.Context, userId, scope string) ([]respond.MessageItem, error) {
	repos := s.repos.WithContext(ctx)
	if _, _, err := checkScope(repos, scope, userId); err != nil {
		return nil, err
	}
	msgs, err := repos.Message.FindByScope(scope, messagePageSize)
	if err != nil {
		zap.L().Error("查询消息失败", zap.String("scope", scope), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	items := make([]respond.MessageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, ToItem(m))
	}
	return items, nil
}

// Send 用户只能在主频道发送文本或表情，发送后标记已读
func (s *chatService) Send(ctx context.Context, userId string, req request.SendMessageRequest) (*respond.MessageItem, error) {
	repos := s.repos.WithContext(ctx)
	sess, scopeRole, err := checkScope(repos, req.RoomScope, userId)
	if err != nil {
		return nil, err
	}
	if scopeRole != "" {
		return nil, errorx.New(errorx.CodeForbidden, "角色频道只接收系统消息")
	}
	partner, _ := sess.Partner(userId)
	if err := relation.Check(repos, userId, partner); err != nil {
		return nil, err
	}
	if !model.IsUserSendable(req.Type) {
		return nil, errorx.New(errorx.CodeInvalidParam, "不支持的消息类型")
	}

	body := strings.TrimSpace(req.Body)
	if utf8.RuneCountInString(body) > constants.MAX_BODY_RUNES {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息过长")
	}
	var payload model.Payload = model.TextPayload{}
	if req.Type == model.MessageEmoji {
		var emoji model.EmojiPayload
		if len(req.ExtraData) > 0 {
			if err := json.Unmarshal(req.ExtraData, &emoji); err != nil {
				return nil, errorx.New(errorx.CodeInvalidParam, "表情数据格式错误")
			}
		}
		if emoji.Emoji == "" {
			emoji.Emoji = body
		}
		if emoji.Emoji == "" {
			return nil, errorx.New(errorx.CodeInvalidParam, "表情不能为空")
		}
		payload = emoji
	} else if body == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息不能为空")
	}

	now := s.now()
	m, err := NewMessage(req.RoomScope, userId, body, payload, now)
	if err != nil {
		return nil, err
	}
	if err := repos.Message.Create(m); err != nil {
		zap.L().Error("保存消息失败", zap.String("scope", req.RoomScope), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if err := repos.Read.Upsert(userId, m.RoomName, now); err != nil {
		zap.L().Warn("发送后标记已读失败", zap.String("room", m.RoomName), zap.Error(err))
	}
	item := ToItem(*m)
	return &item, nil
}

// Conversations 用户参与过且有消息的房间，未读数为精确计数
func (s *chatService) Conversations(ctx context.Context, userId string) ([]respond.ConversationItem, error) {
	repos := s.repos.WithContext(ctx)
	sessions, err := repos.Session.FindByUser(userId, conversationLimit)
	if err != nil {
		zap.L().Error("查询会话列表失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	items := make([]respond.ConversationItem, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		scopes := model.VisibleScopes(sess.Uuid, sess.RoleOf(userId))
		latest, err := repos.Message.FindLatest(scopes)
		if err != nil {
			if errorx.IsNotFound(err) {
				continue
			}
			zap.L().Error("查询最新消息失败", zap.String("room", sess.Uuid), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}

		var lastSeen time.Time
		read, err := repos.Read.Find(userId, sess.Uuid)
		switch {
		case err == nil:
			lastSeen = read.LastSeenAt
		case !errorx.IsNotFound(err):
			zap.L().Error("查询已读位置失败", zap.String("room", sess.Uuid), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}

		unread, err := repos.Message.CountUnread(scopes, userId, lastSeen)
		if err != nil {
			zap.L().Error("统计未读失败", zap.String("room", sess.Uuid), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}

		partner, _ := sess.Partner(userId)
		last := ToItem(*latest)
		item := respond.ConversationItem{
			RoomName:    sess.Uuid,
			PartnerId:   partner,
			LastMessage: &last,
			UnreadCount: &unread,
		}
		if !lastSeen.IsZero() {
			item.LastSeenAt = lastSeen.UnixMilli()
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkRead 已读位置取 now 与最新消息时间的较大者
func (s *chatService) MarkRead(ctx context.Context, userId string, req request.MarkReadRequest) (*respond.MarkReadRespond, error) {
	repos := s.repos.WithContext(ctx)
	sess, _, err := checkScope(repos, req.RoomScope, userId)
	if err != nil {
		return nil, err
	}

	at := s.now()
	latest, err := repos.Message.FindLatest(model.VisibleScopes(sess.Uuid, sess.RoleOf(userId)))
	if err != nil && !errorx.IsNotFound(err) {
		zap.L().Error("查询最新消息失败", zap.String("room", sess.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if latest != nil && latest.CreatedAt.After(at) {
		at = latest.CreatedAt
	}
	if err := repos.Read.Upsert(userId, sess.Uuid, at); err != nil {
		zap.L().Error("标记已读失败", zap.String("room", sess.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.MarkReadRespond{RoomName: sess.Uuid, LastSeenAt: at.UnixMilli()}, nil
}
