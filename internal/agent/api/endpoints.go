package api

import (
	"context"
	"net/http"

	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
)

func (c *Client) Heartbeat(ctx context.Context, req request.HeartbeatRequest) error {
	return c.do(ctx, http.MethodPost, "/heartbeat", req, nil)
}

func (c *Client) Online(ctx context.Context, role string) ([]respond.OnlineUserItem, error) {
	var out []respond.OnlineUserItem
	err := c.do(ctx, http.MethodGet, "/presence/online", nil, &out, withQuery("role", role))
	return out, err
}

// PollStatus 取出即消费
func (c *Client) PollStatus(ctx context.Context) (*respond.StatusUpdateRespond, error) {
	var out respond.StatusUpdateRespond
	if err := c.do(ctx, http.MethodGet, "/status/updates", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Search(ctx context.Context) (*respond.MatchRespond, error) {
	var out respond.MatchRespond
	if err := c.do(ctx, http.MethodPost, "/match/search", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelSearch(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/match/cancel", nil, nil)
}

func (c *Client) Next(ctx context.Context, sessionId string) (*respond.EndSessionRespond, error) {
	var out respond.EndSessionRespond
	if err := c.do(ctx, http.MethodPost, "/session/next", request.SessionEndRequest{SessionId: sessionId}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leave(ctx context.Context, sessionId string) (*respond.EndSessionRespond, error) {
	var out respond.EndSessionRespond
	if err := c.do(ctx, http.MethodPost, "/session/leave", request.SessionEndRequest{SessionId: sessionId}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportDuration(ctx context.Context, req request.DurationReportRequest) (*respond.DurationReportRespond, error) {
	var out respond.DurationReportRespond
	if err := c.do(ctx, http.MethodPost, "/earnings/update-duration", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Balance(ctx context.Context) (*respond.BalanceRespond, error) {
	var out respond.BalanceRespond
	if err := c.do(ctx, http.MethodGet, "/user/balance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Gifts(ctx context.Context) ([]respond.GiftItem, error) {
	var out []respond.GiftItem
	err := c.do(ctx, http.MethodGet, "/gifts/available", nil, &out)
	return out, err
}

func (c *Client) RequestGift(ctx context.Context, req request.GiftRequestRequest) (*respond.GiftRequestRespond, error) {
	var out respond.GiftRequestRespond
	if err := c.do(ctx, http.MethodPost, "/gifts/request", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptGift(ctx context.Context, requestId string, req request.GiftAcceptRequest) (*respond.GiftSettleRespond, error) {
	var out respond.GiftSettleRespond
	if err := c.do(ctx, http.MethodPost, "/gifts/accept/{id}", req, &out, withPath("id", requestId)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectGift(ctx context.Context, requestId string, req request.GiftRejectRequest) (*respond.GiftRejectRespond, error) {
	var out respond.GiftRejectRespond
	if err := c.do(ctx, http.MethodPost, "/gifts/reject/{id}", req, &out, withPath("id", requestId)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendGift(ctx context.Context, req request.GiftSendRequest) (*respond.GiftSettleRespond, error) {
	var out respond.GiftSettleRespond
	if err := c.do(ctx, http.MethodPost, "/gifts/send", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PendingGifts(ctx context.Context, sessionId string) ([]respond.PendingGiftItem, error) {
	var out []respond.PendingGiftItem
	err := c.do(ctx, http.MethodGet, "/gifts/pending", nil, &out, withQuery("sessionId", sessionId))
	return out, err
}

func (c *Client) Messages(ctx context.Context, scope string) ([]respond.MessageItem, error) {
	var out []respond.MessageItem
	err := c.do(ctx, http.MethodGet, "/chat/messages/{scope}", nil, &out, withPath("scope", scope))
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, req request.SendMessageRequest) (*respond.MessageItem, error) {
	var out respond.MessageItem
	if err := c.do(ctx, http.MethodPost, "/chat/send-message", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Conversations(ctx context.Context) ([]respond.ConversationItem, error) {
	var out []respond.ConversationItem
	err := c.do(ctx, http.MethodGet, "/chat/conversations", nil, &out)
	return out, err
}

func (c *Client) MarkRead(ctx context.Context, scope string) (*respond.MarkReadRespond, error) {
	var out respond.MarkReadRespond
	if err := c.do(ctx, http.MethodPost, "/chat/mark-read", request.MarkReadRequest{RoomScope: scope}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
