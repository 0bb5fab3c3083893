package gift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dao/mysql/repository"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/servicetest"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/gifttoken"
)

var secret = []byte("test-gift-secret")

type fixture struct {
	svc    *giftService
	repos  *repository.Repositories
	cache  *myredis.RedisCache
	events *servicetest.Recorder
}

func newFixture(t *testing.T, clientBalance int64) *fixture {
	t.Helper()
	repos := servicetest.NewRepos(t)
	_, client := servicetest.NewRedis(t)
	cache := myredis.NewRedisCache(client, 2, 10)
	t.Cleanup(cache.Close)

	servicetest.SeedUser(t, repos, "M1", constants.RoleModel, 0)
	servicetest.SeedUser(t, repos, "C1", constants.RoleClient, clientBalance)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now())

	events := &servicetest.Recorder{}
	svc := NewGiftService(repos, cache, events, config.GiftConfig{
		RequestExpiry: 2 * time.Minute,
		TokenSecret:   string(secret),
		TokenMaxAge:   10 * time.Minute,
		CatalogTTL:    time.Minute,
	})
	require.NoError(t, svc.SeedCatalog(context.Background()))
	return &fixture{svc: svc, repos: repos, cache: cache, events: events}
}

func issue(t *testing.T, giftId string) string {
	t.Helper()
	token, err := gifttoken.Issue(secret, gifttoken.Claims{SessionID: "room-42", GiftID: giftId, RequesterID: "M1"})
	require.NoError(t, err)
	return token
}

func (f *fixture) request(t *testing.T, giftId string) (requestId, token string) {
	t.Helper()
	token = issue(t, giftId)
	res, err := f.svc.Request(context.Background(), "M1", request.GiftRequestRequest{
		SessionId: "room-42", GiftId: giftId, RecipientId: "C1", Message: "送我一朵吧", SecurityToken: token,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.ChatMessage)
	assert.Equal(t, model.MessageGiftRequest, res.ChatMessage.Type)
	assert.Equal(t, "room-42", res.ChatMessage.RoomScope)
	return res.RequestId, token
}

func (f *fixture) balance(t *testing.T, userId string) int64 {
	t.Helper()
	u, err := f.repos.User.FindByUuid(userId)
	require.NoError(t, err)
	return u.Balance
}

func TestRequestAcceptSettlesOnce(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	requestId, _ := f.request(t, "rose")

	pending, err := f.svc.Pending(ctx, "C1", "room-42")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, requestId, pending[0].RequestId)
	assert.Equal(t, int64(10), pending[0].Gift.Price)

	res, err := f.svc.Accept(ctx, "C1", requestId, request.GiftAcceptRequest{SecurityToken: pending[0].SecurityToken})
	require.NoError(t, err)
	assert.Equal(t, int64(90), res.SenderBalance)
	assert.Equal(t, int64(10), res.RecipientBalance)
	assert.Equal(t, int64(90), res.Balance)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, model.MessageGiftSent, res.Messages[0].Type)
	assert.Equal(t, "room-42_client", res.Messages[0].RoomScope)
	assert.Equal(t, model.MessageGiftReceived, res.Messages[1].Type)
	assert.Equal(t, "room-42_model", res.Messages[1].RoomScope)

	assert.Equal(t, int64(90), f.balance(t, "C1"))
	assert.Equal(t, int64(10), f.balance(t, "M1"))

	// 重复接受
	_, err = f.svc.Accept(ctx, "C1", requestId, request.GiftAcceptRequest{SecurityToken: pending[0].SecurityToken})
	assert.Equal(t, errorx.CodeInvalidRequest, errorx.GetCode(err))
	assert.Equal(t, int64(90), f.balance(t, "C1"))

	pending, err = f.svc.Pending(ctx, "C1", "room-42")
	require.NoError(t, err)
	assert.Empty(t, pending)

	txs, err := f.repos.GiftTx.FindBySession("room-42")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].GiftRequestId)
	assert.Equal(t, requestId, *txs[0].GiftRequestId)
	assert.Contains(t, f.events.Keys(), constants.EventGiftSettled)
}

func TestAcceptInsufficientBalanceKeepsPending(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()
	requestId, token := f.request(t, "diamond")

	_, err := f.svc.Accept(ctx, "C1", requestId, request.GiftAcceptRequest{SecurityToken: token})
	assert.Equal(t, errorx.CodeInsufficientBalance, errorx.GetCode(err))
	assert.Equal(t, int64(50), f.balance(t, "C1"))
	assert.Equal(t, int64(0), f.balance(t, "M1"))

	gr, err := f.repos.GiftRequest.FindByUuid(requestId)
	require.NoError(t, err)
	assert.Equal(t, model.GiftRequestPending, gr.Status)

	txs, err := f.repos.GiftTx.FindBySession("room-42")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRejectNeverMovesBalance(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	requestId, token := f.request(t, "heart")

	res, err := f.svc.Reject(ctx, "C1", requestId, request.GiftRejectRequest{Reason: "下次吧"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = f.svc.Accept(ctx, "C1", requestId, request.GiftAcceptRequest{SecurityToken: token})
	assert.Equal(t, errorx.CodeInvalidRequest, errorx.GetCode(err))
	_, err = f.svc.Reject(ctx, "C1", requestId, request.GiftRejectRequest{})
	assert.Equal(t, errorx.CodeInvalidRequest, errorx.GetCode(err))

	assert.Equal(t, int64(100), f.balance(t, "C1"))
	gr, err := f.repos.GiftRequest.FindByUuid(requestId)
	require.NoError(t, err)
	assert.Equal(t, model.GiftRequestRejected, gr.Status)
	assert.Equal(t, "下次吧", gr.RejectReason)
}

func TestExpiredRequestIsInvalid(t *testing.T) {
	f := newFixture(t, 100)
	requestId, token := f.request(t, "rose")

	later := time.Now().Add(3 * time.Minute)
	f.svc.now = func() time.Time { return later }

	_, err := f.svc.Accept(context.Background(), "C1", requestId, request.GiftAcceptRequest{SecurityToken: token})
	assert.Equal(t, errorx.CodeInvalidRequest, errorx.GetCode(err))
	assert.Equal(t, int64(100), f.balance(t, "C1"))

	gr, err := f.repos.GiftRequest.FindByUuid(requestId)
	require.NoError(t, err)
	assert.Equal(t, model.GiftRequestExpired, gr.Status)

	pending, err := f.svc.Pending(context.Background(), "C1", "")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTokenChecks(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	// 令牌绑定的是另一件礼物
	_, err := f.svc.Request(ctx, "M1", request.GiftRequestRequest{
		SessionId: "room-42", GiftId: "heart", RecipientId: "C1", SecurityToken: issue(t, "rose"),
	})
	assert.Equal(t, errorx.CodeInvalidToken, errorx.GetCode(err))

	_, err = f.svc.Request(ctx, "M1", request.GiftRequestRequest{
		SessionId: "room-42", GiftId: "rose", RecipientId: "C1", SecurityToken: "garbage",
	})
	assert.Equal(t, errorx.CodeInvalidToken, errorx.GetCode(err))

	requestId, token := f.request(t, "rose")
	_, err = f.svc.Request(ctx, "M1", request.GiftRequestRequest{
		SessionId: "room-42", GiftId: "rose", RecipientId: "C1", SecurityToken: token,
	})
	assert.Equal(t, errorx.CodeDuplicateRequest, errorx.GetCode(err))

	_, err = f.svc.Accept(ctx, "C1", requestId, request.GiftAcceptRequest{SecurityToken: issue(t, "rose")})
	assert.Equal(t, errorx.CodeInvalidToken, errorx.GetCode(err))
}

func TestRoleChecks(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, "C1", request.GiftRequestRequest{
		SessionId: "room-42", GiftId: "rose", RecipientId: "M1", SecurityToken: issue(t, "rose"),
	})
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))

	requestId, token := f.request(t, "rose")
	_, err = f.svc.Accept(ctx, "M1", requestId, request.GiftAcceptRequest{SecurityToken: token})
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))

	_, err = f.svc.Send(ctx, "M1", request.GiftSendRequest{SessionId: "room-42", GiftId: "rose", RecipientId: "C1"})
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))
}

func TestSendDirect(t *testing.T) {
	f := newFixture(t, 60)
	ctx := context.Background()

	res, err := f.svc.Send(ctx, "C1", request.GiftSendRequest{SessionId: "room-42", GiftId: "heart", RecipientId: "M1"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Balance)
	assert.Equal(t, int64(50), res.RecipientBalance)
	assert.Empty(t, res.RequestId)

	_, err = f.svc.Send(ctx, "C1", request.GiftSendRequest{SessionId: "room-42", GiftId: "heart", RecipientId: "M1"})
	assert.Equal(t, errorx.CodeInsufficientBalance, errorx.GetCode(err))
	assert.Equal(t, int64(10), f.balance(t, "C1"))

	txs, err := f.repos.GiftTx.FindBySession("room-42")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].GiftRequestId)
	assert.Equal(t, txs[0].SenderBalanceAfter+txs[0].Amount, int64(60))
}

func TestCatalogIsCached(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	items, err := f.svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "rose", items[0].GiftId)

	require.Eventually(t, func() bool {
		v, err := f.cache.Get(ctx, catalogCacheKey)
		return err == nil && v != ""
	}, time.Second, 10*time.Millisecond)

	again, err := f.svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, again)
}
