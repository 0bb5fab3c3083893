package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pair_chat_server/internal/config"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/gateway/websocket"
	"pair_chat_server/internal/handler"
	"pair_chat_server/internal/service"
	"pair_chat_server/internal/service/servicetest"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/jwt"
	"pair_chat_server/pkg/util/snowflake"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type apiFixture struct {
	engine *gin.Engine
}

func newAPI(t *testing.T) *apiFixture {
	gin.SetMode(gin.TestMode)
	jwt.Init("router-test-secret", 60)
	snowflake.Init(1)

	cfg := &config.Config{}
	cfg.GiftConfig.TokenSecret = "router-gift-secret"
	cfg.ApplyDefaults()

	repos := servicetest.NewRepos(t)
	_, client := servicetest.NewRedis(t)
	cache := myredis.NewRedisCache(client, 2, 16)
	t.Cleanup(cache.Close)
	stores := service.Stores{
		Cache:    cache,
		Mailbox:  myredis.NewMailbox(client, constants.MailboxKinds, cfg.SessionConfig.MailboxTTL),
		Presence: myredis.NewPresence(client, cfg.SessionConfig.PresenceTTL),
		Match:    myredis.NewMatchStore(client, cfg.SessionConfig.MailboxTTL),
	}
	svc := service.NewServices(cfg, repos, stores, &servicetest.Recorder{})
	require.NoError(t, svc.Gift.SeedCatalog(context.Background()))

	servicetest.SeedUser(t, repos, "m1", constants.RoleModel, 0)
	servicetest.SeedUser(t, repos, "c1", constants.RoleClient, 500)

	engine := gin.New()
	NewRouter(handler.NewHandlers(svc, websocket.NewManager(svc.Notify))).RegisterRoutes(engine)
	return &apiFixture{engine: engine}
}

func token(t *testing.T, userId, role string) string {
	tok, err := jwt.GenerateAccessToken(userId, role)
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) call(t *testing.T, method, path, tok string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	if w.Code == http.StatusOK || w.Code == http.StatusUnauthorized {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestRoutesRequireToken(t *testing.T) {
	f := newAPI(t)

	status, env := f.call(t, http.MethodGet, "/status/updates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, errorx.CodeUnauthorized, env.Code)
	assert.Equal(t, "unauthorized", env.Kind)

	// 健康检查不需要令牌，返回统一信封
	status, env = f.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, errorx.CodeSuccess, env.Code)
}

func TestHeartbeatRejectsUnknownActivity(t *testing.T) {
	f := newAPI(t)

	_, env := f.call(t, http.MethodPost, "/heartbeat", token(t, "m1", constants.RoleModel),
		map[string]string{"activityKind": "sleeping"})
	assert.Equal(t, errorx.CodeInvalidParam, env.Code)
	assert.Equal(t, "invalid_param", env.Kind)
}

func TestMatchChatAndLeaveFlow(t *testing.T) {
	f := newAPI(t)
	modelTok := token(t, "m1", constants.RoleModel)
	clientTok := token(t, "c1", constants.RoleClient)

	for _, tok := range []string{modelTok, clientTok} {
		_, env := f.call(t, http.MethodPost, "/heartbeat", tok, map[string]string{"activityKind": "browsing"})
		require.Equal(t, errorx.CodeSuccess, env.Code)
	}

	// 主播先排队
	_, env := f.call(t, http.MethodPost, "/match/search", modelTok, nil)
	require.Equal(t, errorx.CodeSuccess, env.Code)
	var waiting respond.MatchRespond
	require.NoError(t, json.Unmarshal(env.Data, &waiting))
	assert.False(t, waiting.Matched)

	// 客户配上
	_, env = f.call(t, http.MethodPost, "/match/search", clientTok, nil)
	var matched respond.MatchRespond
	require.NoError(t, json.Unmarshal(env.Data, &matched))
	require.True(t, matched.Matched)
	sessionId := matched.Session.SessionId
	assert.Equal(t, "m1", matched.Session.PartnerId)

	// 主播下一次轮询拿到同一个房间
	_, env = f.call(t, http.MethodPost, "/match/search", modelTok, nil)
	var picked respond.MatchRespond
	require.NoError(t, json.Unmarshal(env.Data, &picked))
	require.True(t, picked.Matched)
	assert.Equal(t, sessionId, picked.Session.SessionId)

	_, env = f.call(t, http.MethodPost, "/chat/send-message", clientTok, map[string]string{
		"roomScope": sessionId, "body": "hi", "type": "text",
	})
	require.Equal(t, errorx.CodeSuccess, env.Code, env.Msg)

	_, env = f.call(t, http.MethodGet, "/chat/messages/"+sessionId, modelTok, nil)
	var msgs []respond.MessageItem
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)

	_, env = f.call(t, http.MethodPost, "/session/leave", clientTok, map[string]string{"sessionId": sessionId})
	var ended respond.EndSessionRespond
	require.NoError(t, json.Unmarshal(env.Data, &ended))
	assert.True(t, ended.Ended)

	_, env = f.call(t, http.MethodGet, "/status/updates", modelTok, nil)
	var update respond.StatusUpdateRespond
	require.NoError(t, json.Unmarshal(env.Data, &update))
	require.True(t, update.HasNotification)
	assert.Equal(t, constants.NotifyPartnerLeftSession, update.Notification.Kind)

	// 取出即消费
	_, env = f.call(t, http.MethodGet, "/status/updates", modelTok, nil)
	require.NoError(t, json.Unmarshal(env.Data, &update))
	assert.False(t, update.HasNotification)
}

func TestGiftCatalogAndBalance(t *testing.T) {
	f := newAPI(t)
	clientTok := token(t, "c1", constants.RoleClient)

	_, env := f.call(t, http.MethodGet, "/gifts/available", clientTok, nil)
	var gifts []respond.GiftItem
	require.NoError(t, json.Unmarshal(env.Data, &gifts))
	assert.NotEmpty(t, gifts)

	_, env = f.call(t, http.MethodGet, "/user/balance", clientTok, nil)
	var bal respond.BalanceRespond
	require.NoError(t, json.Unmarshal(env.Data, &bal))
	assert.EqualValues(t, 500, bal.Balance)
}

func TestBlockListRoundTrip(t *testing.T) {
	f := newAPI(t)
	clientTok := token(t, "c1", constants.RoleClient)

	_, env := f.call(t, http.MethodPost, "/user/block", clientTok, map[string]string{"targetId": "m1"})
	require.Equal(t, errorx.CodeSuccess, env.Code, env.Msg)

	_, env = f.call(t, http.MethodGet, "/user/blocked", clientTok, nil)
	var ids []string
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	assert.Equal(t, []string{"m1"}, ids)
}
