package agent

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/agent/media"
	"pair_chat_server/internal/agent/session"
	"pair_chat_server/internal/config"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/gateway/websocket"
	"pair_chat_server/internal/handler"
	"pair_chat_server/internal/router"
	"pair_chat_server/internal/service"
	"pair_chat_server/internal/service/servicetest"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/util/jwt"
	"pair_chat_server/pkg/util/snowflake"
)

const giftSecret = "agent-gift-secret"

// newServer 内存库 + miniredis 上的完整服务端
func newServer(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt.Init("agent-test-secret", 60)
	snowflake.Init(2)

	cfg := &config.Config{}
	cfg.GiftConfig.TokenSecret = giftSecret
	cfg.ApplyDefaults()

	repos := servicetest.NewRepos(t)
	_, client := servicetest.NewRedis(t)
	cache := myredis.NewRedisCache(client, 2, 16)
	t.Cleanup(cache.Close)
	svc := service.NewServices(cfg, repos, service.Stores{
		Cache:    cache,
		Mailbox:  myredis.NewMailbox(client, constants.MailboxKinds, cfg.SessionConfig.MailboxTTL),
		Presence: myredis.NewPresence(client, cfg.SessionConfig.PresenceTTL),
		Match:    myredis.NewMatchStore(client, cfg.SessionConfig.MailboxTTL),
	}, &servicetest.Recorder{})
	require.NoError(t, svc.Gift.SeedCatalog(context.Background()))
	servicetest.SeedUser(t, repos, "m1", constants.RoleModel, 0)
	servicetest.SeedUser(t, repos, "c1", constants.RoleClient, 500)

	engine := gin.New()
	router.NewRouter(handler.NewHandlers(svc, websocket.NewManager(svc.Notify))).RegisterRoutes(engine)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, cfg
}

type user struct {
	core  *Core
	clock clockwork.FakeClock
	media *media.Loopback
}

func newUser(t *testing.T, srv *httptest.Server, cfg *config.Config, id, role string) *user {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(id, role)
	require.NoError(t, err)
	// 令牌签发时间由服务端按真实时间校验，假时钟从当前时间开始
	clk := clockwork.NewFakeClockAt(time.Now())
	lb := media.NewLoopback()
	core := New(cfg.AgentConfig, api.New(srv.URL, tok, 5*time.Second), lb, clk, Options{
		UserId:      id,
		Role:        role,
		TokenSecret: []byte(giftSecret),
	})
	require.NoError(t, core.Start())
	t.Cleanup(func() { core.Close(context.Background()) })
	return &user{core: core, clock: clk, media: lb}
}

// until 逐秒推进假时钟直到条件成立
func (u *user) until(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if cond() {
			return true
		}
		u.clock.Advance(time.Second)
		return false
	}, 5*time.Second, 5*time.Millisecond)
}

func TestPairGiftAndLeave(t *testing.T) {
	srv, cfg := newServer(t)
	ctx := context.Background()
	m := newUser(t, srv, cfg, "m1", constants.RoleModel)
	c := newUser(t, srv, cfg, "c1", constants.RoleClient)

	require.True(t, m.core.StartSession(ctx).Success)
	assert.Equal(t, session.StateSearching, m.core.SessionState().State)

	require.True(t, c.core.StartSession(ctx).Success)
	cs := c.core.SessionState()
	require.Equal(t, session.StateActive, cs.State)
	assert.Equal(t, "m1", cs.PartnerId)
	room := cs.SessionId

	m.until(t, func() bool { return m.core.SessionState().State == session.StateActive })
	assert.Equal(t, room, m.core.SessionState().SessionId)

	// 主播索要礼物，客户接受
	assert.Equal(t, "forbidden", c.core.RequestGift(ctx, "heart", "").ErrorKind)
	require.True(t, m.core.RequestGift(ctx, "heart", "谢谢").Success)
	c.core.pending.Trigger(ctx)
	pending := c.core.PendingGiftRequests()
	require.Len(t, pending, 1)
	assert.EqualValues(t, 50, pending[0].Gift.Price)

	require.True(t, c.core.AcceptGift(ctx, pending[0].RequestId).Success)
	assert.EqualValues(t, 450, c.core.CurrentBalance())
	assert.Empty(t, c.core.PendingGiftRequests())

	var types []string
	for _, msg := range c.core.Conversation(room).Messages() {
		types = append(types, msg.Type)
	}
	assert.Contains(t, types, "gift_sent")
	assert.NotContains(t, types, "gift_received")

	// 客户离开，主播从信箱得知
	require.True(t, c.core.EndSession(ctx, true).Success)
	cs = c.core.SessionState()
	assert.Equal(t, session.ReasonSelfEnded, cs.Reason)
	require.NotNil(t, cs.LastReport)
	assert.True(t, cs.LastReport.Success)

	m.until(t, func() bool {
		s := m.core.SessionState()
		return s.State == session.StateEnding || s.State == session.StateTerminated
	})
	ms := m.core.SessionState()
	assert.Equal(t, session.ReasonPartnerLeft, ms.Reason)
	require.NotNil(t, ms.LastReport)
	assert.True(t, ms.LastReport.Success)
}

func TestRoleGuards(t *testing.T) {
	srv, cfg := newServer(t)
	ctx := context.Background()
	m := newUser(t, srv, cfg, "m1", constants.RoleModel)

	assert.Equal(t, "forbidden", m.core.AcceptGift(ctx, "gr-1").ErrorKind)
	assert.Equal(t, "forbidden", m.core.SendGift(ctx, "heart").ErrorKind)
	assert.Equal(t, "invalid_request", m.core.RequestGift(ctx, "heart", "").ErrorKind)
	assert.Equal(t, "invalid_request", m.core.EndSession(ctx, true).ErrorKind)

	gifts, err := m.core.Catalog(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, gifts)
}
