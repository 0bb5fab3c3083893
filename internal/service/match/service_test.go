package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/service/room"
	"pair_chat_server/internal/service/servicetest"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

type onlineSet map[string]bool

func (o onlineSet) IsOnline(_ context.Context, userId string) bool { return o[userId] }

func newService(t *testing.T, online onlineSet) *matchService {
	repos := servicetest.NewRepos(t)
	_, client := servicetest.NewRedis(t)
	rooms := room.NewRoomService(repos, &servicetest.Notifier{}, &servicetest.Recorder{})
	return NewMatchService(repos, myredis.NewMatchStore(client, time.Minute), rooms, online)
}

func TestSearchPairsOppositeRoles(t *testing.T) {
	svc := newService(t, onlineSet{"M1": true, "C1": true})
	ctx := context.Background()

	res, err := svc.Search(ctx, "M1", constants.RoleModel)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	res, err = svc.Search(ctx, "C1", constants.RoleClient)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, "M1", res.Session.PartnerId)
	assert.Equal(t, "M1", res.Session.ModelId)
	assert.Equal(t, "C1", res.Session.ClientId)
	roomName := res.Session.SessionId

	// 等待方下一次轮询拿到同一个房间
	res, err = svc.Search(ctx, "M1", constants.RoleModel)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, roomName, res.Session.SessionId)
	assert.Equal(t, "C1", res.Session.PartnerId)
}

func TestSearchSkipsOfflineCandidates(t *testing.T) {
	svc := newService(t, onlineSet{"M2": true, "C1": true})
	ctx := context.Background()

	_, err := svc.Search(ctx, "M1", constants.RoleModel)
	require.NoError(t, err)
	_, err = svc.Search(ctx, "M2", constants.RoleModel)
	require.NoError(t, err)

	res, err := svc.Search(ctx, "C1", constants.RoleClient)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, "M2", res.Session.PartnerId)
}

func TestCancelLeavesQueue(t *testing.T) {
	svc := newService(t, onlineSet{"M1": true, "C1": true})
	ctx := context.Background()

	_, err := svc.Search(ctx, "M1", constants.RoleModel)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, "M1", constants.RoleModel))

	res, err := svc.Search(ctx, "C1", constants.RoleClient)
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestUnknownRole(t *testing.T) {
	svc := newService(t, onlineSet{})
	_, err := svc.Search(context.Background(), "U1", "admin")
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))
}

func TestSearchSkipsBlockedCandidates(t *testing.T) {
	svc := newService(t, onlineSet{"M1": true, "C1": true})
	ctx := context.Background()
	require.NoError(t, svc.repos.Block.Block("M1", "C1"))

	_, err := svc.Search(ctx, "M1", constants.RoleModel)
	require.NoError(t, err)

	res, err := svc.Search(ctx, "C1", constants.RoleClient)
	require.NoError(t, err)
	assert.False(t, res.Matched)
}
