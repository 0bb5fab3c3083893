package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/servicetest"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

func TestNextNotifiesPartnerOnce(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-42", "M1", "C1", time.Now())
	notifier := &servicetest.Notifier{}
	events := &servicetest.Recorder{}
	svc := NewRoomService(repos, notifier, events)
	ctx := context.Background()

	res, err := svc.Next(ctx, "C1", "room-42")
	require.NoError(t, err)
	assert.True(t, res.Ended)

	// 对方随后点离开，会话已结束，不再通知
	res, err = svc.Leave(ctx, "M1", "room-42")
	require.NoError(t, err)
	assert.False(t, res.Ended)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "M1", sent[0].Target)
	assert.Equal(t, constants.NotifyPartnerWentNext, sent[0].Kind)
	assert.Equal(t, "room-42", sent[0].SessionId)
	data := sent[0].Data.(respond.PartnerEventData)
	assert.Equal(t, "C1", data.EndedBy)
	assert.Equal(t, "search", data.Redirect)
	assert.Equal(t, []string{constants.EventSessionEnded}, events.Keys())

	sess, err := svc.Get(ctx, "M1", "room-42")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStateEnded, sess.State)
	assert.Equal(t, model.EndReasonNext, sess.EndReason)
	assert.Equal(t, "C1", sess.PartnerId)
	assert.NotZero(t, sess.EndedAt)
}

func TestLeaveSendsPartnerLeft(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-7", "M1", "C1", time.Now())
	notifier := &servicetest.Notifier{}
	svc := NewRoomService(repos, notifier, &servicetest.Recorder{})

	_, err := svc.Leave(context.Background(), "M1", "room-7")
	require.NoError(t, err)
	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "C1", sent[0].Target)
	assert.Equal(t, constants.NotifyPartnerLeftSession, sent[0].Kind)
	assert.Equal(t, "room-7", sent[0].SessionId)
}

func TestOutsiderCannotEnd(t *testing.T) {
	repos := servicetest.NewRepos(t)
	servicetest.SeedSession(t, repos, "room-9", "M1", "C1", time.Now())
	svc := NewRoomService(repos, &servicetest.Notifier{}, &servicetest.Recorder{})

	_, err := svc.Next(context.Background(), "X9", "room-9")
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))

	_, err = svc.Get(context.Background(), "M1", "missing")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestCreate(t *testing.T) {
	repos := servicetest.NewRepos(t)
	svc := NewRoomService(repos, &servicetest.Notifier{}, &servicetest.Recorder{})

	sess, err := svc.Create(context.Background(), "M1", "C1")
	require.NoError(t, err)
	assert.Len(t, sess.Uuid, 20)
	assert.Equal(t, model.SessionStateActive, sess.State)

	got, err := svc.Get(context.Background(), "C1", sess.Uuid)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleClient, got.Role)
	assert.Equal(t, "M1", got.PartnerId)
}
