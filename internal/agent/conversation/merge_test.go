package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pair_chat_server/internal/dto/respond"
)

func msg(id, scope string, at int64) respond.MessageItem {
	return respond.MessageItem{Id: id, RoomScope: scope, CreatedAt: at, Type: "text"}
}

func TestMergeIsIdempotent(t *testing.T) {
	primary := []respond.MessageItem{msg("1", "room-42", 100), msg("3", "room-42", 300)}
	scoped := []respond.MessageItem{msg("2", "room-42_model", 200), msg("3", "room-42_model", 300), msg("4", "room-42_model", 300)}

	first := Merge(primary, scoped)
	second := Merge(primary, scoped)
	assert.Equal(t, first, second)
	assert.Equal(t, first, Merge(first, primary, scoped))

	var ids []string
	for _, m := range first {
		ids = append(ids, m.Id)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, "room-42", first[2].RoomScope)
}

func TestMergeBreaksTimestampTiesById(t *testing.T) {
	// 同一毫秒的两条消息来自不同频道，频道顺序不影响结果
	scoped := []respond.MessageItem{msg("12", "room-42_client", 300)}
	primary := []respond.MessageItem{msg("9", "room-42", 300), msg("100", "room-42", 300)}

	var ids []string
	for _, m := range Merge(scoped, primary) {
		ids = append(ids, m.Id)
	}
	assert.Equal(t, []string{"9", "12", "100"}, ids)
	assert.Equal(t, Merge(scoped, primary), Merge(primary, scoped))
}

func TestDiffReturnsOnlyNewIds(t *testing.T) {
	held := map[string]struct{}{"1": {}, "2": {}}
	fresh := Diff(held, []respond.MessageItem{msg("1", "r", 1), msg("2", "r", 2), msg("5", "r", 5)})
	assert.Equal(t, []respond.MessageItem{msg("5", "r", 5)}, fresh)
	assert.Empty(t, Diff(held, nil))
}
