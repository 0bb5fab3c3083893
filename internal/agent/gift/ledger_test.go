package gift

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTracksMutations(t *testing.T) {
	l := NewLedger()
	_, known := l.Balance()
	assert.False(t, known)

	l.Set(500)
	now := time.Unix(1_700_000_000, 0)
	a := l.Begin("accept", -80, now)
	b := l.Begin("send", -100, now)
	assert.EqualValues(t, 320, l.Projected())

	l.Confirm(a, 420)
	l.Fail(b, errors.New("余额不足"))
	balance, known := l.Balance()
	assert.True(t, known)
	assert.EqualValues(t, 420, balance)
	assert.EqualValues(t, 420, l.Projected())

	muts := l.Mutations()
	assert.Equal(t, MutationConfirmed, muts[0].Status)
	assert.Equal(t, MutationFailed, muts[1].Status)
	assert.Equal(t, "余额不足", muts[1].Error)
}

func TestLedgerKeepsRecentMutations(t *testing.T) {
	l := NewLedger()
	for i := 0; i < keepMutations+5; i++ {
		l.Begin("send", -1, time.Unix(int64(i), 0))
	}
	muts := l.Mutations()
	assert.Len(t, muts, keepMutations)
	assert.Equal(t, "send#6", muts[0].Id)
}
