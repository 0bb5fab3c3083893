package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomName(t *testing.T) {
	a, b := RoomName(), RoomName()
	assert.Len(t, a, 20)
	assert.Equal(t, byte('R'), a[0])
	assert.NotEqual(t, a, b)
}
