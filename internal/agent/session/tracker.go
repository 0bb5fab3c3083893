package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tracker 会话计费时长
// Capture 之后立即清零，同一场会话不可能算出第二个时长
type Tracker struct {
	clock clockwork.Clock
	floor int64

	mu      sync.Mutex
	startAt time.Time
	running bool
}

func NewTracker(clk clockwork.Clock, floorSecs int) *Tracker {
	return &Tracker{clock: clk, floor: int64(floorSecs)}
}

// Start 记录开始时刻
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startAt = t.clock.Now()
	t.running = true
}

// Live 展示用的实时时长
func (t *Tracker) Live() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return t.clock.Now().Sub(t.startAt)
}

// Capture 计算最终时长并复位；未在计时返回 ok=false
// 时长 <= 0 时用下限代替
func (t *Tracker) Capture() (secs int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0, false
	}
	secs = int64(t.clock.Now().Sub(t.startAt) / time.Second)
	if secs <= 0 {
		secs = t.floor
	}
	t.running = false
	t.startAt = time.Time{}
	return secs, true
}
