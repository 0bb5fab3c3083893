// Package loop 客户端的周期任务
// 每个关注点一个独立的循环；上一次执行未结束时跳过本次，慢调用不会堆积，也不会拖住其他循环
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrRunning 重复启动
var ErrRunning = errors.New("loop: already running")

// Loop 可取消的周期任务
type Loop struct {
	name     string
	clock    clockwork.Clock
	interval func() time.Duration
	run      func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	busy     atomic.Bool
	skipped  atomic.Int64
	inflight sync.WaitGroup
}

// New interval 每轮调用一次，可随状态变化（信箱退避）
func New(name string, clk clockwork.Clock, interval func() time.Duration, run func(ctx context.Context)) *Loop {
	return &Loop{name: name, clock: clk, interval: interval, run: run}
}

// Every 固定间隔
func Every(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

// Start 启动调度；上一个实例还没退出时返回 ErrRunning
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		select {
		case <-l.done:
		default:
			return ErrRunning
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done
	go l.schedule(ctx, done)
	return nil
}

func (l *Loop) schedule(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		timer := l.clock.NewTimer(l.interval())
		select {
		case <-ctx.Done():
			// 停掉计时器，不留下过期的等待者
			timer.Stop()
			return
		case <-timer.Chan():
		}
		if ctx.Err() != nil {
			return
		}
		l.tryRun(ctx)
	}
}

func (l *Loop) tryRun(ctx context.Context) {
	if !l.busy.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		zap.L().Debug("上一次执行未结束，跳过", zap.String("loop", l.name))
		return
	}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		defer l.busy.Store(false)
		l.run(ctx)
	}()
}

// Trigger 立即同步执行一次，正在执行时跳过并返回 false
func (l *Loop) Trigger(ctx context.Context) bool {
	if !l.busy.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		return false
	}
	defer l.busy.Store(false)
	l.run(ctx)
	return true
}

// Stop 停止调度并等待调度协程退出
// 不等待进行中的那次执行，因此可以在执行体内调用
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait 等待进行中的执行结束
func (l *Loop) Wait() {
	l.inflight.Wait()
}

// Running 调度协程是否在运行
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Skipped 因忙被跳过的次数
func (l *Loop) Skipped() int64 {
	return l.skipped.Load()
}
