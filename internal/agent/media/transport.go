// Package media 音视频传输的协作接口
// 真实的编解码与传输不在本仓库内，这里只约定连接回调和开关
package media

import (
	"context"
	"errors"
	"sync"
)

// ErrNotJoined 未加入房间
var ErrNotJoined = errors.New("media: not joined")

// Transport 实时媒体通道
type Transport interface {
	Join(ctx context.Context, room string) error
	Leave() error
	OnConnected(fn func())
	OnDisconnected(fn func())
	ParticipantCount() int
	SetCameraEnabled(enabled bool)
	SetMicEnabled(enabled bool)
}

// Loopback 无头运行和测试用的传输实现，Join 即视为连接成功
type Loopback struct {
	mu           sync.Mutex
	room         string
	connected    bool
	partners     int
	camera       bool
	mic          bool
	onConnect    []func()
	onDisconnect []func()
}

func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) OnConnected(fn func()) {
	l.mu.Lock()
	l.onConnect = append(l.onConnect, fn)
	l.mu.Unlock()
}

func (l *Loopback) OnDisconnected(fn func()) {
	l.mu.Lock()
	l.onDisconnect = append(l.onDisconnect, fn)
	l.mu.Unlock()
}

// Join 回调在锁外同步执行
func (l *Loopback) Join(ctx context.Context, room string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	l.room = room
	l.connected = true
	fns := append([]func(){}, l.onConnect...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

// Leave 主动离开不触发断线回调
func (l *Loopback) Leave() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected {
		return ErrNotJoined
	}
	l.room = ""
	l.connected = false
	l.partners = 0
	l.camera, l.mic = false, false
	return nil
}

// Drop 模拟网络中断
func (l *Loopback) Drop() {
	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return
	}
	l.connected = false
	l.partners = 0
	fns := append([]func(){}, l.onDisconnect...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SetPartnerPresent 模拟对方进出房间
func (l *Loopback) SetPartnerPresent(present bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if present && l.connected {
		l.partners = 1
	} else {
		l.partners = 0
	}
}

func (l *Loopback) ParticipantCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected {
		return 0
	}
	return 1 + l.partners
}

func (l *Loopback) SetCameraEnabled(enabled bool) {
	l.mu.Lock()
	l.camera = enabled
	l.mu.Unlock()
}

func (l *Loopback) SetMicEnabled(enabled bool) {
	l.mu.Lock()
	l.mic = enabled
	l.mu.Unlock()
}

// Room 当前房间，未连接时为空
func (l *Loopback) Room() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.room
}

// Publishing 摄像头与麦克风是否开启
func (l *Loopback) Publishing() (camera, mic bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.camera, l.mic
}
