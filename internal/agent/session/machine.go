// Package session 单次配对会话的生命周期
// idle → searching → connecting → active → ending(reason) → terminated
// 每场会话只接受一次 ending 转移，时长在进入 ending 时同步截取并且只上报一次
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/agent/loop"
	"pair_chat_server/internal/agent/media"
	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

type State string

const (
	StateIdle       State = "idle"
	StateSearching  State = "searching"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateEnding     State = "ending"
	StateTerminated State = "terminated"
)

// Reason 会话结束原因
type Reason string

const (
	ReasonPartnerSkipped   Reason = "partner_skipped"
	ReasonPartnerLeft      Reason = "partner_left"
	ReasonSelfEnded        Reason = "self_ended"
	ReasonBalanceExhausted Reason = "balance_exhausted"
	ReasonConnectionLost   Reason = "connection_lost"
)

// Matcher 匹配与房间接口
type Matcher interface {
	Search(ctx context.Context) (*respond.MatchRespond, error)
	CancelSearch(ctx context.Context) error
	Next(ctx context.Context, sessionId string) (*respond.EndSessionRespond, error)
	Leave(ctx context.Context, sessionId string) (*respond.EndSessionRespond, error)
}

// Presence 心跳活动类型切换
type Presence interface {
	SetActive(ctx context.Context, sessionId string)
	SetBrowsing(ctx context.Context)
}

// Mailbox 会话期间的通知轮询
type Mailbox interface {
	Start(ctx context.Context, handler func(respond.NotificationItem)) error
	Stop()
}

type Deps struct {
	Matcher   Matcher
	Durations DurationAPI
	Presence  Presence
	Mailbox   Mailbox
	Transport media.Transport
	Clock     clockwork.Clock
}

type Options struct {
	SearchInterval  time.Duration
	CallTimeout     time.Duration
	DisconnectGrace time.Duration
	EndingCountdown time.Duration
	FloorSecs       int
	AutoRestart     bool
}

func OptionsFrom(cfg config.AgentConfig) Options {
	return Options{
		SearchInterval:  cfg.Search,
		CallTimeout:     cfg.CallTimeout,
		DisconnectGrace: cfg.DisconnectGrace,
		EndingCountdown: cfg.EndingCountdown,
		FloorSecs:       cfg.DurationFloorSecs,
		AutoRestart:     cfg.AutoRestartOnEnded,
	}
}

// Snapshot 对外展示的会话状态
type Snapshot struct {
	State      State         `json:"state"`
	Reason     Reason        `json:"reason,omitempty"`
	SessionId  string        `json:"sessionId,omitempty"`
	PartnerId  string        `json:"partnerId,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	LastReport *api.Result   `json:"lastReport,omitempty"`
}

type endCall func(ctx context.Context, sessionId string) error

type Machine struct {
	deps     Deps
	opts     Options
	tracker  *Tracker
	reporter *Reporter
	search   *loop.Loop

	base   context.Context
	cancel context.CancelFunc
	timers sync.WaitGroup

	mu         sync.Mutex
	state      State
	reason     Reason
	sessionId  string
	partnerId  string
	connected  bool
	exit       bool
	epoch      uint64
	lastReport *api.Result
	listeners  []func(Snapshot)
}

func NewMachine(deps Deps, opts Options) *Machine {
	base, cancel := context.WithCancel(context.Background())
	m := &Machine{
		deps:     deps,
		opts:     opts,
		tracker:  NewTracker(deps.Clock, opts.FloorSecs),
		reporter: NewReporter(deps.Durations, opts.CallTimeout),
		base:     base,
		cancel:   cancel,
		state:    StateIdle,
	}
	m.search = loop.New("search", deps.Clock, loop.Every(opts.SearchInterval), m.searchOnce)
	deps.Transport.OnConnected(m.onConnected)
	deps.Transport.OnDisconnected(m.onDisconnected)
	return m
}

// OnChange 注册状态变更回调，回调在锁外执行
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     m.state,
		Reason:    m.reason,
		SessionId: m.sessionId,
		PartnerId: m.partnerId,
		Elapsed:   m.tracker.Live(),
	}
	if m.lastReport != nil {
		r := *m.lastReport
		s.LastReport = &r
	}
	return s
}

func (m *Machine) setLocked(state State, reason Reason) {
	zap.L().Info("会话状态变更",
		zap.String("from", string(m.state)),
		zap.String("to", string(state)),
		zap.String("reason", string(reason)),
		zap.String("session_id", m.sessionId),
	)
	m.state, m.reason = state, reason
}

func (m *Machine) emit() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	fns := append([]func(Snapshot){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// StartSession 开始匹配
func (m *Machine) StartSession(ctx context.Context) api.Result {
	m.mu.Lock()
	if m.state != StateIdle && m.state != StateTerminated {
		m.mu.Unlock()
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "会话进行中"))
	}
	m.sessionId, m.partnerId = "", ""
	m.exit = false
	m.setLocked(StateSearching, "")
	m.mu.Unlock()
	m.emit()

	if err := m.search.Start(m.base); err != nil {
		return api.ResultOf(errorx.Wrap(err, errorx.CodeInFlight, "匹配进行中"))
	}
	m.search.Trigger(ctx)
	return api.OK()
}

func (m *Machine) searchOnce(ctx context.Context) {
	resp, err := m.deps.Matcher.Search(ctx)
	if err != nil {
		if ctx.Err() == nil {
			zap.L().Warn("匹配请求失败", zap.Error(err))
		}
		return
	}
	if resp == nil || !resp.Matched || resp.Session == nil {
		return
	}
	m.search.Stop()
	m.enterConnecting(resp.Session)
}

func (m *Machine) enterConnecting(s *respond.SessionRespond) {
	m.mu.Lock()
	if m.state != StateSearching {
		m.mu.Unlock()
		// 匹配结果到达前用户已取消
		m.callEnd(m.base, s.SessionId, m.leave)
		return
	}
	m.epoch++
	epoch := m.epoch
	m.sessionId, m.partnerId = s.SessionId, s.PartnerId
	m.connected = false
	m.setLocked(StateConnecting, "")
	m.mu.Unlock()
	m.emit()

	ctx, cancel := context.WithTimeout(m.base, m.opts.CallTimeout)
	defer cancel()
	if err := m.deps.Transport.Join(ctx, s.SessionId); err != nil {
		zap.L().Error("加入媒体房间失败", zap.String("session_id", s.SessionId), zap.Error(err))
		m.end(m.base, epoch, ReasonConnectionLost, false, m.leave)
		return
	}
	m.maybeActivate()
}

// PartnerResolved 通过旁路渠道确认了对方身份
func (m *Machine) PartnerResolved(partnerId string) {
	m.mu.Lock()
	if m.state == StateConnecting && partnerId != "" {
		m.partnerId = partnerId
	}
	m.mu.Unlock()
	m.maybeActivate()
}

func (m *Machine) onConnected() {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	m.maybeActivate()
}

// maybeActivate 媒体已连接且对方在场才进入 active
func (m *Machine) maybeActivate() {
	m.mu.Lock()
	if m.state != StateConnecting || !m.connected {
		m.mu.Unlock()
		return
	}
	if m.partnerId == "" && m.deps.Transport.ParticipantCount() < 2 {
		m.mu.Unlock()
		return
	}
	m.setLocked(StateActive, "")
	m.tracker.Start()
	epoch, sid := m.epoch, m.sessionId
	m.mu.Unlock()
	m.emit()

	m.deps.Transport.SetCameraEnabled(true)
	m.deps.Transport.SetMicEnabled(true)
	m.deps.Presence.SetActive(m.base, sid)
	m.startMailbox(epoch)
}

func (m *Machine) startMailbox(epoch uint64) {
	err := m.deps.Mailbox.Start(m.base, func(n respond.NotificationItem) {
		m.onNotification(epoch, n)
	})
	if err != nil {
		zap.L().Warn("启动信箱轮询失败", zap.Error(err))
	}
}

func (m *Machine) onNotification(epoch uint64, n respond.NotificationItem) {
	var data respond.PartnerEventData
	if len(n.Data) > 0 {
		if err := json.Unmarshal(n.Data, &data); err != nil {
			zap.L().Warn("通知内容解析失败", zap.String("kind", n.Kind), zap.Error(err))
		}
	}

	var reason Reason
	switch n.Kind {
	case constants.NotifyPartnerWentNext:
		reason = ReasonPartnerSkipped
	case constants.NotifyPartnerLeftSession:
		reason = ReasonPartnerLeft
	}

	m.mu.Lock()
	current := m.epoch == epoch && m.state == StateActive
	stale := data.SessionId != "" && data.SessionId != m.sessionId
	m.mu.Unlock()
	if !current {
		return
	}
	if stale || reason == "" {
		// 不属于当前会话，信箱已停，重新开始轮询
		zap.L().Info("忽略无关通知", zap.String("kind", n.Kind), zap.String("session_id", data.SessionId))
		m.deps.Mailbox.Stop()
		m.startMailbox(epoch)
		return
	}
	m.end(m.base, epoch, reason, false, nil)
}

func (m *Machine) onDisconnected() {
	m.mu.Lock()
	m.connected = false
	if m.state != StateActive {
		m.mu.Unlock()
		return
	}
	epoch := m.epoch
	m.mu.Unlock()
	zap.L().Warn("媒体连接断开，等待通知", zap.Duration("grace", m.opts.DisconnectGrace))

	m.timers.Add(1)
	go func() {
		defer m.timers.Done()
		timer := m.deps.Clock.NewTimer(m.opts.DisconnectGrace)
		defer timer.Stop()
		select {
		case <-timer.Chan():
		case <-m.base.Done():
			return
		}
		m.mu.Lock()
		lost := m.epoch == epoch && m.state == StateActive && !m.connected
		m.mu.Unlock()
		if lost {
			m.end(m.base, epoch, ReasonConnectionLost, false, m.leave)
		}
	}()
}

// EndSession 用户主动结束；exit 为 true 时不再自动重新匹配
func (m *Machine) EndSession(ctx context.Context, exit bool) api.Result {
	return m.endByUser(ctx, ReasonSelfEnded, exit, m.leave)
}

// SkipSession 换下一个，结束后自动重新匹配
func (m *Machine) SkipSession(ctx context.Context) api.Result {
	return m.endByUser(ctx, ReasonSelfEnded, false, m.next)
}

// EndForBalance 余额耗尽
func (m *Machine) EndForBalance(ctx context.Context) api.Result {
	return m.endByUser(ctx, ReasonBalanceExhausted, true, m.leave)
}

func (m *Machine) endByUser(ctx context.Context, reason Reason, exit bool, call endCall) api.Result {
	m.mu.Lock()
	switch m.state {
	case StateSearching:
		m.setLocked(StateIdle, "")
		m.mu.Unlock()
		m.search.Stop()
		cctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
		defer cancel()
		if err := m.deps.Matcher.CancelSearch(cctx); err != nil {
			zap.L().Warn("取消匹配失败", zap.Error(err))
		}
		m.emit()
		return api.OK()
	case StateConnecting, StateActive:
		epoch := m.epoch
		m.mu.Unlock()
		return m.end(ctx, epoch, reason, exit, call)
	default:
		m.mu.Unlock()
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "没有进行中的会话"))
	}
}

func (m *Machine) leave(ctx context.Context, sessionId string) error {
	_, err := m.deps.Matcher.Leave(ctx, sessionId)
	return err
}

func (m *Machine) next(ctx context.Context, sessionId string) error {
	_, err := m.deps.Matcher.Next(ctx, sessionId)
	return err
}

func (m *Machine) callEnd(ctx context.Context, sessionId string, call endCall) error {
	if call == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	defer cancel()
	err := call(ctx, sessionId)
	if err != nil {
		zap.L().Warn("通知服务端结束会话失败", zap.String("session_id", sessionId), zap.Error(err))
	}
	return err
}

// end 每场会话只执行一次，后续调用直接返回冲突
func (m *Machine) end(ctx context.Context, epoch uint64, reason Reason, exit bool, call endCall) api.Result {
	m.mu.Lock()
	if m.epoch != epoch || (m.state != StateConnecting && m.state != StateActive) {
		m.mu.Unlock()
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "会话已结束"))
	}
	m.setLocked(StateEnding, reason)
	m.exit = exit
	secs, billed := m.tracker.Capture()
	sid := m.sessionId
	m.partnerId = ""
	m.connected = false
	m.mu.Unlock()
	m.emit()

	m.deps.Mailbox.Stop()
	m.deps.Presence.SetBrowsing(m.base)
	m.deps.Transport.SetCameraEnabled(false)
	m.deps.Transport.SetMicEnabled(false)
	if err := m.deps.Transport.Leave(); err != nil && !errors.Is(err, media.ErrNotJoined) {
		zap.L().Warn("离开媒体房间失败", zap.Error(err))
	}

	callErr := m.callEnd(ctx, sid, call)

	if billed {
		res := m.reporter.Report(m.base, sid, secs)
		m.mu.Lock()
		m.lastReport = &res
		m.mu.Unlock()
		m.emit()
	}

	m.timers.Add(1)
	go m.countdown(epoch)
	return api.ResultOf(callErr)
}

func (m *Machine) countdown(epoch uint64) {
	defer m.timers.Done()
	timer := m.deps.Clock.NewTimer(m.opts.EndingCountdown)
	defer timer.Stop()
	select {
	case <-timer.Chan():
	case <-m.base.Done():
		return
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state != StateEnding {
		m.mu.Unlock()
		return
	}
	restart := m.shouldRestartLocked()
	m.setLocked(StateTerminated, m.reason)
	m.mu.Unlock()
	m.emit()

	if restart {
		m.StartSession(m.base)
	}
}

func (m *Machine) shouldRestartLocked() bool {
	switch m.reason {
	case ReasonSelfEnded:
		return !m.exit
	case ReasonBalanceExhausted:
		return false
	default:
		return m.opts.AutoRestart
	}
}

// Close 停止所有循环和计时器，不会上报时长
func (m *Machine) Close() {
	m.search.Stop()
	m.deps.Mailbox.Stop()
	m.cancel()
	m.timers.Wait()
}
