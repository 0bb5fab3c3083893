// Package websocket 把信箱通知推送给客户端，是轮询 /status/updates 的替代通道
// 与轮询一致，每条连接只投递一条通知，推送后正常关闭
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	retryWait  = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 检查连接的Origin头
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 一条推送连接
type Client struct {
	Conn   *websocket.Conn
	UserId string
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager 维护在线推送连接，同一用户只保留最新的一条
type Manager struct {
	waiter  NotificationWaiter
	mu      sync.Mutex
	clients map[string]*Client
}

func NewManager(waiter NotificationWaiter) *Manager {
	return &Manager{waiter: waiter, clients: make(map[string]*Client)}
}

// Serve 升级连接并阻塞到连接结束
func (m *Manager) Serve(c *gin.Context, userId string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		zap.L().Warn("ws upgrade failed", zap.String("user_id", userId), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{Conn: conn, UserId: userId, cancel: cancel, done: make(chan struct{})}
	m.login(client)
	zap.L().Info("ws连接成功", zap.String("user_id", userId))

	go client.Read()
	go client.ping(ctx)
	client.Write(ctx, m.waiter)

	m.logout(client)
	_ = conn.Close()
	close(client.done)
	zap.L().Info("ws连接断开", zap.String("user_id", userId))
}

func (m *Manager) login(client *Client) {
	m.mu.Lock()
	old := m.clients[client.UserId]
	m.clients[client.UserId] = client
	m.mu.Unlock()
	if old != nil {
		old.cancel()
	}
}

func (m *Manager) logout(client *Client) {
	m.mu.Lock()
	if m.clients[client.UserId] == client {
		delete(m.clients, client.UserId)
	}
	m.mu.Unlock()
}

// Count 当前连接数
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// CloseAll 关闭全部连接并等待推送循环退出，服务关闭时调用
func (m *Manager) CloseAll() {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.cancel()
		<-c.done
	}
}

// Read 客户端不会上行业务消息，读循环只负责感知断开和处理 pong
func (c *Client) Read() {
	defer c.cancel()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read error", zap.String("user_id", c.UserId), zap.Error(err))
			}
			return
		}
	}
}

// Write 等到一条通知推送后返回，ctx 结束时发送关闭帧
func (c *Client) Write(ctx context.Context, waiter NotificationWaiter) {
	for {
		resp, err := waiter.Wait(ctx, c.UserId)
		if ctx.Err() != nil {
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
		if err != nil {
			zap.L().Error("等待通知失败", zap.String("user_id", c.UserId), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryWait):
			}
			continue
		}
		if resp == nil || !resp.HasNotification {
			continue
		}
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteJSON(resp); err != nil {
			zap.L().Error("推送通知失败", zap.String("user_id", c.UserId), zap.Error(err))
			return
		}
		_ = c.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "delivered"), time.Now().Add(writeWait))
		return
	}
}

func (c *Client) ping(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.cancel()
				return
			}
		}
	}
}
