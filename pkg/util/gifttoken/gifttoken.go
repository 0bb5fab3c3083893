// Package gifttoken 礼物请求安全令牌
// 令牌由请求方基于共享密钥签发，服务端校验；声明内容使用 AES-GCM 封装，
// 密钥由 HKDF(secret, salt=sessionId) 派生，会话 ID 同时作为附加认证数据
package gifttoken

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"pair_chat_server/pkg/aes"
)

const keyInfo = "pair-chat/gift-token/v1"

var (
	ErrInvalid = errors.New("gift token: invalid")
	ErrExpired = errors.New("gift token: expired")
	ErrBinding = errors.New("gift token: claims mismatch")
)

// Claims 令牌内封装的声明
type Claims struct {
	SessionID   string `json:"sid"`
	GiftID      string `json:"gid"`
	RequesterID string `json:"rid"`
	IssuedAt    int64  `json:"ts"`
}

func deriveKey(secret []byte, sessionID string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, []byte(sessionID), []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Issue 签发令牌
func Issue(secret []byte, c Claims) (string, error) {
	if c.IssuedAt == 0 {
		c.IssuedAt = time.Now().Unix()
	}
	key, err := deriveKey(secret, c.SessionID)
	if err != nil {
		return "", err
	}
	plain, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return aes.Encrypt(plain, key, []byte(c.SessionID))
}

// Verify 校验令牌：能解封、声明与期望一致、未超过 maxAge
// want.IssuedAt 不参与比较
func Verify(secret []byte, token string, want Claims, maxAge time.Duration, now time.Time) (*Claims, error) {
	key, err := deriveKey(secret, want.SessionID)
	if err != nil {
		return nil, err
	}
	plain, err := aes.Decrypt(token, key, []byte(want.SessionID))
	if err != nil {
		return nil, ErrInvalid
	}
	var got Claims
	if err := json.Unmarshal(plain, &got); err != nil {
		return nil, ErrInvalid
	}
	if got.SessionID != want.SessionID || got.GiftID != want.GiftID || got.RequesterID != want.RequesterID {
		return nil, ErrBinding
	}
	issued := time.Unix(got.IssuedAt, 0)
	// 允许少量时钟偏差
	if now.Sub(issued) > maxAge || issued.Sub(now) > 30*time.Second {
		return nil, ErrExpired
	}
	return &got, nil
}

// Hash 令牌摘要，服务端以其唯一索引防止重放
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
