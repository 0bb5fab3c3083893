// Package aes 提供 AES-GCM 加解密，密文格式为 base64(nonce || ciphertext)
package aes

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// ErrMalformed 密文长度不足或 base64 非法
var ErrMalformed = errors.New("aes: malformed ciphertext")

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt 使用 GCM 模式加密，每次加密生成新的随机 Nonce 并附加在密文头部
// aad 为附加认证数据，解密时必须一致
func Encrypt(data, key, aad []byte) (string, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// Seal(dst, nonce, plaintext, additionalData)
	ciphertext := aesGCM.Seal(nonce, nonce, data, aad)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 与 Encrypt 对应；密文被篡改或 aad 不一致时返回错误
func Decrypt(encoded string, key, aad []byte) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformed
	}
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	ns := aesGCM.NonceSize()
	if len(raw) < ns+aesGCM.Overhead() {
		return nil, ErrMalformed
	}
	return aesGCM.Open(nil, raw[:ns], raw[ns:], aad)
}
