package aes

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	sealed, err := Encrypt([]byte(`{"sessionId":"room-42"}`), key, []byte("room-42"))
	require.NoError(t, err)

	plain, err := Decrypt(sealed, key, []byte("room-42"))
	require.NoError(t, err)
	assert.Equal(t, `{"sessionId":"room-42"}`, string(plain))

	// 每次加密 nonce 不同
	again, err := Encrypt([]byte(`{"sessionId":"room-42"}`), key, []byte("room-42"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestDecryptRejectsTampering(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	sealed, err := Encrypt([]byte("payload"), key, nil)
	require.NoError(t, err)

	_, err = Decrypt(sealed, key, []byte("other"))
	assert.Error(t, err)

	_, err = Decrypt(sealed, bytes.Repeat([]byte{8}, 32), nil)
	assert.Error(t, err)

	_, err = Decrypt("!!not-base64!!", key, nil)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decrypt("AAAA", key, nil)
	assert.ErrorIs(t, err, ErrMalformed)
}
