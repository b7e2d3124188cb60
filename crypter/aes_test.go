package crypter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sls/rand"
)

func TestPkcs7Pad(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{
			name:     "empty input",
			input:    []byte{},
			expected: bytes.Repeat([]byte{16}, 16),
		},
		{
			name:     "one byte",
			input:    []byte{0xFF},
			expected: append([]byte{0xFF}, bytes.Repeat([]byte{15}, 15)...),
		},
		{
			name:     "block size minus one",
			input:    bytes.Repeat([]byte{0xAA}, 15),
			expected: append(bytes.Repeat([]byte{0xAA}, 15), byte(1)),
		},
		{
			name:     "exact block size",
			input:    bytes.Repeat([]byte{0xBB}, 16),
			expected: append(bytes.Repeat([]byte{0xBB}, 16), bytes.Repeat([]byte{16}, 16)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pkcs7Pad(tt.input)
			assert.Equal(t, 0, len(result)%16)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAesRoundTrip(t *testing.T) {
	key, err := rand.GenerateRandomBytes(32)
	require.NoError(t, err)
	iv, err := rand.GenerateRandomBytes(16)
	require.NoError(t, err)

	c, err := NewAes(key, iv)
	require.NoError(t, err)

	for _, plain := range []string{"x", "access-token-123", "a longer token that spans more than one AES block"} {
		ct, err := c.EnCrypt([]byte(plain))
		require.NoError(t, err)
		assert.Equal(t, 0, len(ct)%16)

		pt, err := c.DeCrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, plain, string(pt))
	}
}

func TestNewAesRejectsBadLengths(t *testing.T) {
	_, err := NewAes("short", "alsoshort")
	assert.Error(t, err)

	key, _ := rand.GenerateRandomBytes(32)
	_, err = NewAes(key, "")
	assert.Error(t, err)
}

func TestDeCryptRejectsUnalignedInput(t *testing.T) {
	key, _ := rand.GenerateRandomBytes(32)
	iv, _ := rand.GenerateRandomBytes(16)
	c, err := NewAes(key, iv)
	require.NoError(t, err)

	_, err = c.DeCrypt([]byte("not block aligned"))
	assert.Error(t, err)
}
