// Package crypter provides the symmetric cipher backing sLS's
// sealed-access-token auth extension point (see package auth).
package crypter

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"

	"github.com/cockroachdb/errors"
)

// Crypter is a reversible symmetric cipher over byte slices.
type Crypter interface {
	EnCrypt(plainText []byte) ([]byte, error)
	DeCrypt(cipherText []byte) ([]byte, error)
}

// Aes implements Crypter with AES-CBC and PKCS#7 padding.
type Aes struct {
	key []byte
	iv  []byte
}

var validKeyLengths = map[int]bool{16: true, 24: true, 32: true}

// NewAes validates the key (16/24/32 bytes, AES-128/192/256) and IV
// (one block) before returning a usable Crypter.
func NewAes(key, iv string) (Crypter, error) {
	if key == "" || iv == "" {
		return nil, errors.New("key and IV must not be empty")
	}
	k, v := []byte(key), []byte(iv)

	if !validKeyLengths[len(k)] {
		return nil, errors.Errorf("invalid key length: %d bytes; must be 16, 24, or 32", len(k))
	}
	if len(v) != aes.BlockSize {
		return nil, errors.Errorf("invalid IV length: %d bytes; must be %d", len(v), aes.BlockSize)
	}
	return &Aes{key: k, iv: v}, nil
}

func pkcs7Pad(src []byte) []byte {
	remain := len(src) % aes.BlockSize
	padLen := aes.BlockSize - remain
	return append(src, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(src []byte) ([]byte, error) {
	n := len(src)
	if n == 0 {
		return nil, errors.New("empty ciphertext")
	}
	padLen := int(src[n-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > n {
		return nil, errors.New("invalid padding")
	}
	for i := n - padLen; i < n; i++ {
		if src[i] != byte(padLen) {
			return nil, errors.New("invalid padding")
		}
	}
	return src[:n-padLen], nil
}

func (a *Aes) EnCrypt(plainText []byte) ([]byte, error) {
	if len(plainText) < 1 {
		return nil, errors.New("plaintext is empty")
	}
	padded := pkcs7Pad(plainText)

	block, err := aes.NewCipher(a.key)
	if err != nil {
		return nil, errors.Wrap(err, "new cipher")
	}
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, a.iv).CryptBlocks(out, padded)
	return out, nil
}

func (a *Aes) DeCrypt(cipherText []byte) ([]byte, error) {
	if len(cipherText) < 1 {
		return nil, errors.New("ciphertext is empty")
	}
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not block-aligned")
	}

	block, err := aes.NewCipher(a.key)
	if err != nil {
		return nil, errors.Wrap(err, "new cipher")
	}
	out := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, a.iv).CryptBlocks(out, cipherText)
	return pkcs7Unpad(out)
}

var _ Crypter = (*Aes)(nil)
