package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	cipherKeyLength = 32
	cipherIVLength  = aes.BlockSize
)

var (
	errInvalidKeyLength = fmt.Errorf("cipher key must be %d bytes (%d hex characters)", cipherKeyLength, cipherKeyLength*2)
	errInvalidIVLength  = fmt.Errorf("cipher iv must be %d bytes", cipherIVLength)
	errMalformedPayload = errors.New("ciphertext is not a whole number of blocks")
	errInvalidPadding   = errors.New("ciphertext padding is invalid")
)

// PasswordCipher encrypts passwords at rest with AES-256-CBC, generating a
// fresh random IV per encryption. The IV is returned beside the ciphertext
// and must be stored with it.
type PasswordCipher struct {
	key []byte
}

// NewPasswordCipher parses a hex-encoded 256-bit key.
func NewPasswordCipher(hexKey string) (*PasswordCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("cipher key is not valid hex: %w", err)
	}
	if len(key) != cipherKeyLength {
		return nil, errInvalidKeyLength
	}
	return &PasswordCipher{key: key}, nil
}

// Encrypt returns the base64 ciphertext and the base64 IV used for it.
func (p *PasswordCipher) Encrypt(plaintext string) (string, string, error) {
	block, err := aes.NewCipher(p.key)
	if err != nil {
		return "", "", err
	}

	iv := make([]byte, cipherIVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", "", err
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	return base64.StdEncoding.EncodeToString(encrypted), base64.StdEncoding.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt given the stored ciphertext and IV.
func (p *PasswordCipher) Decrypt(encoded, encodedIV string) (string, error) {
	iv, err := base64.StdEncoding.DecodeString(encodedIV)
	if err != nil {
		return "", fmt.Errorf("iv is not valid base64: %w", err)
	}
	if len(iv) != cipherIVLength {
		return "", errInvalidIVLength
	}

	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", err)
	}
	if len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", errMalformedPayload
	}

	block, err := aes.NewCipher(p.key)
	if err != nil {
		return "", err
	}

	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(decrypted, encrypted)

	unpadded, err := unpadPKCS7(decrypted, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errInvalidPadding
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, errInvalidPadding
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errInvalidPadding
		}
	}
	return data[:len(data)-padding], nil
}
