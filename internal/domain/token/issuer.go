// Package token выпускает публичные токены доступа к версиям предложений.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Size задаёт число случайных байт в токене (256 бит).
const Size = 32

const PublicPathPrefix = "/p/"

// Issuer генерирует неугадываемые токены и собирает публичные ссылки.
type Issuer struct {
	baseURL string
	random  io.Reader
}

func NewIssuer(baseURL string) *Issuer {
	return NewIssuerWithSource(baseURL, rand.Reader)
}

// NewIssuerWithSource позволяет подменить источник случайности (в тестах).
func NewIssuerWithSource(baseURL string, random io.Reader) *Issuer {
	return &Issuer{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		random:  random,
	}
}

// Issue возвращает новый токен (64 hex-символа) и публичный URL.
func (i *Issuer) Issue() (string, string, error) {
	buf := make([]byte, Size)
	if _, err := io.ReadFull(i.random, buf); err != nil {
		return "", "", fmt.Errorf("token: не удалось получить случайные байты: %w", err)
	}
	token := hex.EncodeToString(buf)
	return token, i.URL(token), nil
}

// URL собирает публичную ссылку для токена.
func (i *Issuer) URL(token string) string {
	return i.baseURL + PublicPathPrefix + token
}

// IsWellFormed проверяет формат токена до обращения к хранилищу.
func IsWellFormed(token string) bool {
	if len(token) != Size*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
