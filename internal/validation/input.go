package validation

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
)

// Константы валидации
const (
	MaxSignerNameLength    = 200
	MaxEmailLength         = 320
	MaxTypedSignature      = 200
	MaxSignatureImageBytes = 512 * 1024
	MaxUserAgentLength     = 512
	MaxExternalLinkLength  = 500
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)

	allowedSignatureMimeTypes = map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
	}
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email слишком длинный")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateSignerName проверяет имя подписанта.
func ValidateSignerName(name string) error {
	if err := ValidateNonEmpty("имя подписанта", name); err != nil {
		return err
	}
	return ValidateLength("имя подписанта", strings.TrimSpace(name), 0, MaxSignerNameLength)
}

// ValidateSignatureImage проверяет нарисованную подпись: data URL с base64,
// реальный тип определяется по магическим байтам.
func ValidateSignatureImage(dataURL string) error {
	const marker = ";base64,"
	if !strings.HasPrefix(dataURL, "data:") {
		return fmt.Errorf("подпись должна быть передана как data URL")
	}
	idx := strings.Index(dataURL, marker)
	if idx < 0 {
		return fmt.Errorf("подпись должна быть закодирована в base64")
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len(marker):])
	if err != nil {
		return fmt.Errorf("некорректный base64 в подписи")
	}
	if len(raw) == 0 {
		return fmt.Errorf("изображение подписи пустое")
	}
	if len(raw) > MaxSignatureImageBytes {
		return fmt.Errorf("изображение подписи больше %d КБ", MaxSignatureImageBytes/1024)
	}

	kind, err := filetype.Match(raw)
	if err != nil || kind == filetype.Unknown {
		return fmt.Errorf("не удалось определить тип изображения подписи")
	}
	if !allowedSignatureMimeTypes[kind.MIME.Value] {
		return fmt.Errorf("неподдерживаемый тип изображения подписи (%s). Разрешены PNG и JPEG", kind.MIME.Value)
	}
	return nil
}

// ValidateExternalLink проверяет внешнюю ссылку (webhook, публичный адрес сервиса).
func ValidateExternalLink(link string) error {
	link = strings.TrimSpace(link)
	if err := ValidateLength("внешняя ссылка", link, 0, MaxExternalLinkLength); err != nil {
		return err
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("некорректный формат URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("ссылка должна начинаться с http:// или https://")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("ссылка должна содержать доменное имя")
	}
	return nil
}
