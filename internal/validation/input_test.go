package validation

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 1×1 PNG
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestValidateEmail(t *testing.T) {
	valid := []string{"jane@example.com", "John.Doe+x@mail.example.org"}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "no-at", "a@b", "a@@b.com", "bad space@x.com", "@example.com"}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateSignerName(t *testing.T) {
	assert.NoError(t, ValidateSignerName("Jane Doe"))
	assert.Error(t, ValidateSignerName("   "))
	assert.Error(t, ValidateSignerName(strings.Repeat("я", MaxSignerNameLength+1)))
}

func TestValidateSignatureImage(t *testing.T) {
	assert.NoError(t, ValidateSignatureImage("data:image/png;base64,"+pngBase64))

	gif := base64.StdEncoding.EncodeToString([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
	tests := map[string]string{
		"not a data url":  pngBase64,
		"no base64":       "data:image/png," + pngBase64,
		"broken base64":   "data:image/png;base64,@@@",
		"plain text":      "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
		"unsupported gif": "data:image/gif;base64," + gif,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateSignatureImage(input))
		})
	}
}

func TestValidateExternalLink(t *testing.T) {
	assert.NoError(t, ValidateExternalLink("https://hooks.example.com/proposals"))
	assert.Error(t, ValidateExternalLink("ftp://example.com"))
	assert.Error(t, ValidateExternalLink("https://"))
}
