package recorder

import (
	"strings"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
)

// PreferredEncodings lists capture encodings from most to least preferred.
var PreferredEncodings = []domain.Encoding{
	{MimeType: "audio/webm;codecs=opus", Container: "webm", Codec: "opus"},
	{MimeType: "audio/webm", Container: "webm"},
	{MimeType: "audio/ogg;codecs=opus", Container: "ogg", Codec: "opus"},
	{MimeType: "audio/ogg", Container: "ogg"},
}

// Capabilities answers whether the capture platform can produce a mime type.
type Capabilities interface {
	IsTypeSupported(mimeType string) bool
}

// StaticCapabilities is a fixed list of supported mime types.
type StaticCapabilities []string

// IsTypeSupported implements Capabilities.
func (s StaticCapabilities) IsTypeSupported(mimeType string) bool {
	for _, candidate := range s {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

// SelectEncoding returns the first preferred encoding caps supports.
func SelectEncoding(caps Capabilities) (domain.Encoding, bool) {
	if caps == nil {
		return domain.Encoding{}, false
	}
	for _, enc := range PreferredEncodings {
		if caps.IsTypeSupported(enc.MimeType) {
			return enc, true
		}
	}
	return domain.Encoding{}, false
}
