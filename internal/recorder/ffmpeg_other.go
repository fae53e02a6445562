//go:build !unix

package recorder

import (
	"context"

	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

// FFmpegMicrophone is unavailable on platforms without process signals.
type FFmpegMicrophone struct{}

// NewFFmpegMicrophone returns a microphone that always refuses.
func NewFFmpegMicrophone(path, inputFormat, inputDevice string, logger *zap.Logger) *FFmpegMicrophone {
	return &FFmpegMicrophone{}
}

// IsTypeSupported implements Capabilities.
func (m *FFmpegMicrophone) IsTypeSupported(string) bool { return false }

// Open implements Microphone.
func (m *FFmpegMicrophone) Open(context.Context, domain.Encoding) (Stream, error) {
	return nil, apperrors.NewPermissionDenied("audio capture is not supported on this platform", nil)
}
