package domain

import "strings"

// RecordingStatus enumerates recorder session states.
type RecordingStatus string

const (
	RecordingIdle    RecordingStatus = "idle"
	RecordingActive  RecordingStatus = "recording"
	RecordingPaused  RecordingStatus = "paused"
	RecordingStopped RecordingStatus = "stopped"
)

// Encoding is a capture container/codec pair.
type Encoding struct {
	MimeType  string
	Container string
	Codec     string
}

// ExtensionForMime maps an audio mime type, parameters included, to a file extension.
func ExtensionForMime(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch base {
	case "audio/webm":
		return ".webm"
	case "audio/ogg", "application/ogg":
		return ".ogg"
	case "audio/mp4":
		return ".m4a"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}
