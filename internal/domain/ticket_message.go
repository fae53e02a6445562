package domain

import "time"

// MessageSender indicates who authored a message.
type MessageSender string

const (
	SenderUser  MessageSender = "user"
	SenderAdmin MessageSender = "admin"
)

// MessageType differentiates message payloads.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeVoice MessageType = "voice"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// TicketMessage is one entry of a ticket thread.
type TicketMessage struct {
	ID          string        `json:"id"`
	Sender      MessageSender `json:"sender"`
	Type        MessageType   `json:"type"`
	Text        string        `json:"text,omitempty"`
	FileURL     string        `json:"fileUrl,omitempty"`
	FileName    string        `json:"fileName,omitempty"`
	MimeType    string        `json:"mimeType,omitempty"`
	DurationSec int           `json:"durationSec,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}
