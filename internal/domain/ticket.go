package domain

import "time"

// TicketStatus enumerates lifecycle states reported by the backend.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusAnswered TicketStatus = "answered"
	TicketStatusClosed   TicketStatus = "closed"
)

// Ticket is the admin view of a support request and its thread.
type Ticket struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Status    TicketStatus    `json:"status"`
	UserID    string          `json:"userId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Messages  []TicketMessage `json:"messages"`
}
