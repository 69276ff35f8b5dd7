package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	SessionStatusActive   = "active"
	SessionStatusArchived = "archived"
)

type Session struct {
	SessionID    string    `gorm:"primaryKey;type:varchar(255)" json:"session_id"`
	UserName     string    `json:"user_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
	MessageCount int       `gorm:"not null;default:0" json:"message_count"`
	Status       string    `gorm:"type:varchar(20);not null;default:active;index" json:"status"`

	Messages []Message `gorm:"foreignKey:SessionID;references:SessionID" json:"-"`
	Insights []Insight `gorm:"foreignKey:SessionID;references:SessionID" json:"-"`
}

// Message is immutable once written. Its ID defines the order of a session's history.
type Message struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    string    `gorm:"type:varchar(255);not null;index" json:"session_id"`
	Role         string    `gorm:"type:varchar(20);not null" json:"role"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Timestamp    time.Time `gorm:"index" json:"timestamp"`
	TokensInput  *int64    `json:"tokens_input"`
	TokensOutput *int64    `json:"tokens_output"`
	CostUSD      *float64  `gorm:"column:cost_usd" json:"cost_usd"`
	Model        *string   `gorm:"type:varchar(100)" json:"model"`
}

type Insight struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"type:varchar(255);not null;index" json:"session_id"`
	MessageID  *uint     `gorm:"index" json:"message_id"`
	Category   string    `json:"category"`
	Content    string    `gorm:"type:text" json:"content"`
	Importance string    `gorm:"type:varchar(20);default:medium" json:"importance"`
	Timestamp  time.Time `json:"timestamp"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`
}

// SessionStats is computed from the messages table at read time.
type SessionStats struct {
	TotalMessages     int64      `json:"total_messages"`
	UserMessages      int64      `json:"user_messages"`
	AssistantMessages int64      `json:"assistant_messages"`
	TotalTokensInput  int64      `json:"total_tokens_input"`
	TotalTokensOutput int64      `json:"total_tokens_output"`
	TotalCost         float64    `json:"total_cost"`
	FirstMessage      *time.Time `json:"first_message"`
	LastMessage       *time.Time `json:"last_message"`
}

type DatabaseStats struct {
	TotalSessions  int64   `json:"total_sessions"`
	ActiveSessions int64   `json:"active_sessions"`
	TotalMessages  int64   `json:"total_messages"`
	TotalInsights  int64   `json:"total_insights"`
	TotalCost      float64 `json:"total_cost"`
}

type ConversationExport struct {
	Session    *Session     `json:"session"`
	Messages   []Message    `json:"messages"`
	Insights   []Insight    `json:"insights"`
	Stats      SessionStats `json:"stats"`
	ExportedAt time.Time    `json:"exported_at"`
}
