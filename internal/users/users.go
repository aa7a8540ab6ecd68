package users

import (
	"errors"
	"fmt"
	"strings"
)

// SystemPrompt seeds every new chat history and is pinned at index 0.
const SystemPrompt = "You are TaniGPT, powered by Tnix AI. " +
	"Respond in Hinglish or English only, keeping a friendly and conversational tone. " +
	"Keep responses relevant and engaging."

// MaxHistory caps chat_history length; the oldest non-system entries are dropped first.
const MaxHistory = 10

// CountryCode is prepended to every validated 10-digit phone number.
const CountryCode = "+91"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
	ErrInvalidPhone   = errors.New("phone number must be exactly 10 digits")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is the per-user state persisted as user_<n>.json.
type Record struct {
	Name        string        `json:"name"`
	PhoneNumber string        `json:"phone_number"`
	ChatHistory []ChatMessage `json:"chat_history"`
}

// IndexEntry maps an external transport id to its assigned user number
// inside user_index.json.
type IndexEntry struct {
	UserNumber string `json:"user_number"`
}

// ListedUser is one row of the admin user listing.
type ListedUser struct {
	UserNumber string
	ExternalID string
	Name       string
	Phone      string
}

// Store owns the user index and the numbered records. List/view/delete live
// here once; the admin dialogue and the web panel are both front ends over it.
type Store interface {
	Lookup(externalID string) (string, Record, error)
	Get(userNumber string) (Record, error)
	Create(externalID, name, phone string) (string, Record, error)
	AppendMessage(userNumber, role, content string) error
	ClearHistory(userNumber string) error
	Delete(userNumber string) error
	ListAll() ([]ListedUser, error)
}

// NormalizePhone validates a raw 10-digit input and returns it with the
// fixed country code prefix.
func NormalizePhone(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if len(p) != 10 {
		return "", ErrInvalidPhone
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return fmt.Sprintf("%s%s", CountryCode, p), nil
}
