package storage

import "time"

// Event represents a single completed exchange between a user and the bot.
// Events are expected to be appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	ExternalID        string    `json:"external_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
}

// Recorder abstracts persistence of interaction events.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
