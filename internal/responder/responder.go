package responder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tanigpt/internal/conversation"
	"tanigpt/internal/llm"
	"tanigpt/internal/storage"
	"tanigpt/internal/users"
)

var dateKeywords = []string{"date", "today", "current date", "what's the date", "aaj ka din"}

var founderKeywords = []string{"tanishk sharma", "who is tanishk"}

const founderBio = "Tanishk Sharma is the Founder of Tnix AI. He is a music producer, casting director, singer, and writer. " +
	"His songs include 'Lost in My Feeling', '06 October Forever and Always', and 'WQAT'."

const signUpFirst = "Pehle signup karo, bro! %s Use /start."

// Responder turns a free-text message from a known user into a reply,
// either from a fixed intent or from the completion API, and records the
// exchange in the user's persisted history.
type Responder struct {
	store    users.Store
	client   llm.Client
	recorder storage.Recorder
}

func New(store users.Store, client llm.Client, recorder storage.Recorder) *Responder {
	return &Responder{store: store, client: client, recorder: recorder}
}

// Respond always produces a user-facing reply. Upstream failures are
// logged and surfaced inline rather than retried, so the user is never
// left without an answer.
func (r *Responder) Respond(ctx context.Context, externalID, text string) string {
	message := strings.ToLower(strings.TrimSpace(text))

	userNumber, rec, err := r.store.Lookup(externalID)
	if errors.Is(err, users.ErrNotFound) {
		return fmt.Sprintf(signUpFirst, conversation.Emoji("error", ""))
	}
	if err != nil {
		log.Printf("responder lookup failed for %s: %v", externalID, err)
		return fmt.Sprintf(signUpFirst, conversation.Emoji("error", ""))
	}

	if err := r.store.AppendMessage(userNumber, users.RoleUser, message); err != nil {
		log.Printf("failed to append user message for %s: %v", externalID, err)
	}

	response, err := r.generate(ctx, userNumber, message)
	if err != nil {
		log.Printf("completion failed for %s: %v", externalID, err)
		return fmt.Sprintf("Hlo %s, kuch galat ho gaya: %v %s", rec.Name, err, conversation.Emoji("error", ""))
	}

	if err := r.store.AppendMessage(userNumber, users.RoleAssistant, response); err != nil {
		log.Printf("failed to append assistant message for %s: %v", externalID, err)
	}
	if r.recorder != nil {
		if err := r.recorder.AppendInteraction(storage.Event{
			Timestamp:         time.Now(),
			ExternalID:        externalID,
			UserMessage:       message,
			AssistantResponse: response,
		}); err != nil {
			log.Printf("failed to record interaction for %s: %v", externalID, err)
		}
	}

	return fmt.Sprintf("Hlo %s, %s %s", rec.Name, response, conversation.Emoji("general", message))
}

func (r *Responder) generate(ctx context.Context, userNumber, message string) (string, error) {
	if matchesAny(message, dateKeywords) {
		reply := time.Now().Format("Today is Monday, January 02, 2006")
		log.Printf("date query detected, responding: %s", reply)
		return reply, nil
	}
	if matchesAny(message, founderKeywords) {
		log.Printf("founder query detected, responding with predefined info")
		return founderBio, nil
	}

	// Re-read so the context reflects post-truncation history.
	rec, err := r.store.Get(userNumber)
	if err != nil {
		return "", err
	}
	var msgs []llm.Message
	for _, m := range rec.ChatHistory {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	started := time.Now()
	resp, err := r.client.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	log.Printf("completion response [model=%s, tokens: prompt=%d, completion=%d, total=%d] in %.2fs",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens, time.Since(started).Seconds())
	return resp.Content, nil
}

func matchesAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}
