package conversation

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"tanigpt/internal/users"
)

// SignupFlow drives the two-step signup dialogue: collect a name, then a
// phone number. Partial data lives only in the session until the record
// is created atomically at the end.
type SignupFlow struct {
	store users.Store
}

func NewSignupFlow(store users.Store) *SignupFlow {
	return &SignupFlow{store: store}
}

// Start enters the flow. Already-indexed users terminate immediately with
// a welcome-back reply and no session.
func (f *SignupFlow) Start(externalID string, sessions *Sessions) Reply {
	userNumber, rec, err := f.store.Lookup(externalID)
	if err == nil {
		return Reply{Text: fmt.Sprintf(
			"Hlo %s, welcome back to TaniGPT! Apka user number hai %s. Chalo, kya baat karna hai? %s",
			rec.Name, userNumber, Emoji("welcome", ""))}
	}
	if !errors.Is(err, users.ErrNotFound) {
		log.Printf("signup start lookup failed for %s: %v", externalID, err)
	}

	sessions.Begin(externalID, StateAwaitingName)
	return Reply{Text: fmt.Sprintf(
		"Yo bro, TaniGPT mein swagat hai! %s Pehle signup karo, bada maza aayega! Apna naam bhejo, cool sa!",
		Emoji("welcome", ""))}
}

// Advance feeds one user input into the flow, mutating the session state.
// The session is cleared by Advance when the flow terminates.
func (f *SignupFlow) Advance(externalID string, sess *Session, sessions *Sessions, input string) Reply {
	switch sess.State {
	case StateAwaitingName:
		return f.handleName(externalID, sess, sessions, input)
	case StateAwaitingPhone:
		return f.handlePhone(externalID, sess, sessions, input)
	default:
		sessions.Clear(externalID)
		return Reply{Text: fmt.Sprintf("Kuch gadbad ho gayi, /start se dobara try karo! %s", Emoji("error", ""))}
	}
}

// Cancel aborts the flow without persisting partial data.
func (f *SignupFlow) Cancel(externalID string, sessions *Sessions) Reply {
	sessions.Clear(externalID)
	return Reply{Text: fmt.Sprintf("Signup cancel kar diya, bro! %s Dobara try karo with /start!", Emoji("success", ""))}
}

func (f *SignupFlow) handleName(externalID string, sess *Session, sessions *Sessions, input string) Reply {
	name := strings.TrimSpace(input)
	if name == "" {
		return Reply{Text: fmt.Sprintf("Arre, naam toh btao! %s Kuch cool sa naam daal do!", Emoji("error", ""))}
	}
	sess.Name = name
	sess.State = StateAwaitingPhone
	return Reply{Text: fmt.Sprintf(
		"Acha, %s, badhiya choice! %s Ab apna 10-digit phone number bhejo, jaise 9876543210. (%s apne aap add ho jayega!)",
		name, Emoji("welcome", ""), users.CountryCode)}
}

func (f *SignupFlow) handlePhone(externalID string, sess *Session, sessions *Sessions, input string) Reply {
	phone, err := users.NormalizePhone(input)
	if err != nil {
		return Reply{Text: fmt.Sprintf(
			"Arre, phone number 10 digits ka hona chahiye! %s Sirf numbers daal do, jaise 9876543210.",
			Emoji("error", ""))}
	}

	userNumber, _, err := f.store.Create(externalID, sess.Name, phone)
	if errors.Is(err, users.ErrDuplicatePhone) {
		return Reply{Text: fmt.Sprintf("Yeh number (%s) toh pehle se hai! %s Koi naya number try karo!", phone, Emoji("error", ""))}
	}
	if err != nil {
		log.Printf("signup create failed for %s: %v", externalID, err)
		sessions.Clear(externalID)
		return Reply{Text: fmt.Sprintf("Kuch galat ho gaya, /start se dobara try karo! %s", Emoji("error", ""))}
	}

	log.Printf("user %s signed up with user number %s", externalID, userNumber)
	name := sess.Name
	sessions.Clear(externalID)
	return Reply{Text: fmt.Sprintf(
		"Hlo %s, signup ho gaya, swagat hai TaniGPT mein! Apka user number hai %s. Ab bol, kya scene hai? %s",
		name, userNumber, Emoji("welcome", ""))}
}
