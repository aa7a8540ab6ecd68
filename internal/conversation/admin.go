package conversation

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"tanigpt/internal/users"
)

// AdminFlow drives the password-gated admin dialogue. Entry is restricted
// to a single privileged external id; the store operations it invokes are
// the same ones the web panel uses.
type AdminFlow struct {
	store    users.Store
	adminID  string
	password string
}

func NewAdminFlow(store users.Store, adminID, password string) *AdminFlow {
	return &AdminFlow{store: store, adminID: adminID, password: password}
}

// Start enters the flow. Non-privileged callers are rejected with no
// state change.
func (f *AdminFlow) Start(externalID string, sessions *Sessions) Reply {
	if externalID != f.adminID {
		log.Printf("admin access denied for %s", externalID)
		return Reply{Text: fmt.Sprintf("Sorry bro, yeh admin wala scene sirf boss ke liye hai! %s", Emoji("admin", ""))}
	}
	sessions.Begin(externalID, StateAwaitingPassword)
	return Reply{Text: fmt.Sprintf("Admin password daal do, boss! %s", Emoji("admin", ""))}
}

// Advance feeds one admin input into the flow. A step may emit more than
// one reply (a result message followed by the menu prompt).
func (f *AdminFlow) Advance(externalID string, sess *Session, sessions *Sessions, input string) []Reply {
	input = strings.TrimSpace(input)
	switch sess.State {
	case StateAwaitingPassword:
		return f.handlePassword(sess, input)
	case StateMenu:
		return f.handleMenu(externalID, sess, sessions, input)
	case StateViewHistory:
		return f.handleViewHistory(sess, input)
	case StateDeleteUser:
		return f.handleDelete(sess, input)
	default:
		sessions.Clear(externalID)
		return []Reply{{Text: fmt.Sprintf("Kuch gadbad ho gayi, /admin se dobara try karo! %s", Emoji("error", "")), RemoveKeyboard: true}}
	}
}

// Cancel terminates the dialogue from any state.
func (f *AdminFlow) Cancel(externalID string, sessions *Sessions) Reply {
	sessions.Clear(externalID)
	return Reply{Text: fmt.Sprintf("Admin panel se exit kar diya, boss! %s", Emoji("success", "")), RemoveKeyboard: true}
}

func (f *AdminFlow) handlePassword(sess *Session, input string) []Reply {
	if input != f.password {
		return []Reply{{Text: fmt.Sprintf("Galat password, bro! %s Dobara try kar ya /cancel kar!", Emoji("error", ""))}}
	}
	sess.State = StateMenu
	return []Reply{{
		Text:     fmt.Sprintf("Welcome to TaniGPT Admin Panel, boss! %s Kya karna hai?", Emoji("admin", "")),
		Keyboard: MenuKeyboard,
	}}
}

func (f *AdminFlow) handleMenu(externalID string, sess *Session, sessions *Sessions, choice string) []Reply {
	switch choice {
	case "Exit":
		sessions.Clear(externalID)
		return []Reply{{Text: fmt.Sprintf("Admin panel se exit kar diya, boss! %s", Emoji("success", "")), RemoveKeyboard: true}}
	case "Users":
		return []Reply{f.listUsers(), f.menuPrompt()}
	case "History":
		sess.State = StateViewHistory
		return []Reply{{Text: fmt.Sprintf("Kis user ka history dekhna hai? User number daal do: %s", Emoji("admin", ""))}}
	case "Delete User":
		sess.State = StateDeleteUser
		return []Reply{{Text: fmt.Sprintf("Kis user ko delete karna hai? User number daal do: %s", Emoji("admin", ""))}}
	default:
		return []Reply{f.menuPrompt()}
	}
}

func (f *AdminFlow) listUsers() Reply {
	listed, err := f.store.ListAll()
	if err != nil {
		log.Printf("admin user listing failed: %v", err)
		return Reply{Text: fmt.Sprintf("Users load nahi ho paye, bro! %s", Emoji("error", ""))}
	}
	if len(listed) == 0 {
		return Reply{Text: fmt.Sprintf("Abhi koi users nahi hain, bro! %s", Emoji("error", ""))}
	}
	var b strings.Builder
	b.WriteString("Registered Users:\n")
	for _, u := range listed {
		fmt.Fprintf(&b, "User Number: %s\nTelegram ID: %s\nName: %s\nPhone: %s\n\n",
			u.UserNumber, u.ExternalID, u.Name, u.Phone)
	}
	return Reply{Text: b.String()}
}

func (f *AdminFlow) handleViewHistory(sess *Session, input string) []Reply {
	rec, err := f.store.Get(input)
	if errors.Is(err, users.ErrNotFound) {
		sess.State = StateMenu
		return []Reply{{Text: fmt.Sprintf("Yeh user number galat hai, bro! %s", Emoji("error", ""))}, f.menuPrompt()}
	}
	if err != nil {
		log.Printf("admin history load failed for %s: %v", input, err)
		sess.State = StateMenu
		return []Reply{{Text: fmt.Sprintf("History load nahi ho payi, bro! %s", Emoji("error", ""))}, f.menuPrompt()}
	}

	sess.State = StateMenu
	if len(rec.ChatHistory) <= 1 {
		return []Reply{{Text: fmt.Sprintf("User %s ka koi history nahi hai, boss! %s", input, Emoji("error", ""))}, f.menuPrompt()}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chat History for User %s (%s):\n\n", input, rec.Name)
	for _, msg := range rec.ChatHistory {
		if msg.Role == users.RoleSystem {
			continue
		}
		label := "TaniGPT"
		if msg.Role == users.RoleUser {
			label = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", label, msg.Content)
	}
	return []Reply{{Text: b.String()}, f.menuPrompt()}
}

func (f *AdminFlow) handleDelete(sess *Session, input string) []Reply {
	sess.State = StateMenu
	err := f.store.Delete(input)
	if errors.Is(err, users.ErrNotFound) {
		return []Reply{{Text: fmt.Sprintf("Yeh user number galat hai, bro! %s", Emoji("error", ""))}, f.menuPrompt()}
	}
	if err != nil {
		log.Printf("admin delete failed for %s: %v", input, err)
		return []Reply{{Text: fmt.Sprintf("User %s delete nahi ho paya, bro! %s", input, Emoji("error", ""))}, f.menuPrompt()}
	}
	log.Printf("admin deleted user number %s", input)
	return []Reply{{Text: fmt.Sprintf("User %s delete ho gaya, boss! %s", input, Emoji("success", ""))}, f.menuPrompt()}
}

func (f *AdminFlow) menuPrompt() Reply {
	return Reply{
		Text:     fmt.Sprintf("Ab kya karna hai, boss? %s", Emoji("admin", "")),
		Keyboard: MenuKeyboard,
	}
}
