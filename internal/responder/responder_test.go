package responder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tanigpt/internal/llm"
	"tanigpt/internal/users"
)

type fakeClient struct {
	reply    string
	err      error
	calls    int
	lastMsgs []llm.Message
}

func (f *fakeClient) Generate(ctx context.Context, messages []llm.Message) (llm.Response, error) {
	f.calls++
	f.lastMsgs = messages
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply, Model: "fake"}, nil
}

func newTestStore(t *testing.T) users.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := users.NewFileStore(filepath.Join(dir, "user_data"), filepath.Join(dir, "user_index.json"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

func signup(t *testing.T, store users.Store, externalID, name string) string {
	t.Helper()
	num, _, err := store.Create(externalID, name, "+919876543210")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return num
}

func TestRespond_UnknownUser(t *testing.T) {
	store := newTestStore(t)
	client := &fakeClient{reply: "hi"}
	r := New(store, client, nil)

	got := r.Respond(context.Background(), "999", "hello")
	if !strings.Contains(got, "Pehle signup karo") {
		t.Fatalf("unexpected reply: %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("completion API contacted for unknown user")
	}
	listed, _ := store.ListAll()
	if len(listed) != 0 {
		t.Fatalf("unknown user mutated the store")
	}
}

func TestRespond_DateIntentBypassesAPI(t *testing.T) {
	store := newTestStore(t)
	signup(t, store, "555", "Asha")
	client := &fakeClient{reply: "should not be used"}
	r := New(store, client, nil)

	got := r.Respond(context.Background(), "555", "What's the date?")
	want := time.Now().Format("Today is Monday, January 02, 2006")
	if !strings.Contains(got, want) {
		t.Fatalf("date reply %q missing %q", got, want)
	}
	if !strings.HasPrefix(got, "Hlo Asha, ") {
		t.Fatalf("greeting prefix missing: %q", got)
	}
	if !strings.HasSuffix(got, "📅") {
		t.Fatalf("date suffix missing: %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("date query must not contact the completion API")
	}
}

func TestRespond_FounderIntentBypassesAPI(t *testing.T) {
	store := newTestStore(t)
	signup(t, store, "555", "Asha")
	client := &fakeClient{reply: "should not be used"}
	r := New(store, client, nil)

	got := r.Respond(context.Background(), "555", "Who is Tanishk Sharma?")
	if !strings.Contains(got, "Founder of Tnix AI") {
		t.Fatalf("founder bio missing: %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("founder query must not contact the completion API")
	}
}

func TestRespond_GeneralMessageUsesAPI(t *testing.T) {
	store := newTestStore(t)
	num := signup(t, store, "555", "Asha")
	client := &fakeClient{reply: "nice to meet you"}
	r := New(store, client, nil)

	got := r.Respond(context.Background(), "555", "Hello There")
	if got != "Hlo Asha, nice to meet you 😊" {
		t.Fatalf("unexpected decorated reply: %q", got)
	}
	if client.calls != 1 {
		t.Fatalf("want 1 completion call, got %d", client.calls)
	}
	if len(client.lastMsgs) == 0 || client.lastMsgs[0].Role != users.RoleSystem {
		t.Fatalf("context must start with the system prompt: %+v", client.lastMsgs)
	}
	// incoming text is lowercased before it enters the history
	last := client.lastMsgs[len(client.lastMsgs)-1]
	if last.Role != users.RoleUser || last.Content != "hello there" {
		t.Fatalf("context must end with the lowered user message: %+v", last)
	}

	rec, err := store.Get(num)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	tail := rec.ChatHistory[len(rec.ChatHistory)-1]
	if tail.Role != users.RoleAssistant || tail.Content != "nice to meet you" {
		t.Fatalf("assistant reply not persisted: %+v", tail)
	}
}

func TestRespond_UpstreamErrorSurfacesInline(t *testing.T) {
	store := newTestStore(t)
	num := signup(t, store, "555", "Asha")
	client := &fakeClient{err: errors.New("connection refused")}
	r := New(store, client, nil)

	got := r.Respond(context.Background(), "555", "hello")
	if !strings.Contains(got, "kuch galat ho gaya") || !strings.Contains(got, "connection refused") {
		t.Fatalf("error must surface inline: %q", got)
	}

	rec, err := store.Get(num)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	tail := rec.ChatHistory[len(rec.ChatHistory)-1]
	if tail.Role == users.RoleAssistant {
		t.Fatalf("failed exchange must not persist an assistant message")
	}
}

func TestRespond_HistoryNeverExceedsCap(t *testing.T) {
	store := newTestStore(t)
	num := signup(t, store, "555", "Asha")
	client := &fakeClient{reply: "ok"}
	r := New(store, client, nil)

	for i := 0; i < 15; i++ {
		r.Respond(context.Background(), "555", fmt.Sprintf("message %d", i))
	}

	rec, err := store.Get(num)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rec.ChatHistory) > users.MaxHistory {
		t.Fatalf("history exceeded cap: %d", len(rec.ChatHistory))
	}
	if rec.ChatHistory[0].Role != users.RoleSystem {
		t.Fatalf("system prompt lost from context")
	}
	if len(client.lastMsgs) > users.MaxHistory {
		t.Fatalf("completion context exceeded cap: %d", len(client.lastMsgs))
	}
}
