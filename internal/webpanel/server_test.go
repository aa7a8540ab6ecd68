package webpanel

import (
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tanigpt/internal/storage"
	"tanigpt/internal/users"
)

func newTestServer(t *testing.T) (*Server, users.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := users.NewFileStore(filepath.Join(dir, "user_data"), filepath.Join(dir, "user_index.json"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return New(store, nil, "panel-secret", 0), store
}

func TestPanel_LoginFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login form status: %d", resp.StatusCode)
	}

	// wrong password is a terminal 403
	resp, err = http.PostForm(ts.URL+"/login", url.Values{"password": {"wrong"}})
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong password status: want 403, got %d", resp.StatusCode)
	}

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err = client.PostForm(ts.URL+"/login", url.Values{"password": {"panel-secret"}})
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("correct password must redirect to dashboard: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestPanel_DashboardListsUsers(t *testing.T) {
	srv, store := newTestServer(t)
	if _, _, err := store.Create("555", "Asha", "+919876543210"); err != nil {
		t.Fatalf("create: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/dashboard")
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	// the template escapes "+" to an entity, compare against the unescaped body
	body := html.UnescapeString(string(raw))
	for _, want := range []string{"Asha", "+919876543210", "555", "/delete/1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, body)
		}
	}
}

func TestPanel_DeleteRedirectsAndRemoves(t *testing.T) {
	srv, store := newTestServer(t)
	num, _, err := store.Create("555", "Asha", "+919876543210")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/delete/" + num)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("delete must redirect back: %d", resp.StatusCode)
	}
	if _, err := store.Get(num); err == nil {
		t.Fatalf("record survived panel delete")
	}

	// deleting a missing user still redirects, matching the original panel
	resp, err = client.Get(ts.URL + "/delete/99")
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("missing user delete status: %d", resp.StatusCode)
	}
}

func TestPanel_InteractionsView(t *testing.T) {
	dir := t.TempDir()
	store, err := users.NewFileStore(filepath.Join(dir, "user_data"), filepath.Join(dir, "user_index.json"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	rec, err := storage.NewFileRecorder(filepath.Join(dir, "interactions.jsonl"))
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	if err := rec.AppendInteraction(storage.Event{
		Timestamp:         time.Unix(1, 0).UTC(),
		ExternalID:        "555",
		UserMessage:       "hello",
		AssistantResponse: "hi there",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	srv := New(store, rec, "panel-secret", 0)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/interactions")
	if err != nil {
		t.Fatalf("get interactions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("interactions status: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := html.UnescapeString(string(raw))
	for _, want := range []string{"555", "hello", "hi there"} {
		if !strings.Contains(body, want) {
			t.Fatalf("interactions missing %q:\n%s", want, body)
		}
	}
}

func TestPanel_InteractionsDisabledWithoutRecorder(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/interactions")
	if err != nil {
		t.Fatalf("get interactions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("disabled log status: want 404, got %d", resp.StatusCode)
	}
}

func TestPanel_Ping(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ping status: %d", resp.StatusCode)
	}
}
