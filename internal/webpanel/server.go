package webpanel

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tanigpt/internal/storage"
	"tanigpt/internal/users"
)

// Server is the password-gated admin web surface. Only the login POST is
// password-checked; the dashboard and delete routes are reachable once
// the URL is known.
type Server struct {
	store    users.Store
	recorder storage.Recorder
	password string
	server   *http.Server
	port     int
}

func New(store users.Store, recorder storage.Recorder, password string, port int) *Server {
	return &Server{store: store, recorder: recorder, password: password, port: port}
}

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>TaniGPT Admin</title></head>
<body>
<h1>TaniGPT Admin Panel</h1>
<form method="POST" action="/login">
  <input type="password" name="password" placeholder="Password" autofocus>
  <button type="submit">Login</button>
</form>
</body>
</html>`))

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>TaniGPT Users</title></head>
<body>
<h1>Registered Users</h1>
<table border="1" cellpadding="4">
  <tr><th>User Number</th><th>Telegram ID</th><th>Name</th><th>Phone</th><th></th></tr>
  {{range .}}
  <tr>
    <td>{{.UserNumber}}</td>
    <td>{{.ExternalID}}</td>
    <td>{{.Name}}</td>
    <td>{{.Phone}}</td>
    <td><a href="/delete/{{.UserNumber}}">delete</a></td>
  </tr>
  {{end}}
</table>
<p><a href="/interactions">recent interactions</a></p>
</body>
</html>`))

var interactionsTmpl = template.Must(template.New("interactions").Parse(`<!DOCTYPE html>
<html>
<head><title>TaniGPT Interactions</title></head>
<body>
<h1>Recent Interactions</h1>
<table border="1" cellpadding="4">
  <tr><th>Time</th><th>Telegram ID</th><th>User</th><th>TaniGPT</th></tr>
  {{range .}}
  <tr>
    <td>{{.Timestamp.Format "2006-01-02 15:04:05"}}</td>
    <td>{{.ExternalID}}</td>
    <td>{{.UserMessage}}</td>
    <td>{{.AssistantResponse}}</td>
  </tr>
  {{end}}
</table>
<p><a href="/dashboard">back to users</a></p>
</body>
</html>`))

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", s.handlePing)
	r.Get("/", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/interactions", s.handleInteractions)
	r.Get("/delete/{userNumber}", s.handleDelete)

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("starting admin panel on http://localhost:%d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	log.Printf("ping received at %s", time.Now().Format(time.RFC3339))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("I'm alive!"))
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := loginTmpl.Execute(w, nil); err != nil {
		log.Printf("failed to render login page: %v", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("password") != s.password {
		http.Error(w, "Invalid password!", http.StatusForbidden)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	listed, err := s.store.ListAll()
	if err != nil {
		log.Printf("failed to list users: %v", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if err := dashboardTmpl.Execute(w, listed); err != nil {
		log.Printf("failed to render dashboard: %v", err)
	}
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		http.Error(w, "interaction log disabled", http.StatusNotFound)
		return
	}
	events, err := s.recorder.LoadInteractions()
	if err != nil {
		log.Printf("failed to load interactions: %v", err)
		http.Error(w, "failed to load interactions", http.StatusInternalServerError)
		return
	}
	if err := interactionsTmpl.Execute(w, events); err != nil {
		log.Printf("failed to render interactions: %v", err)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	userNumber := chi.URLParam(r, "userNumber")
	if err := s.store.Delete(userNumber); err != nil {
		log.Printf("panel delete failed for %s: %v", userNumber, err)
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
