// Package web serves the chat UI: a single page showing the display log, a message form and a reset action.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/DevanshMishra-12/AI-Agent/internal/chat"
)

const sessionCookieName = "firecrawl_session"

//go:embed templates/*.tmpl
var templateFS embed.FS

var examplePrompts = []string{
	"Scrape https://example.com and summarize it.",
	"Crawl https://wikipedia.org and list internal links.",
	"Extract all headings and links from this URL: ...",
}

type Server struct {
	sessions *chat.Manager
	bridge   chat.Bridge
	page     *template.Template
	markdown goldmark.Markdown
}

type renderedTurn struct {
	Role string
	HTML template.HTML
}

type pageData struct {
	Turns          []renderedTurn
	ResetConfirmed bool
	Busy           bool
	Examples       []string
}

func NewServer(sessions *chat.Manager, bridge chat.Bridge) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &Server{
		sessions: sessions,
		bridge:   bridge,
		page:     page,
		// Raw HTML in messages is escaped, goldmark's default
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(quietRequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Post("/messages", s.postMessage)
	r.Post("/reset", s.reset)
	r.Get("/transcript.md", s.transcript)
	r.Get("/health", s.health)

	return r
}

func quietRequestLogger(next http.Handler) http.Handler {
	logged := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

// session returns the caller's session, starting a new one and setting the cookie if needed
func (s *Server) session(w http.ResponseWriter, r *http.Request) *chat.Session {
	var id string
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		id = cookie.Value
	}
	session, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    session.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)

	data := pageData{
		ResetConfirmed: r.URL.Query().Get("reset") == "1",
		Busy:           session.State() == chat.StateAwaitingAgent,
		Examples:       examplePrompts,
	}
	for _, turn := range session.DisplayLog() {
		data.Turns = append(data.Turns, renderedTurn{
			Role: string(turn.Role),
			HTML: s.renderMarkdown(turn.Content),
		})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		log.Printf("failed to render page: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderMarkdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		log.Printf("failed to render markdown, falling back to plain text: %v", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(content) + "</pre>")
	}
	return template.HTML(buf.String())
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	text := r.FormValue("message")
	if strings.TrimSpace(text) == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// The agent call runs to completion even if the browser goes away
	ctx := context.WithoutCancel(r.Context())
	_, err := session.Exchange(ctx, text, s.bridge)
	if errors.Is(err, chat.ErrBusy) {
		http.Error(w, "The agent is still working on your previous message.", http.StatusConflict)
		return
	} else if err != nil {
		log.Printf("failed to exchange message: %v", err)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if err := session.Reset(); errors.Is(err, chat.ErrBusy) {
		http.Error(w, "The agent is still working; try resetting once it replies.", http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/?reset=1", http.StatusSeeOther)
}

func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	md, err := chat.Transcript(session)
	if err != nil {
		log.Printf("failed to render transcript: %v", err)
		http.Error(w, "failed to render transcript", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="firecrawl-conversation.md"`)
	_, _ = w.Write([]byte(md))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
