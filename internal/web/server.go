// Package web serves the study, add, search and stats views over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/conorfennell/fiszki/internal/deck"
)

//go:embed all:templates
var templateFiles embed.FS

const cookieName = "fiszki_sid"

// Server holds the dependencies for the HTTP server.
type Server struct {
	repo      *deck.Repository
	visitors  *Registry
	router    chi.Router
	templates *template.Template
	log       logrus.FieldLogger
	rng       *rand.Rand
}

// Option customises a Server.
type Option func(*Server)

// WithRand makes session shuffles use rng. Tests use it for repeatable runs.
func WithRand(rng *rand.Rand) Option {
	return func(s *Server) { s.rng = rng }
}

// WithSessionTTL sets how long an idle visitor is remembered.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) { s.visitors = NewRegistry(ttl) }
}

// NewServer creates and configures a new server.
func NewServer(repo *deck.Repository, log logrus.FieldLogger, opts ...Option) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		repo:      repo,
		visitors:  NewRegistry(12 * time.Hour),
		router:    chi.NewRouter(),
		templates: tpl,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(s.logRequests)
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.withVisitor)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/study", http.StatusSeeOther)
		})
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireNick)

			r.Post("/scope", s.handleScope)

			r.Get("/study", s.handleStudy)
			r.Post("/study/start", s.handleStudyStart)
			r.Post("/study/reload", s.handleStudyReload)
			r.Post("/study/{action}", s.handleStudyAction)

			r.Get("/add", s.handleAddForm)
			r.Post("/add", s.handleAdd)

			r.Get("/search", s.handleSearch)
			r.Post("/cards/{id}/edit", s.handleEditCard)
			r.Post("/cards/{id}/delete", s.handleDeleteCard)

			r.Get("/stats", s.handleStats)
		})
	})
}

type visitorKey struct{}

// withVisitor attaches the caller's Visitor, creating one and setting the
// cookie on first contact, and holds the visitor's lock for the request.
func (s *Server) withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(cookieName); err == nil {
			id = c.Value
		}
		v, created := s.visitors.Lookup(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    v.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey{}, v)))
	})
}

func visitorFrom(r *http.Request) *Visitor {
	return r.Context().Value(visitorKey{}).(*Visitor)
}

// requireNick renders the nickname prompt until the visitor has one.
func (s *Server) requireNick(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		if v.Nick == "" {
			status := http.StatusOK
			if r.Method != http.MethodGet {
				status = http.StatusUnauthorized
			}
			s.render(w, r, status, "login", &page{Notice: "Enter your nickname to start."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs one line per request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": chimiddleware.GetReqID(r.Context()),
		})
		switch {
		case ww.Status() >= 500:
			entry.Error("request failed")
		case ww.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	})
}

// render executes a named page template.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	v, _ := r.Context().Value(visitorKey{}).(*Visitor)
	if v != nil {
		p.Nick = v.Nick
		p.ShowAll = v.ShowAll
		if p.Flash == "" {
			p.Flash = v.TakeFlash()
		}
	}
	if p.Mode == "" {
		p.Mode = name
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, p); err != nil {
		s.log.WithError(err).WithField("template", name).Error("failed to render template")
	}
}

// fail renders an error page for err, logging server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, mode string, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	s.render(w, r, status, "error", &page{Mode: mode, Error: err.Error()})
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

var errForbidden = errors.New("you can only change your own cards")
