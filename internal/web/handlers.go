package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/fiszki/internal/deck"
	"github.com/conorfennell/fiszki/internal/domain"
	"github.com/conorfennell/fiszki/internal/session"
)

// page is the data handed to every template.
type page struct {
	Nick    string
	ShowAll bool
	Mode    string
	Flash   string
	Notice  string
	Error   string

	// study
	Status     string
	Card       *session.Card
	Pos        int
	Total      int
	Remaining  int
	ShowAnswer bool
	CanPrev    bool
	CanNext    bool

	// add
	Question string
	Answer   string

	// search
	Query    string
	Searched bool
	Matches  []deck.Match

	// stats
	Stats *deck.Stats
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrEmptyUsername):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrSessionComplete):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	nick := domain.NormalizeUsername(r.PostFormValue("nickname"))
	if nick == "" {
		s.render(w, r, http.StatusUnprocessableEntity, "login", &page{Error: domain.ErrEmptyUsername.Error()})
		return
	}
	v.SwitchUser(nick)
	s.redirect(w, r, "/study")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	v.SwitchUser("")
	v.ShowAll = false
	s.redirect(w, r, "/study")
}

// handleScope toggles whether study sessions include every user's cards.
// The new scope applies to the next start or reload.
func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	v.ShowAll = r.PostFormValue("all") == "on"
	back := r.PostFormValue("back")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/study"
	}
	s.redirect(w, r, back)
}

// handleStudy renders the current session state.
func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	p := &page{Mode: "study"}

	switch v.Study.Status() {
	case session.NoSession:
		p.Status = "none"
	case session.Complete:
		p.Status = "complete"
	case session.Active:
		v.Study = v.Study.Settle()
		card, _ := v.Study.Current()
		p.Status = "active"
		p.Card = &card
		p.Pos, p.Total = v.Study.Progress()
		p.Remaining = len(v.Study.Remaining)
		p.ShowAnswer = v.Study.ShowAnswer
		p.CanPrev = v.Study.CanPrev()
		p.CanNext = v.Study.CanNext()
	}
	s.render(w, r, http.StatusOK, "study", p)
}

func (s *Server) handleStudyStart(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	candidates, err := s.repo.Candidates(r.Context(), v.Nick, v.ShowAll)
	if err != nil {
		s.fail(w, r, "study", err)
		return
	}
	v.Study = session.Start(candidates, s.rng)
	s.log.WithField("user", v.Nick).WithField("cards", len(candidates)).Info("study session started")
	s.redirect(w, r, "/study")
}

func (s *Server) handleStudyReload(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	candidates, err := s.repo.Candidates(r.Context(), v.Nick, v.ShowAll)
	if err != nil {
		s.fail(w, r, "study", err)
		return
	}
	next, err := v.Study.Reload(candidates, s.rng)
	if err != nil {
		s.fail(w, r, "study", err)
		return
	}
	v.Study = next
	s.redirect(w, r, "/study")
}

func (s *Server) handleStudyAction(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	action, err := session.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		s.fail(w, r, "study", err)
		return
	}
	next, err := v.Study.Apply(action)
	if err != nil {
		s.fail(w, r, "study", err)
		return
	}
	v.Study = next
	if action == session.End {
		v.SetFlash("Session ended.")
	}
	s.redirect(w, r, "/study")
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "add", &page{})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	q := r.PostFormValue("question")
	a := r.PostFormValue("answer")

	if _, err := s.repo.Add(r.Context(), v.Nick, q, a); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.render(w, r, http.StatusUnprocessableEntity, "add", &page{
				Error:    "Fill in both the question and the answer.",
				Question: q,
				Answer:   a,
			})
			return
		}
		s.fail(w, r, "add", err)
		return
	}
	s.render(w, r, http.StatusOK, "add", &page{Flash: "Added!"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	q := r.URL.Query().Get("q")
	matches, err := s.repo.Search(r.Context(), q, v.Nick)
	if err != nil {
		s.fail(w, r, "search", err)
		return
	}
	s.render(w, r, http.StatusOK, "search", &page{
		Query:    q,
		Searched: q != "",
		Matches:  matches,
	})
}

// ownCard checks that the card exists and belongs to the visitor.
func (s *Server) ownCard(r *http.Request, id string) error {
	owner, err := s.repo.Owner(r.Context(), id)
	if err != nil {
		return err
	}
	if owner != visitorFrom(r).Nick {
		return errForbidden
	}
	return nil
}

func (s *Server) handleEditCard(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	id := chi.URLParam(r, "id")
	if err := s.ownCard(r, id); err != nil {
		s.fail(w, r, "search", err)
		return
	}
	if err := s.repo.EditByID(r.Context(), v.Nick, id, r.PostFormValue("question"), r.PostFormValue("answer")); err != nil {
		s.fail(w, r, "search", err)
		return
	}
	v.SetFlash("Saved!")
	s.redirect(w, r, searchURL(r.PostFormValue("q")))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	id := chi.URLParam(r, "id")
	if err := s.ownCard(r, id); err != nil {
		s.fail(w, r, "search", err)
		return
	}
	if err := s.repo.DeleteByID(r.Context(), v.Nick, id); err != nil {
		s.fail(w, r, "search", err)
		return
	}
	v.SetFlash("Deleted!")
	s.redirect(w, r, searchURL(r.PostFormValue("q")))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	st, err := s.repo.Stats(r.Context(), v.Nick)
	if err != nil {
		s.fail(w, r, "stats", err)
		return
	}
	s.render(w, r, http.StatusOK, "stats", &page{Stats: st})
}

func searchURL(q string) string {
	if q == "" {
		return "/search"
	}
	return "/search?q=" + url.QueryEscape(q)
}
