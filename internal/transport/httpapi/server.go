package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

// Runner triggers one monitoring pass.
type Runner interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// Server exposes the monitoring trigger and the lead review endpoints. All
// routes are gated by the shared cron secret; user-facing auth belongs to
// the dashboard, not this service.
type Server struct {
	secret string
	runner Runner
	leads  ports.LeadStore
	logger *slog.Logger
	router chi.Router
}

// NewServer builds the router.
func NewServer(secret string, runner Runner, leads ports.LeadStore, logger *slog.Logger) *Server {
	s := &Server{
		secret: secret,
		runner: runner,
		leads:  leads,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Post("/api/cron/monitor-leads", s.handleMonitor)
		r.Get("/api/leads", s.handleListLeads)
		r.Patch("/api/leads", s.handlePatchLeads)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" || r.Header.Get("Authorization") != "Bearer "+s.secret {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Run(r.Context())
	if err != nil {
		if s.logger != nil {
			s.logger.Error("monitoring run failed", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Lead monitoring completed",
		"processed": summary.Processed,
		"saved":     summary.Saved,
	})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.LeadFilter{
		Platform: domain.Platform(query.Get("platform")),
		MinScore: intParam(query.Get("minScore"), 0),
		MaxScore: intParam(query.Get("maxScore"), 0),
		Page:     intParam(query.Get("page"), 1),
		Limit:    intParam(query.Get("limit"), 20),
	}

	leads, total, err := s.leads.List(r.Context(), filter)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("lead listing failed", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	pages := 0
	if filter.Limit > 0 {
		pages = (total + filter.Limit - 1) / filter.Limit
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"leads": leadViews(leads),
		"pagination": map[string]int{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": pages,
		},
	})
}

func (s *Server) handlePatchLeads(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		LeadIDs   []string `json:"leadIds"`
		Processed bool     `json:"processed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.LeadIDs == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "leadIds must be an array"})
		return
	}

	if err := s.leads.SetProcessed(r.Context(), payload.LeadIDs, payload.Processed); err != nil {
		if s.logger != nil {
			s.logger.Error("lead update failed", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": len(payload.LeadIDs)})
}

type leadView struct {
	ID        string         `json:"id"`
	KeywordID string         `json:"keywordId"`
	Platform  string         `json:"platform"`
	Content   string         `json:"content"`
	Author    string         `json:"author"`
	PostURL   string         `json:"postUrl"`
	LeadScore int            `json:"leadScore"`
	Reasoning string         `json:"reasoning"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Processed bool           `json:"processed"`
	CreatedAt string         `json:"createdAt"`
}

func leadViews(leads []domain.Lead) []leadView {
	views := make([]leadView, 0, len(leads))
	for _, lead := range leads {
		views = append(views, leadView{
			ID:        lead.ID,
			KeywordID: lead.KeywordID,
			Platform:  string(lead.Platform),
			Content:   lead.Content,
			Author:    lead.Author,
			PostURL:   lead.PostURL,
			LeadScore: lead.Score,
			Reasoning: lead.Reasoning,
			Metadata:  lead.Metadata,
			Processed: lead.Processed,
			CreatedAt: lead.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
