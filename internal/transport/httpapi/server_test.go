package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"LeadScout/internal/domain"
)

type fakeRunner struct {
	summary domain.RunSummary
	err     error
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context) (domain.RunSummary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeLeadStore struct {
	leads     []domain.Lead
	total     int
	listErr   error
	processed []string
}

func (f *fakeLeadStore) Exists(ctx context.Context, keywordID, postURL string) (bool, error) {
	return false, nil
}

func (f *fakeLeadStore) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	return lead, nil
}

func (f *fakeLeadStore) List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, int, error) {
	return f.leads, f.total, f.listErr
}

func (f *fakeLeadStore) SetProcessed(ctx context.Context, leadIDs []string, processed bool) error {
	f.processed = append(f.processed, leadIDs...)
	return nil
}

func newTestServer(runner *fakeRunner, store *fakeLeadStore) *Server {
	return NewServer("cron-secret", runner, store, nil)
}

func TestMonitorRejectsMissingOrWrongSecret(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	server := newTestServer(runner, &fakeLeadStore{})

	for _, header := range []string{"", "Bearer wrong", "cron-secret"} {
		req := httptest.NewRequest(http.MethodPost, "/api/cron/monitor-leads", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		server.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}

		var payload map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["error"] != "Unauthorized" {
			t.Fatalf("unexpected body: %+v", payload)
		}
	}

	if runner.calls != 0 {
		t.Fatalf("runner must not be invoked on auth failure, got %d calls", runner.calls)
	}
}

func TestMonitorReturnsRunSummary(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{summary: domain.RunSummary{Processed: 12, Saved: 3}}
	server := newTestServer(runner, &fakeLeadStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/cron/monitor-leads", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Message   string `json:"message"`
		Processed int    `json:"processed"`
		Saved     int    `json:"saved"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Processed != 12 || payload.Saved != 3 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Message == "" {
		t.Fatal("expected completion message")
	}
}

func TestMonitorMapsRunErrorTo500(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("keyword load failed")}
	server := newTestServer(runner, &fakeLeadStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/cron/monitor-leads", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestListLeadsAppliesFiltersAndPagination(t *testing.T) {
	t.Parallel()

	store := &fakeLeadStore{
		leads: []domain.Lead{{
			ID:        "l1",
			KeywordID: "kw-1",
			Platform:  domain.PlatformReddit,
			Content:   "Looking for a CRM alternative",
			PostURL:   "https://reddit.com/p1",
			Score:     9,
			CreatedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		}},
		total: 41,
	}
	server := newTestServer(&fakeRunner{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/leads?platform=reddit&minScore=8&page=2&limit=20", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Leads      []leadView     `json:"leads"`
		Pagination map[string]int `json:"pagination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(payload.Leads) != 1 || payload.Leads[0].LeadScore != 9 {
		t.Fatalf("unexpected leads: %+v", payload.Leads)
	}
	if payload.Pagination["total"] != 41 || payload.Pagination["pages"] != 3 {
		t.Fatalf("unexpected pagination: %+v", payload.Pagination)
	}
	if payload.Pagination["page"] != 2 {
		t.Fatalf("unexpected page: %+v", payload.Pagination)
	}
}

func TestPatchLeadsValidatesPayload(t *testing.T) {
	t.Parallel()

	store := &fakeLeadStore{}
	server := newTestServer(&fakeRunner{}, store)

	req := httptest.NewRequest(http.MethodPatch, "/api/leads", strings.NewReader(`{"processed":true}`))
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPatchLeadsUpdatesProcessedFlag(t *testing.T) {
	t.Parallel()

	store := &fakeLeadStore{}
	server := newTestServer(&fakeRunner{}, store)

	req := httptest.NewRequest(http.MethodPatch, "/api/leads",
		strings.NewReader(`{"leadIds":["l1","l2"],"processed":true}`))
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.processed) != 2 {
		t.Fatalf("expected 2 updated leads, got %v", store.processed)
	}
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	t.Parallel()

	server := NewServer("", &fakeRunner{}, &fakeLeadStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/monitor-leads", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with empty configured secret, got %d", rec.Code)
	}
}
