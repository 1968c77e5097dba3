package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/fitness"
	"github.com/chasseuragace/videsh/internal/job"
	"github.com/chasseuragace/videsh/internal/ranking"
	"github.com/chasseuragace/videsh/internal/salary"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEngine struct {
	lastReq ranking.Request
	page    *ranking.Page
	err     error
}

func (s *stubEngine) Rank(_ context.Context, req ranking.Request) (*ranking.Page, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func stubPage() *ranking.Page {
	posID := uuid.MustParse("00000001-0000-4000-8000-000000000001")
	posting := &job.JobPosting{
		ID:      uuid.MustParse("00000001-0000-4000-8000-000000000000"),
		Title:   "Electricians for Dubai",
		Country: "UAE",
		Open:    true,
		Positions: []job.Position{
			{
				ID:             posID,
				Title:          "Electrician",
				Vacancies:      job.Vacancies{Male: 3, Female: 1},
				MonthlySalary:  decimal.NewFromInt(1800),
				SalaryCurrency: "AED",
			},
		},
		CreatedAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	score := 87
	item := &ranking.ScoredPosting{
		Posting: posting,
		Score:   fitness.Score{Value: score, Breakdown: fitness.Breakdown{Skills: 1, Education: 1, Experience: 0.35}},
		Scored:  true,
		Salaries: map[uuid.UUID]salary.View{
			posID: {
				Base: salary.Entry{Amount: decimal.NewFromInt(1800), Currency: "AED"},
				Converted: []salary.Entry{
					{Amount: decimal.RequireFromString("490.13"), Currency: "USD"},
				},
			},
		},
	}

	return &ranking.Page{
		Items:      []*ranking.ScoredPosting{item},
		Number:     1,
		Limit:      10,
		Total:      1,
		TotalPages: 1,
	}
}

func doRequest(t *testing.T, engine Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	server := NewServer(engine, 100, zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	server.Router().ServeHTTP(rec, req)
	return rec
}

const candidatePath = "/api/v1/candidates/6fa459ea-ee8a-3ca4-894e-db77e160355e/relevant-postings"

func TestRelevantPostingsResponseShape(t *testing.T) {
	engine := &stubEngine{page: stubPage()}

	rec := doRequest(t, engine, candidatePath+"?include_score=true&convert_to=USD")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data []struct {
			ID           string `json:"id"`
			PostingTitle string `json:"posting_title"`
			Country      string `json:"country"`
			FitnessScore *int   `json:"fitness_score"`
			Positions    []struct {
				Title     string `json:"title"`
				Vacancies struct {
					Male   int `json:"male"`
					Female int `json:"female"`
				} `json:"vacancies"`
				Salary struct {
					MonthlyAmount json.Number `json:"monthly_amount"`
					Currency      string      `json:"currency"`
					Converted     []struct {
						Amount   json.Number `json:"amount"`
						Currency string      `json:"currency"`
					} `json:"converted"`
				} `json:"salary"`
			} `json:"positions"`
		} `json:"data"`
		Page struct {
			Number int `json:"number"`
			Total  int `json:"total"`
		} `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if len(body.Data) != 1 {
		t.Fatalf("expected one entry, got %d", len(body.Data))
	}
	entry := body.Data[0]
	if entry.PostingTitle != "Electricians for Dubai" || entry.Country != "UAE" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.FitnessScore == nil || *entry.FitnessScore != 87 {
		t.Fatalf("expected fitness_score 87, got %v", entry.FitnessScore)
	}
	pos := entry.Positions[0]
	if pos.Vacancies.Male != 3 || pos.Vacancies.Female != 1 {
		t.Fatalf("unexpected vacancies: %+v", pos.Vacancies)
	}
	if pos.Salary.Currency != "AED" || len(pos.Salary.Converted) != 1 {
		t.Fatalf("unexpected salary: %+v", pos.Salary)
	}
	if body.Page.Total != 1 {
		t.Fatalf("unexpected page meta: %+v", body.Page)
	}
}

func TestFitnessScoreOmittedWithoutIncludeScore(t *testing.T) {
	engine := &stubEngine{page: stubPage()}

	rec := doRequest(t, engine, candidatePath)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	entry := body["data"].([]any)[0].(map[string]any)
	if _, present := entry["fitness_score"]; present {
		t.Fatalf("fitness_score must be omitted unless requested")
	}
}

func TestParseRequestBuildsSalaryCriteria(t *testing.T) {
	engine := &stubEngine{page: stubPage()}

	rec := doRequest(t, engine, candidatePath+
		"?salary_source=converted&salary_currency=USD&salary_min=400&salary_max=900")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	criteria := engine.lastReq.Salary
	if criteria == nil || criteria.Source != salary.SourceConverted || criteria.Currency != "USD" {
		t.Fatalf("unexpected criteria: %+v", criteria)
	}
	if criteria.Min == nil || !criteria.Min.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected minimum: %+v", criteria.Min)
	}

	// The criteria currency must be resolved into the salary view.
	found := false
	for _, code := range engine.lastReq.TargetCurrencies {
		if code == "USD" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected USD in target currencies, got %v", engine.lastReq.TargetCurrencies)
	}
}

func TestBoundaryValidation(t *testing.T) {
	engine := &stubEngine{page: stubPage()}

	cases := []struct {
		name string
		path string
		code int
	}{
		{"bad uuid", "/api/v1/candidates/nope/relevant-postings", http.StatusBadRequest},
		{"zero page", candidatePath + "?page=0", http.StatusBadRequest},
		{"negative limit", candidatePath + "?limit=-1", http.StatusBadRequest},
		{"limit over ceiling", candidatePath + "?limit=500", http.StatusBadRequest},
		{"bad salary min", candidatePath + "?salary_source=base&salary_currency=AED&salary_min=abc", http.StatusBadRequest},
		{"criteria without currency", candidatePath + "?salary_source=base", http.StatusBadRequest},
	}

	for _, c := range cases {
		rec := doRequest(t, engine, c.path)
		if rec.Code != c.code {
			t.Errorf("%s: expected %d, got %d", c.name, c.code, rec.Code)
		}
	}
}

func TestEngineErrorsMapToStatusCodes(t *testing.T) {
	notFound := &stubEngine{err: ranking.ErrCandidateNotFound}
	if rec := doRequest(t, notFound, candidatePath); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing candidate, got %d", rec.Code)
	}

	invalid := &stubEngine{err: ranking.ErrInvalidPage}
	if rec := doRequest(t, invalid, candidatePath); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid paging, got %d", rec.Code)
	}
}
