// Package httpapi exposes the relevance engine over HTTP. It owns
// request parsing and response shaping only; all ranking semantics
// live in the ranking package.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/fitness"
	"github.com/chasseuragace/videsh/internal/ranking"
	"github.com/chasseuragace/videsh/internal/salary"
)

// Engine is the ranking entry point the server delegates to.
type Engine interface {
	Rank(ctx context.Context, req ranking.Request) (*ranking.Page, error)
}

// Server translates query parameters into ranking requests.
type Server struct {
	engine   Engine
	maxLimit int
	logger   *zap.Logger
}

func NewServer(engine Engine, maxLimit int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Server{engine: engine, maxLimit: maxLimit, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/v1/candidates/:id/relevant-postings", s.relevantPostings)

	return r
}

func (s *Server) relevantPostings(c *gin.Context) {
	req, err := s.parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := s.engine.Rank(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ranking.ErrInvalidPage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ranking.ErrCandidateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			s.logger.Error("ranking request failed",
				zap.String("candidate_id", req.CandidateID.String()),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": buildEntries(page, req.IncludeScore),
		"page": gin.H{
			"number":      page.Number,
			"limit":       page.Limit,
			"total":       page.Total,
			"total_pages": page.TotalPages,
		},
	})
}

// parseRequest validates the boundary inputs. The boundary is stricter
// than the engine: an explicit limit above the ceiling is rejected
// here, while the engine merely clamps.
func (s *Server) parseRequest(c *gin.Context) (ranking.Request, error) {
	var req ranking.Request

	candidateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return req, errors.New("candidate id must be a valid uuid")
	}
	req.CandidateID = candidateID
	req.Country = strings.TrimSpace(c.Query("country"))
	req.IncludeScore = c.Query("include_score") == "true"

	req.Page = 1
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page <= 0 {
			return req, errors.New("page must be a positive integer")
		}
		req.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return req, errors.New("limit must be a positive integer")
		}
		if limit > s.maxLimit {
			return req, errors.New("limit exceeds the configured maximum of " + strconv.Itoa(s.maxLimit))
		}
		req.Limit = limit
	}

	if raw := c.Query("convert_to"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			code = strings.TrimSpace(code)
			if code != "" {
				req.TargetCurrencies = append(req.TargetCurrencies, code)
			}
		}
	}

	if source := c.Query("salary_source"); source != "" {
		criteria := &salary.Criteria{
			Source:   salary.Source(source),
			Currency: strings.TrimSpace(c.Query("salary_currency")),
		}
		if raw := c.Query("salary_min"); raw != "" {
			min, err := decimal.NewFromString(raw)
			if err != nil {
				return req, errors.New("salary_min must be a number")
			}
			criteria.Min = &min
		}
		if raw := c.Query("salary_max"); raw != "" {
			max, err := decimal.NewFromString(raw)
			if err != nil {
				return req, errors.New("salary_max must be a number")
			}
			criteria.Max = &max
		}
		if err := criteria.Validate(); err != nil {
			return req, err
		}

		// A converted comparison needs the criteria currency resolved
		// into the view.
		if criteria.Source == salary.SourceConverted {
			req.TargetCurrencies = append(req.TargetCurrencies, criteria.Currency)
		}
		req.Salary = criteria
	}

	return req, nil
}

type postingEntry struct {
	ID             string             `json:"id"`
	PostingTitle   string             `json:"posting_title"`
	Country        string             `json:"country"`
	Positions      []positionEntry    `json:"positions"`
	FitnessScore   *int               `json:"fitness_score,omitempty"`
	ScoreBreakdown *fitness.Breakdown `json:"score_breakdown,omitempty"`
}

type positionEntry struct {
	Title     string            `json:"title"`
	Vacancies vacancyEntry      `json:"vacancies"`
	Salary    salaryEntry       `json:"salary"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

type vacancyEntry struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

type salaryEntry struct {
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	Currency      string          `json:"currency"`
	Converted     []salary.Entry  `json:"converted"`
}

func buildEntries(page *ranking.Page, includeScore bool) []postingEntry {
	entries := make([]postingEntry, 0, len(page.Items))
	for _, item := range page.Items {
		entry := postingEntry{
			ID:           item.Posting.ID.String(),
			PostingTitle: item.Posting.Title,
			Country:      item.Posting.Country,
		}

		if includeScore && item.Scored {
			score := item.Score.Value
			breakdown := item.Score.Breakdown
			entry.FitnessScore = &score
			entry.ScoreBreakdown = &breakdown
		}

		for _, pos := range item.Posting.Positions {
			view := item.Salaries[pos.ID]
			converted := view.Converted
			if converted == nil {
				converted = []salary.Entry{}
			}
			entry.Positions = append(entry.Positions, positionEntry{
				Title: pos.Title,
				Vacancies: vacancyEntry{
					Male:   pos.Vacancies.Male,
					Female: pos.Vacancies.Female,
				},
				Salary: salaryEntry{
					MonthlyAmount: pos.MonthlySalary,
					Currency:      pos.SalaryCurrency,
					Converted:     converted,
				},
				Overrides: pos.Overrides,
			})
		}

		entries = append(entries, entry)
	}
	return entries
}
