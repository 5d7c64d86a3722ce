package eligibility

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medcohort/eligibility-api/internal/handler"
	"github.com/medcohort/eligibility-api/internal/model"
)

// Cache keys are namespaced so a patient id can never collide with the
// cohort report entry.
const cohortCacheKey = "cohort"

func patientCacheKey(id string) string {
	return "patient:" + id
}

type Service interface {
	ForPatient(ctx context.Context, patientID string) (*model.EligibilityResult, error)
	CohortReport(ctx context.Context) (*model.CohortReport, error)
}

// Handler serves eligibility results behind a TTL cache. Results are
// deterministic for a given table set, so the cache only bounds staleness
// after a rebuild swaps new data in.
type Handler struct {
	service Service
	cache   *gocache.Cache
}

func NewHandler(service Service, ttl time.Duration) *Handler {
	return &Handler{
		service: service,
		cache:   gocache.New(ttl, 2*ttl),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients/:id/eligibility", h.GetEligibility)
	r.GET("/cohort", h.GetCohortReport)
}

func (h *Handler) GetEligibility(c *gin.Context) {
	id := c.Param("id")
	if cached, found := h.cache.Get(patientCacheKey(id)); found {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(cached))
		return
	}

	result, err := h.service.ForPatient(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	h.cache.SetDefault(patientCacheKey(id), result)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GetCohortReport(c *gin.Context) {
	if cached, found := h.cache.Get(cohortCacheKey); found {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(cached))
		return
	}

	report, err := h.service.CohortReport(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	h.cache.SetDefault(cohortCacheKey, report)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}
