package clinical

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medcohort/eligibility-api/internal/handler"
	"github.com/medcohort/eligibility-api/internal/model"
)

type Service interface {
	Snapshot(ctx context.Context, patientID string) (*model.ClinicalSnapshot, error)
	Timeline(ctx context.Context, patientID string, page, pageSize int) (*model.TimelineResponse, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/:id/snapshot", h.GetSnapshot)
		patients.GET("/:id/timeline", h.GetTimeline)
	}
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(snapshot))
}

func (h *Handler) GetTimeline(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	timeline, err := h.service.Timeline(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(timeline))
}
