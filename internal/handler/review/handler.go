package review

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medcohort/eligibility-api/internal/handler"
	"github.com/medcohort/eligibility-api/internal/model"
)

type Service interface {
	Generate(ctx context.Context, patientID string) (*model.AIReview, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/patients/:id/ai-review", h.GenerateReview)
}

func (h *Handler) GenerateReview(c *gin.Context) {
	review, err := h.service.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(review))
}
