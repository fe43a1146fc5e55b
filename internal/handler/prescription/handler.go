package prescription

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridianlabs/clinic-api/internal/middleware"
	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/service/prescription"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/httputil"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	prescriptions := r.Group("/prescriptions", auth.Authenticate())
	{
		prescriptions.POST("", auth.RequireRole(model.RoleDoctor), h.Save)
		prescriptions.GET("/appointment/:id", h.GetByAppointment)
	}
}

// Save writes a prescription and marks its appointment completed in the
// same operation.
func (h *Handler) Save(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	p, err := h.service.Save(c.Request.Context(), &req, middleware.TokenFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetByAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	p, err := h.service.GetByAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
