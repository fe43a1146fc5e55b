package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/meridianlabs/clinic-api/internal/middleware"
	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/service/patient"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/httputil"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires patient endpoints. Registration is open; the
// profile and appointment views always resolve the caller from their
// token, so one patient can never read another's history.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("/patients", h.Register)

	me := r.Group("/patients/me", auth.Authenticate(), auth.RequireRole(model.RolePatient))
	{
		me.GET("", h.Profile)
		me.GET("/appointments", h.Appointments)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	created, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.service.Profile(c.Request.Context(), middleware.TokenFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

// Appointments lists the caller's appointments. Optional query
// parameters: condition=past|future and doctor_name (partial match);
// both may be combined.
func (h *Handler) Appointments(c *gin.Context) {
	views, err := h.service.Appointments(
		c.Request.Context(),
		middleware.TokenFromContext(c),
		c.Query("condition"),
		c.Query("doctor_name"),
	)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, views)
}
