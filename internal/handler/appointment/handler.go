package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridianlabs/clinic-api/internal/middleware"
	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/service/appointment"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/httputil"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments", auth.Authenticate())
	{
		appointments.POST("", auth.RequireRole(model.RolePatient), h.Book)
		appointments.PUT("/:id", h.Reschedule)
		appointments.DELETE("/:id", h.Cancel)
	}

	r.GET("/doctors/:id/appointments",
		auth.Authenticate(), auth.RequireRole(model.RoleDoctor), h.DoctorDayView)
}

// Book reserves a slot for the authenticated patient.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), &req, middleware.TokenFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	apt, err := h.service.Reschedule(c.Request.Context(), id, &req, middleware.TokenFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, middleware.TokenFromContext(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"cancelled": id})
}

// DoctorDayView lists a doctor's appointments for a date, optionally
// narrowed by partial patient name.
func (h *Handler) DoctorDayView(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("date must be YYYY-MM-DD", err))
		return
	}

	views, err := h.service.DayViewForDoctor(
		c.Request.Context(),
		doctorID,
		date,
		c.Query("patient_name"),
		middleware.TokenFromContext(c),
	)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, views)
}
