package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/meridianlabs/clinic-api/internal/handler/appointment"
	"github.com/meridianlabs/clinic-api/internal/handler/auth"
	"github.com/meridianlabs/clinic-api/internal/handler/doctor"
	"github.com/meridianlabs/clinic-api/internal/handler/health"
	"github.com/meridianlabs/clinic-api/internal/handler/patient"
	"github.com/meridianlabs/clinic-api/internal/handler/prescription"
	"github.com/meridianlabs/clinic-api/internal/middleware"
	"github.com/meridianlabs/clinic-api/pkg/metrics"
)

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	CORS      middleware.CORSConfig
}

type Router struct {
	engine        *gin.Engine
	authMW        *middleware.AuthMiddleware
	authH         *auth.Handler
	doctorH       *doctor.Handler
	patientH      *patient.Handler
	appointmentH  *appointment.Handler
	prescriptionH *prescription.Handler
	healthH       *health.Handler
}

func NewRouter(
	authMW *middleware.AuthMiddleware,
	authH *auth.Handler,
	doctorH *doctor.Handler,
	patientH *patient.Handler,
	appointmentH *appointment.Handler,
	prescriptionH *prescription.Handler,
	healthH *health.Handler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.CORS(config.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:        engine,
		authMW:        authMW,
		authH:         authH,
		doctorH:       doctorH,
		patientH:      patientH,
		appointmentH:  appointmentH,
		prescriptionH: prescriptionH,
		healthH:       healthH,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)
	r.doctorH.RegisterRoutes(api, r.authMW)
	r.patientH.RegisterRoutes(api, r.authMW)
	r.appointmentH.RegisterRoutes(api, r.authMW)
	r.prescriptionH.RegisterRoutes(api, r.authMW)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
