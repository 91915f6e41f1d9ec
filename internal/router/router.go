package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"codecalm/internal/gate"
	"codecalm/internal/handlers"
	"codecalm/internal/services"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

// Setup builds the gin engine with all routes and middleware.
func Setup(log *zap.Logger, monitor *services.MonitorService, g *gate.Gate) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	eventsHandler := handlers.NewEventsHandler(log, monitor)
	monitorHandler := handlers.NewMonitorHandler(log, monitor)
	interventionsHandler := handlers.NewInterventionsHandler(log, g)

	// Lifecycle endpoints are rate limited; the event firehose is not,
	// keystrokes arrive far faster than any sensible limit.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 30,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateLimitErrorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.POST("/keystroke", eventsHandler.Keystroke)
			events.POST("/compile", eventsHandler.Compile)
		}

		mon := api.Group("/monitor")
		{
			mon.POST("/start", limiter, monitorHandler.Start)
			mon.POST("/stop", limiter, monitorHandler.Stop)
			mon.POST("/recalibrate", limiter, monitorHandler.Recalibrate)
			mon.GET("/stats", monitorHandler.Stats)
		}

		iv := api.Group("/interventions")
		{
			iv.GET("", interventionsHandler.List)
			iv.POST("/:id/response", interventionsHandler.Respond)
			iv.POST("/:id/feedback", interventionsHandler.Feedback)
		}
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
