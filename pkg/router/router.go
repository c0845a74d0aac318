package router

import (
	"net/http"
	"strings"

	"communities/messages/internal/api"
	"communities/messages/pkg/config"
	"communities/messages/pkg/di"
	"communities/messages/pkg/errors"
	"communities/messages/pkg/logger"
	"communities/messages/pkg/middleware"
	"communities/messages/shared/observability"

	"github.com/gin-gonic/gin"
)

// Router owns the public API engine and the health engine
type Router struct {
	Engine       *gin.Engine
	HealthEngine *gin.Engine
	Container    *di.Container
	Logger       *logger.Logger
	Config       *config.Config
}

// New creates both engines with the shared middleware stack
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Router{
		Engine:       newEngine(container, cfg.Features.Metrics),
		HealthEngine: newEngine(container, false),
		Container:    container,
		Logger:       container.Logger,
		Config:       cfg,
	}
}

func newEngine(container *di.Container, metrics bool) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	if metrics {
		engine.Use(observability.HTTPMetrics())
	}

	return engine
}

// SetupRoutes registers the message routes on the API engine
func (r *Router) SetupRoutes() error {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))
	r.Engine.Use(bodyLimit(r.Config.Security.MaxBodySize))

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger, middleware.AuthOptions{
		CookieName:  r.Config.JWT.CookieName,
		Revocations: r.revocations(),
	})

	authed := r.Engine.Group("/")
	authed.Use(jwtAuth)
	authed.Use(r.Container.RateLimiter.Middleware())

	if r.Config.Features.OpenAPIValidation {
		if err := r.AddOpenAPIValidation(authed); err != nil {
			return err
		}
	}

	api.NewMessageHandler(r.Container.MessageService, r.Container.Authorizer).RegisterRoutes(authed)
	return nil
}

// revocations avoids handing the middleware a typed nil
func (r *Router) revocations() middleware.RevocationChecker {
	if r.Container.Revocations == nil {
		return nil
	}
	return r.Container.Revocations
}

// corsMiddleware allows the configured origins, "*" allowing any
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "":
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		case allowAny:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Content-Length", "Accept", "Authorization", "Origin", "Cache-Control", logger.RequestIDHeader,
		}, ", "))
		c.Writer.Header().Set("Access-Control-Expose-Headers", logger.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
