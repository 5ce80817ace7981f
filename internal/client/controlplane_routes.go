package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"github.com/ulule/limiter/v3"
	mginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/handlers"
	"github.com/forkedapp/forked/internal/client/middleware"
	"github.com/forkedapp/forked/internal/version"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type RouteConfig struct {
	Auth middleware.TokenAuthConfig
}

// SetupRoutes assembles the control-plane handler chain over a running
// app. Everything under /v1 sits behind the token guard.
func SetupRoutes(a *app.App, rc *RouteConfig) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		gin.Recovery(),
		sloggin.New(slog.Default()),
		middleware.CORS(),
		middleware.Gzip(),
		rateLimit(10),
	)

	r.GET("/", func(c *gin.Context) {
		c.PureJSON(http.StatusOK, gin.H{
			"app":     version.AppName,
			"version": version.Long(),
		})
	})

	status := handlers.NewStatusHandler(a)
	syncs := handlers.NewSyncHandler(a)
	recipes := handlers.NewRecipesHandler(a)

	v1 := r.Group("/v1", middleware.TokenAuth(rc.Auth))
	v1.GET("/status", status.Status)
	v1.POST("/sync", syncs.Trigger)
	v1.GET("/sync/result", syncs.Result)
	v1.GET("/recipes", recipes.List)
	v1.GET("/recipes/:name", recipes.Get)

	r.NoRoute(routeNotFound)
	r.NoMethod(methodNotAllowed)

	return r.Handler()
}

// rateLimit caps per-client requests for each one-second window.
func rateLimit(perSecond int64) gin.HandlerFunc {
	lim := limiter.New(limitermem.NewStore(), limiter.Rate{
		Period: time.Second,
		Limit:  perSecond,
	})
	return mginlimiter.NewMiddleware(lim)
}

func routeNotFound(c *gin.Context) {
	c.PureJSON(http.StatusNotFound, handlers.ErrorReply{
		Code:    handlers.CodeNotFound,
		Message: "route not found",
	})
}

func methodNotAllowed(c *gin.Context) {
	c.PureJSON(http.StatusMethodNotAllowed, handlers.ErrorReply{
		Code:    handlers.CodeMethodNotAllowed,
		Message: "method not allowed",
	})
}
