package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	countries_module "github.com/ethanbaker/countries/internal/api/modules/countries"
	health_module "github.com/ethanbaker/countries/internal/api/modules/health"
)

// Options holds what the engine needs besides the module dependencies
type Options struct {
	CORSOrigins []string
	Countries   countries_module.Options

	// Gatherer backs the /metrics route when set
	Gatherer prometheus.Gatherer
}

// NewEngine builds the gin engine with every module registered
func NewEngine(opts Options) (*gin.Engine, error) {
	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Routes live at the root
	baseGroup := engine.Group("/")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	if err := countries_module.Init(opts.Countries); err != nil {
		return nil, fmt.Errorf("failed to initialize countries module: %w", err)
	}
	countries_module.RegisterRoutes(baseGroup)

	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	return engine, nil
}

// Serve runs the engine on port until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, engine *gin.Engine, port string) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api listening", "component", "api", "port", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
