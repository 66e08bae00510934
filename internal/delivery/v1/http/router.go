package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	_ "github.com/DRSN-tech/storefront/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/infrastructure/metrics"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// HealthFunc проверяет зависимости, без которых сервис не работает.
type HealthFunc func(ctx context.Context) error

type Router struct {
	router  *chi.Mux
	logger  logger.Logger
	metrics *metrics.Metrics
	cfg     *cfg.HTTPConfig

	closing   chan struct{}
	closeOnce sync.Once
}

func NewRouter(router *chi.Mux, cfg *cfg.HTTPConfig, metrics *metrics.Metrics, logger logger.Logger) *Router {
	return &Router{
		router:  router,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		closing: make(chan struct{}),
	}
}

// Close завершает открытые SSE-потоки. Обычные запросы не затрагивает.
func (r *Router) Close() {
	r.closeOnce.Do(func() { close(r.closing) })
}

// Init регистрирует служебные маршруты и API v1. metricsHandler может быть nil.
func (r *Router) Init(catalogUC usecase.CatalogUC, cartUC usecase.CartUC, health HealthFunc, metricsHandler http.Handler) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Recoverer)
	r.router.Use(r.observe)

	r.router.Get("/healthz", healthHandler(health))
	if metricsHandler != nil {
		r.router.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	if r.cfg != nil && r.cfg.SwaggerURL != "" {
		r.router.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL(r.cfg.SwaggerURL), // ссылка на JSON
		))
	}

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(catalogUC, r.logger)
		registerProductRoutes(v1, prHandler)

		cartHandler := NewCartHandler(cartUC, r.logger)
		cartHandler.done = r.closing
		v1.Group(func(s chi.Router) {
			s.Use(SessionMiddleware)
			registerCartRoutes(s, cartHandler)
		})
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Get("/featured", prHandler.featuredProducts)
		pr.Get("/{id}", prHandler.getProduct)
	})

	router.Route("/categories", func(cat chi.Router) {
		cat.Get("/", prHandler.listCategories)
		cat.Get("/{name}/products", prHandler.categoryProducts)
	})
}

func registerCartRoutes(router chi.Router, cartHandler *CartHandler) {
	router.Route("/cart", func(cr chi.Router) {
		cr.Get("/", cartHandler.getCart)
		cr.Delete("/", cartHandler.clearCart)
		cr.Get("/events", cartHandler.streamEvents)
		cr.Post("/items", cartHandler.addItem)
		cr.Put("/items/{id}", cartHandler.updateItem)
		cr.Delete("/items/{id}", cartHandler.removeItem)
	})

	router.Delete("/session", cartHandler.endSession)
}

// observe пишет длительность запроса с шаблоном маршрута chi в качестве метки.
func (r *Router) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.metrics.ObserveHTTP(req.Method, route, status, time.Since(start))
	})
}

func healthHandler(health HealthFunc) http.HandlerFunc {
	const timeout = 2 * time.Second

	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			if err := health(ctx); err != nil {
				WriteSuccess(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
