package httppresentation

import (
	"context"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	appaccount "github.com/Zhima-Mochi/shophub/internal/application/account"
	appfavorite "github.com/Zhima-Mochi/shophub/internal/application/favorite"
	apporder "github.com/Zhima-Mochi/shophub/internal/application/order"
	apppayment "github.com/Zhima-Mochi/shophub/internal/application/payment"
	appreview "github.com/Zhima-Mochi/shophub/internal/application/review"
	appstats "github.com/Zhima-Mochi/shophub/internal/application/stats"
	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const (
	componentHTTPHandler = "http_server"

	// maxWebhookBytes bounds provider callbacks; they are small JSON documents.
	maxWebhookBytes = 64 << 10
	maxBodyBytes    = 1 << 20
)

// Services are the use cases the HTTP surface drives.
type Services struct {
	PlaceOrder    application.UseCase[apporder.PlaceOrderInput, *domorder.Order]
	GetOrder      application.UseCase[apporder.GetOrderInput, *domorder.Order]
	UserOrders    application.UseCase[apporder.ListOrdersInput, *apporder.ListOrdersResult]
	AdminOrders   application.UseCase[apporder.ListOrdersInput, *apporder.ListOrdersResult]
	UpdateStatus  application.UseCase[apporder.UpdateStatusInput, *domorder.Order]
	CreateIntent  application.UseCase[apppayment.CreateIntentInput, *apppayment.CreateIntentResult]
	HandleWebhook application.UseCase[apppayment.HandleWebhookInput, *apppayment.HandleWebhookResult]
	Stats         application.UseCase[struct{}, *appstats.Summary]

	Reviews   *appreview.Service
	Favorites *appfavorite.Service
	Accounts  *appaccount.Service

	// Health reports whether backing stores are reachable. Nil means always healthy.
	Health func(ctx context.Context) error
	// Metrics serves the scrape endpoint. Nil leaves /metrics unmounted.
	Metrics http.Handler
}

type Options struct {
	AllowedOrigins []string
}

type Handler struct {
	svc     Services
	auth    Authenticator
	origins []string
	log     observability.Logger

	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewHandler(svc Services, opts Options, logger observability.Logger, tel observability.Observability) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	metrics := observability.Resolve(tel).Metrics()
	return &Handler{
		svc:          svc,
		auth:         svc.Accounts,
		origins:      opts.AllowedOrigins,
		log:          baseLogger.With(observability.F("component", componentHTTPHandler)),
		reqCounter:   metrics.Counter(observability.MHTTPRequests),
		durHistogram: metrics.Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerRequestID, headerIdempotencyKey},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	user := h.requireAuth(domaccount.KindUser)
	admin := h.requireAuth(domaccount.KindAdmin)

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger) → Access log → HTTP metrics → Auth → Handler
	h.handle(r, http.MethodGet, "/api/health", h.handleHealth)

	h.handle(r, http.MethodPost, "/api/orders", h.handlePlaceOrder, h.optionalUser)
	h.handle(r, http.MethodGet, "/api/orders/{id}", h.handleGetOrder)

	h.handle(r, http.MethodPost, "/api/checkout/create-intent", h.handleCreateIntent)
	h.handle(r, http.MethodPost, "/api/checkout/webhook", h.handleWebhook)

	h.handle(r, http.MethodGet, "/api/reviews/product/{productId}", h.handleListReviews)
	h.handle(r, http.MethodPost, "/api/reviews/product/{productId}", h.handleCreateReview, user)
	h.handle(r, http.MethodPut, "/api/reviews/{id}", h.handleUpdateReview, user)
	h.handle(r, http.MethodDelete, "/api/reviews/{id}", h.handleDeleteReview, user)

	h.handle(r, http.MethodPost, "/api/auth/register", h.handleRegister)
	h.handle(r, http.MethodPost, "/api/auth/login", h.handleLogin)
	h.handle(r, http.MethodGet, "/api/auth/me", h.handleMe, user)
	h.handle(r, http.MethodPut, "/api/auth/profile", h.handleUpdateProfile, user)
	h.handle(r, http.MethodPut, "/api/auth/password", h.handleChangePassword, user)

	h.handle(r, http.MethodGet, "/api/favorites", h.handleListFavorites, user)
	h.handle(r, http.MethodGet, "/api/favorites/check/{productId}", h.handleCheckFavorite, user)
	h.handle(r, http.MethodPost, "/api/favorites/{productId}", h.handleAddFavorite, user)
	h.handle(r, http.MethodDelete, "/api/favorites/{productId}", h.handleRemoveFavorite, user)

	h.handle(r, http.MethodGet, "/api/user/orders", h.handleUserOrders, user)
	h.handle(r, http.MethodGet, "/api/user/orders/{id}", h.handleUserOrder, user)

	h.handle(r, http.MethodPost, "/api/admin/auth/login", h.handleAdminLogin)
	h.handle(r, http.MethodGet, "/api/admin/auth/me", h.handleAdminMe, admin)
	h.handle(r, http.MethodGet, "/api/admin/orders", h.handleAdminOrders, admin)
	h.handle(r, http.MethodGet, "/api/admin/orders/{id}", h.handleAdminOrder, admin)
	h.handle(r, http.MethodPut, "/api/admin/orders/{id}/status", h.handleUpdateStatus, admin)
	h.handle(r, http.MethodGet, "/api/admin/stats", h.handleStats, admin)

	if h.svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.svc.Metrics)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})

	return r
}

func (h *Handler) handle(r chi.Router, method, pattern string, handler http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
	var inner http.Handler = handler
	for i := len(mws) - 1; i >= 0; i-- {
		inner = mws[i](inner)
	}

	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string {
				return r.Header.Get(headerRequestID)
			},
		)(
			h.withAccessLog(
				h.withHTTPMetrics(inner),
			),
		),
	)

	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), method, pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.svc.Health != nil {
		if err := h.svc.Health(r.Context()); err != nil {
			logctx.FromOr(r.Context(), h.log).Warn("health_check_failed", observability.F("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":    "unavailable",
				"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
