package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"tabletap-order-service/internal/cart"
	"tabletap-order-service/internal/config"
	"tabletap-order-service/internal/http/handlers"
	"tabletap-order-service/internal/middleware"
	"tabletap-order-service/internal/queue"
	"tabletap-order-service/internal/storage"
	"tabletap-order-service/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, carts *cart.Store, media *storage.ObjectStore, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{DB: db, Logger: logger, Config: cfg, Queue: queueClient, Carts: carts, Media: media}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/login", h.Login)

	r.Route("/api/public", func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		r.Get("/menu", h.PublicMenu)
		r.Get("/menu/categories", h.PublicMenuCategories)
		r.Get("/tables", h.PublicTables)

		r.Route("/cart/{tableNumber}", func(r chi.Router) {
			r.Get("/", h.CartGet)
			r.Delete("/", h.CartClear)
			r.Post("/items", h.CartAddItem)
			r.Patch("/items/{itemId}", h.CartUpdateItem)
			r.Delete("/items/{itemId}", h.CartRemoveItem)
			r.Get("/review", h.CartReview)
			r.Post("/checkout", h.Checkout)
		})

		r.Get("/orders/{orderId}", h.PublicOrder)
		r.Post("/orders/{orderId}/feedback", h.PublicOrderFeedback)
		r.Put("/orders/{orderId}/message", h.PublicOrderMessage)
		r.Get("/tables/{tableNumber}/orders", h.PublicOrdersByTable)
		r.Post("/tables/{tableNumber}/call-waiter", h.CallWaiter)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		r.Use(middleware.AdminAuth(cfg.JWTSecret))

		r.Get("/orders", h.AdminOrders)
		r.Get("/orders/stats", h.AdminOrderStats)
		r.Get("/analytics", h.AdminAnalytics)
		r.Put("/orders/{orderId}/status", h.AdminOrderStatus)
		r.Post("/orders/{orderId}/complete", h.AdminOrderComplete)
		r.Put("/orders/{orderId}/message", h.AdminOrderMessage)
		r.Delete("/orders/{orderId}", h.AdminOrderDelete)
		r.Post("/orders/clear-completed", h.AdminOrdersClearCompleted)
		r.Post("/orders/clear-cancelled", h.AdminOrdersClearCancelled)
		r.Get("/orders/{orderId}/receipt", h.AdminOrderReceiptHTML)
		r.Get("/orders/{orderId}/receipt.pdf", h.AdminOrderReceiptPDF)
		r.Post("/orders/{orderId}/print-bill", h.AdminOrderPrintBill)

		r.Get("/menu", h.AdminMenu)
		r.Post("/menu", h.AdminMenuCreate)
		r.Put("/menu/reorder", h.AdminMenuReorder)
		r.Put("/menu/{itemId}", h.AdminMenuUpdate)
		r.Post("/menu/{itemId}/toggle-stock", h.AdminMenuToggleStock)
		r.Post("/menu/{itemId}/image", h.AdminMenuImageUpload)
		r.Delete("/menu/{itemId}", h.AdminMenuDelete)

		r.Get("/billing-settings", h.AdminBillingSettings)
		r.Post("/billing-settings", h.AdminBillingSettingCreate)
		r.Post("/billing-settings/preview", h.AdminBillingPreview)
		r.Put("/billing-settings/{settingId}", h.AdminBillingSettingUpdate)
		r.Post("/billing-settings/{settingId}/toggle", h.AdminBillingSettingToggle)
		r.Delete("/billing-settings/{settingId}", h.AdminBillingSettingDelete)

		r.Post("/tables", h.AdminTableCreate)
		r.Put("/tables/{tableNumber}/status", h.AdminTableStatus)
		r.Delete("/tables/{tableNumber}", h.AdminTableDelete)

		r.Get("/waiter-calls", h.AdminWaiterCalls)
		r.Post("/waiter-calls/{callId}/attend", h.AdminWaiterCallAttend)

		r.Get("/notifications", h.AdminNotifications)
	})

	// Websocket routes bypass the request timeout; these connections are
	// long-lived by design.
	r.Get("/ws/admin/orders", wsServer.AdminOrdersWS)
	r.Get("/ws/admin/waiter-calls", wsServer.AdminWaiterCallsWS)
	r.Get("/ws/orders", wsServer.PublicOrderWS)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
