package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"estatehub.app/internal/audit"
	"estatehub.app/internal/auth"
	"estatehub.app/internal/config"
	"estatehub.app/internal/estate"
	"estatehub.app/internal/obs"
	"estatehub.app/internal/report"
	"estatehub.app/internal/stream"
)

// ReadyProbe checks that dependencies (the database) answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// WelcomeSender greets newly registered accounts.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, u *auth.User) error
}

// Services are the domain dependencies the HTTP layer dispatches to.
type Services struct {
	Auth     *auth.Service
	Estate   *estate.Service
	Reports  *report.Service
	Denylist auth.Denylist
	Welcome  WelcomeSender
	Trail    audit.Recorder
	Stream   *stream.Hub
	// Uploads serves stored media when the disk driver is active.
	Uploads http.Handler
}

// API is the HTTP layer.
type API struct {
	router     chi.Router
	readyProbe ReadyProbe
	version    string
	svc        Services
	gate       *Gate

	maxBodyBytes int64
	rateBurst    int
	ratePerSec   float64
	corsOrigins  []string
}

func New(rp ReadyProbe, version string, svc Services, cfg config.HTTPConfig) *API {
	if svc.Trail == nil {
		svc.Trail = audit.NewTrail(nil)
	}
	a := &API{
		readyProbe:   rp,
		version:      version,
		svc:          svc,
		gate:         NewGate(svc.Auth.Tokens(), svc.Denylist),
		maxBodyBytes: cfg.MaxBodyBytes,
		rateBurst:    cfg.RateBurst,
		ratePerSec:   cfg.RatePerSec,
		corsOrigins:  cfg.CORSOrigins,
	}
	a.router = a.routes()
	return a
}

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(obs.Instrument)
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Handle("/metrics", obs.Handler())
	if a.svc.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", a.svc.Uploads))
	}

	authn := a.gate.Authenticate
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.register)
			r.Post("/login", a.login)
			r.Post("/logout", a.logout)
			r.Post("/forgot-password", a.forgotPassword)
			r.Post("/reset-password", a.resetPassword)
			r.With(authn).Post("/refresh", a.refresh)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn)
			r.Get("/me", a.me)
			r.Put("/me", a.updateMe)
			r.Put("/change-password", a.changePassword)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", a.listProperties)
			r.Get("/{id}", a.getProperty)
			r.Group(func(r chi.Router) {
				r.Use(authn, AdminOnly)
				r.Post("/", a.createProperty)
				r.Put("/{id}", a.updateProperty)
				r.Delete("/{id}", a.deleteProperty)
				r.Post("/{id}/images", a.uploadPropertyImages)
			})
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Use(authn)
			r.With(TenantOnly).Get("/current", a.currentTenancy)
			r.With(AdminOrTenant).Get("/{id}", a.getTenancy)
			r.Group(func(r chi.Router) {
				r.Use(AdminOnly)
				r.Get("/", a.listTenancies)
				r.Post("/", a.createTenancy)
				r.Put("/{id}", a.updateTenancy)
				r.Delete("/{id}", a.terminateTenancy)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(authn, AdminOrTenant)
			r.Get("/", a.listPayments)
			r.Get("/{id}", a.getPayment)
			r.Get("/{id}/receipt", a.paymentReceipt)
			r.With(AdminOnly).Post("/", a.recordPayment)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Use(authn, AdminOrTenant)
			r.Get("/", a.listMaintenance)
			r.Get("/{id}", a.getMaintenance)
			r.Post("/", a.createMaintenance)
			r.With(AdminOnly).Put("/{id}", a.updateMaintenance)
			r.Delete("/{id}", a.deleteMaintenance)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", a.listNotifications)
			r.Get("/unread-count", a.unreadCount)
			r.Get("/stream", a.notificationStream)
			r.Put("/{id}/read", a.markNotificationRead)
			r.Post("/mark-all-read", a.markAllNotificationsRead)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(authn, AdminOnly)
			r.Get("/revenue", a.revenueReport)
			r.Get("/occupancy", a.occupancyReport)
			r.Get("/maintenance", a.maintenanceReport)
			r.Post("/export", a.exportReport)
		})
	})
	return r
}

// Handler wraps the router with the shared middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = MaxBodyBytes(h, a.maxBodyBytes)
	if a.rateBurst > 0 && a.ratePerSec > 0 {
		h = RateLimit(h, a.rateBurst, a.ratePerSec)
	}
	h = CORS(a.corsOrigins)(h)
	h = SecurityHeaders(h)
	h = middleware.Recoverer(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return middleware.RealIP(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "estatehub-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "estatehub-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func actorOf(r *http.Request) estate.Actor {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return estate.ActorFromClaims(claims)
}

func (a *API) record(r *http.Request, action, entityType, entityID string, details map[string]any) {
	a.svc.Trail.Record(r.Context(), audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}
