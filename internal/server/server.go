package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bentwick/crewcal/internal/backup"
	"github.com/bentwick/crewcal/internal/calendar"
	"github.com/bentwick/crewcal/internal/handler"
	"github.com/bentwick/crewcal/internal/middleware"
	"github.com/bentwick/crewcal/internal/push"
	"github.com/bentwick/crewcal/internal/store"
	ws "github.com/bentwick/crewcal/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	calendarH     *handler.CalendarHandler
	customerH     *handler.CustomerHandler
	technicianH   *handler.TechnicianHandler
	workOrderH    *handler.WorkOrderHandler
	tenantH       *handler.TenantHandler
	pushH         *handler.PushHandler
	tenantStore   *store.TenantStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, vapidPublicKey, vapidPrivateKey string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	tenantStore := store.NewTenantStore(db)
	customerStore := store.NewCustomerStore(db)
	technicianStore := store.NewTechnicianStore(db)
	workOrderStore := store.NewWorkOrderStore(db)
	occurrenceStore := store.NewOccurrenceStore(db)
	seriesStore := store.NewSeriesStore(db)
	settingsStore := store.NewSettingsStore(db)
	backupStore := store.NewBackupStore(db)
	pushStore := store.NewPushStore(db)

	backupMgr := backup.NewManager(backupCfg, db, backupStore, settingsStore, logger)

	// Push delivery is optional: without VAPID keys the API still runs,
	// assignments just go unannounced.
	var notifier calendar.Notifier
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if vapidPublicKey != "" && vapidPrivateKey != "" {
		pushSvc = push.NewService(vapidPublicKey, vapidPrivateKey)
		n := push.NewNotifier(pushSvc, pushStore, logger)
		notifier = n
		pushSched = push.NewScheduler(n, pushStore, occurrenceStore, logger)
		pushH = handler.NewPushHandler(pushStore, technicianStore, pushSvc, logger.With("component", "push_handler"))
	}

	calendarSvc := calendar.NewService(
		occurrenceStore, seriesStore, workOrderStore, customerStore, technicianStore,
		hub, notifier, logger,
	)

	return &Server{
		db:            db,
		hub:           hub,
		calendarH:     handler.NewCalendarHandler(calendarSvc, logger),
		customerH:     handler.NewCustomerHandler(customerStore),
		technicianH:   handler.NewTechnicianHandler(technicianStore),
		workOrderH:    handler.NewWorkOrderHandler(workOrderStore, customerStore),
		tenantH:       handler.NewTenantHandler(tenantStore),
		pushH:         pushH,
		tenantStore:   tenantStore,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler, or nil when
// push delivery is not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no tenant scope required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/tenants", s.rateLimitedHandler(s.tenantH.Create))

	// Tenant-scoped routes: rate limit per tenant before the tenant
	// lookup so floods never reach the database.
	scopedMux := http.NewServeMux()
	s.registerScopedRoutes(scopedMux)

	apiLimit := middleware.RateLimit(s.rateLimiter, middleware.TenantKey, 240, time.Minute)
	tenantMiddleware := middleware.RequireTenant(s.tenantStore)
	outerMux.Handle("/", apiLimit(tenantMiddleware(scopedMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerScopedRoutes(mux *http.ServeMux) {
	// Calendar API routes
	mux.HandleFunc("POST /api/calendar", s.calendarH.Create)
	mux.HandleFunc("GET /api/calendar", s.calendarH.List)
	mux.HandleFunc("GET /api/calendar/{id}", s.calendarH.Get)
	mux.HandleFunc("PUT /api/calendar/{id}", s.calendarH.Update)
	mux.HandleFunc("DELETE /api/calendar/{id}", s.calendarH.Delete)

	// Customer API routes
	mux.HandleFunc("POST /api/customers", s.customerH.Create)
	mux.HandleFunc("GET /api/customers", s.customerH.List)
	mux.HandleFunc("GET /api/customers/{id}", s.customerH.Get)
	mux.HandleFunc("PUT /api/customers/{id}", s.customerH.Update)
	mux.HandleFunc("DELETE /api/customers/{id}", s.customerH.Delete)

	// Technician API routes
	mux.HandleFunc("POST /api/technicians", s.technicianH.Create)
	mux.HandleFunc("GET /api/technicians", s.technicianH.List)
	mux.HandleFunc("GET /api/technicians/{id}", s.technicianH.Get)
	mux.HandleFunc("PUT /api/technicians/{id}", s.technicianH.Update)
	mux.HandleFunc("DELETE /api/technicians/{id}", s.technicianH.Delete)

	// Work order API routes
	mux.HandleFunc("POST /api/work-orders", s.workOrderH.Create)
	mux.HandleFunc("GET /api/work-orders", s.workOrderH.List)
	mux.HandleFunc("GET /api/work-orders/{id}", s.workOrderH.Get)
	mux.HandleFunc("PUT /api/work-orders/{id}", s.workOrderH.Update)
	mux.HandleFunc("PUT /api/work-orders/{id}/status", s.workOrderH.UpdateStatus)
	mux.HandleFunc("DELETE /api/work-orders/{id}", s.workOrderH.Delete)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
