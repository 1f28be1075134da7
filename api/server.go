package api

import (
	"context"
	"net/http"
	"time"

	"agencyops/config"
	"agencyops/metrics"
	"agencyops/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services are the use cases exposed over HTTP
type Services struct {
	Clients        service.ClientService
	Billing        service.BillingService
	Reconciliation service.ReconciliationService
	Ledger         service.LedgerService
	Payroll        service.PayrollService
	Commissions    service.CommissionService
	Expenses       service.ExpenseService
	PnL            service.PnLService
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the REST surface of the agency backend
type Server struct {
	services Services
	auth     *Authenticator
	limiter  *RateLimiter
	health   HealthChecker
}

// NewServer creates a server. health may be nil.
func NewServer(cfg *config.Config, services Services, health HealthChecker) *Server {
	return &Server{
		services: services,
		auth:     NewAuthenticator(cfg.JWTSecret),
		limiter:  NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		health:   health,
	}
}

// RateLimiter exposes the limiter so callers can schedule its cleanup
func (s *Server) RateLimiter() *RateLimiter {
	return s.limiter
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(s.limiter.Handler)
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/departments", s.listDepartments)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.listClients)
			r.Post("/", s.createClient)
			r.Get("/{id}", s.getClient)
			r.Put("/{id}", s.updateClient)
			r.Put("/{id}/fee-config", s.updateFeeConfig)
			r.Post("/{id}/fee-quote", s.quoteFee)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/", s.listBilling)
			r.Post("/", s.createBilling)
			r.Post("/reconcile", s.reconcile)
			r.Get("/{id}", s.getBilling)
			r.Post("/{id}/lines", s.addBillingLine)
			r.Delete("/{id}/lines/{lineID}", s.removeBillingLine)
			r.Post("/{id}/finalize", s.finalizeBilling)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", s.listEmployees)
			r.Post("/", s.createEmployee)
			r.Get("/{id}", s.getEmployee)
			r.Put("/{id}", s.updateEmployee)
		})

		r.Route("/payroll/runs", func(r chi.Router) {
			r.Get("/", s.listPayrollRuns)
			r.Post("/", s.generatePayrollRun)
			r.Get("/{id}", s.getPayrollRun)
			r.Post("/{id}/approve", s.approvePayrollRun)
			r.Post("/{id}/pay", s.payPayrollRun)
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", s.listCommissions)
			r.Get("/plans", s.listCommissionPlans)
			r.Post("/plans", s.createCommissionPlan)
			r.Delete("/plans/{id}", s.deactivateCommissionPlan)
			r.Post("/calculate", s.calculateCommissions)
			r.Post("/approve", s.approveCommissions)
		})

		r.Get("/expenses", s.listExpenses)
		r.Post("/expenses", s.createExpense)

		r.Get("/ledger", s.listLedger)
		r.Get("/ledger/balances", s.ledgerBalances)

		r.Get("/pnl", s.pnlReport)
		r.Get("/pnl/chart.png", s.pnlChart)
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
