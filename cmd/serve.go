package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agencyops/api"
	"agencyops/config"
	"agencyops/database"
	"agencyops/events"
	"agencyops/infrastructure"
	"agencyops/metrics"
	"agencyops/repository"
	"agencyops/service"
	"agencyops/worker"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const natsStreamName = "AGENCYOPS_EVENTS"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reconciliation schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, config.Get())
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting agencyops")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	metrics.Register(eventBus)

	closers, err := wireEventSinks(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.WithError(err).Warn("Failed to close event sink")
			}
		}
	}()

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	services := api.Services{
		Clients:        service.NewClientService(uowFactory),
		Billing:        service.NewBillingService(uowFactory),
		Reconciliation: service.NewReconciliationService(uowFactory, eventBus),
		Ledger:         service.NewLedgerService(uowFactory),
		Payroll:        service.NewPayrollService(uowFactory, cfg),
		Commissions:    service.NewCommissionService(uowFactory),
		Expenses:       service.NewExpenseService(uowFactory),
		PnL:            service.NewPnLService(uowFactory, cfg.PnLCacheTTL, eventBus),
	}

	server := api.NewServer(cfg, services, db)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	server.RateLimiter().StartCleanup(gctx, time.Minute)

	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("Shutting down HTTP server...")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.ReconcileEnabled {
		w, err := worker.NewReconciliationWorker(services.Reconciliation, cfg.ReconcileSchedule, cfg.FiscalYearStartMonth)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	err = g.Wait()

	// Let forwarders drain events raised by in-flight requests
	eventBus.Wait()
	log.Info("Shutdown completed")
	return err
}

// wireEventSinks subscribes the configured brokers and notifiers to the bus and returns their closers
func wireEventSinks(ctx context.Context, cfg *config.Config, bus *events.Bus) ([]func() error, error) {
	var closers []func() error

	if cfg.NATSServers != "" {
		client := infrastructure.NewNATSClient(cfg.NATSServers, "agencyops")
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := client.Connect(connectCtx)
		cancel()
		if err != nil {
			return closers, err
		}
		closers = append(closers, client.Close)

		mapper := infrastructure.NewEventSubjectMapper(cfg.NATSSubjectPrefix)
		if err := client.EnsureStream(natsStreamName, mapper.GetAllSubjects()); err != nil {
			return closers, err
		}
		infrastructure.NewEventForwarder("nats", client, mapper).Register(bus)
		log.WithField("servers", cfg.NATSServers).Info("Forwarding events to NATS")
	}

	if cfg.AMQPURL != "" {
		client, err := infrastructure.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return closers, err
		}
		closers = append(closers, client.Close)

		// AMQP routing keys are the bare event types
		infrastructure.NewEventForwarder("amqp", client, infrastructure.NewEventSubjectMapper("")).Register(bus)
		log.WithField("exchange", cfg.AMQPExchange).Info("Forwarding events to AMQP")
	}

	if cfg.DiscordWebhookID != "" {
		notifier, err := infrastructure.NewDiscordNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			return closers, err
		}
		notifier.Register(bus)
		log.Info("Discord notifications enabled")
	}

	return closers, nil
}
