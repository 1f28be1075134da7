package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"agencyops/config"
	"agencyops/database"
	"agencyops/events"
	"agencyops/metrics"
	"agencyops/models"
	"agencyops/repository"
	"agencyops/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	periodYear  int
	periodMonth int
	dryRun      bool

	quoteClientID   int64
	quoteInvestment string
	quotePlatforms  int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-sum billing lines into their monthly totals",
	Long: `Re-sums the lines of every billing record and corrects drifted totals.
Without --year and --month every period is checked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var period *models.FiscalPeriod
		if cmd.Flags().Changed("year") || cmd.Flags().Changed("month") {
			p, err := models.NewFiscalPeriod(periodYear, periodMonth)
			if err != nil {
				return err
			}
			period = &p
		}

		return withUnitOfWork(cmd.Context(), func(uowFactory service.UnitOfWorkFactory, bus *events.Bus) error {
			start := time.Now()
			report, err := service.NewReconciliationService(uowFactory, bus).Reconcile(cmd.Context(), period, dryRun)
			drifted := 0
			if report != nil {
				drifted = report.Drifted
			}
			metrics.RecordReconciliation("cli", time.Since(start), drifted, err)
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Payroll operations",
}

var payrollGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create or regenerate the draft payroll run of a fiscal month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := models.NewFiscalPeriod(periodYear, periodMonth)
		if err != nil {
			return err
		}
		return withUnitOfWork(cmd.Context(), func(uowFactory service.UnitOfWorkFactory, _ *events.Bus) error {
			detail, err := service.NewPayrollService(uowFactory, config.Get()).GenerateRun(cmd.Context(), period)
			if err != nil {
				return err
			}
			return printJSON(detail)
		})
	},
}

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Fee calculation",
}

var feeQuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute a client's fee for an investment without billing it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		investment, err := models.ParseCents(quoteInvestment)
		if err != nil {
			return err
		}
		return withUnitOfWork(cmd.Context(), func(uowFactory service.UnitOfWorkFactory, _ *events.Bus) error {
			breakdown, err := service.NewClientService(uowFactory).QuoteFee(cmd.Context(), quoteClientID, investment, quotePlatforms)
			if err != nil {
				return err
			}
			return printJSON(breakdown)
		})
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&periodYear, "year", 0, "fiscal year")
	reconcileCmd.Flags().IntVar(&periodMonth, "month", 0, "fiscal month (1-12)")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report drift without correcting it")
	reconcileCmd.MarkFlagsRequiredTogether("year", "month")

	payrollGenerateCmd.Flags().IntVar(&periodYear, "year", 0, "fiscal year")
	payrollGenerateCmd.Flags().IntVar(&periodMonth, "month", 0, "fiscal month (1-12)")
	_ = payrollGenerateCmd.MarkFlagRequired("year")
	_ = payrollGenerateCmd.MarkFlagRequired("month")
	payrollCmd.AddCommand(payrollGenerateCmd)

	feeQuoteCmd.Flags().Int64Var(&quoteClientID, "client", 0, "client id")
	feeQuoteCmd.Flags().StringVar(&quoteInvestment, "investment", "", "media investment, e.g. 1234.56")
	feeQuoteCmd.Flags().IntVar(&quotePlatforms, "platforms", 0, "number of ad platforms")
	_ = feeQuoteCmd.MarkFlagRequired("client")
	_ = feeQuoteCmd.MarkFlagRequired("investment")
	feeCmd.AddCommand(feeQuoteCmd)
}

// withUnitOfWork connects to the database for the duration of fn. Events raised by fn are
// logged and drained before returning.
func withUnitOfWork(ctx context.Context, fn func(service.UnitOfWorkFactory, *events.Bus) error) error {
	cfg := config.Get()
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	bus := events.NewBus()
	bus.SubscribeAll(func(ctx context.Context, e events.Event) {
		log.WithField("eventType", e.Type()).Debug("Event raised")
	})
	defer bus.Wait()

	return fn(repository.NewUnitOfWorkFactory(db, bus), bus)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
