package infrastructure

import (
	"context"
	"fmt"

	"agencyops/events"
	"agencyops/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Embed colors
const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorDanger  = 0xED4245
	ColorWarning = 0xFEE75C
)

// webhookExecutor is the part of *discordgo.Session the notifier uses
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts finance milestones to a Discord channel webhook
type DiscordNotifier struct {
	executor  webhookExecutor
	webhookID string
	token     string
}

// NewDiscordNotifier creates a notifier for one webhook. No bot token is needed to execute a
// webhook.
func NewDiscordNotifier(webhookID, token string) (*DiscordNotifier, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{
		executor:  session,
		webhookID: webhookID,
		token:     token,
	}, nil
}

// Register subscribes the notifier to the events it reports
func (n *DiscordNotifier) Register(bus *events.Bus) {
	for _, t := range []events.EventType{
		events.EventTypeBillingRecordFinalized,
		events.EventTypePayrollRunApproved,
		events.EventTypePayrollRunPaid,
		events.EventTypeCommissionsApproved,
		events.EventTypeReconciliationCompleted,
	} {
		bus.Subscribe(t, n.Handle)
	}
}

// Handle posts an embed for event. Events without an embed are ignored.
func (n *DiscordNotifier) Handle(ctx context.Context, event events.Event) {
	embed := BuildEventEmbed(event)
	if embed == nil {
		return
	}

	_, err := n.executor.WebhookExecute(n.webhookID, n.token, false, &discordgo.WebhookParams{
		Username: "agencyops",
		Embeds:   []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to post Discord notification")
	}
}

// BuildEventEmbed renders an event as a Discord embed, or nil when the event is not reported
func BuildEventEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.BillingRecordFinalizedEvent:
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("Billing finalized for %s", e.Period),
			Color: ColorSuccess,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Client", Value: fmt.Sprintf("#%d", e.ClientID), Inline: true},
				{Name: "Record", Value: fmt.Sprintf("#%d", e.BillingID), Inline: true},
				{Name: "Fees", Value: e.FeeTotal.String(), Inline: true},
				{Name: "Billable", Value: e.TotalAmount.String(), Inline: true},
			},
		}

	case events.PayrollRunApprovedEvent:
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("Payroll approved for %s", e.Period),
			Color: ColorPrimary,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Employees", Value: fmt.Sprintf("%d", e.Employees), Inline: true},
				{Name: "Gross", Value: e.TotalGross.String(), Inline: true},
				{Name: "Net", Value: e.TotalNet.String(), Inline: true},
			},
		}

	case events.PayrollRunPaidEvent:
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Payroll paid for %s", e.Period),
			Description: fmt.Sprintf("Run #%d paid out **%s**", e.RunID, e.TotalNet),
			Color:       ColorSuccess,
		}

	case events.CommissionsApprovedEvent:
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Commissions approved for %s", e.Period),
			Description: fmt.Sprintf("%d commissions totalling **%s**", e.Count, e.TotalAmount),
			Color:       ColorPrimary,
		}

	case events.ReconciliationCompletedEvent:
		if e.Drifted == 0 && e.Failed == 0 {
			return nil
		}
		color := ColorWarning
		if e.Failed > 0 {
			color = ColorDanger
		}
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("Reconciliation of %s found drift", reconciledPeriod(e.Period)),
			Color: color,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Checked", Value: fmt.Sprintf("%d", e.Checked), Inline: true},
				{Name: "Drifted", Value: fmt.Sprintf("%d", e.Drifted), Inline: true},
				{Name: "Corrected", Value: fmt.Sprintf("%d", e.Corrected), Inline: true},
				{Name: "Failed", Value: fmt.Sprintf("%d", e.Failed), Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: dryRunFooter(e.DryRun)},
		}
	}
	return nil
}

func reconciledPeriod(period *models.FiscalPeriod) string {
	if period == nil {
		return "all periods"
	}
	return period.String()
}

func dryRunFooter(dryRun bool) string {
	if dryRun {
		return "Dry run, nothing was corrected"
	}
	return "Drift corrected where possible"
}
