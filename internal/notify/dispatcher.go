package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caregate/lead-platform/internal/leads"
	"github.com/caregate/lead-platform/internal/observability/metrics"
	"github.com/caregate/lead-platform/pkg/logging"
)

// statusLines is the patient-facing wording per status.
var statusLines = map[leads.Status]string{
	leads.StatusContacted: "Our care team has reached out regarding your inquiry.",
	leads.StatusQualified: "Your inquiry has been reviewed and qualified by our care team.",
	leads.StatusAssigned:  "A hospital has been assigned to your case.",
	leads.StatusScheduled: "Your procedure has been scheduled.",
	leads.StatusCompleted: "Your procedure is complete. We wish you a quick recovery.",
	leads.StatusClosed:    "Your case has been closed. Reach out any time to reopen it.",
}

// Dispatcher sends a status-update email to the patient after a committed
// transition. Dispatch is fire-and-forget: it runs off the request goroutine
// on a detached context, and a failed send is logged and counted but never
// surfaced to the caller whose transition already committed.
type Dispatcher struct {
	email   EmailSender
	metrics *metrics.PlatformMetrics
	logger  *logging.Logger
	timeout time.Duration

	// wg lets tests wait for in-flight sends.
	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(email EmailSender, m *metrics.PlatformMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		email:   email,
		metrics: m,
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// LeadStatusChanged implements leads.Notifier.
func (d *Dispatcher) LeadStatusChanged(lead *leads.Lead, previous leads.Status) {
	if d.email == nil || lead.Email == "" {
		return
	}

	snapshot := *lead
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.dispatch(ctx, &snapshot, previous)
	}()
}

// Wait blocks until all in-flight dispatches have finished. Test helper.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, lead *leads.Lead, previous leads.Status) {
	msg := d.render(lead)
	if err := d.email.Send(ctx, msg); err != nil {
		d.metrics.ObserveNotification("failed")
		d.logger.Error("status notification failed",
			"error", err,
			"lead_id", lead.ID,
			"from", string(previous),
			"to", string(lead.Status),
		)
		return
	}
	d.metrics.ObserveNotification("ok")
	d.logger.Info("status notification sent",
		"lead_id", lead.ID,
		"to_status", string(lead.Status),
	)
}

func (d *Dispatcher) render(lead *leads.Lead) EmailMessage {
	line, ok := statusLines[lead.Status]
	if !ok {
		line = fmt.Sprintf("Your case status is now %s.", lead.Status)
	}

	subject := fmt.Sprintf("Update on your inquiry %s", lead.ReferenceID)

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n%s\n\n", lead.FullName, line)
	fmt.Fprintf(&body, "Reference: %s\nStatus: %s\n", lead.ReferenceID, lead.Status)
	if lead.DiscountedCost > 0 {
		fmt.Fprintf(&body, "Estimated cost: %s\n", formatPaise(lead.DiscountedCost))
		if lead.Discount > 0 {
			fmt.Fprintf(&body, "Cashless card discount applied: %s\n", formatPaise(lead.Discount))
		}
	}
	body.WriteString("\nReply to this email or call us if anything looks wrong.\n")

	return EmailMessage{
		To:      lead.Email,
		ToName:  lead.FullName,
		Subject: subject,
		Body:    body.String(),
	}
}

// formatPaise renders an integer paise amount as rupees.
func formatPaise(amount int64) string {
	return fmt.Sprintf("₹%d.%02d", amount/100, amount%100)
}

var _ leads.Notifier = (*Dispatcher)(nil)
