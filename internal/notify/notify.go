// Package notify tells residents when the canonical status of one of their
// requests changes.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/logger"
)

// StatusChange describes one canonical status transition.
type StatusChange struct {
	Email          string
	ServiceType    domain.ServiceType
	SourceRecordID int32
	From           domain.CanonicalStatus
	To             domain.CanonicalStatus
	Comment        *string
}

type Notifier interface {
	StatusChanged(ctx context.Context, c StatusChange) error
}

var serviceNames = map[domain.ServiceType]string{
	domain.ServiceTypeDispatch:     "ambulance dispatch request",
	domain.ServiceTypeCourt:        "court reservation",
	domain.ServiceTypeDocument:     "document request",
	domain.ServiceTypeReport:       "infrastructure report",
	domain.ServiceTypeProposal:     "project proposal",
	domain.ServiceTypeRegistration: "resident registration",
}

// Compose renders the subject and plain text body of a status email.
func Compose(c StatusChange) (subject, body string) {
	name, ok := serviceNames[c.ServiceType]
	if !ok {
		name = "request"
	}
	subject = fmt.Sprintf("Your %s #%d is now %s", name, c.SourceRecordID, humanStatus(c.To))

	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nThe status of your %s #%d changed from %s to %s.",
		name, c.SourceRecordID, humanStatus(c.From), humanStatus(c.To))
	if c.Comment != nil && *c.Comment != "" {
		fmt.Fprintf(&b, "\n\nNote from the office: %s", *c.Comment)
	}
	b.WriteString("\n\nThis is an automated message from the municipal service portal.")
	return subject, b.String()
}

func humanStatus(s domain.CanonicalStatus) string {
	if s == "" {
		return "new"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

type logNotifier struct{}

// NewLogNotifier logs the message instead of sending it.
func NewLogNotifier() Notifier { return logNotifier{} }

func (logNotifier) StatusChanged(ctx context.Context, c StatusChange) error {
	subject, _ := Compose(c)
	logger.WithComponent("notify").InfoContext(ctx, "Status notification",
		"to", c.Email, "subject", subject)
	return nil
}

// Async returns a Notifier that sends on a separate goroutine and only logs
// failures. The caller's cancellation does not abort the send.
func Async(n Notifier, timeout time.Duration) Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &asyncNotifier{next: n, timeout: timeout}
}

type asyncNotifier struct {
	next    Notifier
	timeout time.Duration
}

func (a *asyncNotifier) StatusChanged(ctx context.Context, c StatusChange) error {
	base := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Notifier panicked", "service_type", c.ServiceType, "source_id", c.SourceRecordID, "panic", r)
			}
		}()
		sctx, cancel := context.WithTimeout(base, a.timeout)
		defer cancel()
		if err := a.next.StatusChanged(sctx, c); err != nil {
			logger.Warn("Status notification failed",
				"service_type", c.ServiceType, "source_id", c.SourceRecordID, "error", err)
		}
	}()
	return nil
}
