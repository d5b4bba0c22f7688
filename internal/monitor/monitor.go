// Package monitor polls the mailbox for replies to tracked outreach and
// commits the resulting status transitions.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seedscout/outreach/internal/classifier"
	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/internal/parser"
	"github.com/seedscout/outreach/pkg/models"
)

// Store is the slice of the outreach store the monitor needs
type Store interface {
	FindLatestSent(ctx context.Context, investorEmail string) (*models.OutreachRecord, error)
	Transition(ctx context.Context, investorEmail string, newStatus models.Status, replyTime *time.Time) (bool, error)
}

// Mailbox is one connected mail session
type Mailbox interface {
	FetchUnseen() ([]*models.InboundMessage, error)
	MarkSeen(uid uint32) error
	Close()
}

// DialFunc opens a fresh mailbox session. The monitor dials once per cycle
// and never keeps a connection across cycles.
type DialFunc func() (Mailbox, error)

// Monitor is the reply polling loop
type Monitor struct {
	store      Store
	dial       DialFunc
	htmlParser *parser.HTMLParser
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Monitor
func New(store Store, dial DialFunc, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		store:      store,
		dial:       dial,
		htmlParser: parser.NewHTMLParser(),
		interval:   interval,
		logger:     logger.With("component", "reply_monitor"),
		now:        time.Now,
	}
}

// Run polls until the context is cancelled. A failed cycle logs and waits
// for the next tick; there is no backoff.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("reply monitor started", "interval", m.interval)

	for {
		m.runCycle(ctx)

		select {
		case <-ctx.Done():
			m.logger.Info("reply monitor stopped")
			return
		case <-time.After(m.interval):
		}
	}
}

// runCycle is one poll-fetch-classify-commit pass over unseen mail
func (m *Monitor) runCycle(ctx context.Context) {
	box, err := m.dial()
	if err != nil {
		m.logger.Error("failed to connect to mailbox", "error", err)
		return
	}
	defer box.Close()

	messages, err := box.FetchUnseen()
	if err != nil {
		// Partial results are still processed; the rest stay unseen and
		// will be retried next cycle
		m.logger.Error("failed to fetch unseen messages", "error", err)
	}
	if len(messages) == 0 {
		m.logger.Debug("no unseen messages")
		return
	}
	m.logger.Info("processing unseen messages", "count", len(messages))

	for _, msg := range messages {
		if !m.processMessage(ctx, msg) {
			continue
		}
		// Only a definitive outcome marks the message seen; anything that
		// bailed mid-processing is retried next cycle
		if err := box.MarkSeen(msg.UID); err != nil {
			m.logger.Error("failed to mark message seen", "uid", msg.UID, "error", err)
		}
	}
}

// processMessage handles one inbound message and reports whether processing
// reached a definitive outcome (including the benign no-op case)
func (m *Monitor) processMessage(ctx context.Context, msg *models.InboundMessage) (processed bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic while processing message", "uid", msg.UID, "sender", msg.Sender, "panic", r)
			processed = false
		}
	}()

	logger := m.logger.With("uid", msg.UID, "sender", msg.Sender)

	rec, err := m.store.FindLatestSent(ctx, msg.Sender)
	if errors.Is(err, database.ErrNotFound) {
		// Reply traffic from an address we never tracked; leave unseen
		logger.Debug("sender has no open outreach, ignoring")
		return false
	}
	if err != nil {
		logger.Error("failed to look up outreach record", "error", err)
		return false
	}

	body := m.extractBody(msg)
	now := m.now()

	if body == "" {
		// The reply matched a tracked record but its content cannot be
		// read; record that instead of silently dropping it
		ok, err := m.store.Transition(ctx, msg.Sender, models.StatusErrorParsingReply, &now)
		if err != nil {
			logger.Error("failed to record unparseable reply", "error", err)
			return false
		}
		logger.Warn("could not extract reply body", "record_id", rec.ID, "transitioned", ok)
		return true
	}

	verdict := classifier.Classify(body)
	ok, err := m.store.Transition(ctx, msg.Sender, verdictStatus(verdict), &now)
	if err != nil {
		logger.Error("failed to record reply", "verdict", verdict, "error", err)
		return false
	}
	if ok {
		logger.Info("reply recorded", "record_id", rec.ID, "verdict", verdict)
	} else {
		// Another process got there first; a committed transition
		// elsewhere makes this a benign no-op
		logger.Info("record already updated", "record_id", rec.ID)
	}
	return true
}

// extractBody returns the plain-text body, converting HTML-only messages.
// An empty string means no readable content.
func (m *Monitor) extractBody(msg *models.InboundMessage) string {
	if msg.BodyText != "" {
		return msg.BodyText
	}
	if msg.BodyHTML == "" {
		return ""
	}
	text, err := m.htmlParser.Parse(msg.BodyHTML)
	if err != nil {
		m.logger.Warn("failed to convert html body", "uid", msg.UID, "error", err)
		return ""
	}
	return text
}

func verdictStatus(v classifier.Verdict) models.Status {
	switch v {
	case classifier.VerdictPositive:
		return models.StatusRepliedPositive
	case classifier.VerdictNegative:
		return models.StatusRepliedNegative
	default:
		return models.StatusRepliedOther
	}
}
