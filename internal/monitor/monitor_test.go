package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/pkg/models"
)

// fakeStore tracks one record per investor email
type fakeStore struct {
	records       map[string]*models.OutreachRecord
	transitionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.OutreachRecord)}
}

func (s *fakeStore) addSent(email string) *models.OutreachRecord {
	rec := &models.OutreachRecord{
		ID:            int64(len(s.records) + 1),
		InvestorEmail: email,
		Status:        models.StatusSent,
		SentAt:        time.Now(),
	}
	s.records[email] = rec
	return rec
}

func (s *fakeStore) FindLatestSent(_ context.Context, email string) (*models.OutreachRecord, error) {
	rec, ok := s.records[email]
	if !ok || rec.Status != models.StatusSent {
		return nil, database.ErrNotFound
	}
	return rec, nil
}

func (s *fakeStore) Transition(_ context.Context, email string, newStatus models.Status, replyTime *time.Time) (bool, error) {
	if s.transitionErr != nil {
		return false, s.transitionErr
	}
	rec, ok := s.records[email]
	if !ok || rec.Status != models.StatusSent {
		return false, nil
	}
	rec.Status = newStatus
	rec.RepliedAt = replyTime
	return true, nil
}

// fakeMailbox serves a fixed message list and records seen flags
type fakeMailbox struct {
	messages []*models.InboundMessage
	seen     map[uint32]bool
	fetchErr error
	closed   bool
}

func newFakeMailbox(messages ...*models.InboundMessage) *fakeMailbox {
	return &fakeMailbox{messages: messages, seen: make(map[uint32]bool)}
}

func (m *fakeMailbox) FetchUnseen() ([]*models.InboundMessage, error) {
	return m.messages, m.fetchErr
}

func (m *fakeMailbox) MarkSeen(uid uint32) error {
	m.seen[uid] = true
	return nil
}

func (m *fakeMailbox) Close() { m.closed = true }

func newTestMonitor(store Store, box Mailbox) *Monitor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, func() (Mailbox, error) { return box, nil }, time.Minute, logger)
}

func TestPositiveReplyEndToEnd(t *testing.T) {
	store := newFakeStore()
	store.addSent("a@x.com")

	box := newFakeMailbox(&models.InboundMessage{
		UID:      7,
		Sender:   "a@x.com",
		Subject:  "Re: Introduction",
		BodyText: "Yes, happy to connect!",
	})

	newTestMonitor(store, box).runCycle(context.Background())

	rec := store.records["a@x.com"]
	if rec.Status != models.StatusRepliedPositive {
		t.Errorf("status = %q, want replied_positive", rec.Status)
	}
	if rec.RepliedAt == nil {
		t.Error("reply timestamp not set")
	}
	if !box.seen[7] {
		t.Error("message not marked seen")
	}
	if !box.closed {
		t.Error("mailbox session not closed")
	}
}

func TestNegativeReply(t *testing.T) {
	store := newFakeStore()
	store.addSent("a@x.com")

	box := newFakeMailbox(&models.InboundMessage{
		UID:      1,
		Sender:   "a@x.com",
		BodyText: "Unfortunately we have to decline.",
	})

	newTestMonitor(store, box).runCycle(context.Background())

	if got := store.records["a@x.com"].Status; got != models.StatusRepliedNegative {
		t.Errorf("status = %q, want replied_negative", got)
	}
}

func TestUntrackedSenderIgnored(t *testing.T) {
	store := newFakeStore()

	box := newFakeMailbox(&models.InboundMessage{
		UID:      3,
		Sender:   "stranger@elsewhere.com",
		BodyText: "Interested!",
	})

	newTestMonitor(store, box).runCycle(context.Background())

	// Untracked replies stay unseen; they are not ours to consume
	if box.seen[3] {
		t.Error("untracked message was marked seen")
	}
}

func TestHTMLOnlyBodyClassified(t *testing.T) {
	store := newFakeStore()
	store.addSent("a@x.com")

	box := newFakeMailbox(&models.InboundMessage{
		UID:      4,
		Sender:   "a@x.com",
		BodyHTML: "<html><body><p>We are interested, let's schedule a call.</p></body></html>",
	})

	newTestMonitor(store, box).runCycle(context.Background())

	if got := store.records["a@x.com"].Status; got != models.StatusRepliedPositive {
		t.Errorf("status = %q, want replied_positive", got)
	}
	if !box.seen[4] {
		t.Error("message not marked seen")
	}
}

func TestUnreadableBodyRecordsParseError(t *testing.T) {
	store := newFakeStore()
	store.addSent("a@x.com")

	box := newFakeMailbox(&models.InboundMessage{
		UID:    5,
		Sender: "a@x.com",
		// no text and no html
	})

	newTestMonitor(store, box).runCycle(context.Background())

	rec := store.records["a@x.com"]
	if rec.Status != models.StatusErrorParsingReply {
		t.Errorf("status = %q, want error_parsing_reply", rec.Status)
	}
	if !box.seen[5] {
		t.Error("message not marked seen despite definitive outcome")
	}
}

// raceStore simulates another process transitioning the record between the
// monitor's lookup and its commit
type raceStore struct {
	rec *models.OutreachRecord
}

func (s *raceStore) FindLatestSent(context.Context, string) (*models.OutreachRecord, error) {
	return s.rec, nil
}

func (s *raceStore) Transition(context.Context, string, models.Status, *time.Time) (bool, error) {
	return false, nil
}

func TestLostRaceIsBenignNoOp(t *testing.T) {
	store := &raceStore{rec: &models.OutreachRecord{ID: 1, InvestorEmail: "a@x.com", Status: models.StatusSent}}

	box := newFakeMailbox(&models.InboundMessage{
		UID:      6,
		Sender:   "a@x.com",
		BodyText: "Yes!",
	})

	newTestMonitor(store, box).runCycle(context.Background())

	// The no-op transition is still a definitive outcome, so the message
	// must be consumed rather than reprocessed forever
	if !box.seen[6] {
		t.Error("message not marked seen after benign no-op")
	}
}

func TestStoreErrorLeavesMessageUnseen(t *testing.T) {
	store := newFakeStore()
	store.addSent("a@x.com")
	store.transitionErr = errors.New("db locked")

	box := newFakeMailbox(&models.InboundMessage{
		UID:      9,
		Sender:   "a@x.com",
		BodyText: "Interested",
	})

	newTestMonitor(store, box).runCycle(context.Background())

	if box.seen[9] {
		t.Error("message marked seen despite failed transition")
	}
}

func TestDialFailureDoesNotPanic(t *testing.T) {
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(store, func() (Mailbox, error) { return nil, errors.New("connection refused") }, time.Minute, logger)

	m.runCycle(context.Background())
}
