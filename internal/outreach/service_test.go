package outreach

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/internal/mailer"
	"github.com/seedscout/outreach/internal/token"
	"github.com/seedscout/outreach/pkg/models"
)

type fakeStore struct {
	records   []*models.OutreachRecord
	createErr error
}

func (s *fakeStore) CreateOutreach(_ context.Context, rec *models.OutreachRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	rec.ID = int64(len(s.records) + 1)
	rec.InvestorEmail = database.NormalizeEmail(rec.InvestorEmail)
	rec.Status = models.StatusSent
	rec.SentAt = time.Now()
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) Transition(_ context.Context, email string, newStatus models.Status, replyTime *time.Time) (bool, error) {
	email = database.NormalizeEmail(email)
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.InvestorEmail == email && rec.Status == models.StatusSent {
			rec.Status = newStatus
			rec.RepliedAt = replyTime
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) FindLatestByStatus(_ context.Context, email string, status models.Status) (*models.OutreachRecord, error) {
	email = database.NormalizeEmail(email)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].InvestorEmail == email && s.records[i].Status == status {
			return s.records[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) LatestOutreach(_ context.Context, email string) (*models.OutreachRecord, error) {
	email = database.NormalizeEmail(email)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].InvestorEmail == email {
			return s.records[i], nil
		}
	}
	return nil, database.ErrNotFound
}

type fakeSender struct {
	sent   []mailer.Message
	failTo map[string]error
}

func (s *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	if err, ok := s.failTo[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeDirectory struct {
	investors []models.Investor
}

func (d *fakeDirectory) Search(query string) ([]models.Investor, int, error) {
	return d.investors, len(d.investors), nil
}

func (d *fakeDirectory) FindByName(name string) (*models.Investor, error) {
	var found *models.Investor
	for i := range d.investors {
		if strings.Contains(strings.ToLower(d.investors[i].Name), strings.ToLower(name)) {
			if found != nil {
				return nil, errors.New("ambiguous investor name")
			}
			found = &d.investors[i]
		}
	}
	if found == nil {
		return nil, errors.New("investor not found")
	}
	return found, nil
}

var testSigner = token.NewSigner([]byte("0123456789abcdef0123456789abcdef"), time.Hour, nil)

func testSession() Session {
	return Session{
		FounderEmail: "founder@startup.io",
		FounderName:  "Frank Founder",
		StartupName:  "Rocketry",
		StartupPitch: "reusable sounding rockets",
	}
}

func newTestService(store Store, sender Sender, dir Directory) *Service {
	return NewService(Deps{
		Store:         store,
		Sender:        sender,
		Directory:     dir,
		Tokens:        testSigner,
		AcceptBaseURL: "https://connect.example.com",
		FromAddress:   "agent@seedscout.dev",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestSendOutreach(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{}
	dir := &fakeDirectory{investors: []models.Investor{
		{Name: "Alice Angel", Email: "Alice@AngelFund.com", FocusArea: "FinTech"},
	}}
	svc := newTestService(store, sender, dir)

	result, err := svc.SendOutreach(context.Background(), SendRequest{
		Session:      testSession(),
		InvestorName: "alice",
	})
	if err != nil {
		t.Fatalf("SendOutreach: %v", err)
	}

	if result.InvestorEmail != "alice@angelfund.com" {
		t.Errorf("InvestorEmail = %q, want normalized", result.InvestorEmail)
	}
	if !result.Recorded {
		t.Error("Recorded = false, want true")
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "Alice@AngelFund.com" {
		t.Errorf("To = %q", msg.To)
	}
	if !strings.Contains(msg.Body, "https://connect.example.com/accept_investor?token=") {
		t.Error("body missing acceptance link")
	}
	if !strings.Contains(msg.Subject, "Rocketry") {
		t.Errorf("Subject = %q, want startup name", msg.Subject)
	}
	if !strings.Contains(msg.MessageID, "@seedscout.dev>") {
		t.Errorf("MessageID = %q, want from-address domain", msg.MessageID)
	}

	if len(store.records) != 1 {
		t.Fatalf("store has %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Status != models.StatusSent {
		t.Errorf("record status = %q, want sent", rec.Status)
	}
	if rec.SentMessageID == nil || *rec.SentMessageID != msg.MessageID {
		t.Error("record message id does not match sent message")
	}
}

func TestSendOutreachValidation(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSender{}, &fakeDirectory{})

	if _, err := svc.SendOutreach(context.Background(), SendRequest{InvestorName: "alice"}); err == nil {
		t.Error("empty session should fail")
	}
	if _, err := svc.SendOutreach(context.Background(), SendRequest{Session: testSession()}); err == nil {
		t.Error("empty investor name should fail")
	}
}

func TestSendOutreachAmbiguousInvestor(t *testing.T) {
	dir := &fakeDirectory{investors: []models.Investor{
		{Name: "Alice Angel", Email: "alice@a.com"},
		{Name: "Alicia Grand", Email: "alicia@b.com"},
	}}
	svc := newTestService(&fakeStore{}, &fakeSender{}, dir)

	if _, err := svc.SendOutreach(context.Background(), SendRequest{Session: testSession(), InvestorName: "Ali"}); err == nil {
		t.Error("ambiguous investor should fail")
	}
}

func TestSendOutreachSendFailureCreatesNoRecord(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{failTo: map[string]error{"alice@a.com": errors.New("smtp timeout")}}
	dir := &fakeDirectory{investors: []models.Investor{{Name: "Alice Angel", Email: "alice@a.com"}}}
	svc := newTestService(store, sender, dir)

	if _, err := svc.SendOutreach(context.Background(), SendRequest{Session: testSession(), InvestorName: "alice"}); err == nil {
		t.Fatal("send failure should surface")
	}
	if len(store.records) != 0 {
		t.Error("record created despite failed send")
	}
}

func TestSendOutreachRecordFailureStillReported(t *testing.T) {
	store := &fakeStore{createErr: database.ErrDuplicateMessageID}
	sender := &fakeSender{}
	dir := &fakeDirectory{investors: []models.Investor{{Name: "Alice Angel", Email: "alice@a.com"}}}
	svc := newTestService(store, sender, dir)

	result, err := svc.SendOutreach(context.Background(), SendRequest{Session: testSession(), InvestorName: "alice"})
	if err != nil {
		t.Fatalf("SendOutreach: %v", err)
	}
	// The email went out; the bookkeeping failure is a degraded outcome,
	// not an error
	if result.Recorded {
		t.Error("Recorded = true despite store failure")
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d emails, want 1", len(sender.sent))
	}
}

func acceptPayload() *token.Payload {
	return &token.Payload{
		InvestorEmail: "alice@a.com",
		FounderEmail:  "founder@startup.io",
		InvestorName:  "Alice Angel",
		FounderName:   "Frank Founder",
		StartupName:   "Rocketry",
	}
}

func sentRecord() *models.OutreachRecord {
	return &models.OutreachRecord{
		ID:            1,
		InvestorEmail: "alice@a.com",
		InvestorName:  "Alice Angel",
		FounderEmail:  "founder@startup.io",
		FounderName:   "Frank Founder",
		StartupName:   "Rocketry",
		Status:        models.StatusSent,
		SentAt:        time.Now(),
	}
}

func TestAccept(t *testing.T) {
	store := &fakeStore{records: []*models.OutreachRecord{sentRecord()}}
	sender := &fakeSender{}
	svc := newTestService(store, sender, &fakeDirectory{})

	result, err := svc.Accept(context.Background(), acceptPayload())
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	want := AcceptResult{Transitioned: true, InvestorMailOK: true, FounderMailOK: true, DetailsFound: true, ConnectionOK: true}
	if result != want {
		t.Errorf("result = %+v, want %+v", result, want)
	}

	if store.records[0].Status != models.StatusAccepted {
		t.Errorf("status = %q, want accepted", store.records[0].Status)
	}
	if store.records[0].RepliedAt == nil {
		t.Error("reply timestamp not set on acceptance")
	}

	if len(sender.sent) != 3 {
		t.Fatalf("sent %d emails, want 3", len(sender.sent))
	}
	if sender.sent[0].To != "alice@a.com" {
		t.Errorf("first email to %q, want investor", sender.sent[0].To)
	}
	if sender.sent[1].To != "founder@startup.io" {
		t.Errorf("second email to %q, want founder", sender.sent[1].To)
	}
	cc := sender.sent[2]
	if cc.To != "founder@startup.io" || len(cc.Cc) != 1 || cc.Cc[0] != "alice@a.com" {
		t.Errorf("connection email To=%q Cc=%v", cc.To, cc.Cc)
	}
}

func TestAcceptReplay(t *testing.T) {
	store := &fakeStore{records: []*models.OutreachRecord{sentRecord()}}
	sender := &fakeSender{}
	svc := newTestService(store, sender, &fakeDirectory{})

	if _, err := svc.Accept(context.Background(), acceptPayload()); err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	sentAfterFirst := len(sender.sent)

	result, err := svc.Accept(context.Background(), acceptPayload())
	if err != nil {
		t.Fatalf("second Accept: %v", err)
	}
	if result.Transitioned {
		t.Error("replayed Accept reported a transition")
	}
	if len(sender.sent) != sentAfterFirst {
		t.Error("replayed Accept re-sent confirmation emails")
	}
}

func TestAcceptUnknownInvestor(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeSender{}, &fakeDirectory{})

	result, err := svc.Accept(context.Background(), acceptPayload())
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	// Unknown and already-accepted are indistinguishable here
	if result.Transitioned {
		t.Error("Accept without open outreach reported a transition")
	}
}

func TestAcceptPartialSendFailure(t *testing.T) {
	store := &fakeStore{records: []*models.OutreachRecord{sentRecord()}}
	sender := &fakeSender{failTo: map[string]error{"alice@a.com": errors.New("mailbox full")}}
	svc := newTestService(store, sender, &fakeDirectory{})

	result, err := svc.Accept(context.Background(), acceptPayload())
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if !result.Transitioned {
		t.Error("transition should commit before any email is attempted")
	}
	if result.InvestorMailOK {
		t.Error("investor email reported sent despite failure")
	}
	if !result.FounderMailOK {
		t.Error("founder email should still be attempted")
	}
	if store.records[0].Status != models.StatusAccepted {
		t.Errorf("status = %q, want accepted despite partial sends", store.records[0].Status)
	}
}

func TestCheckStatus(t *testing.T) {
	store := &fakeStore{records: []*models.OutreachRecord{sentRecord()}}
	svc := newTestService(store, &fakeSender{}, &fakeDirectory{})

	result, err := svc.CheckStatus(context.Background(), StatusRequest{InvestorEmail: "ALICE@a.com"})
	if err != nil {
		t.Fatalf("CheckStatus: %v", err)
	}
	if result.Record == nil || result.Record.ID != 1 {
		t.Errorf("Record = %+v, want id 1", result.Record)
	}

	result, err = svc.CheckStatus(context.Background(), StatusRequest{InvestorEmail: "nobody@x.com"})
	if err != nil {
		t.Fatalf("CheckStatus unknown: %v", err)
	}
	if result.Record != nil {
		t.Error("Record should be nil for unknown investor")
	}
}
