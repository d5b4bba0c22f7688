// Package outreach is the orchestrator for the outreach lifecycle: it sends
// the initial solicitation, owns the guarded status transitions, and fires
// the side-effect emails that follow an acceptance.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/internal/mailer"
	"github.com/seedscout/outreach/internal/templates"
	"github.com/seedscout/outreach/internal/token"
	"github.com/seedscout/outreach/pkg/models"
)

// Store is the slice of the outreach store the orchestrator needs
type Store interface {
	CreateOutreach(ctx context.Context, rec *models.OutreachRecord) error
	Transition(ctx context.Context, investorEmail string, newStatus models.Status, replyTime *time.Time) (bool, error)
	FindLatestByStatus(ctx context.Context, investorEmail string, status models.Status) (*models.OutreachRecord, error)
	LatestOutreach(ctx context.Context, investorEmail string) (*models.OutreachRecord, error)
}

// Sender sends one email synchronously
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Directory resolves and searches investors
type Directory interface {
	Search(query string) ([]models.Investor, int, error)
	FindByName(name string) (*models.Investor, error)
}

// TokenIssuer mints acceptance tokens
type TokenIssuer interface {
	Issue(p token.Payload) (string, error)
}

// Deps wires a Service
type Deps struct {
	Store         Store
	Sender        Sender
	Directory     Directory
	Tokens        TokenIssuer
	AcceptBaseURL string
	FromAddress   string // outbound from address, used for Message-ID domains
	Logger        *slog.Logger
}

// Service implements Capabilities and the acceptance transition
type Service struct {
	store         Store
	sender        Sender
	directory     Directory
	tokens        TokenIssuer
	acceptBaseURL string
	msgIDDomain   string
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates the orchestrator
func NewService(deps Deps) *Service {
	return &Service{
		store:         deps.Store,
		sender:        deps.Sender,
		directory:     deps.Directory,
		tokens:        deps.Tokens,
		acceptBaseURL: deps.AcceptBaseURL,
		msgIDDomain:   mailDomain(deps.FromAddress),
		logger:        deps.Logger.With("component", "outreach"),
		now:           time.Now,
	}
}

// SearchInvestors finds investors matching the query
func (s *Service) SearchInvestors(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	matches, total, err := s.directory.Search(req.Query)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Matches: matches, Total: total}, nil
}

// SendOutreach resolves the investor, sends the templated solicitation with
// an embedded acceptance link, and records the attempt in the store. The
// record is only created after a successful send; a failed store insert after
// the send is reported in the result, not rolled back.
func (s *Service) SendOutreach(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.InvestorName) == "" {
		return nil, fmt.Errorf("investor name is required")
	}

	investor, err := s.directory.FindByName(req.InvestorName)
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Issue(token.Payload{
		InvestorEmail: database.NormalizeEmail(investor.Email),
		FounderEmail:  req.Session.FounderEmail,
		InvestorName:  investor.Name,
		FounderName:   req.Session.FounderName,
		StartupName:   req.Session.StartupName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue acceptance token: %w", err)
	}

	email := templates.InitialOutreach(
		investor.Name,
		req.Session.FounderName,
		req.Session.StartupName,
		req.Session.StartupPitch,
		investor.FocusArea,
		token.AcceptURL(s.acceptBaseURL, signed),
	)

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.msgIDDomain)
	err = s.sender.Send(ctx, mailer.Message{
		To:        investor.Email,
		Subject:   email.Subject,
		Body:      email.Body,
		MessageID: messageID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send outreach to %s: %w", investor.Name, err)
	}

	result := &SendResult{
		InvestorName:  investor.Name,
		InvestorEmail: database.NormalizeEmail(investor.Email),
		MessageID:     messageID,
		Recorded:      true,
	}

	rec := &models.OutreachRecord{
		InvestorEmail: investor.Email,
		InvestorName:  investor.Name,
		FounderEmail:  req.Session.FounderEmail,
		FounderName:   req.Session.FounderName,
		StartupName:   req.Session.StartupName,
		SentMessageID: &messageID,
	}
	if err := s.store.CreateOutreach(ctx, rec); err != nil {
		// The email already went out; surface the bookkeeping failure
		// instead of pretending the send failed
		s.logger.Error("outreach sent but not recorded", "investor_email", result.InvestorEmail, "error", err)
		result.Recorded = false
	}

	s.logger.Info("outreach sent", "investor", investor.Name, "investor_email", result.InvestorEmail, "recorded", result.Recorded)
	return result, nil
}

// CheckStatus returns the latest outreach record for the investor, with a
// nil Record when none exists
func (s *Service) CheckStatus(ctx context.Context, req StatusRequest) (*StatusResult, error) {
	rec, err := s.store.LatestOutreach(ctx, req.InvestorEmail)
	if errors.Is(err, database.ErrNotFound) {
		return &StatusResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &StatusResult{Record: rec}, nil
}

// AcceptResult reports the acceptance cascade step by step. The transition
// commits before any email is attempted, so partial send failures leave the
// record accepted.
type AcceptResult struct {
	Transitioned   bool
	InvestorMailOK bool
	FounderMailOK  bool
	DetailsFound   bool
	ConnectionOK   bool
}

// Accept performs the sent→accepted transition for a verified token payload
// and fires the confirmation and connection emails. Each send is independent;
// a failure degrades the result but never blocks the others or the committed
// transition.
func (s *Service) Accept(ctx context.Context, p *token.Payload) (AcceptResult, error) {
	var result AcceptResult

	now := s.now()
	ok, err := s.store.Transition(ctx, p.InvestorEmail, models.StatusAccepted, &now)
	if err != nil {
		return result, fmt.Errorf("failed to record acceptance: %w", err)
	}
	if !ok {
		// Already accepted, already replied, or never tracked. Callers
		// cannot distinguish these cases; see the link verification
		// endpoint for the shared user-facing message.
		s.logger.Info("acceptance for investor without open outreach", "investor_email", p.InvestorEmail)
		return result, nil
	}
	result.Transitioned = true
	s.logger.Info("outreach accepted", "investor_email", p.InvestorEmail)

	investorMail := templates.InvestorConfirmation(p.InvestorName, p.FounderName, p.StartupName)
	if err := s.sender.Send(ctx, mailer.Message{
		To:      p.InvestorEmail,
		Subject: investorMail.Subject,
		Body:    investorMail.Body,
	}); err != nil {
		s.logger.Error("failed to send investor confirmation", "investor_email", p.InvestorEmail, "error", err)
	} else {
		result.InvestorMailOK = true
	}

	founderMail := templates.FounderNotification(p.InvestorName, p.FounderName, p.StartupName)
	if err := s.sender.Send(ctx, mailer.Message{
		To:      p.FounderEmail,
		Subject: founderMail.Subject,
		Body:    founderMail.Body,
	}); err != nil {
		s.logger.Error("failed to send founder notification", "founder_email", p.FounderEmail, "error", err)
	} else {
		result.FounderMailOK = true
	}

	// The record just left "sent", so the display names for the connection
	// email come from the accepted record
	details, err := s.store.FindLatestByStatus(ctx, p.InvestorEmail, models.StatusAccepted)
	if err != nil {
		s.logger.Error("failed to fetch accepted record for connection email", "investor_email", p.InvestorEmail, "error", err)
		return result, nil
	}
	result.DetailsFound = true

	ccMail := templates.FollowUpConnection(details.InvestorName, details.FounderName, details.StartupName)
	if err := s.sender.Send(ctx, mailer.Message{
		To:      details.FounderEmail,
		Cc:      []string{p.InvestorEmail},
		Subject: ccMail.Subject,
		Body:    ccMail.Body,
	}); err != nil {
		s.logger.Error("failed to send connection email", "founder_email", details.FounderEmail, "error", err)
		return result, nil
	}
	result.ConnectionOK = true

	return result, nil
}

func validateSession(sess Session) error {
	var missing []string
	if strings.TrimSpace(sess.FounderEmail) == "" {
		missing = append(missing, "founder email")
	}
	if strings.TrimSpace(sess.FounderName) == "" {
		missing = append(missing, "founder name")
	}
	if strings.TrimSpace(sess.StartupName) == "" {
		missing = append(missing, "startup name")
	}
	if strings.TrimSpace(sess.StartupPitch) == "" {
		missing = append(missing, "startup pitch")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required session fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func mailDomain(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "outreach.local"
}
