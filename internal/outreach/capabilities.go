package outreach

import (
	"context"

	"github.com/seedscout/outreach/pkg/models"
)

// Session carries the founder context for one conversation. It is passed
// explicitly to every operation instead of living in process-wide state.
type Session struct {
	FounderEmail string
	FounderName  string
	StartupName  string
	StartupPitch string
}

// SearchRequest asks for investors matching free-text criteria
type SearchRequest struct {
	Query string
}

// SearchResult lists matching investors. Total counts all matches even when
// the returned slice is capped.
type SearchResult struct {
	Matches []models.Investor
	Total   int
}

// SendRequest asks for an outreach email to a named investor
type SendRequest struct {
	Session      Session
	InvestorName string
}

// SendResult reports a completed send
type SendResult struct {
	InvestorName  string
	InvestorEmail string
	MessageID     string
	Recorded      bool // false when the email went out but the store insert failed
}

// StatusRequest asks for the latest outreach status for an investor email
type StatusRequest struct {
	InvestorEmail string
}

// StatusResult carries the latest record, nil when none exists
type StatusResult struct {
	Record *models.OutreachRecord
}

// Capabilities is the closed set of operations the conversational agent may
// invoke. Typed requests and results replace free-text tool dispatch.
type Capabilities interface {
	SearchInvestors(ctx context.Context, req SearchRequest) (*SearchResult, error)
	SendOutreach(ctx context.Context, req SendRequest) (*SendResult, error)
	CheckStatus(ctx context.Context, req StatusRequest) (*StatusResult, error)
}
