// Package mailbox is the inbound mail capability: fetch unseen messages and
// mark them seen. Each reply-monitor cycle dials a fresh session and logs
// out at the end; there is no persistent connection or IDLE.
package mailbox

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/seedscout/outreach/pkg/models"
)

// Config configuration for a mailbox session
type Config struct {
	Server      string // host:port
	Email       string
	Password    string
	DialTimeout time.Duration
}

// Session is one logged-in IMAP connection with INBOX selected
type Session struct {
	client *client.Client
	logger *slog.Logger
}

// Dialer opens mailbox sessions. The monitor holds one and dials per cycle.
type Dialer struct {
	config Config
	logger *slog.Logger
}

// NewDialer creates a session dialer
func NewDialer(cfg Config, logger *slog.Logger) *Dialer {
	return &Dialer{
		config: cfg,
		logger: logger.With("component", "mailbox", "email", cfg.Email),
	}
}

// Dial connects, logs in and selects INBOX
func (d *Dialer) Dial() (*Session, error) {
	timeout := d.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", d.config.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(d.config.Email, d.config.Password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	if _, err := imapClient.Select("INBOX", false); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	return &Session{client: imapClient, logger: d.logger}, nil
}

// FetchUnseen returns all unseen messages in the mailbox. Bodies are fetched
// with BODY.PEEK so the messages stay unseen until MarkSeen is called.
func (s *Session) FetchUnseen() ([]*models.InboundMessage, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 100)
	done := make(chan error, 1)

	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var inbound []*models.InboundMessage
	for msg := range messages {
		parsed, err := s.parseMessage(msg, section)
		if err != nil {
			s.logger.Warn("failed to parse message", "uid", msg.Uid, "error", err)
			continue
		}
		inbound = append(inbound, parsed)
	}

	if err := <-done; err != nil {
		return inbound, fmt.Errorf("failed to fetch: %w", err)
	}

	return inbound, nil
}

// parseMessage parses an IMAP message into an InboundMessage
func (s *Session) parseMessage(msg *imap.Message, section *imap.BodySectionName) (*models.InboundMessage, error) {
	inbound := &models.InboundMessage{UID: msg.Uid}

	if msg.Envelope != nil {
		inbound.Subject = msg.Envelope.Subject
		inbound.ReceivedAt = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			inbound.Sender = strings.ToLower(strings.TrimSpace(from.Address()))
			inbound.SenderName = from.PersonalName
		}
	}
	if inbound.Sender == "" {
		return nil, fmt.Errorf("message has no sender address")
	}

	bodyReader := msg.GetBody(section)
	if bodyReader == nil {
		return inbound, nil
	}

	mr, err := mail.CreateReader(bodyReader)
	if err != nil {
		s.logger.Warn("failed to create mail reader", "uid", msg.Uid, "error", err)
		return inbound, nil
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("failed to read part", "uid", msg.Uid, "error", err)
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(ct, "text/plain"):
			inbound.BodyText = string(body)
		case strings.HasPrefix(ct, "text/html"):
			inbound.BodyHTML = string(body)
		}
	}

	return inbound, nil
}

// MarkSeen adds the \Seen flag to a message
func (s *Session) MarkSeen(uid uint32) error {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	if err := s.client.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("failed to mark as seen: %w", err)
	}
	return nil
}

// Close logs out and drops the connection
func (s *Session) Close() {
	if err := s.client.Logout(); err != nil {
		s.logger.Debug("logout failed", "error", err)
	}
}
