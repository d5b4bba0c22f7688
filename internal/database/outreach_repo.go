package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/seedscout/outreach/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ErrDuplicateMessageID is returned when a record with the same transport
// Message-ID already exists
var ErrDuplicateMessageID = errors.New("message id already recorded")

// NormalizeEmail trims and lower-cases an address. Every store operation is
// keyed by the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateOutreach inserts a new outreach record. The record always starts in
// status "sent" with sent_timestamp set to now.
func (db *DB) CreateOutreach(ctx context.Context, rec *models.OutreachRecord) error {
	rec.InvestorEmail = NormalizeEmail(rec.InvestorEmail)
	if rec.InvestorEmail == "" {
		return fmt.Errorf("investor email is required")
	}
	if NormalizeEmail(rec.FounderEmail) == "" {
		return fmt.Errorf("founder email is required")
	}

	query := `
		INSERT INTO outreach (investor_email, investor_name, founder_email, founder_name, startup_name, sent_message_id, status, sent_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		rec.InvestorEmail,
		rec.InvestorName,
		rec.FounderEmail,
		rec.FounderName,
		rec.StartupName,
		rec.SentMessageID,
		models.StatusSent,
		now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateMessageID
		}
		return fmt.Errorf("failed to create outreach record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	rec.Status = models.StatusSent
	rec.SentAt = now
	return nil
}

// FindLatestSent returns the most recent record still in status "sent" for
// the given investor email
func (db *DB) FindLatestSent(ctx context.Context, investorEmail string) (*models.OutreachRecord, error) {
	return db.findLatestByStatus(ctx, investorEmail, models.StatusSent)
}

// FindLatestByStatus returns the most recent record with the given status
func (db *DB) FindLatestByStatus(ctx context.Context, investorEmail string, status models.Status) (*models.OutreachRecord, error) {
	return db.findLatestByStatus(ctx, investorEmail, status)
}

func (db *DB) findLatestByStatus(ctx context.Context, investorEmail string, status models.Status) (*models.OutreachRecord, error) {
	var rec models.OutreachRecord
	query := `
		SELECT * FROM outreach
		WHERE investor_email = ? AND status = ?
		ORDER BY sent_timestamp DESC, id DESC
		LIMIT 1
	`
	err := db.GetContext(ctx, &rec, query, NormalizeEmail(investorEmail), status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find outreach record: %w", err)
	}
	return &rec, nil
}

// LatestOutreach returns the most recent record for the investor regardless
// of status
func (db *DB) LatestOutreach(ctx context.Context, investorEmail string) (*models.OutreachRecord, error) {
	var rec models.OutreachRecord
	query := `
		SELECT * FROM outreach
		WHERE investor_email = ?
		ORDER BY sent_timestamp DESC, id DESC
		LIMIT 1
	`
	err := db.GetContext(ctx, &rec, query, NormalizeEmail(investorEmail))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find outreach record: %w", err)
	}
	return &rec, nil
}

// Transition moves the single most-recent "sent" record for the investor to
// newStatus, setting reply_timestamp when provided and last_checked_timestamp
// always. Returns false without error when no "sent" record matches; callers
// treat that as the record already having been handled, not as a failure.
func (db *DB) Transition(ctx context.Context, investorEmail string, newStatus models.Status, replyTime *time.Time) (bool, error) {
	email := NormalizeEmail(investorEmail)
	now := time.Now()

	// The status guard in the subselect makes concurrent transitions race
	// safely: at most one UPDATE sees rows to change.
	query := `
		UPDATE outreach
		SET status = ?, reply_timestamp = COALESCE(?, reply_timestamp), last_checked_timestamp = ?
		WHERE id = (
			SELECT id FROM outreach
			WHERE investor_email = ? AND status = 'sent'
			ORDER BY sent_timestamp DESC, id DESC
			LIMIT 1
		)
	`
	result, err := db.ExecContext(ctx, query, newStatus, replyTime, now, email)
	if err != nil {
		return false, fmt.Errorf("failed to transition outreach record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
