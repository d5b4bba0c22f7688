package models

import "time"

// Status is the lifecycle state of an outreach record.
type Status string

const (
	StatusSent              Status = "sent"
	StatusAccepted          Status = "accepted"
	StatusRepliedPositive   Status = "replied_positive"
	StatusRepliedNegative   Status = "replied_negative"
	StatusRepliedOther      Status = "replied_other"
	StatusErrorParsingReply Status = "error_parsing_reply"
	StatusError             Status = "error"
)

// Terminal reports whether automatic transitions may no longer touch a record
// in this status. Only "sent" records are eligible for further transitions.
func (s Status) Terminal() bool {
	return s != StatusSent
}

// OutreachRecord tracks one founder-to-investor email attempt
type OutreachRecord struct {
	ID            int64      `db:"id"`
	InvestorEmail string     `db:"investor_email"` // normalized lowercase
	InvestorName  string     `db:"investor_name"`
	FounderEmail  string     `db:"founder_email"`
	FounderName   string     `db:"founder_name"`
	StartupName   string     `db:"startup_name"`
	SentMessageID *string    `db:"sent_message_id"` // transport Message-ID, unique if present
	Status        Status     `db:"status"`
	SentAt        time.Time  `db:"sent_timestamp"`
	RepliedAt     *time.Time `db:"reply_timestamp"`
	LastCheckedAt *time.Time `db:"last_checked_timestamp"`
}
