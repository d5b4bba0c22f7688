package models

import "time"

// InboundMessage is one unseen message pulled from the monitored mailbox.
type InboundMessage struct {
	UID        uint32 // IMAP UID, used to mark the message seen
	Sender     string // normalized sender address
	SenderName string
	Subject    string
	ReceivedAt time.Time
	BodyText   string // text/plain part, empty if absent
	BodyHTML   string // text/html part, empty if absent
}
