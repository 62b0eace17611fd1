package model

import "time"

const (
	BulkPending   = "pending"
	BulkSent      = "sent"
	BulkFailed    = "failed"
	BulkBlocked   = "blocked"
	BulkCancelled = "cancelled"
)

// BulkMessage is one campaign job row per recipient. Terminal states are final,
// failed jobs are not retried.
type BulkMessage struct {
	Id             uint32 `storm:"id,increment"`
	CampaignName   string `storm:"index"`
	Template       string
	RecipientName  string
	RecipientPhone string `storm:"index"`
	Status         string `storm:"index"`
	ErrorMessage   string
	ScheduledAt    time.Time `storm:"index"`
	SentAt         time.Time
	CreatedAt      time.Time `storm:"index"`
}
