// Package domain defines the entities shared across the ingestion and
// notification pipeline.
package domain

import "time"

// WorkFormat classifies how a vacancy expects work to happen.
type WorkFormat string

const (
	WorkOnSite      WorkFormat = "on-site"
	WorkRemote      WorkFormat = "remote"
	WorkFlexible    WorkFormat = "flexible"
	WorkUnspecified WorkFormat = "unspecified"
)

// Posting is a single vacancy as stored.
//
// Link is canonicalized (no query parameters) and globally unique; it is
// the dedup key. ExternalID is the source's own identifier and may be
// empty; never rely on it being present.
//
// A posting is written once on first sighting and never mutated.
type Posting struct {
	ID          int64
	ExternalID  string
	Title       string
	Link        string
	Company     string
	Salary      string
	Experience  string
	WorkFormat  WorkFormat
	Region      string
	PublishedAt time.Time
	FetchedAt   time.Time
}

// Recipient is a notification subscriber, keyed by Telegram chat id.
type Recipient struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	RegisteredAt time.Time
}

// DeliveryRecord is durable proof that a posting was delivered to a
// recipient. At most one record ever exists per (posting, recipient)
// pair; it is created only after a confirmed send and never removed.
type DeliveryRecord struct {
	PostingID   int64
	RecipientID int64
	SentAt      time.Time
}
