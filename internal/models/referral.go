package models

import (
	"time"
)

// ReferralAccount is the persisted form of one referrer-side ledger entry.
// Referrer assignment is write-once; Pending only grows until a claim zeroes
// it. The in-memory ledger is authoritative, this document mirrors it.
type ReferralAccount struct {
	Address   string    `bson:"_id" json:"address"`
	Referrer  string    `bson:"referrer,omitempty" json:"referrer,omitempty"`
	Pending   string    `bson:"pending" json:"pending"`
	Referred  int       `bson:"referred" json:"referred"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
