package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType names an observation emitted by the lottery core.
type EventType string

const (
	EventEntryRecorded    EventType = "ENTRY_RECORDED"
	EventDrawInitiated    EventType = "DRAW_INITIATED"
	EventWinnerSelected   EventType = "WINNER_SELECTED"
	EventReferralRewarded EventType = "REFERRAL_REWARDED"
)

// LotteryEvent is one emitted observation, persisted for external monitoring.
// Writes are best-effort; the core operation never fails on an event write.
type LotteryEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID   string             `bson:"eventId" json:"eventId"`
	Type      EventType          `bson:"type" json:"type"`
	Tier      string             `bson:"tier,omitempty" json:"tier,omitempty"`
	Round     uint64             `bson:"round,omitempty" json:"round,omitempty"`
	Fields    map[string]string  `bson:"fields" json:"fields"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
