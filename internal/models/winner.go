package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WinnerRecord is the append-only audit entry for one completed draw. It is
// never mutated after creation; the random seed is kept so the winner index
// and reward attributes can be re-derived by anyone.
type WinnerRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Tier         string             `bson:"tier" json:"tier"`
	Round        uint64             `bson:"round" json:"round"`
	RequestID    uint64             `bson:"requestId" json:"requestId"`
	Winner       string             `bson:"winner" json:"winner"`
	WinnerIndex  uint64             `bson:"winnerIndex" json:"winnerIndex"`
	Participants int                `bson:"participants" json:"participants"`
	TotalPrize   string             `bson:"totalPrize" json:"totalPrize"`
	ProtocolFee  string             `bson:"protocolFee" json:"protocolFee"`
	Payout       string             `bson:"payout" json:"payout"`
	RandomSeed   string             `bson:"randomSeed" json:"randomSeed"`
	TokenID      uint64             `bson:"tokenId" json:"tokenId"`
	SettledAt    time.Time          `bson:"settledAt" json:"settledAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
