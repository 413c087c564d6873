package models

import (
	"time"
)

// Element is the categorical trait on a reward token.
type Element string

const (
	ElementFire  Element = "Fire"
	ElementWater Element = "Water"
	ElementEarth Element = "Earth"
	ElementAir   Element = "Air"
)

// RewardAttributes are the cosmetic traits derived once from the draw's
// random seed. Immutable after mint.
type RewardAttributes struct {
	Rarity     uint64  `bson:"rarity" json:"rarity"`
	Luck       uint64  `bson:"luck" json:"luck"`
	Multiplier uint64  `bson:"multiplier" json:"multiplier"`
	Element    Element `bson:"element" json:"element"`
}

// RewardToken is a commemorative token minted to a draw winner.
type RewardToken struct {
	TokenID    uint64           `bson:"_id" json:"tokenId"`
	Owner      string           `bson:"owner" json:"owner"`
	Tier       string           `bson:"tier" json:"tier"`
	Round      uint64           `bson:"round" json:"round"`
	Attributes RewardAttributes `bson:"attributes" json:"attributes"`
	MintedAt   time.Time        `bson:"mintedAt" json:"mintedAt"`
}

// TokenMetadata is the descriptive document served for a reward token,
// shaped like the common NFT metadata convention.
type TokenMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Attributes  []MetadataTrait  `json:"attributes"`
}

// MetadataTrait is one entry in a token metadata trait list.
type MetadataTrait struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}
