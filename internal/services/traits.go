package services

import (
	"strconv"

	"github.com/LIN0304/entropy-lottery/internal/models"
	"github.com/holiman/uint256"
)

var elementTable = [4]models.Element{
	models.ElementFire,
	models.ElementWater,
	models.ElementEarth,
	models.ElementAir,
}

// DeriveAttributes maps the delivered random seed and tier to the reward
// token's traits. Pure and reproducible: the same (seed, tier) always yields
// the same attributes, so any audit can re-derive them from the winner
// record. All shifts operate on the full 256-bit seed.
func DeriveAttributes(seed *uint256.Int, tier models.Tier) models.RewardAttributes {
	baseRarity := uint64(tier)*20 + 20

	var shifted uint256.Int

	rarity := baseRarity + modWord(seed, 20)

	shifted.Rsh(seed, 8)
	luck := modWord(&shifted, 100) + 1

	shifted.Rsh(seed, 16)
	multiplier := modWord(&shifted, 10) + 1

	shifted.Rsh(seed, 24)
	element := elementTable[modWord(&shifted, 4)]

	return models.RewardAttributes{
		Rarity:     rarity,
		Luck:       luck,
		Multiplier: multiplier,
		Element:    element,
	}
}

// RenderTokenMetadata builds the descriptive document served for a token.
func RenderTokenMetadata(token *models.RewardToken) *models.TokenMetadata {
	return &models.TokenMetadata{
		Name:        tokenName(token),
		Description: "Commemorative reward for winning an entropy lottery draw.",
		Attributes: []models.MetadataTrait{
			{TraitType: "Tier", Value: token.Tier},
			{TraitType: "Rarity", Value: token.Attributes.Rarity},
			{TraitType: "Luck", Value: token.Attributes.Luck},
			{TraitType: "Multiplier", Value: token.Attributes.Multiplier},
			{TraitType: "Element", Value: string(token.Attributes.Element)},
		},
	}
}

func tokenName(token *models.RewardToken) string {
	return "Lottery Trophy #" + strconv.FormatUint(token.TokenID, 10)
}

// modWord reduces x modulo a small word-sized constant.
func modWord(x *uint256.Int, m uint64) uint64 {
	var r uint256.Int
	return r.Mod(x, uint256.NewInt(m)).Uint64()
}
