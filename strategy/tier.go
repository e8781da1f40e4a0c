package strategy

import (
	"errors"
	"fmt"
	"strings"
)

// Tier names a move-selection strength.
type Tier string

const (
	TierEasy       Tier = "easy"
	TierMedium     Tier = "medium"
	TierHard       Tier = "hard"
	TierImpossible Tier = "impossible"
	TierMinimax    Tier = "minimax"
)

var ErrUnknownTier = errors.New("unknown tier")

// Tiers lists every tier, weakest first.
var Tiers = []Tier{TierEasy, TierMedium, TierMinimax, TierHard, TierImpossible}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TierEasy, TierMedium, TierHard, TierImpossible, TierMinimax:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (t Tier) String() string { return string(t) }

// UnmarshalText lets tiers be read straight from config and YAML files.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
