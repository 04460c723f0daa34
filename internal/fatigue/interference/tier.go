package interference

// Tier is the alert level for a fatigue score.
type Tier string

const (
	TierNone     Tier = "none"
	TierMild     Tier = "mild"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
	TierSevere   Tier = "severe"
)

const (
	MildThreshold     = 30.0
	ModerateThreshold = 50.0
	HighThreshold     = 70.0
	SevereThreshold   = 85.0
)

func TierFor(fatigue float64) Tier {
	switch {
	case fatigue >= SevereThreshold:
		return TierSevere
	case fatigue >= HighThreshold:
		return TierHigh
	case fatigue >= ModerateThreshold:
		return TierModerate
	case fatigue >= MildThreshold:
		return TierMild
	default:
		return TierNone
	}
}

// SuggestedLoadReduction is the percentage to take off the next set's load.
func (t Tier) SuggestedLoadReduction() float64 {
	switch t {
	case TierMild:
		return 5
	case TierModerate:
		return 10
	case TierHigh:
		return 20
	case TierSevere:
		return 30
	default:
		return 0
	}
}
