package render

import "strconv"

// Tier is the good/medium/bad classification bucket for a numeric score.
type Tier string

const (
	TierGood   Tier = "good"
	TierMedium Tier = "medium"
	TierBad    Tier = "bad"
	// TierNone marks a missing score; it renders as "N/A" with no tier class.
	TierNone Tier = ""
)

// Score badge thresholds and progress bar thresholds intentionally differ
// between the two dashboard variants. Keep these as two distinct functions.

// BadgeTier classifies a score for the badge variant: good at 70 and above,
// medium at 40 and above, bad below.
func BadgeTier(score *int) Tier {
	switch {
	case score == nil:
		return TierNone
	case *score >= 70:
		return TierGood
	case *score >= 40:
		return TierMedium
	default:
		return TierBad
	}
}

// ProgressTier classifies a score for the progress-bar variant: good at 80
// and above, medium at 50 and above, bad below.
func ProgressTier(score *int) Tier {
	switch {
	case score == nil:
		return TierNone
	case *score >= 80:
		return TierGood
	case *score >= 50:
		return TierMedium
	default:
		return TierBad
	}
}

// ScoreBadge builds the badge view for a score. A missing score renders the
// literal "N/A" with no tier.
func ScoreBadge(score *int) Badge {
	if score == nil {
		return Badge{Text: "N/A", Tier: TierNone}
	}
	return Badge{Text: strconv.Itoa(*score), Tier: BadgeTier(score)}
}

// ScoreBar builds the progress-bar view for a score. A missing score yields
// zero fill and no tier.
func ScoreBar(score *int) Bar {
	if score == nil {
		return Bar{}
	}
	width := *score
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}
	return Bar{Width: width, Tier: ProgressTier(score)}
}
