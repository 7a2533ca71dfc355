package verifier

import "fmt"

// Confidence levels.
const (
	ConfidenceLow      = "low"
	ConfidenceMedium   = "medium"
	ConfidenceHigh     = "high"
	ConfidenceVeryHigh = "very_high"
)

// ScoreInput gathers every signal the scorer weighs.
type ScoreInput struct {
	SMTPProbed   bool // a dialogue reached RCPT TO
	SMTPAccepted bool
	SMTPRejected bool // permanent 55x rejection
	BounceRisk   string
	Flags        []string
	RiskFactors  []string
	// FallbackConfidence, when > 0, replaces the base score: with no SMTP
	// dialogue to anchor on, the scorer starts from the fallback method's
	// fixed contribution instead.
	FallbackConfidence int
}

// ConfidenceAssessment is the scorer's output. The score and reasoning are
// always computed; callers apply OverrideToInvalid only in aggressive mode.
type ConfidenceAssessment struct {
	Score             int
	Level             string
	OverrideToInvalid bool
	Reasoning         []string
}

// The weights below are empirically chosen. Treat them as tunable
// constants, not physical constraints.
const (
	scoreBase          = 50
	weightSMTPAccepted = 30
	weightSMTPRejected = -40
)

var bounceRiskWeights = map[string]int{
	BounceRiskHigh:   -35,
	BounceRiskMedium: -15,
	BounceRiskLow:    10,
}

var flagWeights = map[string]int{
	FlagCatchallDomain:      -25,
	FlagDisposableEmail:     -40,
	FlagInvalidFormat:       -45,
	FlagUserUnknown:         -20,
	FlagAntiSpamPolicy:      -10,
	FlagTemporarilyRejected: -10,
	FlagConnectionError:     -15,
	FlagMailSubdomainFound:  10,
	FlagSMTPPortOpen:        15,
	FlagSPFDMARCFound:       5,
}

var riskFactorWeights = map[string]int{
	RiskDomainNotFound: -50,
	RiskNoMXRecords:    -30,
	RiskDNSIssues:      -20,
}

// overrideRules name the explicit conditions that force the override
// decision, as a rule table rather than nested conditionals so each
// condition stays auditable and testable on its own.
type overrideRule struct {
	name string
	hit  func(in ScoreInput, score int) bool
}

var overrideRules = []overrideRule{
	{"disposable provider", func(in ScoreInput, _ int) bool {
		return containsString(in.Flags, FlagDisposableEmail)
	}},
	{"invalid format", func(in ScoreInput, _ int) bool {
		return containsString(in.Flags, FlagInvalidFormat)
	}},
	{"no mail exchangers", func(in ScoreInput, _ int) bool {
		return containsString(in.RiskFactors, RiskNoMXRecords)
	}},
	{"domain not found", func(in ScoreInput, _ int) bool {
		return containsString(in.RiskFactors, RiskDomainNotFound)
	}},
	{"very low confidence", func(_ ScoreInput, score int) bool {
		return score < 20
	}},
	{"high-risk catch-all acceptance", func(in ScoreInput, _ int) bool {
		return containsString(in.Flags, FlagCatchallDomain) &&
			in.BounceRisk == BounceRiskHigh &&
			in.SMTPAccepted
	}},
}

// scoreConfidence combines the SMTP outcome, reputation tier, flags and
// fallback results into a 0-100 score, a level and the override decision.
func scoreConfidence(in ScoreInput) ConfidenceAssessment {
	score := scoreBase
	reasoning := []string{fmt.Sprintf("base score %d", scoreBase)}

	if in.FallbackConfidence > 0 {
		score = in.FallbackConfidence
		reasoning = []string{fmt.Sprintf("fallback probe confidence %d used as base", in.FallbackConfidence)}
	}

	if in.SMTPProbed {
		if in.SMTPAccepted {
			score += weightSMTPAccepted
			reasoning = append(reasoning, fmt.Sprintf("smtp accepted recipient (%+d)", weightSMTPAccepted))
		} else if in.SMTPRejected {
			score += weightSMTPRejected
			reasoning = append(reasoning, fmt.Sprintf("smtp rejected recipient (%+d)", weightSMTPRejected))
		}
	}

	if w, ok := bounceRiskWeights[in.BounceRisk]; ok {
		score += w
		reasoning = append(reasoning, fmt.Sprintf("bounce risk %s (%+d)", in.BounceRisk, w))
	}

	for _, flag := range in.Flags {
		if w, ok := flagWeights[flag]; ok {
			score += w
			reasoning = append(reasoning, fmt.Sprintf("flag %s (%+d)", flag, w))
		}
	}
	for _, factor := range in.RiskFactors {
		if w, ok := riskFactorWeights[factor]; ok {
			score += w
			reasoning = append(reasoning, fmt.Sprintf("risk factor %s (%+d)", factor, w))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	out := ConfidenceAssessment{
		Score:     score,
		Level:     confidenceLevel(score),
		Reasoning: reasoning,
	}
	for _, rule := range overrideRules {
		if rule.hit(in, score) {
			out.OverrideToInvalid = true
			out.Reasoning = append(out.Reasoning, "override condition met: "+rule.name)
			break
		}
	}
	return out
}

func confidenceLevel(score int) string {
	switch {
	case score >= 85:
		return ConfidenceVeryHigh
	case score >= 70:
		return ConfidenceHigh
	case score >= 50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
