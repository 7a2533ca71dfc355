package verifier

import "strings"

// Bounce-risk tiers.
const (
	BounceRiskLow    = "low"
	BounceRiskMedium = "medium"
	BounceRiskHigh   = "high"
)

// ReputationAssessment maps domain and provider characteristics to a
// qualitative bounce-risk tier.
type ReputationAssessment struct {
	BounceRisk  string
	Flags       []string
	RiskFactors []string
}

// Large consumer providers with notoriously aggressive inbound filtering.
var highRiskProviders = map[string]bool{
	"yahoo.com":   true,
	"yahoo.co.uk": true,
	"aol.com":     true,
	"hotmail.com": true,
	"live.com":    true,
	"msn.com":     true,
}

var mediumRiskProviders = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"outlook.com":    true,
	"icloud.com":     true,
	"me.com":         true,
	"zoho.com":       true,
	"gmx.com":        true,
	"mail.com":       true,
	"yandex.com":     true,
	"protonmail.com": true,
	"proton.me":      true,
}

var institutionalTLDs = []string{".edu", ".gov", ".org"}

// classifyReputation is a pure function of the domain string and the DNS
// outcome; it performs no network I/O beyond the MX data the resolver
// already fetched. DNS-layer failures are bridged into the risk vocabulary
// here so the scorer only ever sees flags and risk factors.
func classifyReputation(domain string, outcome DNSOutcome) ReputationAssessment {
	rep := ReputationAssessment{
		BounceRisk:  BounceRiskLow,
		Flags:       []string{},
		RiskFactors: []string{},
	}
	domain = strings.ToLower(domain)

	switch {
	case highRiskProviders[domain]:
		rep.BounceRisk = BounceRiskHigh
		rep.Flags = append(rep.Flags, "free_provider", "aggressive_spam_filtering")
	case mediumRiskProviders[domain]:
		rep.BounceRisk = BounceRiskMedium
		rep.Flags = append(rep.Flags, "free_provider")
	default:
		for _, tld := range institutionalTLDs {
			if strings.HasSuffix(domain, tld) {
				rep.Flags = append(rep.Flags, "institutional_domain")
				break
			}
		}
	}

	if len(outcome.MXRecords) == 1 &&
		strings.Contains(strings.ToLower(outcome.MXRecords[0].Exchange), "mail.") {
		rep.Flags = append(rep.Flags, "simple_mx_setup")
	}

	switch outcome.Kind {
	case OutcomeNXDomain:
		rep.RiskFactors = append(rep.RiskFactors, RiskDomainNotFound)
		rep.BounceRisk = BounceRiskHigh
	case OutcomeNoRecords:
		rep.RiskFactors = append(rep.RiskFactors, RiskNoMXRecords)
		rep.BounceRisk = BounceRiskHigh
	case OutcomeTimeout, OutcomeServerFailure, OutcomeOther:
		rep.RiskFactors = append(rep.RiskFactors, RiskDNSIssues)
		if rep.BounceRisk == BounceRiskLow {
			rep.BounceRisk = BounceRiskMedium
		}
	}

	return rep
}
