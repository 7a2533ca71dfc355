// Package verifier implements the email deliverability validation engine:
// format and disposable filtering, DNS resolution with typed error
// classification, a raw SMTP recipient probe with in-place STARTTLS
// upgrade, heuristic catch-all detection, reputation classification and
// weighted confidence scoring.
//
// Every validation call is self-contained: no state outlives one request
// and nothing is shared across concurrent validations, so callers may run
// any number of validations in parallel without coordination.
package verifier

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Classification values for ValidationResult.Result.
const (
	ResultValid      = "valid"
	ResultInvalid    = "invalid"
	ResultUnknown    = "unknown"
	ResultDisposable = "disposable"
	ResultCatchall   = "catchall"
	ResultRisky      = "risky"
)

// Flags attached to a ValidationResult.
const (
	FlagInvalidFormat       = "invalid_format"
	FlagDisposableEmail     = "disposable_email"
	FlagPossibleTypo        = "possible_typo"
	FlagDomainNotFound      = "domain_not_found"
	FlagCatchallDomain      = "catchall_domain"
	FlagCatchallHint        = "catchall_hint"
	FlagAntiSpamPolicy      = "anti_spam_policy"
	FlagUserUnknown         = "user_unknown"
	FlagConnectionError     = "connection_error"
	FlagUnexpectedGreeting  = "unexpected_greeting"
	FlagGreetingRejected    = "greeting_rejected"
	FlagMailFromRejected    = "mail_from_rejected"
	FlagTLSNotEstablished   = "tls_not_established"
	FlagTemporarilyRejected = "temporarily_rejected"
	FlagServiceUnavailable  = "service_unavailable"
	FlagUnexpectedReply     = "unexpected_reply"
	FlagMailSubdomainFound  = "mail_subdomain_found"
	FlagSMTPPortOpen        = "smtp_port_open"
	FlagSPFDMARCFound       = "spf_dmarc_found"
	FlagInternalError       = "internal_error"
)

// Risk factors produced by the reputation classifier.
const (
	RiskDomainNotFound = "domain_not_found"
	RiskNoMXRecords    = "no_mx_records"
	RiskDNSIssues      = "dns_issues"
)

// Verdict confidences for terminal early exits, where no probe ran and the
// weighted scorer therefore has nothing to weigh.
const (
	confidenceInvalidFormat = 98
	confidenceDisposable    = 95
	confidenceNXDomain      = 95
)

// ValidationResult is the terminal artifact of one validation. It is
// immutable once returned; the orchestrator is its sole creator.
type ValidationResult struct {
	Email               string   `json:"email"`
	IsValid             bool     `json:"isValid"`
	Deliverable         bool     `json:"deliverable"`
	Result              string   `json:"result"`
	Flags               []string `json:"flags"`
	SuggestedCorrection *string  `json:"suggested_correction"`
	ExecutionTime       int64    `json:"execution_time"`
	Message             string   `json:"message"`
	Timestamp           string   `json:"timestamp"`
	BounceRisk          string   `json:"bounceRisk"`
	ReputationFlags     []string `json:"reputationFlags"`
	RiskFactors         []string `json:"riskFactors"`
	Confidence          int      `json:"confidence"`
	ConfidenceLevel     string   `json:"confidenceLevel"`
	Reasoning           []string `json:"reasoning"`
	AggressiveMode      bool     `json:"aggressiveMode"`
	WHOIS               string   `json:"whois,omitempty"`
}

// Config holds the engine tunables. Zero values fall back to defaults.
type Config struct {
	// HeloDomain is the identity sent in EHLO. MailFrom is the sender used
	// for the non-destructive MAIL FROM probe.
	HeloDomain string
	MailFrom   string
	SMTPPort   string

	DNSServers []string
	DNSTimeout time.Duration

	ConnectTimeout      time.Duration
	ReplyTimeout        time.Duration
	DialogueTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	FallbackPortTimeout time.Duration

	// CatchallProbes is clamped to 2..3. CatchallProbeDelay spaces the
	// sequential synthetic probes so the remote server does not see a burst.
	CatchallProbes     int
	CatchallProbeDelay time.Duration

	// MaxMXHosts bounds how many exchangers are tried on connection errors.
	MaxMXHosts int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		HeloDomain:          "verifier.local",
		MailFrom:            "postmaster@verifier.local",
		SMTPPort:            "25",
		DNSTimeout:          5 * time.Second,
		ConnectTimeout:      10 * time.Second,
		ReplyTimeout:        5 * time.Second,
		DialogueTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		FallbackPortTimeout: 3 * time.Second,
		CatchallProbes:      3,
		CatchallProbeDelay:  400 * time.Millisecond,
		MaxMXHosts:          2,
	}
}

// Verifier sequences the validation pipeline. Safe for concurrent use: each
// Validate call owns its sockets and data structures exclusively.
type Verifier struct {
	cfg      Config
	resolver *Resolver
	prober   *Prober

	// Seams injectable for tests.
	resolve  func(ctx context.Context, domain string) DNSOutcome
	probe    func(ctx context.Context, address, mxHost string) SMTPProbeResult
	fallback func(ctx context.Context, domain string) FallbackResult
}

// New creates a Verifier, filling unset Config fields with defaults.
func New(cfg Config) *Verifier {
	def := DefaultConfig()
	if cfg.HeloDomain == "" {
		cfg.HeloDomain = def.HeloDomain
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = def.MailFrom
	}
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = def.SMTPPort
	}
	if cfg.DNSTimeout == 0 {
		cfg.DNSTimeout = def.DNSTimeout
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.ReplyTimeout == 0 {
		cfg.ReplyTimeout = def.ReplyTimeout
	}
	if cfg.DialogueTimeout == 0 {
		cfg.DialogueTimeout = def.DialogueTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if cfg.FallbackPortTimeout == 0 {
		cfg.FallbackPortTimeout = def.FallbackPortTimeout
	}
	if cfg.CatchallProbes == 0 {
		cfg.CatchallProbes = def.CatchallProbes
	}
	if cfg.CatchallProbeDelay == 0 {
		cfg.CatchallProbeDelay = def.CatchallProbeDelay
	}
	if cfg.MaxMXHosts == 0 {
		cfg.MaxMXHosts = def.MaxMXHosts
	}

	resolver := NewResolver(cfg.DNSServers, cfg.DNSTimeout)
	prober := NewProber(cfg)
	fb := newFallbackProber(resolver, cfg.FallbackPortTimeout)

	return &Verifier{
		cfg:      cfg,
		resolver: resolver,
		prober:   prober,
		resolve:  resolver.Resolve,
		probe:    prober.Probe,
		fallback: fb.probe,
	}
}

// Validate runs the full pipeline for one address. It never returns an
// error and never panics past this boundary: unexpected failures become an
// "unknown" classification with the triggering message preserved.
func (v *Verifier) Validate(ctx context.Context, email string, aggressive bool) (result *ValidationResult) {
	started := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	result = &ValidationResult{
		Email:           email,
		Result:          ResultUnknown,
		Flags:           []string{},
		ReputationFlags: []string{},
		RiskFactors:     []string{},
		Reasoning:       []string{},
		BounceRisk:      BounceRiskHigh,
		ConfidenceLevel: ConfidenceLow,
		AggressiveMode:  aggressive,
	}
	defer func() {
		if r := recover(); r != nil {
			result.Result = ResultUnknown
			result.IsValid = false
			result.Deliverable = false
			result.Flags = mergeUnique(result.Flags, FlagInternalError)
			result.Message = fmt.Sprintf("validation aborted by internal error: %v", r)
		}
		result.ExecutionTime = time.Since(started).Milliseconds()
		result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}()

	// Format check: pure, terminal, zero network calls.
	local, domain, ok := splitAddress(email)
	if !ok || !checkFormat(email) {
		result.Result = ResultInvalid
		result.Flags = append(result.Flags, FlagInvalidFormat)
		result.Message = "address does not look like a valid email"
		result.Confidence = confidenceInvalidFormat
		result.ConfidenceLevel = confidenceLevel(result.Confidence)
		result.Reasoning = append(result.Reasoning, "format check failed; no network probing performed")
		return result
	}

	// Disposable check: terminal regardless of SMTP reachability.
	if isDisposableDomain(domain) {
		result.Result = ResultDisposable
		result.Flags = append(result.Flags, FlagDisposableEmail)
		result.Message = "domain belongs to a known disposable mail provider"
		result.Confidence = confidenceDisposable
		result.ConfidenceLevel = confidenceLevel(result.Confidence)
		result.Reasoning = append(result.Reasoning, "disposable provider list matched the domain")
		return result
	}

	// A typo suggestion never fails validation on its own.
	if corrected := suggestCorrection(local, domain); corrected != "" {
		result.SuggestedCorrection = &corrected
		result.Flags = append(result.Flags, FlagPossibleTypo)
	}

	outcome := v.resolve(ctx, domain)
	switch outcome.Kind {
	case OutcomeNXDomain:
		rep := classifyReputation(domain, outcome)
		result.Result = ResultInvalid
		result.Flags = mergeUnique(result.Flags, FlagDomainNotFound)
		result.BounceRisk = rep.BounceRisk
		result.ReputationFlags = rep.Flags
		result.RiskFactors = rep.RiskFactors
		result.Message = "domain does not exist"
		result.Confidence = confidenceNXDomain
		result.ConfidenceLevel = confidenceLevel(result.Confidence)
		result.Reasoning = append(result.Reasoning, "DNS reported NXDOMAIN, the highest-confidence invalid signal")
		return result

	case OutcomeFound:
		return v.validateViaSMTP(ctx, result, email, domain, outcome, aggressive)

	default:
		// NODATA, timeout, server failure or an odd rcode: ambiguous, so
		// try to salvage a partial signal before giving up.
		return v.validateViaFallback(ctx, result, domain, outcome, aggressive)
	}
}

// validateViaSMTP handles the happy DNS path: probe the most-preferred
// exchanger, detect catch-all behavior when the base probe was clean, then
// classify and score.
func (v *Verifier) validateViaSMTP(ctx context.Context, result *ValidationResult, email, domain string, outcome DNSOutcome, aggressive bool) *ValidationResult {
	hosts := outcome.PrimaryMX(v.cfg.MaxMXHosts)
	var probe SMTPProbeResult
	var mxHost string
	for i, host := range hosts {
		probe = v.probe(ctx, email, host)
		mxHost = host
		// Only connection-level failures justify moving to a backup MX.
		if !containsString(probe.Flags, FlagConnectionError) || i == len(hosts)-1 {
			break
		}
	}
	result.Flags = mergeUnique(result.Flags, probe.Flags...)

	rep := classifyReputation(domain, outcome)
	result.BounceRisk = rep.BounceRisk
	result.ReputationFlags = rep.Flags
	result.RiskFactors = rep.RiskFactors

	var catchall CatchallAssessment
	if probe.Accepted {
		catchall = v.detectCatchall(ctx, domain, mxHost)
		if catchall.IsCatchall {
			result.Flags = mergeUnique(result.Flags, FlagCatchallDomain)
		}
	}

	conf := scoreConfidence(ScoreInput{
		SMTPProbed:   probe.ReachedRcpt(),
		SMTPAccepted: probe.Accepted,
		SMTPRejected: probe.ReachedRcpt() && probe.Rejected(),
		BounceRisk:   rep.BounceRisk,
		Flags:        result.Flags,
		RiskFactors:  rep.RiskFactors,
	})
	result.Confidence = conf.Score
	result.ConfidenceLevel = conf.Level
	result.Reasoning = append(result.Reasoning, conf.Reasoning...)

	switch {
	case probe.Accepted && catchall.IsCatchall:
		accepted := 0
		for _, p := range catchall.Probes {
			if p.Accepted {
				accepted++
			}
		}
		result.Result = ResultCatchall
		result.IsValid = true
		result.Deliverable = false
		result.Message = fmt.Sprintf("domain accepts all recipients (%d/%d synthetic probes accepted)", accepted, len(catchall.Probes))
	case probe.Accepted:
		result.Result = ResultValid
		result.IsValid = true
		result.Deliverable = true
		result.Message = "mailbox accepted the recipient probe"
	case !probe.ReachedRcpt():
		result.Result = ResultUnknown
		result.Message = "SMTP dialogue could not be completed: " + probe.ReplyText
	case probe.Rejected():
		result.Result = ResultInvalid
		result.Message = fmt.Sprintf("mailbox rejected the probe: %d %s", probe.ReplyCode, probe.ReplyText)
	case probe.Temporary() || probe.ReplyCode == 421:
		result.Result = ResultUnknown
		result.Message = fmt.Sprintf("server deferred the probe: %d %s", probe.ReplyCode, probe.ReplyText)
	default:
		result.Result = ResultUnknown
		result.Message = fmt.Sprintf("unexpected SMTP reply: %d %s", probe.ReplyCode, probe.ReplyText)
	}

	v.applyOverride(result, conf, aggressive)
	return result
}

// validateViaFallback handles ambiguous DNS failures by probing
// mail-related subdomains, SMTP ports and DNS policy records.
func (v *Verifier) validateViaFallback(ctx context.Context, result *ValidationResult, domain string, outcome DNSOutcome, aggressive bool) *ValidationResult {
	fb := v.fallback(ctx, domain)
	result.Flags = mergeUnique(result.Flags, fb.Flags...)

	rep := classifyReputation(domain, outcome)
	result.BounceRisk = rep.BounceRisk
	result.ReputationFlags = rep.Flags
	result.RiskFactors = rep.RiskFactors

	conf := scoreConfidence(ScoreInput{
		BounceRisk:         rep.BounceRisk,
		Flags:              result.Flags,
		RiskFactors:        rep.RiskFactors,
		FallbackConfidence: fb.Confidence,
	})
	result.Confidence = conf.Score
	result.ConfidenceLevel = conf.Level
	result.Reasoning = append(result.Reasoning, conf.Reasoning...)

	switch {
	case fb.CanReceive:
		result.Result = ResultRisky
		result.IsValid = true
		result.Deliverable = false
		result.Message = fmt.Sprintf("MX lookup failed (%s) but %s probing suggests the domain can receive mail", outcome.Kind, fb.Method)
	case outcome.Kind == OutcomeNoRecords:
		result.Result = ResultInvalid
		result.Message = "domain exists but has no mail infrastructure"
	default:
		result.Result = ResultUnknown
		result.Message = fmt.Sprintf("DNS resolution was inconclusive (%s) and no fallback signal was found", outcome.Kind)
	}

	v.applyOverride(result, conf, aggressive)
	return result
}

// applyOverride enforces the scorer's override decision, which is only
// acted on when the caller opted into aggressive mode.
func (v *Verifier) applyOverride(result *ValidationResult, conf ConfidenceAssessment, aggressive bool) {
	if !aggressive || !conf.OverrideToInvalid || result.Result == ResultInvalid {
		return
	}
	result.Result = ResultInvalid
	result.IsValid = false
	result.Deliverable = false
	result.Reasoning = append(result.Reasoning, "aggressive mode applied the override to invalid")
}

func mergeUnique(dst []string, src ...string) []string {
	for _, s := range src {
		if !containsString(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
