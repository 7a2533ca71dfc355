package verifier

import (
	"context"
	"net"
	"strings"
	"time"
)

// Fixed confidence contributions per fallback method, consumed by the
// confidence scorer.
const (
	fallbackConfidenceSubdomain = 60
	fallbackConfidencePort      = 70
	fallbackConfidenceTXT       = 50
	fallbackConfidenceNone      = 10
)

var (
	mailSubdomains    = []string{"mail.", "smtp.", "mx.", "mx1.", "mx2."}
	fallbackSMTPPorts = []string{"25", "587", "465"}
)

// FallbackResult is the salvaged signal produced when MX resolution failed
// in an ambiguous way.
type FallbackResult struct {
	CanReceive bool
	Method     string
	Confidence int
	Flags      []string
}

// fallbackProber tries to salvage a partial mail-capability signal for a
// domain whose MX lookup failed with NODATA, timeout or server failure. It
// is never invoked for NXDOMAIN.
type fallbackProber struct {
	resolver    *Resolver
	portTimeout time.Duration
	dial        dialFunc // injectable for tests
}

func newFallbackProber(resolver *Resolver, portTimeout time.Duration) *fallbackProber {
	p := &fallbackProber{resolver: resolver, portTimeout: portTimeout}
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		d := net.Dialer{Timeout: p.portTimeout}
		return d.DialContext(ctx, network, address)
	}
	return p
}

// probe runs the fallback methods in order until one succeeds: mail-related
// subdomains, SMTP ports on the bare domain, then SPF/DKIM/DMARC markers in
// TXT records.
func (p *fallbackProber) probe(ctx context.Context, domain string) FallbackResult {
	for _, sub := range mailSubdomains {
		if p.resolver.lookupA(ctx, sub+domain) {
			return FallbackResult{
				CanReceive: true,
				Method:     "mail_subdomain",
				Confidence: fallbackConfidenceSubdomain,
				Flags:      []string{FlagMailSubdomainFound},
			}
		}
	}

	for _, port := range fallbackSMTPPorts {
		conn, err := p.dial(ctx, "tcp", net.JoinHostPort(domain, port))
		if err != nil {
			continue
		}
		_ = conn.Close()
		return FallbackResult{
			CanReceive: true,
			Method:     "smtp_port",
			Confidence: fallbackConfidencePort,
			Flags:      []string{FlagSMTPPortOpen},
		}
	}

	if p.hasMailPolicyRecords(ctx, domain) {
		return FallbackResult{
			CanReceive: true,
			Method:     "dns_policy_records",
			Confidence: fallbackConfidenceTXT,
			Flags:      []string{FlagSPFDMARCFound},
		}
	}

	return FallbackResult{
		CanReceive: false,
		Method:     "none",
		Confidence: fallbackConfidenceNone,
		Flags:      []string{},
	}
}

// hasMailPolicyRecords opportunistically inspects TXT records for SPF, DKIM
// or DMARC markers. This is a presence check only, not a policy evaluation.
func (p *fallbackProber) hasMailPolicyRecords(ctx context.Context, domain string) bool {
	records := p.resolver.lookupTXT(ctx, domain)
	records = append(records, p.resolver.lookupTXT(ctx, "_dmarc."+domain)...)
	for _, txt := range records {
		lower := strings.ToLower(txt)
		if strings.HasPrefix(lower, "v=spf1") ||
			strings.HasPrefix(lower, "v=dmarc1") ||
			strings.Contains(lower, "dkim") {
			return true
		}
	}
	return false
}
