package verifier

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DNSOutcomeKind classifies the result of resolving a domain. Every
// downstream component branches on this classification, so the distinction
// between "domain does not exist" and "domain exists without mail
// exchangers" must never be collapsed.
type DNSOutcomeKind int

const (
	// OutcomeFound means the domain exists and has at least one MX record.
	OutcomeFound DNSOutcomeKind = iota
	// OutcomeNXDomain means the domain does not exist at all. This is the
	// highest-confidence invalid signal the engine can observe.
	OutcomeNXDomain
	// OutcomeNoRecords means the domain exists but advertises no mail
	// exchangers (NODATA).
	OutcomeNoRecords
	// OutcomeTimeout means the resolver did not answer in time.
	OutcomeTimeout
	// OutcomeServerFailure means the resolver answered SERVFAIL or the
	// query failed for a transient reason. Never treat as permanently
	// invalid.
	OutcomeServerFailure
	// OutcomeOther covers unexpected rcodes; Rcode carries the raw value.
	OutcomeOther
)

func (k DNSOutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeNXDomain:
		return "nxdomain"
	case OutcomeNoRecords:
		return "no_records"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeServerFailure:
		return "server_failure"
	default:
		return "other"
	}
}

// MXRecord is one mail exchanger; lower priority means higher preference.
type MXRecord struct {
	Exchange string
	Priority uint16
}

// DNSOutcome is the classified result of resolving a domain.
type DNSOutcome struct {
	Kind      DNSOutcomeKind
	Rcode     int        // raw rcode, populated for OutcomeOther
	Addresses []string   // A/AAAA answers for the bare domain
	MXRecords []MXRecord // sorted ascending by priority
}

// PrimaryMX returns the most-preferred exchanger hosts, at most n.
func (o DNSOutcome) PrimaryMX(n int) []string {
	if n <= 0 || n > len(o.MXRecords) {
		n = len(o.MXRecords)
	}
	hosts := make([]string, 0, n)
	for _, rec := range o.MXRecords[:n] {
		hosts = append(hosts, rec.Exchange)
	}
	return hosts
}

type exchangeFunc func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error)

// Resolver performs raw DNS queries so rcodes stay observable. The stdlib
// resolver folds NXDOMAIN, NODATA and SERVFAIL into one opaque error, which
// is exactly the information this engine cannot afford to lose.
type Resolver struct {
	servers  []string
	exchange exchangeFunc // injectable for tests
}

// NewResolver creates a resolver that queries the given servers in order
// until one answers. Servers are "host:port" strings.
func NewResolver(servers []string, timeout time.Duration) *Resolver {
	if len(servers) == 0 {
		servers = []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	client := &dns.Client{Timeout: timeout}
	return &Resolver{
		servers: servers,
		exchange: func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
			resp, _, err := client.ExchangeContext(ctx, msg, server)
			return resp, err
		},
	}
}

// Resolve establishes domain existence via A records (falling back to AAAA)
// and independently fetches MX records sorted ascending by priority.
func (r *Resolver) Resolve(ctx context.Context, domain string) DNSOutcome {
	fqdn := dns.Fqdn(domain)

	aResp, err := r.query(ctx, fqdn, dns.TypeA)
	if err != nil {
		return DNSOutcome{Kind: classifyQueryError(err)}
	}
	if aResp.Rcode == dns.RcodeNameError {
		return DNSOutcome{Kind: OutcomeNXDomain}
	}
	addresses := extractAddresses(aResp)
	if len(addresses) == 0 {
		if aaaaResp, aaaaErr := r.query(ctx, fqdn, dns.TypeAAAA); aaaaErr == nil {
			if aaaaResp.Rcode == dns.RcodeNameError {
				return DNSOutcome{Kind: OutcomeNXDomain}
			}
			addresses = extractAddresses(aaaaResp)
		}
	}

	mxResp, err := r.query(ctx, fqdn, dns.TypeMX)
	if err != nil {
		return DNSOutcome{Kind: classifyQueryError(err), Addresses: addresses}
	}
	switch mxResp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		// The A query already proved existence; treat as NODATA.
		return DNSOutcome{Kind: OutcomeNoRecords, Addresses: addresses}
	case dns.RcodeServerFailure:
		return DNSOutcome{Kind: OutcomeServerFailure, Addresses: addresses}
	default:
		return DNSOutcome{Kind: OutcomeOther, Rcode: mxResp.Rcode, Addresses: addresses}
	}

	records := extractMX(mxResp)
	if len(records) == 0 {
		return DNSOutcome{Kind: OutcomeNoRecords, Addresses: addresses}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Priority < records[j].Priority
	})
	return DNSOutcome{Kind: OutcomeFound, Addresses: addresses, MXRecords: records}
}

// lookupA reports whether the host resolves to at least one A record.
func (r *Resolver) lookupA(ctx context.Context, host string) bool {
	resp, err := r.query(ctx, dns.Fqdn(host), dns.TypeA)
	if err != nil || resp.Rcode != dns.RcodeSuccess {
		return false
	}
	return len(extractAddresses(resp)) > 0
}

// lookupTXT returns the TXT strings for the host, best effort.
func (r *Resolver) lookupTXT(ctx context.Context, host string) []string {
	resp, err := r.query(ctx, dns.Fqdn(host), dns.TypeTXT)
	if err != nil || resp.Rcode != dns.RcodeSuccess {
		return nil
	}
	var out []string
	for _, ans := range resp.Answer {
		if txt, ok := ans.(*dns.TXT); ok {
			out = append(out, strings.Join(txt.Txt, ""))
		}
	}
	return out
}

func (r *Resolver) query(ctx context.Context, fqdn string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, err := r.exchange(ctx, msg, server)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func classifyQueryError(err error) DNSOutcomeKind {
	if isTimeoutError(err) {
		return OutcomeTimeout
	}
	return OutcomeServerFailure
}

func isTimeoutError(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func extractAddresses(resp *dns.Msg) []string {
	var out []string
	for _, ans := range resp.Answer {
		switch rr := ans.(type) {
		case *dns.A:
			out = append(out, rr.A.String())
		case *dns.AAAA:
			out = append(out, rr.AAAA.String())
		}
	}
	return out
}

func extractMX(resp *dns.Msg) []MXRecord {
	var out []MXRecord
	for _, ans := range resp.Answer {
		if mx, ok := ans.(*dns.MX); ok {
			out = append(out, MXRecord{
				Exchange: strings.TrimSuffix(mx.Mx, "."),
				Priority: mx.Preference,
			})
		}
	}
	return out
}
