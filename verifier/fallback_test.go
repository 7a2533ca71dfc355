package verifier

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestFallbackMailSubdomain(t *testing.T) {
	r := newFakeResolver(func(msg *dns.Msg) (*dns.Msg, error) {
		name := msg.Question[0].Name
		if msg.Question[0].Qtype == dns.TypeA && name == "mail.example.com." {
			return respond(msg, dns.RcodeSuccess, answerA(name, "192.0.2.20")), nil
		}
		return respond(msg, dns.RcodeSuccess), nil
	})
	p := newFallbackProber(r, time.Second)
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		t.Fatalf("dial should not run when a subdomain resolves, got %s", address)
		return nil, nil
	}

	res := p.probe(context.Background(), "example.com")
	assert.True(t, res.CanReceive)
	assert.Equal(t, "mail_subdomain", res.Method)
	assert.Equal(t, fallbackConfidenceSubdomain, res.Confidence)
	assert.Contains(t, res.Flags, FlagMailSubdomainFound)
}

func TestFallbackSMTPPort(t *testing.T) {
	r := newFakeResolver(func(msg *dns.Msg) (*dns.Msg, error) {
		return respond(msg, dns.RcodeSuccess), nil
	})
	p := newFallbackProber(r, time.Second)
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		if strings.HasSuffix(address, ":587") {
			server, client := net.Pipe()
			t.Cleanup(func() { _ = server.Close() })
			return client, nil
		}
		return nil, errors.New("connection refused")
	}

	res := p.probe(context.Background(), "example.com")
	assert.True(t, res.CanReceive)
	assert.Equal(t, "smtp_port", res.Method)
	assert.Equal(t, fallbackConfidencePort, res.Confidence)
	assert.Contains(t, res.Flags, FlagSMTPPortOpen)
}

func TestFallbackPolicyRecords(t *testing.T) {
	r := newFakeResolver(func(msg *dns.Msg) (*dns.Msg, error) {
		name := msg.Question[0].Name
		if msg.Question[0].Qtype == dns.TypeTXT && name == "example.com." {
			return respond(msg, dns.RcodeSuccess, answerTXT(name, "v=spf1 mx ~all")), nil
		}
		return respond(msg, dns.RcodeSuccess), nil
	})
	p := newFallbackProber(r, time.Second)
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	res := p.probe(context.Background(), "example.com")
	assert.True(t, res.CanReceive)
	assert.Equal(t, "dns_policy_records", res.Method)
	assert.Equal(t, fallbackConfidenceTXT, res.Confidence)
	assert.Contains(t, res.Flags, FlagSPFDMARCFound)
}

func TestFallbackDMARCRecord(t *testing.T) {
	r := newFakeResolver(func(msg *dns.Msg) (*dns.Msg, error) {
		name := msg.Question[0].Name
		if msg.Question[0].Qtype == dns.TypeTXT && name == "_dmarc.example.com." {
			return respond(msg, dns.RcodeSuccess, answerTXT(name, "v=DMARC1; p=reject")), nil
		}
		return respond(msg, dns.RcodeSuccess), nil
	})
	p := newFallbackProber(r, time.Second)
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	res := p.probe(context.Background(), "example.com")
	assert.True(t, res.CanReceive)
	assert.Equal(t, "dns_policy_records", res.Method)
}

func TestFallbackNone(t *testing.T) {
	r := newFakeResolver(func(msg *dns.Msg) (*dns.Msg, error) {
		return respond(msg, dns.RcodeSuccess), nil
	})
	p := newFallbackProber(r, time.Second)
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	res := p.probe(context.Background(), "example.com")
	assert.False(t, res.CanReceive)
	assert.Equal(t, "none", res.Method)
	assert.Equal(t, fallbackConfidenceNone, res.Confidence)
	assert.Empty(t, res.Flags)
}
