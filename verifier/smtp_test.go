package verifier

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exchange pairs the command prefix the server expects with the reply it
// sends back. Replies may span multiple lines.
type exchange struct {
	expect string
	reply  string
}

// newScriptedProber wires a Prober to an in-memory server that speaks the
// given script over a net.Pipe.
func newScriptedProber(t *testing.T, greeting string, script []exchange) *Prober {
	t.Helper()
	server, client := net.Pipe()

	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		if _, err := server.Write([]byte(greeting + "\r\n")); err != nil {
			return
		}
		for _, ex := range script {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if !strings.HasPrefix(line, ex.expect) {
				t.Errorf("server expected %q, got %q", ex.expect, strings.TrimSpace(line))
				return
			}
			if _, err := server.Write([]byte(ex.reply + "\r\n")); err != nil {
				return
			}
		}
		// Drain the QUIT so the client's farewell write does not block.
		if line, err := r.ReadString('\n'); err == nil && strings.HasPrefix(line, "QUIT") {
			_, _ = server.Write([]byte("221 bye\r\n"))
		}
	}()

	p := NewProber(Config{
		HeloDomain:          "probe.test",
		MailFrom:            "postmaster@probe.test",
		SMTPPort:            "25",
		ConnectTimeout:      time.Second,
		ReplyTimeout:        2 * time.Second,
		DialogueTimeout:     10 * time.Second,
		TLSHandshakeTimeout: time.Second,
	})
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		return client, nil
	}
	return p
}

func TestProbeAccepted(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250-mx.example.com\r\n250 SIZE 35882577"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "250 2.1.5 OK"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.True(t, res.Accepted)
	assert.Equal(t, 250, res.ReplyCode)
	assert.True(t, res.ReachedRcpt())
	assert.Empty(t, res.Flags)
}

func TestProbeUserUnknown(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250 mx.example.com"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "550 5.1.1 no such user here"},
	})

	res := p.Probe(context.Background(), "ghost@example.com", "mx.example.com")
	assert.False(t, res.Accepted)
	assert.True(t, res.Rejected())
	assert.True(t, res.ReachedRcpt())
	assert.Contains(t, res.Flags, FlagUserUnknown)
}

func TestProbeTemporaryRejection(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250 mx.example.com"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "450 4.2.0 greylisted, come back in 5 minutes"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.False(t, res.Accepted)
	assert.True(t, res.Temporary())
	assert.Contains(t, res.Flags, FlagTemporarilyRejected)
}

func TestProbeServiceUnavailable(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250 mx.example.com"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "421 4.7.0 service not available, closing transmission channel"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.False(t, res.Accepted)
	assert.Equal(t, 421, res.ReplyCode)
	assert.Contains(t, res.Flags, FlagServiceUnavailable)
}

func TestProbeUnexpectedGreeting(t *testing.T) {
	p := newScriptedProber(t, "554 no SMTP service here", nil)

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.False(t, res.Accepted)
	assert.False(t, res.ReachedRcpt())
	assert.Contains(t, res.Flags, FlagUnexpectedGreeting)
}

func TestProbeMailFromRejected(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250 mx.example.com"},
		{"MAIL FROM", "550 5.7.1 sender blocked"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.False(t, res.Accepted)
	assert.False(t, res.ReachedRcpt())
	assert.Contains(t, res.Flags, FlagMailFromRejected)
}

func TestProbeCatchallHintInReplyText(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250 mx.example.com"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "250 this domain accepts all recipients"},
	})

	res := p.Probe(context.Background(), "anything@example.com", "mx.example.com")
	assert.True(t, res.Accepted)
	assert.Contains(t, res.Flags, FlagCatchallHint)
}

func TestProbeAntiSpamPolicyText(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250 mx.example.com"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "550 5.7.1 blocked by spam policy"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.True(t, res.Rejected())
	assert.Contains(t, res.Flags, FlagAntiSpamPolicy)
}

func TestProbeSTARTTLSRefusedContinuesPlaintext(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com ESMTP", []exchange{
		{"EHLO", "250-mx.example.com\r\n250-STARTTLS\r\n250 OK"},
		{"STARTTLS", "454 4.7.0 TLS not available due to temporary reason"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "250 OK"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.True(t, res.Accepted)
	assert.Contains(t, res.Flags, FlagTLSNotEstablished)
}

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "mx.example.com"},
		DNSNames:     []string{"mx.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func TestProbeSTARTTLSUpgradeSucceeds(t *testing.T) {
	cert := selfSignedCert(t)
	server, client := net.Pipe()

	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		if _, err := server.Write([]byte("220 mx.example.com ESMTP\r\n")); err != nil {
			return
		}
		line, err := r.ReadString('\n')
		if err != nil || !strings.HasPrefix(line, "EHLO") {
			t.Errorf("server expected EHLO, got %q (%v)", strings.TrimSpace(line), err)
			return
		}
		if _, err := server.Write([]byte("250-mx.example.com\r\n250-STARTTLS\r\n250 OK\r\n")); err != nil {
			return
		}
		line, err = r.ReadString('\n')
		if err != nil || !strings.HasPrefix(line, "STARTTLS") {
			t.Errorf("server expected STARTTLS, got %q (%v)", strings.TrimSpace(line), err)
			return
		}
		if _, err := server.Write([]byte("220 ready for TLS\r\n")); err != nil {
			return
		}

		tlsConn := tls.Server(server, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err := tlsConn.Handshake(); err != nil {
			t.Errorf("server-side handshake failed: %v", err)
			return
		}
		tr := bufio.NewReader(tlsConn)
		for _, ex := range []exchange{
			{"EHLO", "250 mx.example.com"},
			{"MAIL FROM", "250 OK"},
			{"RCPT TO", "250 2.1.5 OK"},
		} {
			line, err := tr.ReadString('\n')
			if err != nil {
				return
			}
			if !strings.HasPrefix(line, ex.expect) {
				t.Errorf("server expected %q after upgrade, got %q", ex.expect, strings.TrimSpace(line))
				return
			}
			if _, err := tlsConn.Write([]byte(ex.reply + "\r\n")); err != nil {
				return
			}
		}
		if line, err := tr.ReadString('\n'); err == nil && strings.HasPrefix(line, "QUIT") {
			_, _ = tlsConn.Write([]byte("221 bye\r\n"))
		}
	}()

	p := NewProber(Config{
		HeloDomain:          "probe.test",
		MailFrom:            "postmaster@probe.test",
		SMTPPort:            "25",
		ConnectTimeout:      time.Second,
		ReplyTimeout:        2 * time.Second,
		DialogueTimeout:     10 * time.Second,
		TLSHandshakeTimeout: 2 * time.Second,
	})
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		return client, nil
	}

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.True(t, res.Accepted)
	assert.Equal(t, 250, res.ReplyCode)
	assert.NotContains(t, res.Flags, FlagTLSNotEstablished)
}

func TestProbeHELOFallback(t *testing.T) {
	p := newScriptedProber(t, "220 mx.example.com SMTP", []exchange{
		{"EHLO", "502 5.5.1 command not implemented"},
		{"HELO", "250 mx.example.com"},
		{"MAIL FROM", "250 OK"},
		{"RCPT TO", "250 OK"},
	})

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.True(t, res.Accepted)
}

func TestProbeConnectionError(t *testing.T) {
	p := NewProber(Config{ConnectTimeout: time.Second, ReplyTimeout: time.Second, DialogueTimeout: time.Second})
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	res := p.Probe(context.Background(), "user@example.com", "mx.example.com")
	assert.False(t, res.Accepted)
	assert.False(t, res.ReachedRcpt())
	assert.Contains(t, res.Flags, FlagConnectionError)
	assert.Contains(t, res.ReplyText, "connection refused")
}

func TestReadReplyMultiline(t *testing.T) {
	server, client := net.Pipe()
	go func() {
		_, _ = server.Write([]byte("250-first\r\n250-second\r\n250 last\r\n"))
	}()
	defer server.Close()
	defer client.Close()

	sess := &smtpSession{
		conn:         client,
		reader:       bufio.NewReader(client),
		deadline:     time.Now().Add(time.Second),
		replyTimeout: time.Second,
	}
	code, text, err := sess.readReply()
	assert.NoError(t, err)
	assert.Equal(t, 250, code)
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "last")
}
