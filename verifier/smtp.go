package verifier

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// SMTPProbeResult is the immutable outcome of one SMTP dialogue attempt.
// Every retry or synthetic probe produces a fresh instance.
type SMTPProbeResult struct {
	Accepted  bool
	ReplyCode int
	ReplyText string
	Flags     []string
}

// Rejected reports a permanent 55x rejection of the recipient.
func (r SMTPProbeResult) Rejected() bool {
	return r.ReplyCode >= 550 && r.ReplyCode <= 559
}

// Temporary reports a 45x temporary rejection.
func (r SMTPProbeResult) Temporary() bool {
	return r.ReplyCode >= 450 && r.ReplyCode <= 459
}

// ReachedRcpt reports whether the dialogue got as far as RCPT TO. When it
// did not, the reply code belongs to an earlier stage of the conversation
// and says nothing about the mailbox itself.
func (r SMTPProbeResult) ReachedRcpt() bool {
	for _, f := range r.Flags {
		switch f {
		case FlagConnectionError, FlagUnexpectedGreeting, FlagGreetingRejected, FlagMailFromRejected:
			return false
		}
	}
	return true
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober drives the SMTP dialogue used as a non-destructive probe. The
// conversation stops after RCPT TO and never issues DATA, so nothing is
// ever delivered.
type Prober struct {
	heloDomain      string
	mailFrom        string
	port            string
	connectTimeout  time.Duration
	replyTimeout    time.Duration
	dialogueTimeout time.Duration
	tlsTimeout      time.Duration
	dial            dialFunc // injectable for tests
}

// NewProber builds a prober from the engine configuration.
func NewProber(cfg Config) *Prober {
	p := &Prober{
		heloDomain:      cfg.HeloDomain,
		mailFrom:        cfg.MailFrom,
		port:            cfg.SMTPPort,
		connectTimeout:  cfg.ConnectTimeout,
		replyTimeout:    cfg.ReplyTimeout,
		dialogueTimeout: cfg.DialogueTimeout,
		tlsTimeout:      cfg.TLSHandshakeTimeout,
	}
	p.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		d := net.Dialer{Timeout: p.connectTimeout}
		return d.DialContext(ctx, network, address)
	}
	return p
}

// Probe connects to mxHost and runs the greeting/EHLO/STARTTLS/MAIL FROM/
// RCPT TO/QUIT sequence for the given address. Protocol errors are folded
// into the result flags; the method never panics, never returns an error to
// the caller, and closes the socket on every exit path.
func (p *Prober) Probe(ctx context.Context, address, mxHost string) SMTPProbeResult {
	res := SMTPProbeResult{Flags: []string{}}

	conn, err := p.dial(ctx, "tcp", net.JoinHostPort(mxHost, p.port))
	if err != nil {
		res.Flags = append(res.Flags, FlagConnectionError)
		res.ReplyText = err.Error()
		return res
	}
	sess := &smtpSession{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		deadline:     time.Now().Add(p.dialogueTimeout),
		replyTimeout: p.replyTimeout,
	}
	defer sess.close()

	code, text, err := sess.readReply()
	if err != nil {
		res.Flags = append(res.Flags, FlagConnectionError)
		res.ReplyText = err.Error()
		return res
	}
	if code != 220 {
		res.ReplyCode, res.ReplyText = code, text
		res.Flags = append(res.Flags, FlagUnexpectedGreeting)
		return res
	}

	code, ehloText, err := sess.command("EHLO " + p.heloDomain)
	if err != nil {
		res.Flags = append(res.Flags, FlagConnectionError)
		res.ReplyText = err.Error()
		return res
	}
	if code != 250 {
		// Old servers may only speak HELO.
		code, _, err = sess.command("HELO " + p.heloDomain)
		if err != nil || code != 250 {
			res.ReplyCode, res.ReplyText = code, ehloText
			res.Flags = append(res.Flags, FlagGreetingRejected)
			return res
		}
		ehloText = ""
	}

	if strings.Contains(strings.ToUpper(ehloText), "STARTTLS") {
		p.upgradeTLS(ctx, sess, mxHost, &res)
	}

	code, text, err = sess.command(fmt.Sprintf("MAIL FROM:<%s>", p.mailFrom))
	if err != nil {
		res.Flags = append(res.Flags, FlagConnectionError)
		res.ReplyText = err.Error()
		return res
	}
	if code != 250 {
		res.ReplyCode, res.ReplyText = code, text
		res.Flags = append(res.Flags, FlagMailFromRejected)
		sess.quit()
		return res
	}

	code, text, err = sess.command(fmt.Sprintf("RCPT TO:<%s>", address))
	if err != nil {
		res.Flags = append(res.Flags, FlagConnectionError)
		res.ReplyText = err.Error()
		return res
	}

	res.ReplyCode = code
	res.ReplyText = text
	res.Accepted = code == 250 || code == 251
	res.Flags = append(res.Flags, classifyReplyText(text)...)

	switch {
	case res.Accepted:
	case res.Rejected():
		if isUserUnknownText(text) {
			res.Flags = append(res.Flags, FlagUserUnknown)
		}
	case code == 421:
		res.Flags = append(res.Flags, FlagServiceUnavailable)
	case res.Temporary():
		res.Flags = append(res.Flags, FlagTemporarilyRejected)
	default:
		res.Flags = append(res.Flags, FlagUnexpectedReply)
	}

	sess.quit()
	return res
}

// upgradeTLS attempts the in-place STARTTLS upgrade. A failed upgrade falls
// back to the plaintext socket and never aborts the probe; the failure is
// only recorded as a flag.
func (p *Prober) upgradeTLS(ctx context.Context, sess *smtpSession, mxHost string, res *SMTPProbeResult) {
	code, _, err := sess.command("STARTTLS")
	if err != nil || code != 220 {
		res.Flags = append(res.Flags, FlagTLSNotEstablished)
		return
	}

	// Opportunistic encryption only: MX hosts commonly present self-signed
	// or mismatched certificates, and the probe reads deliverability, not
	// trust. A refused handshake still downgrades to plaintext.
	tlsConn := tls.Client(sess.conn, &tls.Config{
		ServerName:         mxHost,
		InsecureSkipVerify: true,
	})
	hsCtx, cancel := context.WithTimeout(ctx, p.tlsTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		res.Flags = append(res.Flags, FlagTLSNotEstablished)
		return
	}

	sess.conn = tlsConn
	sess.reader = bufio.NewReader(tlsConn)

	// RFC 3207 resets session state after the upgrade; repeat EHLO. A
	// failure here surfaces on the next command, so the reply is not
	// inspected beyond transport errors.
	_, _, _ = sess.command("EHLO " + p.heloDomain)
}

// smtpSession wraps one SMTP connection, plain or TLS, with per-reply read
// timeouts bounded by an overall dialogue deadline.
type smtpSession struct {
	conn         net.Conn
	reader       *bufio.Reader
	deadline     time.Time
	replyTimeout time.Duration
}

func (s *smtpSession) command(line string) (int, string, error) {
	if err := s.applyDeadline(); err != nil {
		return 0, "", err
	}
	if _, err := s.conn.Write([]byte(line + "\r\n")); err != nil {
		return 0, "", err
	}
	return s.readReply()
}

// readReply reads a possibly multi-line SMTP reply and returns its code and
// the joined text.
func (s *smtpSession) readReply() (int, string, error) {
	if err := s.applyDeadline(); err != nil {
		return 0, "", err
	}
	var lines []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return 0, "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", fmt.Errorf("short SMTP reply %q", line)
		}
		lines = append(lines, line)
		// A '-' after the code marks a continuation line.
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}
	last := lines[len(lines)-1]
	code, err := strconv.Atoi(last[:3])
	if err != nil {
		return 0, "", fmt.Errorf("malformed SMTP reply code %q", last[:3])
	}
	return code, strings.Join(lines, " "), nil
}

// applyDeadline sets the per-reply timeout, clipped to the overall dialogue
// deadline.
func (s *smtpSession) applyDeadline() error {
	d := time.Now().Add(s.replyTimeout)
	if d.After(s.deadline) {
		d = s.deadline
	}
	return s.conn.SetDeadline(d)
}

// quit is best-effort and never fatal.
func (s *smtpSession) quit() {
	_ = s.conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = s.conn.Write([]byte("QUIT\r\n"))
}

func (s *smtpSession) close() {
	_ = s.conn.Close()
}

// classifyReplyText derives flags from server phrasing, independently of
// the numeric reply code.
func classifyReplyText(text string) []string {
	lower := strings.ToLower(text)
	var flags []string
	for _, marker := range []string{"catch-all", "catch all", "accept all", "accepts all", "wildcard"} {
		if strings.Contains(lower, marker) {
			flags = append(flags, FlagCatchallHint)
			break
		}
	}
	for _, marker := range []string{"policy", "spam", "blocked", "blacklist", "denied"} {
		if strings.Contains(lower, marker) {
			flags = append(flags, FlagAntiSpamPolicy)
			break
		}
	}
	return flags
}

func isUserUnknownText(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range []string{
		"user unknown", "unknown user", "no such user", "does not exist",
		"doesn't exist", "recipient rejected", "invalid recipient",
		"no mailbox", "mailbox unavailable", "address rejected",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
