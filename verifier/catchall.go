package verifier

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// CatchallProbe records one synthetic-address probe.
type CatchallProbe struct {
	Address  string
	Accepted bool
}

// CatchallAssessment estimates whether a domain accepts all recipients
// indiscriminately. IsCatchall is true only when at least two distinct
// probes were accepted; Confidence is the acceptance ratio.
type CatchallAssessment struct {
	IsCatchall bool
	Confidence float64
	Probes     []CatchallProbe
}

// detectCatchall re-runs the SMTP dialogue against synthetic local parts
// that are virtually guaranteed not to exist. Probing is deliberately
// sequential with a fixed delay so the remote server does not see a burst.
// Individual probe failures count as "not accepted" rather than aborting
// the detection.
func (v *Verifier) detectCatchall(ctx context.Context, domain, mxHost string) CatchallAssessment {
	n := v.cfg.CatchallProbes
	if n < 2 {
		n = 2
	}
	if n > 3 {
		n = 3
	}

	assessment := CatchallAssessment{Probes: make([]CatchallProbe, 0, n)}
	accepted := 0
	for i := 0; i < n; i++ {
		if i > 0 && !sleepContext(ctx, v.cfg.CatchallProbeDelay) {
			break
		}
		address := fmt.Sprintf("%s@%s", syntheticLocalPart(), domain)
		probe := v.probe(ctx, address, mxHost)
		if probe.Accepted {
			accepted++
		}
		assessment.Probes = append(assessment.Probes, CatchallProbe{
			Address:  address,
			Accepted: probe.Accepted,
		})
	}

	if len(assessment.Probes) > 0 {
		assessment.Confidence = float64(accepted) / float64(len(assessment.Probes))
	}
	assessment.IsCatchall = accepted >= 2
	return assessment
}

// syntheticLocalPart combines a timestamp and a random token so collisions
// with real mailboxes are astronomically unlikely.
func syntheticLocalPart() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; the timestamp
		// alone still keeps the local part unique enough for probing.
		return fmt.Sprintf("probe-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("probe-%d-%s", time.Now().UnixNano(), hex.EncodeToString(buf))
}

// sleepContext waits for d or until the context is done; it reports whether
// the full delay elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
