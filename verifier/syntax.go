package verifier

import (
	"regexp"
	"strings"

	"github.com/badoux/checkmail"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Common domain typos mapped to their likely intended provider.
var commonTypos = map[string]string{
	"gmai.com":    "gmail.com",
	"gmal.com":    "gmail.com",
	"gmial.com":   "gmail.com",
	"gmail.co":    "gmail.com",
	"gmail.cm":    "gmail.com",
	"yaho.com":    "yahoo.com",
	"yahooo.com":  "yahoo.com",
	"hotmai.com":  "hotmail.com",
	"hotmal.com":  "hotmail.com",
	"outlok.com":  "outlook.com",
	"outllok.com": "outlook.com",
	"icloud.co":   "icloud.com",
}

// Major providers used for fuzzy typo detection when the static map misses.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk",
	"outlook.com", "hotmail.com", "live.com",
	"icloud.com", "me.com",
	"protonmail.com", "proton.me",
	"aol.com", "zoho.com", "mail.com",
	"yandex.com", "gmx.com", "fastmail.com",
}

// checkFormat reports whether the address passes the anchored pattern and
// the checkmail syntax rules. It is pure and performs no network I/O.
func checkFormat(email string) bool {
	if !emailRegex.MatchString(email) {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	return checkmail.ValidateFormat(email) == nil
}

// splitAddress returns the local part and domain of an address.
func splitAddress(email string) (local, domain string, ok bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

// suggestCorrection returns a full corrected address when the domain looks
// like a typo of a well-known provider, or "" when no correction applies.
// A suggestion never fails validation on its own.
func suggestCorrection(local, domain string) string {
	if fixed, ok := commonTypos[domain]; ok {
		return local + "@" + fixed
	}

	// Exact provider matches are not typos.
	for _, provider := range knownProviders {
		if domain == provider {
			return ""
		}
	}

	bestDist := 3 // only distances 1 and 2 count as plausible typos
	bestMatch := ""
	for _, provider := range knownProviders {
		if d := levenshteinDistance(domain, provider); d < bestDist {
			bestDist = d
			bestMatch = provider
		}
	}
	if bestMatch == "" {
		return ""
	}
	return local + "@" + bestMatch
}
