package signoff

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength  = 254
	maxLocalLength  = 64
	maxDomainLength = 254
)

// Local part is a dot-atom; runes above U+00A0 are allowed so that
// internationalized addresses pass.
var (
	localPartRegex = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+/=?^_`{|}~\\x{00A1}-\\x{FFFF}-]+(\\.[A-Za-z0-9!#$%&'*+/=?^_`{|}~\\x{00A1}-\\x{FFFF}-]+)*$")
	labelRegex     = regexp.MustCompile(`^[A-Za-z0-9\x{00A1}-\x{FFFF}]([A-Za-z0-9\x{00A1}-\x{FFFF}-]*[A-Za-z0-9\x{00A1}-\x{FFFF}])?$`)
	tldRegex       = regexp.MustCompile(`^([A-Za-z\x{00A1}-\x{FFFF}]{2,}|xn--[A-Za-z0-9-]{2,})$`)
)

// ValidEmail reports whether addr is a syntactically valid email address
func ValidEmail(addr string) bool {
	if addr == "" || len(addr) > maxEmailLength {
		return false
	}
	if strings.ContainsAny(addr, " \t\r\n") {
		return false
	}

	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	local, domain := addr[:at], addr[at+1:]

	if len(local) > maxLocalLength || !localPartRegex.MatchString(local) {
		return false
	}
	return validDomain(domain)
}

func validDomain(domain string) bool {
	if len(domain) > maxDomainLength {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 || !labelRegex.MatchString(label) || hasFullWidth(label) {
			return false
		}
	}
	return tldRegex.MatchString(labels[len(labels)-1])
}

// hasFullWidth reports whether s contains a full-width ASCII variant (U+FF01 to U+FF5E)
func hasFullWidth(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r >= 0xFF01 && r <= 0xFF5E })
}
