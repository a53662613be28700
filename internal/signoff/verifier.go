// Package signoff decides whether a commit carries a Signed-off-by trailer
// attributable to its author or committer.
package signoff

import (
	"regexp"
	"strings"

	"github.com/mikelady/automebot/internal/models"
	"github.com/mikelady/automebot/internal/policy"
)

// BotMarker appears in the email of automated GitHub identities
const BotMarker = "[bot]"

// Outcome is the verification result for a single commit
type Outcome int

const (
	Unsigned Outcome = iota
	Signed
	Exempt
)

func (o Outcome) String() string {
	switch o {
	case Signed:
		return "signed"
	case Exempt:
		return "exempt"
	default:
		return "unsigned"
	}
}

// Passed reports whether the commit satisfies the policy
func (o Outcome) Passed() bool {
	return o == Signed || o == Exempt
}

// Claim is a parsed Signed-off-by trailer
type Claim struct {
	Name  string
	Email string
}

var trailerPattern = regexp.MustCompile(`^Signed-off-by: (.*) <(.*)@(.*)>$`)

// ShouldSkip reports whether the commit is exempt from signing: bot
// identities and anything listed in the policy's ignore section.
func ShouldSkip(commit models.Commit, cfg *policy.Config) bool {
	if strings.Contains(commit.Author.Email, BotMarker) || strings.Contains(commit.Committer.Email, BotMarker) {
		return true
	}
	if cfg.IgnoresEmail(commit.Author.Email) || cfg.IgnoresEmail(commit.Committer.Email) {
		return true
	}
	return cfg.IgnoresUser(commit.Author.Name) || cfg.IgnoresUser(commit.Committer.Name)
}

// ParseTrailers returns every line of message shaped like a Signed-off-by
// trailer, in message order. Lines are matched one at a time.
func ParseTrailers(message string) []Claim {
	var claims []Claim
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSuffix(line, "\r")
		m := trailerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		claims = append(claims, Claim{Name: m[1], Email: m[2] + "@" + m[3]})
	}
	return claims
}

// Attributed keeps the claims whose name and email both match the commit's
// author or committer.
func Attributed(commit models.Commit, claims []Claim) []Claim {
	var out []Claim
	for _, c := range claims {
		id := models.Identity{Name: c.Name, Email: c.Email}
		if id.Equal(commit.Author) || id.Equal(commit.Committer) {
			out = append(out, c)
		}
	}
	return out
}

// Verify classifies a commit. A commit is Signed only if it has at least one
// attributed claim and every attributed claim carries a valid email.
func Verify(commit models.Commit, cfg *policy.Config) Outcome {
	if ShouldSkip(commit, cfg) {
		return Exempt
	}

	claims := Attributed(commit, ParseTrailers(commit.Message))
	if len(claims) == 0 {
		return Unsigned
	}
	for _, c := range claims {
		if !ValidEmail(c.Email) {
			return Unsigned
		}
	}
	return Signed
}
