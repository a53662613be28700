package signoff

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mikelady/automebot/internal/models"
	"github.com/mikelady/automebot/internal/policy"
)

// Property: bot commits are exempt whatever the message says.
func TestPropertyBotCommitsExempt(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("bot author or committer is always exempt", prop.ForAll(
		func(message, login string, botIsAuthor bool) bool {
			bot := models.Identity{Name: login, Email: "1+" + login + "[bot]@users.noreply.github.com"}
			commit := commitBy(bot, jane, message)
			if !botIsAuthor {
				commit = commitBy(jane, bot, message)
			}
			return Verify(commit, nil) == Exempt
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: identities on the ignore lists are exempt.
func TestPropertyIgnoredIdentitiesExempt(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("ignored email is exempt", prop.ForAll(
		func(message, local string) bool {
			email := local + "@example.com"
			cfg := &policy.Config{Ignore: &policy.Ignore{Emails: []string{email}}}
			commit := commitBy(models.Identity{Name: "Anyone", Email: email}, jane, message)
			return Verify(commit, cfg) == Exempt
		},
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.Property("ignored user is exempt", prop.ForAll(
		func(message, name string) bool {
			cfg := &policy.Config{Ignore: &policy.Ignore{Users: []string{name}}}
			commit := commitBy(jane, models.Identity{Name: name, Email: "someone@example.com"}, message)
			return Verify(commit, cfg) == Exempt
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property: a commit signed by its author stays signed wherever the trailer
// sits in the message, and a commit without attributed trailers never passes.
func TestPropertyTrailerAttribution(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("author trailer anywhere signs the commit", prop.ForAll(
		func(before, after []string) bool {
			lines := append(append(append([]string{}, before...), "Signed-off-by: Jane Doe <jane@example.com>"), after...)
			commit := commitBy(jane, jane, strings.Join(lines, "\n"))
			return Verify(commit, nil) == Signed
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("third party trailers never sign", prop.ForAll(
		func(name, local string) bool {
			if name == "" || local == "" {
				return true
			}
			msg := "change\n\nSigned-off-by: " + name + " <" + local + "@elsewhere.org>"
			return Verify(commitBy(jane, john, msg), nil) == Unsigned
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
