package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikelady/automebot/internal/signoff"
)

func TestAggregate(t *testing.T) {
	s := DefaultSettings()

	t.Run("no results", func(t *testing.T) {
		r := Aggregate(s, nil)
		assert.Equal(t, Report{Conclusion: "failure", Title: "No commits found", Summary: "Unable to fetch commits from GH API"}, r)
	})

	t.Run("exempt only", func(t *testing.T) {
		r := Aggregate(s, []Result{{Commit: unsignedCommit("a"), Outcome: signoff.Exempt}})
		assert.Equal(t, "success", r.Conclusion)
		assert.Empty(t, r.Text)
	})

	t.Run("mixed", func(t *testing.T) {
		r := Aggregate(s, []Result{
			{Commit: unsignedCommit("a"), Outcome: signoff.Unsigned},
			{Commit: signedCommit("b"), Outcome: signoff.Signed},
			{Commit: unsignedCommit("c"), Outcome: signoff.Exempt},
			{Commit: unsignedCommit("d"), Outcome: signoff.Unsigned},
		})
		assert.Equal(t, "failure", r.Conclusion)
		assert.Equal(t, "Found 2 unsigned commits", r.Title)
		assert.Equal(t, "- https://github.com/owner/repo/commit/a\n- https://github.com/owner/repo/commit/d", r.Text)
	})
}

func TestReport_Output(t *testing.T) {
	out := Report{Conclusion: "failure", Title: "t", Summary: "s", Text: "x"}.Output()
	assert.Equal(t, "t", out.Title)
	assert.Equal(t, "s", out.Summary)
	assert.Equal(t, "x", out.Text)
}
