// Package policy loads the per-repository settings for the signed-commits check.
package policy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// FilePath is where the policy lives inside a repository
const FilePath = ".github/auto-me-bot.yml"

// DefaultBranch is the empty ref, which GitHub resolves to the repository's default branch
const DefaultBranch = ""

// ErrFileNotFound is returned by a FileFetcher when the policy file does not exist
var ErrFileNotFound = errors.New("policy file not found")

// Ignore lists identities that are never required to sign off.
// Matching is exact and case-sensitive.
type Ignore struct {
	Users  []string `yaml:"users"`
	Emails []string `yaml:"emails"`
}

// Config is the signed-commits section of the policy file.
// The zero value is valid and exempts nobody beyond bots.
type Config struct {
	Ignore *Ignore `yaml:"ignore"`
}

// IgnoresUser reports whether name is in ignore.users
func (c *Config) IgnoresUser(name string) bool {
	if c == nil || c.Ignore == nil {
		return false
	}
	return slices.Contains(c.Ignore.Users, name)
}

// IgnoresEmail reports whether email is in ignore.emails
func (c *Config) IgnoresEmail(email string) bool {
	if c == nil || c.Ignore == nil {
		return false
	}
	return slices.Contains(c.Ignore.Emails, email)
}

// file mirrors the layout of the policy file; other handlers own the
// sibling keys under pr.
type file struct {
	PR struct {
		SignedCommits *Config `yaml:"signedCommits"`
	} `yaml:"pr"`
}

// Parse decodes a policy file. An empty document yields an empty config.
func Parse(data []byte) (*Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	if f.PR.SignedCommits == nil {
		return &Config{}, nil
	}
	return f.PR.SignedCommits, nil
}

// FileFetcher reads a file from a repository at a given ref
type FileFetcher interface {
	GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// Load reads and parses the policy file at ref. A missing file is not an
// error: the check then runs with an empty config.
func Load(ctx context.Context, fetcher FileFetcher, owner, repo, ref string) (*Config, error) {
	data, err := fetcher.GetFileContent(ctx, owner, repo, FilePath, ref)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", FilePath, err)
	}
	return Parse(data)
}
