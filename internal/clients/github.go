package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikelady/automebot/internal/models"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint
	DefaultBaseURL = "https://api.github.com"

	apiVersion = "2022-11-28"

	// GitHub returns at most 250 commits for a pull request
	commitsPerPage = 100
	maxCommitPages = 3
)

// GitHub API error definitions
var (
	ErrGitHubRateLimited    = errors.New("rate limited by GitHub API")
	ErrGitHubAuthentication = errors.New("GitHub authentication failed")
	ErrGitHubNotFound       = errors.New("GitHub resource not found")
	ErrGitHubAPIError       = errors.New("GitHub API error")
)

// Check run statuses and conclusions
const (
	CheckStatusInProgress = "in_progress"
	CheckStatusCompleted  = "completed"

	ConclusionSuccess = "success"
	ConclusionFailure = "failure"
)

// CheckRunOutput is the title/summary/text block shown on a check run
type CheckRunOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Text    string `json:"text,omitempty"`
}

// CreateCheckRunRequest is the body of POST /repos/{owner}/{repo}/check-runs
type CreateCheckRunRequest struct {
	HeadSHA    string    `json:"head_sha"`
	Name       string    `json:"name"`
	DetailsURL string    `json:"details_url,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	Status     string    `json:"status"`
}

// UpdateCheckRunRequest is the body of PATCH /repos/{owner}/{repo}/check-runs/{id}
type UpdateCheckRunRequest struct {
	Name        string          `json:"name"`
	DetailsURL  string          `json:"details_url,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	Status      string          `json:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Conclusion  string          `json:"conclusion,omitempty"`
	Output      *CheckRunOutput `json:"output,omitempty"`
}

// CheckRun is the subset of the check run resource we read back
type CheckRun struct {
	ID         int64  `json:"id"`
	HeadSHA    string `json:"head_sha"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	HTMLURL    string `json:"html_url"`
}

// pullRequestCommit is one entry of GET /repos/{owner}/{repo}/pulls/{number}/commits
type pullRequestCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message   string          `json:"message"`
		Author    models.Identity `json:"author"`
		Committer models.Identity `json:"committer"`
	} `json:"commit"`
}

// GitHubClient provides access to the GitHub REST API with an installation token
type GitHubClient struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

// NewGitHubClient creates a new GitHub API client
func NewGitHubClient(accessToken string, baseURL string) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &GitHubClient{
		accessToken: accessToken,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ListPullRequestCommits returns the commits of a pull request in the order GitHub lists them.
func (c *GitHubClient) ListPullRequestCommits(ctx context.Context, owner, repo string, number int) ([]models.Commit, error) {
	var commits []models.Commit

	for page := 1; page <= maxCommitPages; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(commitsPerPage))
		params.Set("page", strconv.Itoa(page))

		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits?%s", owner, repo, number, params.Encode())
		body, err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK)
		if err != nil {
			return nil, err
		}

		var entries []pullRequestCommit
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		for _, e := range entries {
			commits = append(commits, models.Commit{
				SHA:       e.SHA,
				Message:   e.Commit.Message,
				Author:    e.Commit.Author,
				Committer: e.Commit.Committer,
				URL:       e.HTMLURL,
			})
		}

		if len(entries) < commitsPerPage {
			break
		}
	}

	return commits, nil
}

// CreateCheckRun creates a check run on a commit
func (c *GitHubClient) CreateCheckRun(ctx context.Context, owner, repo string, req CreateCheckRunRequest) (*CheckRun, error) {
	path := fmt.Sprintf("/repos/%s/%s/check-runs", owner, repo)
	body, err := c.do(ctx, http.MethodPost, path, req, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var run CheckRun
	if err := json.Unmarshal(body, &run); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &run, nil
}

// UpdateCheckRun updates an existing check run
func (c *GitHubClient) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, req UpdateCheckRunRequest) (*CheckRun, error) {
	path := fmt.Sprintf("/repos/%s/%s/check-runs/%d", owner, repo, checkRunID)
	body, err := c.do(ctx, http.MethodPatch, path, req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var run CheckRun
	if err := json.Unmarshal(body, &run); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &run, nil
}

// GetFileContent fetches a file from a repository at ref.
// Returns an error wrapping ErrGitHubNotFound when the file does not exist.
func (c *GitHubClient) GetFileContent(ctx context.Context, owner, repo, filePath, ref string) ([]byte, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath)
	if ref != "" {
		path += "?ref=" + url.QueryEscape(ref)
	}

	body, err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var file struct {
		Type     string `json:"type"`
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if file.Type != "" && file.Type != "file" {
		return nil, fmt.Errorf("%s is a %s, not a file", filePath, file.Type)
	}
	if file.Encoding != "base64" {
		return []byte(file.Content), nil
	}

	// GitHub wraps base64 content at 60 columns
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return content, nil
}

// do sends a request and returns the body if the response status equals want.
func (c *GitHubClient) do(ctx context.Context, method, path string, payload any, want int) ([]byte, error) {
	return send(ctx, c.client, method, c.baseURL+path, c.accessToken, payload, want)
}

// send issues an authenticated GitHub API call and maps unexpected statuses
// onto the package's sentinel errors.
func send(ctx context.Context, client *http.Client, method, endpoint, bearer string, payload any, want int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call GitHub API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == want {
		return body, nil
	}

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, ErrGitHubRateLimited
	case http.StatusUnauthorized:
		return nil, ErrGitHubAuthentication
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrGitHubNotFound, method, req.URL.Path)
	default:
		return nil, fmt.Errorf("%w: %d - %s", ErrGitHubAPIError, resp.StatusCode, string(body))
	}
}
