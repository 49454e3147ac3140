// Package gitlab pushes per-issue time totals to GitLab's REST API.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// DefaultTimeout bounds each API call when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL   string
	ProjectID string
	Token     string
	ProxyURL  string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Client is an authenticated GitLab API client scoped to one project.
type Client struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	log        *slog.Logger
}

// NewClient creates a client sending the token as a bearer token.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("gitlab url is empty")
	}
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("gitlab project id is empty")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", opts.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// oauth2.NewClient picks up the base client from the context and keeps
	// its timeout.
	base := &http.Client{Transport: transport, Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpClient: oauth2.NewClient(ctx, ts),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		projectID:  opts.ProjectID,
		log:        log,
	}, nil
}

// Issue is the subset of a GitLab issue gts needs.
type Issue struct {
	ID        int    `json:"id"`
	IID       int    `json:"iid"`
	ProjectID int    `json:"project_id"`
	Title     string `json:"title"`
	State     string `json:"state"`
	WebURL    string `json:"web_url"`
}

// TimeStats is GitLab's time tracking summary for an issue.
type TimeStats struct {
	TimeEstimate        int    `json:"time_estimate"`
	TotalTimeSpent      int    `json:"total_time_spent"`
	HumanTimeEstimate   string `json:"human_time_estimate"`
	HumanTotalTimeSpent string `json:"human_total_time_spent"`
}

// FormatDuration renders hours in GitLab's duration syntax, e.g. "1.5h".
func FormatDuration(hours float64) string {
	return timecalc.FormatHours(hours) + "h"
}

// LookupIssue resolves a project-scoped issue number. Exactly one match is
// accepted.
func (c *Client) LookupIssue(ctx context.Context, iid string) (*Issue, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/issues?%s",
		c.baseURL,
		url.PathEscape(c.projectID),
		url.Values{"iids[]": {iid}}.Encode(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, IssueID: iid, Err: err}
	}
	if status != http.StatusOK {
		return nil, &Error{Kind: KindRejected, IssueID: iid, StatusCode: status, Body: string(body)}
	}

	var issues []Issue
	if err := json.Unmarshal(body, &issues); err != nil {
		return nil, &Error{Kind: KindRejected, IssueID: iid, StatusCode: status, Body: string(body),
			Err: fmt.Errorf("decoding issues: %w", err)}
	}
	switch len(issues) {
	case 0:
		return nil, &Error{Kind: KindIssueNotFound, IssueID: iid}
	case 1:
		return &issues[0], nil
	default:
		return nil, &Error{Kind: KindAmbiguousIssue, IssueID: iid, Matches: len(issues)}
	}
}

// AddSpentTime records duration against issue. GitLab answers 201 Created
// with the updated time stats.
func (c *Client) AddSpentTime(ctx context.Context, issue *Issue, duration string) (*TimeStats, error) {
	iid := fmt.Sprint(issue.IID)
	endpoint := fmt.Sprintf("%s/api/v4/projects/%d/issues/%d/add_spent_time",
		c.baseURL, issue.ProjectID, issue.IID)

	form := url.Values{"duration": {duration}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, IssueID: iid, Err: err}
	}
	if status != http.StatusCreated {
		return nil, &Error{Kind: KindRejected, IssueID: iid, StatusCode: status, Body: string(body)}
	}

	var stats TimeStats
	if err := json.Unmarshal(body, &stats); err != nil {
		// The time was recorded; only the summary is unreadable.
		c.log.Warn("decoding time stats", "issue", iid, "err", err)
		return nil, nil
	}
	return &stats, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	c.log.Debug("gitlab request", "method", req.Method, "url", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}
	c.log.Debug("gitlab response", "status", resp.StatusCode, "bytes", len(body))
	return resp.StatusCode, body, nil
}
