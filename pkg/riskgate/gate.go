// Package riskgate evaluates a project's bulk analysis against a risk
// threshold, for use as a CI/CD gate.
package riskgate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/securereq/securereq-engine/pkg/models"
)

// Exit codes for the gate command.
const (
	ExitPass      = 0
	ExitFail      = 1
	ExitTransport = 2
)

// Client calls the engine's bulk analysis endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// AnalyzeProject triggers a bulk analysis and returns its result. Any
// non-2xx response, including an authentication failure, is an error.
func (c *Client) AnalyzeProject(ctx context.Context, projectID uuid.UUID) (*models.BulkResult, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	url := strings.TrimSuffix(c.BaseURL, "/") + "/api/projects/" + projectID.String() + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result models.BulkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode bulk result: %w", err)
	}
	return &result, nil
}

// Verdict is the gate outcome for one story.
type Verdict struct {
	Story  models.StoryResult
	Passed bool
	Reason string
}

// Report is the gate outcome for a whole project.
type Report struct {
	Threshold int
	Verdicts  []Verdict
	Failed    int
}

// Passed reports whether every story cleared the gate.
func (r *Report) Passed() bool { return r.Failed == 0 }

// ExitCode maps the gate outcome to the process exit code.
func (r *Report) ExitCode() int {
	if r.Passed() {
		return ExitPass
	}
	return ExitFail
}

// Evaluate applies the threshold to a bulk result. A story fails the gate
// when its analysis errored or its risk score meets or exceeds the
// threshold; erroring fails closed so a broken provider cannot wave risky
// stories through.
func Evaluate(result *models.BulkResult, threshold int) *Report {
	report := &Report{Threshold: threshold}
	for _, story := range result.Results {
		v := Verdict{Story: story, Passed: true}
		switch {
		case story.Status != models.AnalysisSuccess:
			v.Passed = false
			v.Reason = "analysis failed: " + story.Error
		case story.RiskScore != nil && *story.RiskScore >= threshold:
			v.Passed = false
			v.Reason = fmt.Sprintf("risk %d >= threshold %d", *story.RiskScore, threshold)
		}
		if !v.Passed {
			report.Failed++
		}
		report.Verdicts = append(report.Verdicts, v)
	}
	return report
}

// Print writes one PASS/FAIL line per story followed by a summary.
func (r *Report) Print(w io.Writer) {
	for _, v := range r.Verdicts {
		title := v.Story.StoryTitle
		if title == "" {
			title = v.Story.StoryID.String()
		}
		switch {
		case v.Passed && v.Story.RiskScore != nil:
			fmt.Fprintf(w, "PASS  %s (risk %d)\n", title, *v.Story.RiskScore)
		case v.Passed:
			fmt.Fprintf(w, "PASS  %s\n", title)
		default:
			fmt.Fprintf(w, "FAIL  %s: %s\n", title, v.Reason)
		}
	}
	fmt.Fprintf(w, "%d/%d stories passed (threshold %d)\n",
		len(r.Verdicts)-r.Failed, len(r.Verdicts), r.Threshold)
}
