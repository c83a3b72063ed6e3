// Package qbank is the client for the College Board question-bank API. The
// vendor endpoint is unversioned and inconsistent across administrations, so
// the client tolerates several response shapes and carries both identifier
// schemes (current external_id and legacy ibn).
package qbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultOverviewURL   = "https://qbank-api.collegeboard.org/msreportingquestionbank-prod/questionbank/digital/get-questions"
	DefaultQuestionURL   = "https://qbank-api.collegeboard.org/msreportingquestionbank-prod/questionbank/digital/get-question"
	DefaultLegacyBaseURL = "https://saic.collegeboard.org/disclosed"

	defaultOverviewTimeout = 30 * time.Second
	defaultDetailTimeout   = 15 * time.Second

	// The vendor occasionally blocks generic clients, so requests mimic a
	// browser the same way the bank's own web UI does.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

var ErrNoIdentifier = errors.New("overview item has neither external_id nor ibn")

// ClientConfig overrides endpoint locations and timeouts; zero values fall
// back to the production defaults.
type ClientConfig struct {
	HTTPClient      *http.Client
	OverviewURL     string
	QuestionURL     string
	LegacyBaseURL   string
	OverviewTimeout time.Duration
	DetailTimeout   time.Duration
}

type Client struct {
	http            *http.Client
	overviewURL     string
	questionURL     string
	legacyBaseURL   string
	overviewTimeout time.Duration
	detailTimeout   time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		http:            cfg.HTTPClient,
		overviewURL:     cfg.OverviewURL,
		questionURL:     cfg.QuestionURL,
		legacyBaseURL:   cfg.LegacyBaseURL,
		overviewTimeout: cfg.OverviewTimeout,
		detailTimeout:   cfg.DetailTimeout,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.overviewURL == "" {
		c.overviewURL = DefaultOverviewURL
	}
	if c.questionURL == "" {
		c.questionURL = DefaultQuestionURL
	}
	if c.legacyBaseURL == "" {
		c.legacyBaseURL = DefaultLegacyBaseURL
	}
	if c.overviewTimeout <= 0 {
		c.overviewTimeout = defaultOverviewTimeout
	}
	if c.detailTimeout <= 0 {
		c.detailTimeout = defaultDetailTimeout
	}
	return c
}

type overviewRequest struct {
	AsmtEventID int    `json:"asmtEventId"`
	Test        int    `json:"test"`
	Domain      string `json:"domain"`
}

type detailRequest struct {
	ExternalID string `json:"external_id"`
}

// FetchOverview lists the questions of one (test, domain, event) partition.
// The response is either a bare array or an object wrapping it under
// "questions"; anything else is an error.
func (c *Client) FetchOverview(ctx context.Context, testID int, domain string, eventID int) ([]OverviewItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.overviewTimeout)
	defer cancel()

	raw, err := c.postJSON(ctx, c.overviewURL, overviewRequest{
		AsmtEventID: eventID,
		Test:        testID,
		Domain:      domain,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch overview %s-%d: %w", domain, eventID, err)
	}

	items, err := parseOverview(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch overview %s-%d: %w", domain, eventID, err)
	}
	return items, nil
}

func parseOverview(raw []byte) ([]OverviewItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	if trimmed[0] == '[' {
		var items []OverviewItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode overview list: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Questions []OverviewItem `json:"questions"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode overview object: %w", err)
	}
	if wrapped.Questions == nil {
		return nil, errors.New("unexpected overview response shape")
	}
	return wrapped.Questions, nil
}

// FetchDetail retrieves the full question payload for an overview item,
// dispatching on the identifier kind: external ids hit the current POST
// endpoint, legacy ibns hit the disclosed static-asset host.
func (c *Client) FetchDetail(ctx context.Context, item OverviewItem) (*Detail, error) {
	id, legacy := item.Identifier()
	if id == "" {
		return nil, ErrNoIdentifier
	}

	ctx, cancel := context.WithTimeout(ctx, c.detailTimeout)
	defer cancel()

	if legacy {
		return c.fetchLegacyDetail(ctx, id)
	}
	return c.fetchNewDetail(ctx, id)
}

func (c *Client) fetchNewDetail(ctx context.Context, externalID string) (*Detail, error) {
	raw, err := c.postJSON(ctx, c.questionURL, detailRequest{ExternalID: externalID})
	if err != nil {
		return nil, fmt.Errorf("fetch question %s: %w", externalID, err)
	}

	var detail NewFormatDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("decode question %s: %w", externalID, err)
	}
	return &Detail{Format: FormatNew, New: &detail}, nil
}

func (c *Client) fetchLegacyDetail(ctx context.Context, ibn string) (*Detail, error) {
	url := fmt.Sprintf("%s/%s.json", c.legacyBaseURL, ibn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	raw, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch legacy question %s: %w", ibn, err)
	}

	detail, err := parseLegacyDetail(raw)
	if err != nil {
		return nil, fmt.Errorf("decode legacy question %s: %w", ibn, err)
	}
	return &Detail{Format: FormatLegacy, Legacy: detail}, nil
}

func parseLegacyDetail(raw []byte) (*LegacyFormatDetail, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []LegacyFormatDetail
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, errors.New("empty legacy payload")
		}
		return &list[0], nil
	}

	// Some disclosed documents are a bare object rather than a list.
	var single LegacyFormatDetail
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return &single, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qbank returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
