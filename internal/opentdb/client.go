package opentdb

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://opentdb.com"
	defaultAmount  = 10
	defaultTimeout = 15 * time.Second

	retryCount      = 2
	retryMinBackoff = 200 * time.Millisecond
	retryMaxBackoff = 2 * time.Second
)

// Response codes documented by OpenTriviaDB.
const (
	codeSuccess          = 0
	codeNoResults        = 1
	codeInvalidParameter = 2
	codeTokenNotFound    = 3
	codeTokenEmpty       = 4
	codeRateLimit        = 5
)

var (
	ErrTransport        = errors.New("question source unreachable")
	ErrNoResults        = errors.New("not enough questions for this filter")
	ErrInvalidParameter = errors.New("invalid query parameters")
	ErrTokenNotFound    = errors.New("session token not found")
	ErrTokenEmpty       = errors.New("session token exhausted")
	ErrRateLimited      = errors.New("too many requests")
	ErrUnknownResponse  = errors.New("unexpected response from question source")
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Query holds the api.php filters. Zero values mean "any".
type Query struct {
	Amount     int
	Category   int
	Difficulty string
	Type       string
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

type categoriesResponse struct {
	TriviaCategories []Category `json:"trivia_categories"`
}

type Client struct {
	client *req.Client
}

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json").
		SetCommonRetryCount(retryCount).
		SetCommonRetryBackoffInterval(retryMinBackoff, retryMaxBackoff).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			return err != nil || resp.GetStatusCode() >= http.StatusInternalServerError
		})

	return &Client{client: client}
}

func (q Query) params() map[string]string {
	amount := q.Amount
	if amount <= 0 {
		amount = defaultAmount
	}

	params := map[string]string{"amount": strconv.Itoa(amount)}
	if q.Category > 0 {
		params["category"] = strconv.Itoa(q.Category)
	}
	if d := strings.TrimSpace(q.Difficulty); d != "" {
		params["difficulty"] = d
	}
	if t := strings.TrimSpace(q.Type); t != "" {
		params["type"] = t
	}
	return params
}

func (c *Client) FetchQuestions(ctx context.Context, query Query) ([]RawQuestion, error) {
	var payload apiResponse
	if err := c.getJSON(ctx, "/api.php", query.params(), &payload); err != nil {
		return nil, err
	}

	if err := responseCodeError(payload.ResponseCode); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, ErrNoResults
	}

	return payload.Results, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, "/api_category.php", nil, &payload); err != nil {
		return nil, err
	}
	return payload.TriviaCategories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, dst any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return errors.Wrapf(ErrTransport, "GET %s: %v", path, err)
	}

	switch status := resp.GetStatusCode(); {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status != http.StatusOK:
		return errors.Wrapf(ErrTransport, "GET %s returned status %d", path, status)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return errors.Wrapf(ErrTransport, "failed to read body of %s: %v", path, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Wrapf(ErrUnknownResponse, "failed to decode %s: %v", path, err)
	}
	return nil
}

func responseCodeError(code int) error {
	switch code {
	case codeSuccess:
		return nil
	case codeNoResults:
		return ErrNoResults
	case codeInvalidParameter:
		return ErrInvalidParameter
	case codeTokenNotFound:
		return ErrTokenNotFound
	case codeTokenEmpty:
		return ErrTokenEmpty
	case codeRateLimit:
		return ErrRateLimited
	default:
		return errors.Wrapf(ErrUnknownResponse, "response_code=%d", code)
	}
}
