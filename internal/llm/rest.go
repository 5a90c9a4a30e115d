package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

const maxErrorBody = 512

// RESTConfig configures RESTClient.
type RESTConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// RESTClient posts prompts to {base}/v1beta/models/{model}:generateContent.
type RESTClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ Generator = (*RESTClient)(nil)

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewRESTClient validates cfg and builds a client.
func NewRESTClient(cfg RESTConfig) (*RESTClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(cfg.Model))
	return &RESTClient{endpoint: endpoint, apiKey: cfg.APIKey, client: client}, nil
}

// Generate sends prompt as a single user turn and returns
// candidates[0].content.parts[0].text.
func (c *RESTClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", &enricher.ExtractionError{Message: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"?"+url.Values{"key": {c.apiKey}}.Encode(), bytes.NewReader(payload))
	if err != nil {
		return "", &enricher.ExtractionError{Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &enricher.ExtractionError{Message: "model endpoint", Cause: redactKey(err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &enricher.ExtractionError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &enricher.ExtractionError{StatusCode: resp.StatusCode, Message: "decode response", Cause: err}
	}
	if len(decoded.Candidates) == 0 ||
		len(decoded.Candidates[0].Content.Parts) == 0 ||
		decoded.Candidates[0].Content.Parts[0].Text == nil {
		return "", &enricher.ExtractionError{
			StatusCode: resp.StatusCode,
			Message:    "response has no candidates[0].content.parts[0].text",
		}
	}
	return *decoded.Candidates[0].Content.Parts[0].Text, nil
}

// redactKey strips the query string from transport errors so the API key
// never reaches logs.
func redactKey(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		urlErr.URL = u.String()
	}
	return urlErr
}
