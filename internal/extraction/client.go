package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DocumentClient is the remote parse+extract capability. Parse turns document
// bytes into layout-aware markdown; Extract pulls the 45-field map out of the
// markdown against the invoice schema.
type DocumentClient interface {
	Parse(ctx context.Context, document []byte, filename string) (string, error)
	Extract(ctx context.Context, markdown string) (map[string]any, map[string]float64, error)
}

// RESTDocumentClient talks to the document-extraction service over its REST API.
type RESTDocumentClient struct {
	apiKey  string
	baseURL string
	parseHC *http.Client
	extrHC  *http.Client
}

func NewRESTDocumentClient(apiKey, baseURL string) *RESTDocumentClient {
	return &RESTDocumentClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		parseHC: &http.Client{Timeout: 120 * time.Second},
		extrHC:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Configured reports whether the client has credentials to call the service.
func (c *RESTDocumentClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseURL != ""
}

type parseRequest struct {
	Document string `json:"document"`
	Filename string `json:"filename"`
}

type parseResponse struct {
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}

func (c *RESTDocumentClient) Parse(ctx context.Context, document []byte, filename string) (string, error) {
	body, err := json.Marshal(parseRequest{
		Document: base64.StdEncoding.EncodeToString(document),
		Filename: filename,
	})
	if err != nil {
		return "", err
	}

	respBody, err := c.post(ctx, c.parseHC, c.baseURL+"/parse", body)
	if err != nil {
		return "", err
	}

	var parsed parseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response decode: %w", err)
	}
	if parsed.Markdown != "" {
		return parsed.Markdown, nil
	}
	return parsed.Text, nil
}

type extractRequest struct {
	Markdown string         `json:"markdown"`
	Schema   map[string]any `json:"schema"`
}

type extractResponse struct {
	Data       map[string]any     `json:"data"`
	Fields     map[string]any     `json:"fields"`
	Confidence map[string]float64 `json:"confidence"`
}

const maxExtractMarkdown = 50000

func (c *RESTDocumentClient) Extract(ctx context.Context, markdown string) (map[string]any, map[string]float64, error) {
	if len(markdown) > maxExtractMarkdown {
		markdown = markdown[:maxExtractMarkdown]
	}

	body, err := json.Marshal(extractRequest{Markdown: markdown, Schema: invoiceSchema()})
	if err != nil {
		return nil, nil, err
	}

	respBody, err := c.post(ctx, c.extrHC, c.baseURL+"/extract", body)
	if err != nil {
		return nil, nil, err
	}

	var extracted extractResponse
	if err := json.Unmarshal(respBody, &extracted); err != nil {
		return nil, nil, fmt.Errorf("extract response decode: %w", err)
	}
	data := extracted.Data
	if data == nil {
		data = extracted.Fields
	}
	if data == nil {
		return nil, nil, fmt.Errorf("extract response carried no field data")
	}
	return data, extracted.Confidence, nil
}

func (c *RESTDocumentClient) post(ctx context.Context, hc *http.Client, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document service returned %d: %.200s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
