package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"comptadoc/src/core/document"
)

const (
	DefaultURL = "http://localhost:8000"
)

// ErrUnavailable is returned for any transport, timeout or protocol failure.
// Callers are expected to degrade rather than fail.
var ErrUnavailable = errors.New("insight service unavailable")

// Classification is the inference result for one document.
type Classification struct {
	ModelPrediction string            `json:"model_prediction"`
	FinalPrediction string            `json:"final_prediction"`
	Confidence      float64           `json:"model_confidence"`
	TextExcerpt     string            `json:"text_excerpt"`
	Embedding       []float32         `json:"document_embedding"`
	ExtractedInfo   map[string]string `json:"extracted_info"`
}

// PredictedType maps the predictions onto the closed document type set,
// preferring the post-processed final prediction.
func (c *Classification) PredictedType() document.Type {
	if t := document.Type(c.FinalPrediction); t.Valid() {
		return t
	}
	if t := document.Type(c.ModelPrediction); t.Valid() {
		return t
	}
	return document.TypeOther
}

// Client talks to the document inference service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an insight API client. The http.Client's timeout bounds
// every call; the reference deployment uses 10s.
func NewClient(baseURL string, c *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		httpClient: c,
		baseURL:    baseURL,
	}
}

// Classify sends a document to the inference service and returns its
// classification, extracted fields and embedding.
func (c *Client) Classify(ctx context.Context, filename string, data []byte) (*Classification, error) {
	result, err := c.postFile(ctx, filename, "application/octet-stream", data)
	if err != nil {
		return nil, err
	}
	if result.Embedding != nil && len(result.Embedding) != document.EmbeddingDim {
		return nil, fmt.Errorf("%w: embedding has %d components, want %d",
			ErrUnavailable, len(result.Embedding), document.EmbeddingDim)
	}
	return result, nil
}

// Embed converts free text into the fixed-length query vector. The service
// only speaks files, so the text travels as a small text part.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.postFile(ctx, "query.txt", "text/plain", []byte(text))
	if err != nil {
		return nil, err
	}
	if len(result.Embedding) != document.EmbeddingDim {
		return nil, fmt.Errorf("%w: no usable embedding in response", ErrUnavailable)
	}
	return result.Embedding, nil
}

func (c *Client) postFile(ctx context.Context, filename, contentType string, data []byte) (*Classification, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("error building request body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("error building request body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error building request body: %w", err)
	}

	url := fmt.Sprintf("%s/classify", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Classification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: error decoding response: %v", ErrUnavailable, err)
	}
	return &result, nil
}
