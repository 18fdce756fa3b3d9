package insight_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"comptadoc/src/core/document"
	"comptadoc/src/infrastructure/integrations/insight"
)

func classification(dim int) map[string]interface{} {
	embedding := make([]float32, dim)
	if dim > 0 {
		embedding[0] = 1
	}
	return map[string]interface{}{
		"model_prediction": "invoice",
		"final_prediction": "invoice",
		"model_confidence": 0.91,
		"text_excerpt":     "Facture n°42",
		"document_embedding": embedding,
		"extracted_info": map[string]string{
			"client_name": "Acme SARL",
			"date":        "2024-01-05",
		},
	}
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("path = %s, want /classify", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		json.NewEncoder(w).Encode(classification(document.EmbeddingDim))
	}))
	defer srv.Close()

	client := insight.NewClient(srv.URL, srv.Client())
	result, err := client.Classify(context.Background(), "facture.pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.PredictedType() != document.TypeInvoice {
		t.Errorf("PredictedType() = %q, want invoice", result.PredictedType())
	}
	if result.ExtractedInfo["client_name"] != "Acme SARL" {
		t.Errorf("extracted client = %q", result.ExtractedInfo["client_name"])
	}
	if len(result.Embedding) != document.EmbeddingDim {
		t.Errorf("embedding length = %d, want %d", len(result.Embedding), document.EmbeddingDim)
	}
}

func TestClassifyRejectsWrongEmbeddingDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classification(42))
	}))
	defer srv.Close()

	client := insight.NewClient(srv.URL, srv.Client())
	_, err := client.Classify(context.Background(), "facture.pdf", []byte("pdf"))
	if !errors.Is(err, insight.ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classification(document.EmbeddingDim))
	}))
	defer srv.Close()

	client := insight.NewClient(srv.URL, srv.Client())
	vec, err := client.Embed(context.Background(), "facture acme janvier")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != document.EmbeddingDim {
		t.Errorf("embedding length = %d, want %d", len(vec), document.EmbeddingDim)
	}
}

func TestEmbedWithoutEmbeddingInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"model_prediction": "other"})
	}))
	defer srv.Close()

	client := insight.NewClient(srv.URL, srv.Client())
	if _, err := client.Embed(context.Background(), "x"); !errors.Is(err, insight.ErrUnavailable) {
		t.Errorf("Embed() error = %v, want ErrUnavailable", err)
	}
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := insight.NewClient(srv.URL, srv.Client())
	if _, err := client.Classify(context.Background(), "x.pdf", nil); !errors.Is(err, insight.ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestTransportErrorMapsToUnavailable(t *testing.T) {
	client := insight.NewClient("http://127.0.0.1:1", &http.Client{})
	if _, err := client.Embed(context.Background(), "x"); !errors.Is(err, insight.ErrUnavailable) {
		t.Errorf("Embed() error = %v, want ErrUnavailable", err)
	}
}
