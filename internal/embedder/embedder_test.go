package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestFallbackEmbeddingDeterministic(t *testing.T) {
	first := FallbackEmbedding("photosynthesis lesson", 384)
	second := FallbackEmbedding("photosynthesis lesson", 384)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical text produced different fallback vectors")
	}
	if len(first) != 384 {
		t.Errorf("vector length = %d, want 384", len(first))
	}

	other := FallbackEmbedding("a different text", 384)
	if reflect.DeepEqual(first, other) {
		t.Error("different texts produced the same fallback vector")
	}
}

func TestFallbackEmbeddingRange(t *testing.T) {
	for i, v := range FallbackEmbedding("range check", 64) {
		if v < -1 || v > 1 {
			t.Errorf("component %d = %v, outside [-1, 1]", i, v)
		}
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}
	d := []float32{-1, 0, 0}

	if got := Cosine(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(a, a) = %v, want 1", got)
	}
	if got := Cosine(a, c); math.Abs(got) > 1e-9 {
		t.Errorf("Cosine(orthogonal) = %v, want 0", got)
	}
	if got := Cosine(a, d); math.Abs(got+1) > 1e-9 {
		t.Errorf("Cosine(opposite) = %v, want -1", got)
	}
	if got := Cosine(a, []float32{1, 0}); got != 0 {
		t.Errorf("Cosine(mismatched lengths) = %v, want 0", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{0, 0}); got != 0 {
		t.Errorf("Cosine(zero vectors) = %v, want 0", got)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vector := []float32{0.5, -1.25, 3.75, 0, 42}

	decoded := DecodeVector(EncodeVector(vector))
	if !reflect.DeepEqual(decoded, vector) {
		t.Errorf("round trip = %v, want %v", decoded, vector)
	}

	if DecodeVector(nil) != nil {
		t.Error("DecodeVector(nil) should be nil")
	}
	if DecodeVector([]byte{1, 2, 3}) != nil {
		t.Error("DecodeVector with a partial float should be nil")
	}
}

func TestOllamaEmbedderRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Prompt != "hello" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL, "nomic-embed-text", 3, nil)

	vector, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	want := []float32{0.1, 0.2, 0.3}
	if !reflect.DeepEqual(vector, want) {
		t.Errorf("Embed = %v, want %v", vector, want)
	}
}

func TestOllamaEmbedderFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL, "nomic-embed-text", 16, nil)

	vector, err := e.Embed(context.Background(), "degraded mode")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if want := FallbackEmbedding("degraded mode", 16); !reflect.DeepEqual(vector, want) {
		t.Error("fallback vector does not match the deterministic embedding")
	}
}
