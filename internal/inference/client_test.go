package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModelFallsBackToV1(t *testing.T) {
	assert.Equal(t, ModelV1, ResolveModel("V1"))
	assert.Equal(t, ModelV1c, ResolveModel("V1c"))
	assert.Equal(t, ModelV1, ResolveModel(""))
	assert.Equal(t, ModelV1, ResolveModel("V2"))
	assert.Equal(t, ModelV1, ResolveModel("v1c"))
}

func TestGenerateSendsPresetParameters(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text":"  hello there  "}]`))
	}))
	defer server.Close()

	client := NewClient("key").WithBaseURL(server.URL)
	text := client.Generate(context.Background(), "V1", "hi")

	assert.Equal(t, "hello there", text)
	require.NotNil(t, got["parameters"])
	params := got["parameters"].(map[string]any)
	assert.Equal(t, float64(100), params["max_new_tokens"])
	assert.Equal(t, 0.8, params["temperature"])
	assert.Equal(t, 0.9, params["top_p"])
	assert.Equal(t, 1.2, params["repetition_penalty"])
	assert.Equal(t, "hi", got["inputs"])
}

func TestGenerateV1cOmitsRepetitionPenalty(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"generated_text":"ok"}]`))
	}))
	defer server.Close()

	client := NewClient("").WithBaseURL(server.URL)
	client.Generate(context.Background(), "V1c", "hi")

	params := got["parameters"].(map[string]any)
	assert.Equal(t, float64(50), params["max_new_tokens"])
	assert.Equal(t, 0.7, params["temperature"])
	assert.Equal(t, 0.85, params["top_p"])
	_, present := params["repetition_penalty"]
	assert.False(t, present)
}

func TestGenerateBackendFailureReturnsApology(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("key").WithBaseURL(server.URL)
	assert.Equal(t, "すみません、応答の生成中にエラーが発生しました。(V1)", client.Generate(context.Background(), "V1", "hi"))
	assert.Equal(t, "すみません、応答の生成中にエラーが発生しました。(V1c)", client.Generate(context.Background(), "V1c", "hi"))
	// unknown models fail with the default preset's apology
	assert.Equal(t, "すみません、応答の生成中にエラーが発生しました。(V1)", client.Generate(context.Background(), "V9", "hi"))
}

func TestGenerateUnknownModelUsesV1Preset(t *testing.T) {
	var requests []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)
		_, _ = w.Write([]byte(`[{"generated_text":"ok"}]`))
	}))
	defer server.Close()

	client := NewClient("").WithBaseURL(server.URL)
	client.Generate(context.Background(), "", "hi")
	client.Generate(context.Background(), "V1", "hi")

	require.Len(t, requests, 2)
	assert.Equal(t, requests[1]["parameters"], requests[0]["parameters"])
}
