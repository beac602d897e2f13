package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSendsMultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my-cloud/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "ychat-preset", r.FormValue("upload_preset"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cat.png", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "picture-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn/cat.png","public_id":"cat-123"}`))
	}))
	defer server.Close()

	uploader := NewUploader("my-cloud", "ychat-preset").WithBaseURL(server.URL)
	result, err := uploader.Upload(context.Background(), "cat.png", strings.NewReader("picture-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn/cat.png", result.SecureURL)
	assert.Equal(t, "cat-123", result.PublicID)
}

func TestUploadNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	uploader := NewUploader("my-cloud", "preset").WithBaseURL(server.URL)
	_, err := uploader.Upload(context.Background(), "x.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestUploadMissingURLInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	uploader := NewUploader("my-cloud", "preset").WithBaseURL(server.URL)
	_, err := uploader.Upload(context.Background(), "x.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUploadFailed)
}
