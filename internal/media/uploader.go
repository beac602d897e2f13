package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

var ErrUploadFailed = errors.New("media upload failed")

// UploadResult is the hosted service's response. The public id is what is
// persisted for avatars; the direct URL is persisted for message images.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Uploader forwards files to the hosted image CDN: a multipart POST with a
// file field and an upload-preset field.
type Uploader struct {
	cloudName    string
	uploadPreset string
	baseURL      string
	client       *http.Client
}

// NewUploader constructs an Uploader for the given cloud.
func NewUploader(cloudName, uploadPreset string) *Uploader {
	return &Uploader{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		baseURL:      "https://api.cloudinary.com/v1_1",
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the upload endpoint, for tests.
func (u *Uploader) WithBaseURL(baseURL string) *Uploader {
	u.baseURL = baseURL
	return u
}

// Upload sends one file and returns its stable URL and identifier.
func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader) (UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("upload_preset", u.uploadPreset); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	url := fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return UploadResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, err
	}
	if result.SecureURL == "" {
		return UploadResult{}, ErrUploadFailed
	}
	return result, nil
}
