// Package media wraps the external image host used for avatar storage.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// Client wraps interactions with the image host API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote image host is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("media: host returned status %d", resp.StatusCode)
	}
	return nil
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadAvatar pushes an avatar image and returns its stable URL. The
// upload key is derived from the user id so a re-upload replaces the
// previous avatar.
func (c *Client) UploadAvatar(ctx context.Context, userID int64, filename, contentType string, data io.Reader) (string, error) {
	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		header.Set("Content-Type", contentType)
		part, err := form.CreatePart(header)
		if err != nil {
			_ = writer.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, data); err != nil {
			_ = writer.CloseWithError(err)
			return
		}
		if err := form.WriteField("public_id", "avatars/user_"+strconv.FormatInt(userID, 10)); err != nil {
			_ = writer.CloseWithError(err)
			return
		}
		_ = writer.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/upload", c.baseURL), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("media: upload failed with status %d", resp.StatusCode)
	}
	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("media: decode upload response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("media: upload response missing url")
	}
	return parsed.URL, nil
}
