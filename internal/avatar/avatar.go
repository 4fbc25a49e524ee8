// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package avatar copies a member's identity-provider avatar into object
// storage at sign-in so profile pages do not hotlink the provider.
package avatar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxBytes caps the size of a downloaded avatar.
	DefaultMaxBytes = 2 << 20

	// DefaultTimeout bounds the whole download.
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrUnsupportedType is returned when the downloaded bytes are not a
	// PNG, JPEG, GIF or WebP image.
	ErrUnsupportedType = errors.New("avatar: unsupported image type")

	// ErrTooLarge is returned when the avatar exceeds the size cap.
	ErrTooLarge = errors.New("avatar: image too large")
)

// extensions maps sniffed content types to object key extensions.
var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectStore is the subset of the storage client the cacher needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	ExtractKey(rawURL string) (string, bool)
}

// Cacher downloads remote avatars and re-hosts them.
type Cacher struct {
	uploader ObjectStore
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
}

// Option configures a Cacher.
type Option func(*Cacher)

// WithHTTPClient sets the client used to download avatars.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cacher) { c.client = client }
}

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) Option {
	return func(c *Cacher) { c.maxBytes = n }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Cacher) { c.timeout = d }
}

// NewCacher creates a Cacher. A nil uploader disables re-hosting and
// Cache returns remote URLs unchanged.
func NewCacher(uploader ObjectStore, opts ...Option) *Cacher {
	c := &Cacher{
		uploader: uploader,
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the object key for a profile's avatar. The name is derived
// from the image bytes, so new content always gets a new URL.
func Key(profileID uuid.UUID, data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return keyPrefix(profileID) + hex.EncodeToString(sum[:8]) + "." + ext
}

func keyPrefix(profileID uuid.UUID) string {
	return "avatars/" + profileID.String() + "/"
}

// Cache re-hosts the avatar and returns its public URL. previousURL is the
// profile's current avatar; the object behind it is removed once replaced.
// On any failure the error is logged and remoteURL is returned, so sign-in
// never fails because of an avatar.
func (c *Cacher) Cache(ctx context.Context, profileID uuid.UUID, remoteURL, previousURL string) string {
	if c == nil || c.uploader == nil || remoteURL == "" {
		return remoteURL
	}
	url, err := c.Store(ctx, profileID, remoteURL, previousURL)
	if err != nil {
		slog.Warn("avatar cache failed, using remote url",
			"profile_id", profileID, "url", remoteURL, "error", err)
		return remoteURL
	}
	return url
}

// Store downloads remoteURL, validates it and uploads it under Key. An
// unchanged image is not uploaded again. A replaced object of the same
// profile is deleted after the upload succeeds.
func (c *Cacher) Store(ctx context.Context, profileID uuid.UUID, remoteURL, previousURL string) (string, error) {
	if c.uploader == nil {
		return "", errors.New("avatar: storage not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.download(ctx, remoteURL)
	if err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := Key(profileID, data, ext)
	url := c.uploader.FileURL(key)
	if url == previousURL {
		return url, nil
	}

	if err := c.uploader.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	c.deletePrevious(ctx, profileID, previousURL)
	return url, nil
}

// deletePrevious removes the object behind previousURL when it is one of
// this profile's avatars. Failures are logged.
func (c *Cacher) deletePrevious(ctx context.Context, profileID uuid.UUID, previousURL string) {
	oldKey, ok := c.uploader.ExtractKey(previousURL)
	if !ok || !strings.HasPrefix(oldKey, keyPrefix(profileID)) {
		return
	}
	if err := c.uploader.Delete(ctx, oldKey); err != nil {
		slog.Warn("delete previous avatar failed", "profile_id", profileID, "key", oldKey, "error", err)
	}
}

func (c *Cacher) download(ctx context.Context, remoteURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build avatar request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download avatar: status=%d", resp.StatusCode)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
