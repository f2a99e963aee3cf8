package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryConfig holds credentials. URL, when set, takes precedence over
// the individual fields.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether enough credentials are present to upload.
func (c CloudinaryConfig) Enabled() bool {
	return c.URL != "" || (c.CloudName != "" && c.APIKey != "" && c.APISecret != "")
}

// Cloudinary uploads images to a Cloudinary folder.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates an uploader from the given credentials.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: cfg.Folder}, nil
}

// Client exposes the underlying SDK client.
func (c *Cloudinary) Client() *cloudinary.Cloudinary {
	return c.cld
}

func (c *Cloudinary) Upload(ctx context.Context, f File) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(f.Data), uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	url := res.SecureURL
	if url == "" {
		url = res.URL
	}
	if url == "" {
		return "", errors.New("cloudinary upload: no URL returned")
	}
	return url, nil
}
