package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores binary objects and hands back a public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cld *cloudinary.Cloudinary, folder string) *Cloudinary {
	if folder == "" {
		folder = "products"
	}
	return &Cloudinary{cld: cld, folder: folder}
}

// Upload stores file under a generated public ID derived from name.
func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	publicID := fmt.Sprintf("%s_%d", slug(name), time.Now().UnixNano())

	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:    c.folder,
		PublicID:  publicID,
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, fileURL string) error {
	publicID, err := PublicIDFromURL(fileURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("failed to delete photo from Cloudinary: %s", resp.Error.Message)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL turns a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/products/rice_1.jpg
// into the public ID "products/rice_1".
func PublicIDFromURL(fileURL string) (string, error) {
	parsedURL, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
			rest = rest[1:]
		}
		last := rest[len(rest)-1]
		rest[len(rest)-1] = strings.TrimSuffix(last, path.Ext(last))
		return strings.Join(rest, "/"), nil
	}

	return "", errors.New("failed to extract public ID from URL")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "image"
	}
	if len(s) > 40 {
		s = strings.TrimRight(s[:40], "-")
	}
	return s
}
