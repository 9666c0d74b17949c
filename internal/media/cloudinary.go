package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary неподписанная загрузка через upload preset, без ключа и секрета
type Cloudinary struct {
	cld          *cloudinary.Cloudinary
	uploadPreset string
}

// NewCloudinary: пустой uploadPrefix значит api.cloudinary.com
func NewCloudinary(uploadPrefix, cloudName, uploadPreset string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, "", "")
	if err != nil {
		return nil, err
	}
	if uploadPrefix != "" {
		cld.Upload.Config.API.UploadPrefix = strings.TrimRight(uploadPrefix, "/")
	}
	return &Cloudinary{cld: cld, uploadPreset: uploadPreset}, nil
}

func (c *Cloudinary) Backend() string { return "cloudinary" }

func (c *Cloudinary) Upload(ctx context.Context, f File, opts Options) (Result, error) {
	params := uploader.UploadParams{
		Folder:           opts.Folder,
		PublicID:         opts.PublicID,
		FilenameOverride: f.Name,
	}
	if len(opts.Tags) > 0 {
		params.Tags = api.CldAPIArray(opts.Tags)
	}
	if len(opts.Context) > 0 {
		params.Context = escapeContext(opts.Context)
	}

	res, err := c.cld.Upload.UnsignedUpload(ctx, f.Reader(), c.uploadPreset, params)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		// ответ не JSON (шлюз, html-страница)
		return Result{}, &UploadError{Message: "Upload failed"}
	}
	if res.Error.Message != "" {
		return Result{}, &UploadError{Message: res.Error.Message}
	}
	if res.SecureURL == "" {
		return Result{}, &UploadError{Message: "Upload failed"}
	}

	out := Result{
		URL:              res.SecureURL,
		PublicID:         res.PublicID,
		Format:           res.Format,
		ResourceType:     res.ResourceType,
		Bytes:            int64(res.Bytes),
		OriginalFilename: f.Name,
	}
	if !res.CreatedAt.IsZero() {
		out.CreatedAt = res.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out, nil
}

var contextEscaper = strings.NewReplacer(`=`, `\=`, `|`, `\|`)

// escapeContext экранирует разделители k=v|k=v в значениях
func escapeContext(ctx map[string]string) api.CldAPIMap {
	out := make(api.CldAPIMap, len(ctx))
	for k, v := range ctx {
		out[k] = contextEscaper.Replace(v)
	}
	return out
}
