// Package media загружает файлы во внешнее хранилище (Cloudinary или S3)
// и возвращает ссылку на них. Повторов и запасного хранилища нет.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"rfpintake/internal/metrics"
)

// File выбранный пользователем файл, целиком в памяти (не больше 10 MiB)
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 {
	return int64(len(f.Data))
}

func (f File) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

type Options struct {
	Folder   string
	PublicID string
	Tags     []string
	Context  map[string]string
}

// Result ссылка на загруженный файл
type Result struct {
	URL              string `json:"url"`
	PublicID         string `json:"publicId"`
	Format           string `json:"format"`
	ResourceType     string `json:"resourceType"`
	Bytes            int64  `json:"bytes"`
	CreatedAt        string `json:"createdAt"`
	OriginalFilename string `json:"originalFilename"`
}

type Uploader interface {
	Upload(ctx context.Context, f File, opts Options) (Result, error)
	Backend() string
}

// UploadError хранилище отклонило файл или ответило не тем
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// Instrument считает загрузки и их размер
func Instrument(u Uploader, m *metrics.Metrics) Uploader {
	return &instrumented{Uploader: u, metrics: m}
}

type instrumented struct {
	Uploader
	metrics *metrics.Metrics
}

func (i *instrumented) Upload(ctx context.Context, f File, opts Options) (Result, error) {
	res, err := i.Uploader.Upload(ctx, f, opts)
	i.metrics.ObserveUpload(i.Uploader.Backend(), f.Size(), err)
	return res, err
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// NDAPublicID имя файла NDA: NDA_<имя компании>_<unix ms>
func NDAPublicID(vendorName string, now time.Time) string {
	return fmt.Sprintf("NDA_%s_%d", unsafeChars.ReplaceAllString(vendorName, "_"), now.UnixMilli())
}

// UploadNDA кладёт NDA поставщика в <namespace>/ndas с тегами и метаданными
func UploadNDA(ctx context.Context, u Uploader, f File, vendorName, vendorEmail, namespace string, now time.Time) (Result, error) {
	return u.Upload(ctx, f, Options{
		Folder:   namespace + "/ndas",
		PublicID: NDAPublicID(vendorName, now),
		Tags:     []string{"nda", "vendor-registration"},
		Context: map[string]string{
			"vendor":      vendorName,
			"email":       vendorEmail,
			"upload_date": now.UTC().Format(time.RFC3339),
		},
	})
}
