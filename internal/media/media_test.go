package media_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"rfpintake/internal/media"
	"rfpintake/internal/metrics"
)

var ndaFile = media.File{Name: "nda.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 test")}

func TestCloudinaryUploadNDA(t *testing.T) {
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1_1/democloud/auto/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		require.Equal(t, "unsigned_nda", r.FormValue("upload_preset"))
		require.Empty(t, r.FormValue("api_key"))
		require.Empty(t, r.FormValue("signature"))
		require.Equal(t, "rfp-portal/ndas", r.FormValue("folder"))
		require.Equal(t, "NDA_Acme_Co__Ltd__1775125800000", r.FormValue("public_id"))
		require.Equal(t, "nda,vendor-registration", r.FormValue("tags"))
		require.ElementsMatch(t,
			[]string{"email=ops@acme.io", "upload_date=2026-04-02T10:30:00Z", "vendor=Acme Co. Ltd."},
			strings.Split(r.FormValue("context"), "|"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, _ := io.ReadAll(file)
		require.Equal(t, ndaFile.Data, body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/democloud/raw/upload/v1/rfp-portal/ndas/NDA_Acme.pdf",
			"public_id":"rfp-portal/ndas/NDA_Acme","format":"pdf","resource_type":"raw","bytes":13,
			"created_at":"2026-04-02T10:30:01Z"}`))
	}))
	defer srv.Close()

	up, err := media.NewCloudinary(srv.URL, "democloud", "unsigned_nda")
	require.NoError(t, err)
	res, err := media.UploadNDA(context.Background(), up, ndaFile, "Acme Co. Ltd.", "ops@acme.io", "rfp-portal", now)
	require.NoError(t, err)
	require.Equal(t, "https://res.cloudinary.com/democloud/raw/upload/v1/rfp-portal/ndas/NDA_Acme.pdf", res.URL)
	require.Equal(t, "rfp-portal/ndas/NDA_Acme", res.PublicID)
	require.Equal(t, "raw", res.ResourceType)
	require.Equal(t, int64(13), res.Bytes)
	require.Equal(t, "2026-04-02T10:30:01Z", res.CreatedAt)
	require.Equal(t, "nda.pdf", res.OriginalFilename)
}

func TestCloudinaryEscapesContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, `vendor=A\=B \| C`, r.FormValue("context"))
		w.Write([]byte(`{"secure_url":"https://x/y.pdf"}`))
	}))
	defer srv.Close()

	up, err := media.NewCloudinary(srv.URL, "demo", "preset")
	require.NoError(t, err)
	_, err = up.Upload(context.Background(), ndaFile, media.Options{Context: map[string]string{"vendor": "A=B | C"}})
	require.NoError(t, err)
}

func TestCloudinaryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Upload preset must be whitelisted for unsigned uploads"}}`))
	}))
	defer srv.Close()

	up, err := media.NewCloudinary(srv.URL, "demo", "preset")
	require.NoError(t, err)
	_, err = up.Upload(context.Background(), ndaFile, media.Options{})
	require.EqualError(t, err, "Upload preset must be whitelisted for unsigned uploads")

	var upErr *media.UploadError
	require.True(t, errors.As(err, &upErr))
}

func TestCloudinaryErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	up, err := media.NewCloudinary(srv.URL, "demo", "preset")
	require.NoError(t, err)
	_, err = up.Upload(context.Background(), ndaFile, media.Options{})
	require.EqualError(t, err, "Upload failed")
}

func TestCloudinaryNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	up, err := media.NewCloudinary(srv.URL, "demo", "preset")
	require.NoError(t, err)
	_, err = up.Upload(context.Background(), ndaFile, media.Options{})
	require.Error(t, err)

	var upErr *media.UploadError
	require.False(t, errors.As(err, &upErr))
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	putter := &fakePutter{}
	up := media.NewS3WithClient(putter, media.S3Config{Bucket: "ndas", Region: "eu-west-1"})

	res, err := up.Upload(context.Background(), ndaFile, media.Options{
		Folder:   "rfp-portal/ndas",
		PublicID: "NDA_Acme_1",
		Tags:     []string{"nda", "vendor-registration"},
		Context:  map[string]string{"upload_date": "2026-04-02T10:30:00Z"},
	})
	require.NoError(t, err)
	require.Equal(t, "rfp-portal/ndas/NDA_Acme_1.pdf", *putter.in.Key)
	require.Equal(t, "ndas", *putter.in.Bucket)
	require.Equal(t, "application/pdf", *putter.in.ContentType)
	require.Equal(t, "nda,vendor-registration", putter.in.Metadata["tags"])
	require.Equal(t, "2026-04-02T10:30:00Z", putter.in.Metadata["context-upload-date"])

	require.Equal(t, "https://ndas.s3.eu-west-1.amazonaws.com/rfp-portal/ndas/NDA_Acme_1.pdf", res.URL)
	require.Equal(t, "rfp-portal/ndas/NDA_Acme_1", res.PublicID)
	require.Equal(t, "pdf", res.Format)
	require.Equal(t, ndaFile.Size(), res.Bytes)

	local := media.NewS3WithClient(putter, media.S3Config{Bucket: "ndas", Endpoint: "http://localhost:4566/"})
	res, err = local.Upload(context.Background(), ndaFile, media.Options{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:4566/ndas/nda.pdf", res.URL)
}

func TestInstrumentPassesErrors(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	up := media.Instrument(media.NewS3WithClient(putter, media.S3Config{Bucket: "b"}), metrics.New("test"))

	_, err := up.Upload(context.Background(), ndaFile, media.Options{})
	require.ErrorContains(t, err, "access denied")
	require.Equal(t, "s3", up.Backend())
}

func TestNDAPublicID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	require.Equal(t, "NDA_Big_Corp__1700000000123", media.NDAPublicID("Big Corp!", at))
}
