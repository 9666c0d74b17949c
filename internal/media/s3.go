package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI часть s3.Client, которая нужна загрузчику
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type S3 struct {
	client PutObjectAPI
	cfg    S3Config
	now    func() time.Time
}

// NewS3 создаёт клиент. Endpoint задаётся для S3-совместимых хранилищ (LocalStack, MinIO).
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client, cfg), nil
}

func NewS3WithClient(client PutObjectAPI, cfg S3Config) *S3 {
	return &S3{client: client, cfg: cfg, now: time.Now}
}

func (s *S3) Backend() string { return "s3" }

func (s *S3) Upload(ctx context.Context, f File, opts Options) (Result, error) {
	ext := path.Ext(f.Name)
	name := opts.PublicID
	if name == "" {
		name = strings.TrimSuffix(f.Name, ext)
	}
	publicID := name
	if opts.Folder != "" {
		publicID = opts.Folder + "/" + name
	}
	key := publicID + ext

	metadata := map[string]string{"original-filename": f.Name}
	if len(opts.Tags) > 0 {
		metadata["tags"] = strings.Join(opts.Tags, ",")
	}
	for k, v := range opts.Context {
		metadata["context-"+strings.ReplaceAll(k, "_", "-")] = v
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          f.Reader(),
		ContentLength: aws.Int64(f.Size()),
		ContentType:   aws.String(contentType),
		Metadata:      metadata,
	})
	if err != nil {
		return Result{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Result{
		URL:              s.objectURL(key),
		PublicID:         publicID,
		Format:           strings.TrimPrefix(ext, "."),
		ResourceType:     "raw",
		Bytes:            f.Size(),
		CreatedAt:        s.now().UTC().Format(time.RFC3339),
		OriginalFilename: f.Name,
	}, nil
}

func (s *S3) objectURL(key string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
