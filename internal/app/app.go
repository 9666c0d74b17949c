// Package app собирает хранилища по конфигурации. Общий код для HTTP-сервера и Lambda.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"rfpintake/db"
	"rfpintake/db/migrations"
	"rfpintake/internal/config"
	"rfpintake/internal/gateway"
	"rfpintake/internal/media"
	"rfpintake/internal/metrics"
	"rfpintake/internal/store"
	"rfpintake/internal/store/airtable"
	"rfpintake/internal/store/memstore"
)

const httpTimeout = 30 * time.Second

// OpenStore открывает хранилище записей. closeFn освобождает соединения.
func OpenStore(cfg *config.Config) (s store.RecordStore, closeFn func() error, err error) {
	if err := cfg.RequireStore(); err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case "postgres":
		conn, err := sqlx.Connect("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot connect to DB: %w", err)
		}
		if err := migrations.Run(conn.DB); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return db.NewStorage(conn), conn.Close, nil
	case "memory":
		slog.Warn("using in-memory record store, data is lost on restart")
		return memstore.New(), noop, nil
	default:
		client, err := airtable.NewClient(cfg.Store.APIURL, cfg.BaseID, cfg.APIKey, &http.Client{Timeout: httpTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("invalid Airtable API URL: %w", err)
		}
		return client, noop, nil
	}
}

// NewUploader возвращает nil, если файловое хранилище не настроено:
// регистрация тогда идёт без загрузки, файл помечается как локальный.
func NewUploader(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (media.Uploader, error) {
	if err := cfg.RequireMedia(); err != nil {
		slog.Warn("media storage not configured, NDA files will be stored locally only", "err", err)
		return nil, nil
	}

	switch cfg.Media.Backend {
	case "s3":
		up, err := media.NewS3(ctx, media.S3Config{
			Bucket:          cfg.Media.Bucket,
			Region:          cfg.Media.Region,
			Endpoint:        cfg.Media.Endpoint,
			AccessKeyID:     cfg.Media.AccessKeyID,
			SecretAccessKey: cfg.Media.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return media.Instrument(up, m), nil
	default:
		up, err := media.NewCloudinary(cfg.Media.APIURL, cfg.CloudName, cfg.UploadPreset)
		if err != nil {
			return nil, err
		}
		return media.Instrument(up, m), nil
	}
}

func Tables(cfg *config.Config) gateway.Tables {
	return gateway.Tables{RFPs: cfg.Tables.RFPs, Vendors: cfg.Tables.Vendors, Submissions: cfg.Tables.Submissions}
}
