package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rfpintake/internal/app"
	"rfpintake/internal/config"
	"rfpintake/internal/store/airtable"
	"rfpintake/internal/store/memstore"
)

func TestOpenStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Backend = "memory"
	s, closeFn, err := app.OpenStore(&cfg)
	require.NoError(t, err)
	require.IsType(t, &memstore.Store{}, s)
	require.NoError(t, closeFn())

	cfg.Store.Backend = "airtable"
	_, _, err = app.OpenStore(&cfg)
	var missing *config.MissingError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []string{"baseId", "apiKey"}, missing.Options)

	cfg.BaseID, cfg.APIKey = "appX", "patX"
	s, _, err = app.OpenStore(&cfg)
	require.NoError(t, err)
	require.IsType(t, &airtable.Client{}, s)
}

func TestNewUploaderWithoutConfig(t *testing.T) {
	cfg := config.Defaults()
	up, err := app.NewUploader(context.Background(), &cfg, nil)
	require.NoError(t, err)
	require.Nil(t, up)

	cfg.CloudName, cfg.UploadPreset = "demo", "unsigned"
	up, err = app.NewUploader(context.Background(), &cfg, nil)
	require.NoError(t, err)
	require.Equal(t, "cloudinary", up.Backend())
}
