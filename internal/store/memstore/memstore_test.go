package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rfpintake/internal/store"
	"rfpintake/internal/store/memstore"
)

func TestListFilterAndSort(t *testing.T) {
	s := memstore.New()
	s.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	s.Seed("Submissions", store.Record{ID: "rec1", Fields: store.Fields{"RFP": []any{"recA"}, "Base Price": float64(900)}})
	s.Seed("Submissions", store.Record{ID: "rec2", Fields: store.Fields{"RFP": []string{"recB", "recA"}, "Base Price": float64(1500)}})
	s.Seed("Submissions", store.Record{ID: "rec3", Fields: store.Fields{"RFP": []any{"recB"}, "Base Price": float64(80)}})

	recs, err := s.List(context.Background(), "Submissions", store.Query{
		Filter: store.Eq{Field: "RFP", Value: "recA"},
		Sort:   []store.Sort{{Field: "Base Price", Direction: store.Desc}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "rec2", recs[0].ID)
	require.Equal(t, "rec1", recs[1].ID)

	// числа сортируются как числа, а не как строки
	recs, err = s.List(context.Background(), "Submissions", store.Query{
		Sort: []store.Sort{{Field: "Base Price", Direction: store.Asc}},
	})
	require.NoError(t, err)
	require.Equal(t, "rec3", recs[0].ID)
}

func TestAfterNow(t *testing.T) {
	s := memstore.New()
	s.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	s.Seed("RFPs", store.Record{ID: "future", Fields: store.Fields{"Deadline": "2026-03-02"}})
	s.Seed("RFPs", store.Record{ID: "today", Fields: store.Fields{"Deadline": "2026-03-01"}})
	s.Seed("RFPs", store.Record{ID: "stamp", Fields: store.Fields{"Deadline": "2026-03-01T18:00:00Z"}})
	s.Seed("RFPs", store.Record{ID: "blank", Fields: store.Fields{}})

	recs, err := s.List(context.Background(), "RFPs", store.Query{Filter: store.AfterNow{Field: "Deadline"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "future", recs[0].ID)
	require.Equal(t, "stamp", recs[1].ID)
}

func TestCreateUpdateFind(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	rec, err := s.Create(ctx, "Vendors", store.Fields{"Vendor Name": "Acme", "Status": "Pending Approval"})
	require.NoError(t, err)
	require.Len(t, rec.ID, 17)

	rec.Fields["Vendor Name"] = "mutated"
	got, err := s.Find(ctx, "Vendors", rec.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Fields["Vendor Name"])

	got, err = s.Update(ctx, "Vendors", rec.ID, store.Fields{"Status": "Approved"})
	require.NoError(t, err)
	require.Equal(t, "Approved", got.Fields["Status"])
	require.Equal(t, "Acme", got.Fields["Vendor Name"])

	_, err = s.Update(ctx, "Vendors", "recMissing", store.Fields{"Status": "Approved"})
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Find(ctx, "RFPs", rec.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
