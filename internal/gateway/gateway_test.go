package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"rfpintake/internal/gateway"
	"rfpintake/internal/store"
	"rfpintake/internal/store/memstore"
	"rfpintake/models"
)

var tables = gateway.Tables{RFPs: "RFPs", Vendors: "Vendors", Submissions: "Submissions"}

// countingStore считает обращения к хранилищу и может отказать на чтении
type countingStore struct {
	store.RecordStore
	calls   atomic.Int32
	listErr error
}

func (c *countingStore) List(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	c.calls.Add(1)
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.RecordStore.List(ctx, table, q)
}

func (c *countingStore) Find(ctx context.Context, table, id string) (store.Record, error) {
	c.calls.Add(1)
	return c.RecordStore.Find(ctx, table, id)
}

func (c *countingStore) Create(ctx context.Context, table string, f store.Fields) (store.Record, error) {
	c.calls.Add(1)
	return c.RecordStore.Create(ctx, table, f)
}

func (c *countingStore) Update(ctx context.Context, table, id string, f store.Fields) (store.Record, error) {
	c.calls.Add(1)
	return c.RecordStore.Update(ctx, table, id, f)
}

func newGateway(t *testing.T) (*gateway.Gateway, *memstore.Store, *countingStore) {
	t.Helper()
	mem := memstore.New()
	mem.Now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	cs := &countingStore{RecordStore: mem}
	return gateway.New(cs, tables, nil), mem, cs
}

func seedRFP(mem *memstore.Store, id, status, deadline string) {
	mem.Seed("RFPs", store.Record{ID: id, Fields: store.Fields{
		models.FieldRFPName:            id,
		models.FieldStatus:             status,
		models.FieldSubmissionDeadline: deadline,
	}})
}

func TestParseAction(t *testing.T) {
	a, err := gateway.ParseAction("get-dashboard-stats")
	require.NoError(t, err)
	require.Equal(t, gateway.ActionGetDashboardStats, a)

	a, err = gateway.ParseAction("getVendorByEmail")
	require.NoError(t, err)
	require.Equal(t, gateway.ActionGetVendorByEmail, a)

	_, err = gateway.ParseAction("doSomething")
	require.ErrorIs(t, err, gateway.ErrInvalidAction)
}

func TestActiveRFPs_FilterAndOrder(t *testing.T) {
	gw, mem, _ := newGateway(t)
	seedRFP(mem, "recLate", "Active", "2026-09-01")
	seedRFP(mem, "recDraft", "Draft", "2026-07-01")
	seedRFP(mem, "recExpired", "Active", "2026-05-01")
	seedRFP(mem, "recSoon", "Active", "2026-06-15")
	seedRFP(mem, "recClosed", "Closed", "2026-12-01")
	seedRFP(mem, "recNoDeadline", "Active", "")

	recs, err := gw.ActiveRFPs(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []string{"recSoon", "recLate"}, ids)
}

func TestDashboardStats(t *testing.T) {
	gw, mem, _ := newGateway(t)

	stats, err := gw.DashboardStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, gateway.Stats{}, stats)

	seedRFP(mem, "rec1", "Active", "2026-09-01")
	seedRFP(mem, "rec2", "Active", "2020-01-01")
	seedRFP(mem, "rec3", "Draft", "2026-09-01")
	for _, status := range []string{"Pending", "Pending", "Shortlisted", "Rejected"} {
		mem.Seed("Submissions", store.Record{Fields: store.Fields{models.FieldReviewStatus: status}})
	}
	mem.Seed("Vendors", store.Record{Fields: store.Fields{models.FieldVendorName: "Acme"}})

	want := gateway.Stats{ActiveRFPs: 2, TotalSubmissions: 4, PendingReviews: 2, TotalVendors: 1, Shortlisted: 1}
	for i := 0; i < 2; i++ {
		stats, err = gw.DashboardStats(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, stats)
	}
}

func TestDashboardStats_AnyReadFails(t *testing.T) {
	gw, _, cs := newGateway(t)
	cs.listErr = &store.Error{StatusCode: 429, Type: "RATE_LIMIT", Message: "Rate limit exceeded"}

	env, err := gw.Perform(context.Background(), gateway.Request{Action: "getDashboardStats"})
	require.Error(t, err)
	require.False(t, env.Success)
	require.Equal(t, "Rate limit exceeded", env.Error)
	require.Nil(t, env.Stats)
	require.Equal(t, http.StatusInternalServerError, gateway.StatusCode(err))
}

func TestPerform_InvalidActionNoStoreCall(t *testing.T) {
	gw, _, cs := newGateway(t)

	env, err := gw.Perform(context.Background(), gateway.Request{Action: "doSomething"})
	require.ErrorIs(t, err, gateway.ErrInvalidAction)
	require.Equal(t, http.StatusBadRequest, gateway.StatusCode(err))
	require.Zero(t, cs.calls.Load())

	b, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"error":"Invalid action"}`, string(b))
}

func TestPerform_MissingParamNoStoreCall(t *testing.T) {
	gw, _, cs := newGateway(t)

	for _, action := range []string{"getRFP", "updateVendor", "getSubmissionsByRFP", "get-vendor-by-email", "createRFP"} {
		_, err := gw.Perform(context.Background(), gateway.Request{Action: action})
		var paramErr *gateway.ParamError
		require.ErrorAs(t, err, &paramErr, action)
		require.Equal(t, http.StatusBadRequest, gateway.StatusCode(err))
	}
	require.Zero(t, cs.calls.Load())
}

func TestPerform_VendorByEmail(t *testing.T) {
	gw, mem, _ := newGateway(t)
	mem.Seed("Vendors", store.Record{ID: "recV", Fields: store.Fields{models.FieldEmail: "a@b.com"}})

	env, err := gw.Perform(context.Background(), gateway.Request{Action: "getVendorByEmail", Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, "recV", env.Record.ID)

	env, err = gw.Perform(context.Background(), gateway.Request{Action: "getVendorByEmail", Email: "x@y.com"})
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"record":null}`, string(b))
}

func TestPerform_CreateUpdateAndList(t *testing.T) {
	gw, _, _ := newGateway(t)
	ctx := context.Background()

	env, err := gw.Perform(ctx, gateway.Request{Action: "submitBid", Data: store.Fields{
		models.FieldRFP:           []any{"recRFP"},
		models.FieldSubmittedDate: "2026-05-02",
	}})
	require.NoError(t, err)
	first := env.Record.ID

	_, err = gw.Perform(ctx, gateway.Request{Action: "submit-bid", Data: store.Fields{
		models.FieldRFP:           []any{"recRFP"},
		models.FieldSubmittedDate: "2026-05-03",
	}})
	require.NoError(t, err)

	env, err = gw.Perform(ctx, gateway.Request{Action: "getSubmissionsByRFP", RFPRecordID: "recRFP"})
	require.NoError(t, err)
	require.Len(t, env.Records, 2)
	require.Equal(t, first, env.Records[1].ID)

	env, err = gw.Perform(ctx, gateway.Request{Action: "updateSubmission", RecordID: first, Data: store.Fields{
		models.FieldReviewStatus: "Shortlisted",
	}})
	require.NoError(t, err)
	require.Equal(t, "Shortlisted", env.Record.Fields[models.FieldReviewStatus])
	require.Equal(t, "2026-05-02", env.Record.Fields[models.FieldSubmittedDate])

	env, err = gw.Perform(ctx, gateway.Request{Action: "getAllRFPs"})
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"records":[]}`, string(b))
}

func TestPerform_StoreErrorSurfaced(t *testing.T) {
	gw, _, _ := newGateway(t)

	env, err := gw.Perform(context.Background(), gateway.Request{Action: "getRFP", RecordID: "recNope"})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, "Could not find record recNope", env.Error)
	require.Equal(t, http.StatusInternalServerError, gateway.StatusCode(err))
}

func TestResolveTable(t *testing.T) {
	gw := gateway.New(nil, gateway.Tables{RFPs: "RFP List", Vendors: "Vendors", Submissions: "Bids"}, nil)
	require.Equal(t, "RFP List", gw.ResolveTable("rfps"))
	require.Equal(t, "Bids", gw.ResolveTable("submissions"))
	require.Equal(t, "Decisions", gw.ResolveTable("Decisions"))
}

func TestLambdaHandler(t *testing.T) {
	gw, mem, _ := newGateway(t)
	seedRFP(mem, "recA", "Active", "2026-09-01")
	h := gateway.NewLambdaHandler(gw)
	ctx := context.Background()

	resp, err := h.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.Empty(t, resp.Body)

	resp, err = h.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.JSONEq(t, `{"success":false,"error":"Method not allowed"}`, resp.Body)

	resp, err = h.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: `{"action":"doSomething"}`})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.JSONEq(t, `{"success":false,"error":"Invalid action"}`, resp.Body)

	resp, err = h.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: `{"action":"getActiveRFPs"}`})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Success bool           `json:"success"`
		Records []store.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	require.True(t, out.Success)
	require.Len(t, out.Records, 1)
	require.Equal(t, "recA", out.Records[0].ID)
}

func TestFailureEnvelope(t *testing.T) {
	env := gateway.Failure(errors.New("boom"))
	require.False(t, env.Success)
	require.Equal(t, "boom", env.Error)
}
