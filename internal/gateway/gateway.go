// Package gateway переводит действие клиента в вызов табличного хранилища
// и упаковывает результат в единый Envelope.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rfpintake/internal/logging"
	"rfpintake/internal/metrics"
	"rfpintake/internal/store"
	"rfpintake/models"
)

// Tables реальные имена таблиц в базе
type Tables struct {
	RFPs        string
	Vendors     string
	Submissions string
}

type Gateway struct {
	store   store.RecordStore
	tables  Tables
	metrics *metrics.Metrics
}

func New(s store.RecordStore, tables Tables, m *metrics.Metrics) *Gateway {
	return &Gateway{store: s, tables: tables, metrics: m}
}

// ResolveTable переводит короткое имя (rfps, vendors, submissions) в настроенное,
// неизвестные имена возвращаются как есть
func (g *Gateway) ResolveTable(name string) string {
	switch strings.ToLower(name) {
	case "rfps":
		return g.tables.RFPs
	case "vendors":
		return g.tables.Vendors
	case "submissions":
		return g.tables.Submissions
	default:
		return name
	}
}

// Perform разбирает запрос и выполняет его. Ошибка дублируется в Envelope.
func (g *Gateway) Perform(ctx context.Context, req Request) (Envelope, error) {
	log := logging.FromContext(ctx)

	op, err := req.Operation()
	if err != nil {
		log.Warn("gateway request rejected", "action", req.Action, "err", err)
		if errors.Is(err, ErrInvalidAction) {
			g.metrics.ObserveAction("invalid", err, 0)
		}
		return Failure(err), err
	}
	if req.Table != "" {
		log.Debug("gateway table hint", "table", req.Table, "resolved", g.ResolveTable(req.Table))
	}

	env, err := g.Execute(ctx, op)
	if err != nil {
		log.Error("gateway action failed", "action", op.Action(), "err", err)
		return Failure(err), err
	}
	return env, nil
}

func (g *Gateway) Execute(ctx context.Context, op Operation) (env Envelope, err error) {
	start := time.Now()
	defer func() {
		g.metrics.ObserveAction(string(op.Action()), err, time.Since(start))
	}()

	switch op := op.(type) {
	case ListOp:
		switch op.Kind {
		case ActionGetActiveRFPs:
			return wrapRecords(g.ActiveRFPs(ctx))
		case ActionGetAllRFPs:
			return wrapRecords(g.AllRFPs(ctx))
		case ActionGetAllSubmissions:
			return wrapRecords(g.AllSubmissions(ctx))
		case ActionGetVendors:
			return wrapRecords(g.Vendors(ctx))
		case ActionGetDashboardStats:
			stats, err := g.DashboardStats(ctx)
			if err != nil {
				return Envelope{}, err
			}
			return statsEnvelope(stats), nil
		}
	case FindOp:
		switch op.Kind {
		case ActionGetRFP:
			return wrapRecord(g.RFP(ctx, op.RecordID))
		case ActionGetSubmission:
			return wrapRecord(g.Submission(ctx, op.RecordID))
		case ActionGetVendor:
			return wrapRecord(g.Vendor(ctx, op.RecordID))
		}
	case CreateOp:
		switch op.Kind {
		case ActionCreateRFP:
			return wrapRecord(g.CreateRFP(ctx, op.Data))
		case ActionSubmitBid:
			return wrapRecord(g.SubmitBid(ctx, op.Data))
		case ActionCreateVendor:
			return wrapRecord(g.CreateVendor(ctx, op.Data))
		}
	case UpdateOp:
		switch op.Kind {
		case ActionUpdateRFP:
			return wrapRecord(g.UpdateRFP(ctx, op.RecordID, op.Data))
		case ActionUpdateSubmission:
			return wrapRecord(g.UpdateSubmission(ctx, op.RecordID, op.Data))
		case ActionUpdateVendor:
			return wrapRecord(g.UpdateVendor(ctx, op.RecordID, op.Data))
		}
	case SubmissionsByRFPOp:
		return wrapRecords(g.SubmissionsByRFP(ctx, op.RFPRecordID))
	case VendorByEmailOp:
		rec, err := g.VendorByEmail(ctx, op.Email)
		if err != nil {
			return Envelope{}, err
		}
		return recordEnvelope(rec), nil
	}
	return Envelope{}, ErrInvalidAction
}

func wrapRecord(rec store.Record, err error) (Envelope, error) {
	if err != nil {
		return Envelope{}, err
	}
	return recordEnvelope(&rec), nil
}

func wrapRecords(recs []store.Record, err error) (Envelope, error) {
	if err != nil {
		return Envelope{}, err
	}
	return recordsEnvelope(recs), nil
}

// ActiveRFPs: Status = Active и срок подачи ещё не прошёл, ближайший срок первым
func (g *Gateway) ActiveRFPs(ctx context.Context) ([]store.Record, error) {
	return g.store.List(ctx, g.tables.RFPs, store.Query{
		Filter: store.And{
			store.Eq{Field: models.FieldStatus, Value: string(models.RFPActive)},
			store.AfterNow{Field: models.FieldSubmissionDeadline},
		},
		Sort: []store.Sort{{Field: models.FieldSubmissionDeadline, Direction: store.Asc}},
	})
}

func (g *Gateway) RFP(ctx context.Context, id string) (store.Record, error) {
	return g.store.Find(ctx, g.tables.RFPs, id)
}

func (g *Gateway) AllRFPs(ctx context.Context) ([]store.Record, error) {
	return g.store.List(ctx, g.tables.RFPs, store.Query{
		Sort: []store.Sort{{Field: models.FieldCreatedDate, Direction: store.Desc}},
	})
}

func (g *Gateway) CreateRFP(ctx context.Context, fields store.Fields) (store.Record, error) {
	return g.store.Create(ctx, g.tables.RFPs, fields)
}

func (g *Gateway) UpdateRFP(ctx context.Context, id string, fields store.Fields) (store.Record, error) {
	return g.store.Update(ctx, g.tables.RFPs, id, fields)
}

func (g *Gateway) SubmitBid(ctx context.Context, fields store.Fields) (store.Record, error) {
	return g.store.Create(ctx, g.tables.Submissions, fields)
}

func (g *Gateway) SubmissionsByRFP(ctx context.Context, rfpID string) ([]store.Record, error) {
	return g.store.List(ctx, g.tables.Submissions, store.Query{
		Filter: store.Eq{Field: models.FieldRFP, Value: rfpID},
		Sort:   []store.Sort{{Field: models.FieldSubmittedDate, Direction: store.Desc}},
	})
}

func (g *Gateway) AllSubmissions(ctx context.Context) ([]store.Record, error) {
	return g.store.List(ctx, g.tables.Submissions, store.Query{
		Sort: []store.Sort{{Field: models.FieldSubmittedDate, Direction: store.Desc}},
	})
}

func (g *Gateway) Submission(ctx context.Context, id string) (store.Record, error) {
	return g.store.Find(ctx, g.tables.Submissions, id)
}

func (g *Gateway) UpdateSubmission(ctx context.Context, id string, fields store.Fields) (store.Record, error) {
	return g.store.Update(ctx, g.tables.Submissions, id, fields)
}

func (g *Gateway) Vendors(ctx context.Context) ([]store.Record, error) {
	return g.store.List(ctx, g.tables.Vendors, store.Query{
		Sort: []store.Sort{{Field: models.FieldVendorName, Direction: store.Asc}},
	})
}

func (g *Gateway) Vendor(ctx context.Context, id string) (store.Record, error) {
	return g.store.Find(ctx, g.tables.Vendors, id)
}

func (g *Gateway) CreateVendor(ctx context.Context, fields store.Fields) (store.Record, error) {
	return g.store.Create(ctx, g.tables.Vendors, fields)
}

func (g *Gateway) UpdateVendor(ctx context.Context, id string, fields store.Fields) (store.Record, error) {
	return g.store.Update(ctx, g.tables.Vendors, id, fields)
}

// VendorByEmail первая запись с таким Email или nil
func (g *Gateway) VendorByEmail(ctx context.Context, email string) (*store.Record, error) {
	recs, err := g.store.List(ctx, g.tables.Vendors, store.Query{
		Filter: store.Eq{Field: models.FieldEmail, Value: email},
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// DashboardStats читает три таблицы параллельно. Ошибка любого чтения
// проваливает всё действие, частичной статистики нет.
func (g *Gateway) DashboardStats(ctx context.Context) (Stats, error) {
	var rfps, submissions, vendors []store.Record

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		rfps, err = g.store.List(ctx, g.tables.RFPs, store.Query{})
		return err
	})
	eg.Go(func() (err error) {
		submissions, err = g.store.List(ctx, g.tables.Submissions, store.Query{})
		return err
	})
	eg.Go(func() (err error) {
		vendors, err = g.store.List(ctx, g.tables.Vendors, store.Query{})
		return err
	})
	if err := eg.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalSubmissions: len(submissions),
		TotalVendors:     len(vendors),
	}
	for _, r := range rfps {
		if models.String(r.Fields, models.FieldStatus) == string(models.RFPActive) {
			stats.ActiveRFPs++
		}
	}
	for _, s := range submissions {
		switch models.ReviewStatus(models.String(s.Fields, models.FieldReviewStatus)) {
		case models.ReviewPending:
			stats.PendingReviews++
		case models.ReviewShortlisted:
			stats.Shortlisted++
		}
	}
	return stats, nil
}
