// Package admin панель администратора: RFP, заявки, поставщики и сессия входа.
// Каждое представление читает данные заново, каждое действие после записи
// возвращает свежее чтение того же представления.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rfpintake/internal/gateway"
	"rfpintake/internal/store"
	"rfpintake/internal/validation"
	"rfpintake/models"
)

var (
	ErrNotConfirmed   = errors.New("action was not confirmed")
	ErrReasonRequired = errors.New("a reason is required to decline a vendor")
)

// FormError форма не прошла проверку, в хранилище ничего не ушло
type FormError struct {
	Field string
	Rule  string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("invalid value for %s (%s)", e.Field, e.Rule)
}

// Gateway операции шлюза, которые использует панель
type Gateway interface {
	DashboardStats(ctx context.Context) (gateway.Stats, error)
	AllRFPs(ctx context.Context) ([]store.Record, error)
	RFP(ctx context.Context, id string) (store.Record, error)
	CreateRFP(ctx context.Context, fields store.Fields) (store.Record, error)
	UpdateRFP(ctx context.Context, id string, fields store.Fields) (store.Record, error)
	SubmissionsByRFP(ctx context.Context, rfpID string) ([]store.Record, error)
	AllSubmissions(ctx context.Context) ([]store.Record, error)
	Submission(ctx context.Context, id string) (store.Record, error)
	UpdateSubmission(ctx context.Context, id string, fields store.Fields) (store.Record, error)
	Vendors(ctx context.Context) ([]store.Record, error)
	Vendor(ctx context.Context, id string) (store.Record, error)
	UpdateVendor(ctx context.Context, id string, fields store.Fields) (store.Record, error)
}

// Info панель "о системе"
type Info struct {
	BaseID       string `json:"baseId"`
	StoreBackend string `json:"storeBackend"`
	MediaBackend string `json:"mediaBackend"`
	CompanyName  string `json:"companyName"`
	PortalTitle  string `json:"portalTitle"`
	SupportEmail string `json:"supportEmail"`
}

type Console struct {
	gw   Gateway
	info Info
	now  func() time.Time
}

func NewConsole(gw Gateway, info Info) *Console {
	return &Console{gw: gw, info: info, now: time.Now}
}

func (c *Console) Info() Info {
	return c.info
}

const recentSubmissions = 5

type Dashboard struct {
	Stats  gateway.Stats       `json:"stats"`
	Recent []models.Submission `json:"recentSubmissions"`
}

func (c *Console) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := c.gw.DashboardStats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	subs, err := c.Submissions(ctx, "")
	if err != nil {
		return Dashboard{}, err
	}
	if len(subs) > recentSubmissions {
		subs = subs[:recentSubmissions]
	}
	return Dashboard{Stats: stats, Recent: subs}, nil
}

// RFPs все RFP, новые первыми
func (c *Console) RFPs(ctx context.Context) ([]models.RFP, error) {
	recs, err := c.gw.AllRFPs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.RFP, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.RFPFromFields(r.ID, r.CreatedTime, r.Fields))
	}
	return out, nil
}

func (c *Console) RFP(ctx context.Context, id string) (models.RFP, error) {
	rec, err := c.gw.RFP(ctx, id)
	if err != nil {
		return models.RFP{}, err
	}
	return models.RFPFromFields(rec.ID, rec.CreatedTime, rec.Fields), nil
}

var validate = validation.New()

// SaveRFP создаёт RFP (id пустой) или обновляет существующий, затем отдаёт список
func (c *Console) SaveRFP(ctx context.Context, id string, form models.RFP) ([]models.RFP, error) {
	if form.Status == "" {
		form.Status = models.RFPDraft
	}
	if fe := validation.FieldErrors(validate.Struct(form)); len(fe) > 0 {
		return nil, &FormError{Field: fe[0].Field(), Rule: fe[0].Tag()}
	}

	var err error
	if id == "" {
		_, err = c.gw.CreateRFP(ctx, form.Fields())
	} else {
		_, err = c.gw.UpdateRFP(ctx, id, form.Fields())
	}
	if err != nil {
		return nil, err
	}
	return c.RFPs(ctx)
}

// RFPLink публичная ссылка на RFP для поставщиков
func RFPLink(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/public/rfp-detail.html?id=" + url.QueryEscape(id)
}

func (c *Console) RFPSubmissions(ctx context.Context, rfpID string) ([]models.Submission, error) {
	recs, err := c.gw.SubmissionsByRFP(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	return submissions(recs, ""), nil
}

// Submissions все заявки; status не пустой оставляет только заявки с этим статусом
func (c *Console) Submissions(ctx context.Context, status models.ReviewStatus) ([]models.Submission, error) {
	recs, err := c.gw.AllSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	return submissions(recs, status), nil
}

func submissions(recs []store.Record, status models.ReviewStatus) []models.Submission {
	out := make([]models.Submission, 0, len(recs))
	for _, r := range recs {
		if status != "" && models.String(r.Fields, models.FieldReviewStatus) != string(status) {
			continue
		}
		out = append(out, models.SubmissionFromFields(r.ID, r.CreatedTime, r.Fields))
	}
	return out
}

func (c *Console) Submission(ctx context.Context, id string) (models.Submission, error) {
	rec, err := c.gw.Submission(ctx, id)
	if err != nil {
		return models.Submission{}, err
	}
	return models.SubmissionFromFields(rec.ID, rec.CreatedTime, rec.Fields), nil
}

type Rating struct {
	Stars  int                 `json:"stars" validate:"min=1,max=5"`
	Status models.ReviewStatus `json:"status" validate:"omitempty,reviewstatus"`
	Notes  string              `json:"notes"`
}

// RateSubmission пишет оценку "N-Star", статус (по умолчанию Under Review) и заметки
func (c *Console) RateSubmission(ctx context.Context, id string, r Rating) ([]models.Submission, error) {
	if fe := validation.FieldErrors(validate.Struct(r)); len(fe) > 0 {
		return nil, &FormError{Field: fe[0].Field(), Rule: fe[0].Tag()}
	}
	if r.Status == "" {
		r.Status = models.ReviewUnderReview
	}

	_, err := c.gw.UpdateSubmission(ctx, id, store.Fields{
		models.FieldInternalRating: fmt.Sprintf("%d-Star", r.Stars),
		models.FieldReviewStatus:   string(r.Status),
		models.FieldInternalNotes:  r.Notes,
	})
	if err != nil {
		return nil, err
	}
	return c.Submissions(ctx, "")
}

// Vendors поставщики, уже прошедшие рассмотрение
func (c *Console) Vendors(ctx context.Context) ([]models.Vendor, error) {
	return c.vendors(ctx, func(s models.VendorStatus) bool { return s != models.VendorPendingApproval })
}

type PendingView struct {
	Count   int             `json:"count"`
	Vendors []models.Vendor `json:"vendors"`
}

func (c *Console) PendingVendors(ctx context.Context) (PendingView, error) {
	vendors, err := c.vendors(ctx, func(s models.VendorStatus) bool { return s == models.VendorPendingApproval })
	if err != nil {
		return PendingView{}, err
	}
	return PendingView{Count: len(vendors), Vendors: vendors}, nil
}

func (c *Console) vendors(ctx context.Context, keep func(models.VendorStatus) bool) ([]models.Vendor, error) {
	recs, err := c.gw.Vendors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Vendor, 0, len(recs))
	for _, r := range recs {
		v := models.VendorFromFields(r.ID, r.CreatedTime, r.Fields)
		if keep(v.Status) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Console) Vendor(ctx context.Context, id string) (models.Vendor, error) {
	rec, err := c.gw.Vendor(ctx, id)
	if err != nil {
		return models.Vendor{}, err
	}
	return models.VendorFromFields(rec.ID, rec.CreatedTime, rec.Fields), nil
}

// ApproveVendor ставит Approved и сегодняшнюю дату одобрения
func (c *Console) ApproveVendor(ctx context.Context, id string, confirmed bool) (PendingView, error) {
	if !confirmed {
		return PendingView{}, ErrNotConfirmed
	}
	_, err := c.gw.UpdateVendor(ctx, id, store.Fields{
		models.FieldStatus:       string(models.VendorApproved),
		models.FieldApprovalDate: c.now().UTC().Format(models.DateLayout),
	})
	if err != nil {
		return PendingView{}, err
	}
	return c.PendingVendors(ctx)
}

// DeclineVendor дописывает причину к заметкам. Между чтением и записью
// заметок блокировки нет, выигрывает последняя запись.
func (c *Console) DeclineVendor(ctx context.Context, id, reason string, confirmed bool) (PendingView, error) {
	if strings.TrimSpace(reason) == "" {
		return PendingView{}, ErrReasonRequired
	}
	if !confirmed {
		return PendingView{}, ErrNotConfirmed
	}

	rec, err := c.gw.Vendor(ctx, id)
	if err != nil {
		return PendingView{}, err
	}
	notes := models.String(rec.Fields, models.FieldInternalNotes)

	_, err = c.gw.UpdateVendor(ctx, id, store.Fields{
		models.FieldStatus:        string(models.VendorDeclined),
		models.FieldInternalNotes: notes + "\n\nDECLINED: " + reason,
	})
	if err != nil {
		return PendingView{}, err
	}
	return c.PendingVendors(ctx)
}
