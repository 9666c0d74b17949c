package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"rfpintake/internal/store"
)

// Action закрытый набор операций шлюза
type Action string

const (
	ActionGetActiveRFPs       Action = "getActiveRFPs"
	ActionGetRFP              Action = "getRFP"
	ActionGetAllRFPs          Action = "getAllRFPs"
	ActionCreateRFP           Action = "createRFP"
	ActionUpdateRFP           Action = "updateRFP"
	ActionSubmitBid           Action = "submitBid"
	ActionGetSubmissionsByRFP Action = "getSubmissionsByRFP"
	ActionGetAllSubmissions   Action = "getAllSubmissions"
	ActionGetSubmission       Action = "getSubmission"
	ActionUpdateSubmission    Action = "updateSubmission"
	ActionGetVendors          Action = "getVendors"
	ActionGetVendor           Action = "getVendor"
	ActionCreateVendor        Action = "createVendor"
	ActionUpdateVendor        Action = "updateVendor"
	ActionGetVendorByEmail    Action = "getVendorByEmail"
	ActionGetDashboardStats   Action = "getDashboardStats"
)

// имена в стиле kebab-case принимаются как синонимы
var actions = map[string]Action{
	"get-active-rfps":        ActionGetActiveRFPs,
	"get-rfp":                ActionGetRFP,
	"get-all-rfps":           ActionGetAllRFPs,
	"create-rfp":             ActionCreateRFP,
	"update-rfp":             ActionUpdateRFP,
	"submit-bid":             ActionSubmitBid,
	"get-submissions-by-rfp": ActionGetSubmissionsByRFP,
	"get-all-submissions":    ActionGetAllSubmissions,
	"get-submission":         ActionGetSubmission,
	"update-submission":      ActionUpdateSubmission,
	"get-vendors":            ActionGetVendors,
	"get-vendor":             ActionGetVendor,
	"create-vendor":          ActionCreateVendor,
	"update-vendor":          ActionUpdateVendor,
	"get-vendor-by-email":    ActionGetVendorByEmail,
	"get-dashboard-stats":    ActionGetDashboardStats,
}

func init() {
	canonical := make([]Action, 0, len(actions))
	for _, a := range actions {
		canonical = append(canonical, a)
	}
	for _, a := range canonical {
		actions[string(a)] = a
	}
}

// ErrInvalidAction текст уходит клиенту как есть
var ErrInvalidAction = errors.New("Invalid action")

func ParseAction(name string) (Action, error) {
	a, ok := actions[name]
	if !ok {
		return "", ErrInvalidAction
	}
	return a, nil
}

// ParamError не передан обязательный параметр запроса
type ParamError struct {
	Param string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s is required", e.Param)
}

// Request тело запроса к шлюзу
type Request struct {
	Action      string       `json:"action"`
	Table       string       `json:"table,omitempty"`
	Data        store.Fields `json:"data,omitempty"`
	RecordID    string       `json:"recordId,omitempty"`
	Email       string       `json:"email,omitempty"`
	RFPRecordID string       `json:"rfpRecordId,omitempty"`
}

// Operation типизированная операция, разобранная из Request
type Operation interface {
	Action() Action
}

// ListOp чтение без параметров (списки и статистика)
type ListOp struct{ Kind Action }

type FindOp struct {
	Kind     Action
	RecordID string
}

type CreateOp struct {
	Kind Action
	Data store.Fields
}

type UpdateOp struct {
	Kind     Action
	RecordID string
	Data     store.Fields
}

type SubmissionsByRFPOp struct{ RFPRecordID string }

type VendorByEmailOp struct{ Email string }

func (o ListOp) Action() Action           { return o.Kind }
func (o FindOp) Action() Action           { return o.Kind }
func (o CreateOp) Action() Action         { return o.Kind }
func (o UpdateOp) Action() Action         { return o.Kind }
func (SubmissionsByRFPOp) Action() Action { return ActionGetSubmissionsByRFP }
func (VendorByEmailOp) Action() Action    { return ActionGetVendorByEmail }

// Operation проверяет имя действия и наличие его параметров
func (r Request) Operation() (Operation, error) {
	a, err := ParseAction(r.Action)
	if err != nil {
		return nil, err
	}

	switch a {
	case ActionGetActiveRFPs, ActionGetAllRFPs, ActionGetAllSubmissions, ActionGetVendors, ActionGetDashboardStats:
		return ListOp{Kind: a}, nil
	case ActionGetRFP, ActionGetSubmission, ActionGetVendor:
		if r.RecordID == "" {
			return nil, &ParamError{Param: "recordId"}
		}
		return FindOp{Kind: a, RecordID: r.RecordID}, nil
	case ActionCreateRFP, ActionSubmitBid, ActionCreateVendor:
		if r.Data == nil {
			return nil, &ParamError{Param: "data"}
		}
		return CreateOp{Kind: a, Data: r.Data}, nil
	case ActionUpdateRFP, ActionUpdateSubmission, ActionUpdateVendor:
		if r.RecordID == "" {
			return nil, &ParamError{Param: "recordId"}
		}
		if r.Data == nil {
			return nil, &ParamError{Param: "data"}
		}
		return UpdateOp{Kind: a, RecordID: r.RecordID, Data: r.Data}, nil
	case ActionGetSubmissionsByRFP:
		if r.RFPRecordID == "" {
			return nil, &ParamError{Param: "rfpRecordId"}
		}
		return SubmissionsByRFPOp{RFPRecordID: r.RFPRecordID}, nil
	case ActionGetVendorByEmail:
		if r.Email == "" {
			return nil, &ParamError{Param: "email"}
		}
		return VendorByEmailOp{Email: r.Email}, nil
	}
	return nil, ErrInvalidAction
}

// Stats счётчики для панели администратора
type Stats struct {
	ActiveRFPs       int `json:"activeRFPs"`
	TotalSubmissions int `json:"totalSubmissions"`
	PendingReviews   int `json:"pendingReviews"`
	TotalVendors     int `json:"totalVendors"`
	Shortlisted      int `json:"shortlisted"`
}

type shape int

const (
	shapeNone shape = iota
	shapeRecord
	shapeRecords
	shapeStats
)

// Envelope единый ответ шлюза: {success, record|records|stats, error}
type Envelope struct {
	Success bool
	Record  *store.Record
	Records []store.Record
	Stats   *Stats
	Error   string

	shape shape
}

func recordEnvelope(rec *store.Record) Envelope {
	return Envelope{Success: true, Record: rec, shape: shapeRecord}
}

func recordsEnvelope(recs []store.Record) Envelope {
	return Envelope{Success: true, Records: recs, shape: shapeRecords}
}

func statsEnvelope(s Stats) Envelope {
	return Envelope{Success: true, Stats: &s, shape: shapeStats}
}

// Failure ответ с ошибкой
func Failure(err error) Envelope {
	return Envelope{Error: err.Error()}
}

// MarshalJSON: record пишется даже если он null (getVendorByEmail без совпадений),
// пустой список пишется как []
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": e.Success}
	switch e.shape {
	case shapeRecord:
		out["record"] = e.Record
	case shapeRecords:
		recs := e.Records
		if recs == nil {
			recs = []store.Record{}
		}
		out["records"] = recs
	case shapeStats:
		out["stats"] = e.Stats
	}
	if e.Error != "" {
		out["error"] = e.Error
	}
	return json.Marshal(out)
}

// StatusCode HTTP-код для результата Perform
func StatusCode(err error) int {
	var paramErr *ParamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidAction), errors.As(err, &paramErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
