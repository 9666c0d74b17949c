package models

import (
	"fmt"
	"strconv"
	"time"
)

// Имена колонок в табличном хранилище
const (
	FieldRFPNumber          = "RFP ID"
	FieldRFPName            = "RFP Name"
	FieldStatus             = "Status"
	FieldObjective          = "Objective"
	FieldScope              = "Scope"
	FieldTimeline           = "Timeline"
	FieldBudgetGuidance     = "Budget Guidance"
	FieldSubmissionDeadline = "Submission Deadline"
	FieldOwner              = "Owner"
	FieldOwnerEmail         = "Owner Email"
	FieldCreatedDate        = "Created Date"

	FieldVendorName    = "Vendor Name"
	FieldContactPerson = "Contact Person"
	FieldContactTitle  = "Contact Title"
	FieldEmail         = "Email"
	FieldPhone         = "Phone"
	FieldWebsite       = "Website"
	FieldCountry       = "Country"
	FieldCompanySize   = "Company Size"
	FieldServices      = "Services"
	FieldNDAOnFile     = "NDA on File"
	FieldNDAFileName   = "NDA File Name"
	FieldNDAUploadDate = "NDA Upload Date"
	FieldNDADocument   = "NDA Document"
	FieldPasswordHash  = "Password Hash"
	FieldInternalNotes = "Internal Notes"
	FieldDateAdded     = "Date Added"
	FieldApprovalDate  = "Approval Date"
	FieldLastLogin     = "Last Login"

	FieldVendor         = "Vendor"
	FieldRFP            = "RFP"
	FieldBasePrice      = "Base Price"
	FieldCurrency       = "Currency"
	FieldTimelineDays   = "Timeline (Days)"
	FieldAssumptions    = "Assumptions"
	FieldExceptions     = "Exceptions"
	FieldOptionalAddOns = "Optional Add-ons"
	FieldReviewStatus   = "Review Status"
	FieldInternalRating = "Internal Rating"
	FieldSubmittedDate  = "Submitted Date"
)

// DateLayout формат дат без времени, как их хранит база
const DateLayout = "2006-01-02"

type RFPStatus string

const (
	RFPDraft  RFPStatus = "Draft"
	RFPActive RFPStatus = "Active"
	RFPClosed RFPStatus = "Closed"
)

func ValidRFPStatus(s RFPStatus) bool {
	switch s {
	case RFPDraft, RFPActive, RFPClosed:
		return true
	default:
		return false
	}
}

type VendorStatus string

const (
	VendorPendingApproval VendorStatus = "Pending Approval"
	VendorApproved        VendorStatus = "Approved"
	VendorDeclined        VendorStatus = "Declined"
)

type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "Pending"
	ReviewUnderReview ReviewStatus = "Under Review"
	ReviewShortlisted ReviewStatus = "Shortlisted"
	ReviewRejected    ReviewStatus = "Rejected"
)

func ValidReviewStatus(s ReviewStatus) bool {
	switch s {
	case ReviewPending, ReviewUnderReview, ReviewShortlisted, ReviewRejected:
		return true
	default:
		return false
	}
}

// Сущность RFP
type RFP struct {
	ID                 string    `json:"id"`
	Number             string    `json:"number,omitempty"`
	Name               string    `json:"name" validate:"required,max=200"`
	Status             RFPStatus `json:"status" validate:"required,rfpstatus"`
	Objective          string    `json:"objective"`
	Scope              string    `json:"scope"`
	Timeline           string    `json:"timeline"`
	BudgetGuidance     string    `json:"budgetGuidance"`
	SubmissionDeadline string    `json:"submissionDeadline" validate:"required"`
	Owner              string    `json:"owner"`
	OwnerEmail         string    `json:"ownerEmail"`
	CreatedDate        string    `json:"createdDate,omitempty"`
	CreatedTime        time.Time `json:"createdTime"`
}

// Fields возвращает редактируемые поля RFP в формате хранилища
func (r *RFP) Fields() map[string]any {
	return map[string]any{
		FieldRFPName:            r.Name,
		FieldObjective:          r.Objective,
		FieldScope:              r.Scope,
		FieldTimeline:           r.Timeline,
		FieldBudgetGuidance:     r.BudgetGuidance,
		FieldSubmissionDeadline: r.SubmissionDeadline,
		FieldOwner:              r.Owner,
		FieldOwnerEmail:         r.OwnerEmail,
		FieldStatus:             string(r.Status),
	}
}

func RFPFromFields(id string, created time.Time, f map[string]any) RFP {
	return RFP{
		ID:                 id,
		Number:             String(f, FieldRFPNumber),
		Name:               String(f, FieldRFPName),
		Status:             RFPStatus(String(f, FieldStatus)),
		Objective:          String(f, FieldObjective),
		Scope:              String(f, FieldScope),
		Timeline:           String(f, FieldTimeline),
		BudgetGuidance:     String(f, FieldBudgetGuidance),
		SubmissionDeadline: String(f, FieldSubmissionDeadline),
		Owner:              String(f, FieldOwner),
		OwnerEmail:         String(f, FieldOwnerEmail),
		CreatedDate:        String(f, FieldCreatedDate),
		CreatedTime:        created,
	}
}

// Attachment вложение в формате хранилища
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Сущность Поставщика
type Vendor struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ContactPerson string       `json:"contactPerson"`
	ContactTitle  string       `json:"contactTitle,omitempty"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone,omitempty"`
	Website       string       `json:"website,omitempty"`
	Country       string       `json:"country,omitempty"`
	CompanySize   string       `json:"companySize,omitempty"`
	Services      string       `json:"services,omitempty"`
	NDAOnFile     bool         `json:"ndaOnFile"`
	NDAFileName   string       `json:"ndaFileName,omitempty"`
	NDAUploadDate string       `json:"ndaUploadDate,omitempty"`
	NDADocument   []Attachment `json:"ndaDocument,omitempty"`
	Status        VendorStatus `json:"status"`
	InternalNotes string       `json:"internalNotes,omitempty"`
	DateAdded     string       `json:"dateAdded,omitempty"`
	ApprovalDate  string       `json:"approvalDate,omitempty"`
	LastLogin     string       `json:"lastLogin,omitempty"`
	CreatedTime   time.Time    `json:"createdTime"`
}

// Хэш пароля наружу не отдаём
func VendorFromFields(id string, created time.Time, f map[string]any) Vendor {
	return Vendor{
		ID:            id,
		Name:          String(f, FieldVendorName),
		ContactPerson: String(f, FieldContactPerson),
		ContactTitle:  String(f, FieldContactTitle),
		Email:         String(f, FieldEmail),
		Phone:         String(f, FieldPhone),
		Website:       String(f, FieldWebsite),
		Country:       String(f, FieldCountry),
		CompanySize:   String(f, FieldCompanySize),
		Services:      String(f, FieldServices),
		NDAOnFile:     Bool(f, FieldNDAOnFile),
		NDAFileName:   String(f, FieldNDAFileName),
		NDAUploadDate: String(f, FieldNDAUploadDate),
		NDADocument:   Attachments(f, FieldNDADocument),
		Status:        VendorStatus(String(f, FieldStatus)),
		InternalNotes: String(f, FieldInternalNotes),
		DateAdded:     String(f, FieldDateAdded),
		ApprovalDate:  String(f, FieldApprovalDate),
		LastLogin:     String(f, FieldLastLogin),
		CreatedTime:   created,
	}
}

// Сущность Заявки (bid)
type Submission struct {
	ID             string       `json:"id"`
	VendorName     string       `json:"vendorName"`
	Email          string       `json:"email,omitempty"`
	Vendor         []string     `json:"vendor,omitempty"`
	RFP            []string     `json:"rfp,omitempty"`
	BasePrice      float64      `json:"basePrice"`
	Currency       string       `json:"currency"`
	TimelineDays   float64      `json:"timelineDays"`
	Assumptions    string       `json:"assumptions,omitempty"`
	Exceptions     string       `json:"exceptions,omitempty"`
	OptionalAddOns string       `json:"optionalAddOns,omitempty"`
	ReviewStatus   ReviewStatus `json:"reviewStatus"`
	InternalRating string       `json:"internalRating,omitempty"`
	InternalNotes  string       `json:"internalNotes,omitempty"`
	SubmittedDate  string       `json:"submittedDate,omitempty"`
	CreatedTime    time.Time    `json:"createdTime"`
}

func SubmissionFromFields(id string, created time.Time, f map[string]any) Submission {
	s := Submission{
		ID:             id,
		VendorName:     String(f, FieldVendorName),
		Email:          String(f, FieldEmail),
		Vendor:         Strings(f, FieldVendor),
		RFP:            Strings(f, FieldRFP),
		BasePrice:      Number(f, FieldBasePrice),
		Currency:       String(f, FieldCurrency),
		TimelineDays:   Number(f, FieldTimelineDays),
		Assumptions:    String(f, FieldAssumptions),
		Exceptions:     String(f, FieldExceptions),
		OptionalAddOns: String(f, FieldOptionalAddOns),
		ReviewStatus:   ReviewStatus(String(f, FieldReviewStatus)),
		InternalRating: String(f, FieldInternalRating),
		InternalNotes:  String(f, FieldInternalNotes),
		SubmittedDate:  String(f, FieldSubmittedDate),
		CreatedTime:    created,
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}
	// пустой статус в базе показывается как Pending
	if s.ReviewStatus == "" {
		s.ReviewStatus = ReviewPending
	}
	return s
}

// String читает текстовое поле; числа и булевы значения приводятся к строке
func String(f map[string]any, key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func Number(f map[string]any, key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func Bool(f map[string]any, key string) bool {
	v, _ := f[key].(bool)
	return v
}

// Strings читает поле-ссылку (linked record), хранится как список id
func Strings(f map[string]any, key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func Attachments(f map[string]any, key string) []Attachment {
	switch v := f[key].(type) {
	case []Attachment:
		return v
	case []map[string]any:
		out := make([]Attachment, 0, len(v))
		for _, m := range v {
			out = append(out, Attachment{URL: String(m, "url"), Filename: String(m, "filename")})
		}
		return out
	case []any:
		out := make([]Attachment, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Attachment{URL: String(m, "url"), Filename: String(m, "filename")})
			}
		}
		return out
	default:
		return nil
	}
}
