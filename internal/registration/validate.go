package registration

import (
	"fmt"
	"mime"
	"strings"

	"rfpintake/internal/media"
	"rfpintake/internal/validation"
)

// Step шаг регистрации, только вперёд
type Step int

const (
	StepCompanyInfo Step = iota + 1
	StepNDAUpload
	StepCredentials
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepCompanyInfo:
		return "company-info"
	case StepNDAUpload:
		return "nda-upload"
	case StepCredentials:
		return "credentials"
	case StepConfirmation:
		return "confirmation"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const MaxFileSize = 10 << 20

var allowedTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

type CompanyInfo struct {
	CompanyName  string `json:"companyName" validate:"filled"`
	ContactName  string `json:"contactName" validate:"filled"`
	ContactTitle string `json:"contactTitle" validate:"filled"`
	Email        string `json:"email" validate:"filled,emailshape"`
	Phone        string `json:"phone" validate:"filled"`
	Website      string `json:"website" validate:"filled,httpurl"`
	Country      string `json:"country" validate:"filled"`
	CompanySize  string `json:"companySize,omitempty"`
	Services     string `json:"services,omitempty"`
}

type Credentials struct {
	Password        string `json:"password" validate:"min=8,bcryptsafe"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	AcceptTerms     bool   `json:"acceptTerms" validate:"required"`
}

// Form всё, что пользователь ввёл на шагах 1 и 3
type Form struct {
	Company     CompanyInfo
	Credentials Credentials
}

// FieldError ошибка проверки формы; шаг не меняется
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

var validate = validation.New()

const (
	msgRequired        = "Please fill in all required fields"
	msgEmail           = "Please enter a valid email address"
	msgWebsite         = "Please enter a valid website URL starting with http:// or https://"
	msgPasswordShort   = "Password must be at least 8 characters long"
	msgPasswordLong    = "Password must be at most 72 bytes long"
	msgPasswordsDiffer = "Passwords do not match"
	msgTerms           = "Please agree to the terms and conditions"
	msgNoFile          = "Please upload your signed NDA before continuing"
	msgFileTooLarge    = "File is too large. Maximum size is 10MB."
	msgFileType        = "Invalid file type. Please upload PDF, DOC, or DOCX."
)

// Validate решает, можно ли уйти с шага step. Чистая функция от входных данных.
func Validate(step Step, form Form, fileSelected bool) error {
	switch step {
	case StepCompanyInfo:
		return ValidateCompany(form.Company)
	case StepNDAUpload:
		if !fileSelected {
			return &FieldError{Field: "file", Message: msgNoFile}
		}
		return nil
	case StepCredentials:
		return ValidateCredentials(form.Credentials)
	default:
		return nil
	}
}

// ValidateCompany: сначала пустые поля, потом формат email и сайта
func ValidateCompany(c CompanyInfo) error {
	fe := validation.FieldErrors(validate.Struct(c))
	if len(fe) == 0 {
		return nil
	}
	for _, e := range fe {
		if e.Tag() == "filled" {
			return &FieldError{Field: e.Field(), Message: msgRequired}
		}
	}
	first := fe[0]
	switch first.Tag() {
	case "emailshape":
		return &FieldError{Field: first.Field(), Message: msgEmail}
	case "httpurl":
		return &FieldError{Field: first.Field(), Message: msgWebsite}
	default:
		return &FieldError{Field: first.Field(), Message: msgRequired}
	}
}

func ValidateCredentials(c Credentials) error {
	fe := validation.FieldErrors(validate.Struct(c))
	if len(fe) == 0 {
		return nil
	}
	first := fe[0]
	switch first.Tag() {
	case "min":
		return &FieldError{Field: "password", Message: msgPasswordShort}
	case "bcryptsafe":
		return &FieldError{Field: "password", Message: msgPasswordLong}
	case "eqfield":
		return &FieldError{Field: "confirmPassword", Message: msgPasswordsDiffer}
	default:
		return &FieldError{Field: "acceptTerms", Message: msgTerms}
	}
}

// ValidateFile размер не больше 10 MiB, тип PDF, DOC или DOCX
func ValidateFile(f media.File) error {
	if f.Size() > MaxFileSize {
		return &FieldError{Field: "file", Message: msgFileTooLarge}
	}
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil || !allowedTypes[strings.ToLower(mediaType)] {
		return &FieldError{Field: "file", Message: msgFileType}
	}
	return nil
}
