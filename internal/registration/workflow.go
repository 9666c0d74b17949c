// Package registration ведёт поставщика по четырём шагам регистрации:
// данные компании, NDA, учётные данные, подтверждение.
package registration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rfpintake/internal/logging"
	"rfpintake/internal/media"
	"rfpintake/internal/metrics"
	"rfpintake/internal/store"
	"rfpintake/models"
)

var (
	ErrWrongStep           = errors.New("action is not allowed at the current step")
	ErrSubmitInProgress    = errors.New("registration is already being submitted")
	ErrUnknownRegistration = errors.New("registration not found or expired")
)

// VendorCreator часть шлюза, которая нужна регистрации
type VendorCreator interface {
	CreateVendor(ctx context.Context, fields store.Fields) (store.Record, error)
}

type Deps struct {
	Vendors VendorCreator
	// Uploader может быть nil: тогда файл остаётся "локальным"
	Uploader      media.Uploader
	Namespace     string
	UploadTimeout time.Duration
	Metrics       *metrics.Metrics
	Now           func() time.Time
	HashCost      int
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// SubmitError создание поставщика не удалось. Message уже готов для пользователя.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

type uploadTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	result media.Result
	err    error
}

// finished не ждёт: задача либо уже завершилась, либо нет
func (t *uploadTask) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Workflow состояние одной регистрации
type Workflow struct {
	id   string
	deps Deps

	mu         sync.Mutex
	step       Step
	completed  map[Step]bool
	company    *CompanyInfo
	file       *media.File
	upload     *uploadTask
	vendorID   string
	submitting bool
	touched    time.Time
}

func NewWorkflow(id string, deps Deps) *Workflow {
	if deps.UploadTimeout <= 0 {
		deps.UploadTimeout = 2 * time.Minute
	}
	if deps.HashCost == 0 {
		deps.HashCost = bcrypt.DefaultCost
	}
	if deps.Namespace == "" {
		deps.Namespace = "rfp-portal"
	}
	return &Workflow{
		id:        id,
		deps:      deps,
		step:      StepCompanyInfo,
		completed: make(map[Step]bool),
		touched:   deps.now(),
	}
}

func (w *Workflow) ID() string {
	return w.id
}

// SubmitCompanyInfo шаг 1 -> 2
func (w *Workflow) SubmitCompanyInfo(info CompanyInfo) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.step != StepCompanyInfo {
		return w.snapshot(), ErrWrongStep
	}
	if err := Validate(StepCompanyInfo, Form{Company: info}, false); err != nil {
		return w.snapshot(), err
	}

	info.Email = strings.TrimSpace(info.Email)
	w.company = &info
	w.advance(StepNDAUpload)
	return w.snapshot(), nil
}

// SelectFile запоминает файл и запускает загрузку в фоне.
// Отклонённый файл не трогает предыдущий выбор.
func (w *Workflow) SelectFile(f media.File) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.step != StepNDAUpload {
		return w.snapshot(), ErrWrongStep
	}
	if err := ValidateFile(f); err != nil {
		return w.snapshot(), err
	}

	w.cancelUpload()
	w.file = &f
	if w.deps.Uploader != nil {
		w.upload = w.startUpload(f)
	}
	return w.snapshot(), nil
}

func (w *Workflow) startUpload(f media.File) *uploadTask {
	vendorName, vendorEmail := "Unknown", "unknown@email.com"
	if w.company != nil {
		if w.company.CompanyName != "" {
			vendorName = w.company.CompanyName
		}
		if w.company.Email != "" {
			vendorEmail = w.company.Email
		}
	}

	// контекст не от запроса: загрузка живёт дольше него
	ctx, cancel := context.WithTimeout(context.Background(), w.deps.UploadTimeout)
	task := &uploadTask{cancel: cancel, done: make(chan struct{})}
	deps, id := w.deps, w.id

	go func() {
		defer close(task.done)
		defer cancel()
		task.result, task.err = media.UploadNDA(ctx, deps.Uploader, f, vendorName, vendorEmail, deps.Namespace, deps.now())
		logger := logging.WithFields(ctx, "registration_id", id, "file", f.Name, "backend", deps.Uploader.Backend())
		if task.err != nil {
			logger.Warn("nda upload failed", "err", task.err)
			return
		}
		logger.Info("nda uploaded", "url", task.result.URL)
	}()
	return task
}

func (w *Workflow) cancelUpload() {
	if w.upload != nil {
		w.upload.cancel()
		w.upload = nil
	}
}

// RemoveFile сбрасывает выбор файла на шаге 2
func (w *Workflow) RemoveFile() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.step != StepNDAUpload {
		return w.snapshot(), ErrWrongStep
	}
	w.cancelUpload()
	w.file = nil
	return w.snapshot(), nil
}

// ContinueToCredentials нужен выбранный файл, успешная загрузка не обязательна
func (w *Workflow) ContinueToCredentials() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.step != StepNDAUpload {
		return w.snapshot(), ErrWrongStep
	}
	if err := Validate(StepNDAUpload, Form{}, w.file != nil); err != nil {
		return w.snapshot(), err
	}
	w.advance(StepCredentials)
	return w.snapshot(), nil
}

// Submit создаёт поставщика одним вызовом хранилища. Повторов нет.
func (w *Workflow) Submit(ctx context.Context, creds Credentials) (State, error) {
	w.mu.Lock()
	w.touch()
	if w.step != StepCredentials {
		defer w.mu.Unlock()
		return w.snapshot(), ErrWrongStep
	}
	if w.submitting {
		defer w.mu.Unlock()
		return w.snapshot(), ErrSubmitInProgress
	}
	if err := Validate(StepCredentials, Form{Credentials: creds}, true); err != nil {
		defer w.mu.Unlock()
		return w.snapshot(), err
	}
	company, file := *w.company, *w.file
	var uploaded *media.Result
	if w.upload != nil && w.upload.finished() && w.upload.err == nil && w.upload.result.URL != "" {
		res := w.upload.result
		uploaded = &res
	}
	w.submitting = true
	w.mu.Unlock()

	rec, err := w.createVendor(ctx, company, file, uploaded, creds.Password)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	w.touch()
	w.deps.Metrics.ObserveRegistration(err, uploaded != nil)

	logger := logging.WithFields(ctx, "registration_id", w.id)
	if err != nil {
		logger.Error("vendor registration failed", "err", err)
		return w.snapshot(), &SubmitError{Message: classify(err), Err: err}
	}

	w.vendorID = rec.ID
	w.advance(StepConfirmation)
	w.completed[StepConfirmation] = true
	logger.Info("vendor registered", "vendor_id", rec.ID, "attachment", uploaded != nil)
	return w.snapshot(), nil
}

var errNoRecordID = errors.New("No record ID returned from the data store")

func (w *Workflow) createVendor(ctx context.Context, c CompanyInfo, f media.File, uploaded *media.Result, password string) (store.Record, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), w.deps.HashCost)
	if err != nil {
		return store.Record{}, fmt.Errorf("hash password: %w", err)
	}

	now := w.deps.now()
	fields := store.Fields{
		models.FieldVendorName:    c.CompanyName,
		models.FieldContactPerson: c.ContactName,
		models.FieldContactTitle:  c.ContactTitle,
		models.FieldEmail:         c.Email,
		models.FieldPhone:         c.Phone,
		models.FieldWebsite:       c.Website,
		models.FieldCountry:       c.Country,
		models.FieldCompanySize:   orNotProvided(c.CompanySize),
		models.FieldServices:      orNotProvided(c.Services),
		models.FieldNDAOnFile:     true,
		models.FieldNDAFileName:   f.Name,
		models.FieldNDAUploadDate: now.UTC().Format(models.DateLayout),
		models.FieldStatus:        string(models.VendorPendingApproval),
		models.FieldPasswordHash:  string(hash),
		models.FieldInternalNotes: registrationNotes(f.Name, uploaded, now),
	}
	if uploaded != nil {
		fields[models.FieldNDADocument] = []models.Attachment{{URL: uploaded.URL, Filename: f.Name}}
	}

	rec, err := w.deps.Vendors.CreateVendor(ctx, fields)
	if err != nil {
		return store.Record{}, err
	}
	if rec.ID == "" {
		return store.Record{}, errNoRecordID
	}
	return rec, nil
}

func registrationNotes(fileName string, uploaded *media.Result, now time.Time) string {
	location := "File uploaded locally - needs manual retrieval"
	if uploaded != nil {
		location = "Cloud URL: " + uploaded.URL
	}
	return fmt.Sprintf("New vendor registration\nFile: %s\n%s\nRegistered: %s",
		fileName, location, now.UTC().Format(time.RFC3339))
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not Provided"
	}
	return s
}

// classify превращает ошибку хранилища в сообщение для пользователя
func classify(err error) string {
	msg := err.Error()
	var netErr net.Error
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "auth"):
		return "Registration failed. Please check your Airtable API key permissions."
	case strings.Contains(msg, "field"):
		return "Registration failed. There's a field mismatch with Airtable. Check field names."
	case errors.As(err, &netErr) || strings.Contains(msg, "network") || strings.Contains(msg, "fetch"):
		return "Registration failed. Network error. Please check your connection and try again."
	default:
		return "Registration failed. " + msg
	}
}

// State текущий снимок
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// UploadDone закрывается, когда фоновая загрузка завершилась. nil, если загрузки нет.
func (w *Workflow) UploadDone() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.upload == nil {
		return nil
	}
	return w.upload.done
}

func (w *Workflow) advance(next Step) {
	w.completed[w.step] = true
	w.step = next
}

func (w *Workflow) touch() {
	w.touched = w.deps.now()
}

func (w *Workflow) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}

// close отменяет незавершённую загрузку при вытеснении из реестра
func (w *Workflow) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelUpload()
}

func (w *Workflow) snapshot() State {
	st := State{
		ID:        w.id,
		Step:      w.step,
		StepName:  w.step.String(),
		Completed: make([]Step, 0, len(w.completed)),
		VendorID:  w.vendorID,
		UpdatedAt: w.touched,
		Upload:    UploadInfo{Status: UploadNone},
	}
	for s := range w.completed {
		st.Completed = append(st.Completed, s)
	}
	sort.Slice(st.Completed, func(i, j int) bool { return st.Completed[i] < st.Completed[j] })

	if w.company != nil {
		c := *w.company
		st.Company = &c
		st.Email = c.Email
	}
	if w.file != nil {
		st.File = &FileInfo{Name: w.file.Name, ContentType: w.file.ContentType, Size: w.file.Size()}
	}
	if w.upload != nil {
		switch {
		case !w.upload.finished():
			st.Upload.Status = UploadUploading
		case w.upload.err != nil:
			st.Upload = UploadInfo{Status: UploadFailed, Message: UploadFailedMessage}
		default:
			st.Upload = UploadInfo{Status: UploadUploaded, URL: w.upload.result.URL}
		}
	}
	return st
}
