package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"rfpintake/internal/media"
	"rfpintake/internal/registration"
)

// fieldErrorResponse ошибка формы вместе с текущим состоянием, шаг не меняется
type fieldErrorResponse struct {
	Error string             `json:"error"`
	Field string             `json:"field"`
	State registration.State `json:"state"`
}

func (h *Handler) StartRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	wf := h.Registrations.Start()
	writeJSON(w, http.StatusCreated, wf.State())
}

func (h *Handler) workflow(w http.ResponseWriter, r *http.Request) (*registration.Workflow, bool) {
	wf, err := h.Registrations.Get(chi.URLParam(r, "regId"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return wf, true
}

func (h *Handler) GetRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wf.State())
}

func (h *Handler) CompanyInfoHandler(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	var info registration.CompanyInfo
	if !decodeJSON(w, r, &info) {
		return
	}
	writeStep(w, r)(wf.SubmitCompanyInfo(info))
}

// SelectNDAHandler multipart/form-data, поле file
func (h *Handler) SelectNDAHandler(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	// запас сверх лимита файла под заголовки multipart
	r.Body = http.MaxBytesReader(w, r.Body, registration.MaxFileSize+maxBodySize)
	if err := r.ParseMultipartForm(registration.MaxFileSize + maxBodySize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File is too large. Maximum size is 10MB.", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(hdr.Filename)); byExt != "" {
			contentType = byExt
		}
	}

	writeStep(w, r)(wf.SelectFile(media.File{Name: hdr.Filename, ContentType: contentType, Data: data}))
}

func (h *Handler) RemoveNDAHandler(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	writeStep(w, r)(wf.RemoveFile())
}

func (h *Handler) ContinueHandler(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	writeStep(w, r)(wf.ContinueToCredentials())
}

func (h *Handler) SubmitRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	var creds registration.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	writeStep(w, r)(wf.Submit(r.Context(), creds))
}

// writeStep пишет результат перехода: состояние, ошибку формы с состоянием или ошибку
func writeStep(w http.ResponseWriter, r *http.Request) func(registration.State, error) {
	return func(st registration.State, err error) {
		var fieldErr *registration.FieldError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, st)
		case errors.As(err, &fieldErr):
			writeJSON(w, http.StatusBadRequest, fieldErrorResponse{Error: fieldErr.Message, Field: fieldErr.Field, State: st})
		default:
			writeError(w, r, err)
		}
	}
}
