package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rfpintake/internal/admin"
	"rfpintake/internal/logging"
	"rfpintake/internal/registration"
	"rfpintake/internal/store"
)

const maxBodySize = 1048576

// Handler HTTP-обёртка над шлюзом, панелью администратора и регистрацией
type Handler struct {
	Gateway       GatewayInterface
	Console       ConsoleInterface
	Sessions      SessionInterface
	Registrations RegistryInterface
	// PublicBaseURL основа публичных ссылок на RFP
	PublicBaseURL string
}

func NewHandler(gw GatewayInterface, console ConsoleInterface, sessions SessionInterface, regs RegistryInterface) *Handler {
	return &Handler{Gateway: gw, Console: console, Sessions: sessions, Registrations: regs}
}

// Routes маршруты внутри /api
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", h.PingHandler)

	// шлюз; /airtable старое имя того же прокси
	r.HandleFunc("/gateway", h.GatewayHandler)
	r.HandleFunc("/airtable", h.GatewayHandler)

	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.StartRegistrationHandler)
		r.Get("/{regId}", h.GetRegistrationHandler)
		r.Post("/{regId}/company", h.CompanyInfoHandler)
		r.Post("/{regId}/nda", h.SelectNDAHandler)
		r.Delete("/{regId}/nda", h.RemoveNDAHandler)
		r.Post("/{regId}/continue", h.ContinueHandler)
		r.Post("/{regId}/submit", h.SubmitRegistrationHandler)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.LoginHandler)
		r.Post("/logout", h.LogoutHandler)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/info", h.InfoHandler)
			r.Get("/dashboard", h.DashboardHandler)

			r.Get("/rfps", h.ListRFPsHandler)
			r.Post("/rfps", h.SaveRFPHandler)
			r.Get("/rfps/{rfpId}", h.GetRFPHandler)
			r.Put("/rfps/{rfpId}", h.SaveRFPHandler)
			r.Get("/rfps/{rfpId}/link", h.RFPLinkHandler)
			r.Get("/rfps/{rfpId}/submissions", h.RFPSubmissionsHandler)

			r.Get("/submissions", h.ListSubmissionsHandler)
			r.Get("/submissions/{submissionId}", h.GetSubmissionHandler)
			r.Put("/submissions/{submissionId}/rating", h.RateSubmissionHandler)

			r.Get("/vendors", h.ListVendorsHandler)
			r.Get("/vendors/pending", h.PendingVendorsHandler)
			r.Get("/vendors/{vendorId}", h.GetVendorHandler)
			r.Post("/vendors/{vendorId}/approve", h.ApproveVendorHandler)
			r.Post("/vendors/{vendorId}/decline", h.DeclineVendorHandler)
		})
	})
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// decodeJSON читает тело с ограничением размера. При ошибке ответ уже записан.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError переводит ошибку в HTTP-код. Текст ошибки хранилища отдаётся как есть.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		formErr   *admin.FormError
		fieldErr  *registration.FieldError
		submitErr *registration.SubmitError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, registration.ErrUnknownRegistration):
		status = http.StatusNotFound
	case errors.As(err, &formErr), errors.As(err, &fieldErr),
		errors.Is(err, admin.ErrNotConfirmed), errors.Is(err, admin.ErrReasonRequired):
		status = http.StatusBadRequest
	case errors.Is(err, registration.ErrWrongStep), errors.Is(err, registration.ErrSubmitInProgress):
		status = http.StatusConflict
	case errors.As(err, &submitErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	}
	http.Error(w, err.Error(), status)
}
