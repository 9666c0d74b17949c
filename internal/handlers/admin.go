package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rfpintake/internal/admin"
	"rfpintake/models"
)

const sessionCookie = "admin_session"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Sessions.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, admin.ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		h.Sessions.Logout(token)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// RequireAdmin пропускает запрос только с живой сессией (Bearer или cookie)
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.Sessions.Check(sessionToken(r)); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) InfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Console.Info())
}

func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	d, err := h.Console.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) ListRFPsHandler(w http.ResponseWriter, r *http.Request) {
	rfps, err := h.Console.RFPs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfps)
}

func (h *Handler) GetRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.Console.RFP(r.Context(), chi.URLParam(r, "rfpId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfp)
}

// SaveRFPHandler POST /rfps создаёт, PUT /rfps/{rfpId} обновляет
func (h *Handler) SaveRFPHandler(w http.ResponseWriter, r *http.Request) {
	var form models.RFP
	if !decodeJSON(w, r, &form) {
		return
	}

	rfps, err := h.Console.SaveRFP(r.Context(), chi.URLParam(r, "rfpId"), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfps)
}

func (h *Handler) RFPLinkHandler(w http.ResponseWriter, r *http.Request) {
	base := h.PublicBaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": admin.RFPLink(base, chi.URLParam(r, "rfpId"))})
}

func (h *Handler) RFPSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Console.RFPSubmissions(r.Context(), chi.URLParam(r, "rfpId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// ListSubmissionsHandler ?status= фильтрует по статусу рассмотрения
func (h *Handler) ListSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	status := models.ReviewStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !models.ValidReviewStatus(status) {
		http.Error(w, "invalid status filter", http.StatusBadRequest)
		return
	}

	subs, err := h.Console.Submissions(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) GetSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Console.Submission(r.Context(), chi.URLParam(r, "submissionId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) RateSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	var rating admin.Rating
	if !decodeJSON(w, r, &rating) {
		return
	}

	subs, err := h.Console.RateSubmission(r.Context(), chi.URLParam(r, "submissionId"), rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) ListVendorsHandler(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.Console.Vendors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (h *Handler) PendingVendorsHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Console.PendingVendors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) GetVendorHandler(w http.ResponseWriter, r *http.Request) {
	v, err := h.Console.Vendor(r.Context(), chi.URLParam(r, "vendorId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type vendorDecision struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason"`
}

func (h *Handler) ApproveVendorHandler(w http.ResponseWriter, r *http.Request) {
	var req vendorDecision
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.Console.ApproveVendor(r.Context(), chi.URLParam(r, "vendorId"), req.Confirmed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) DeclineVendorHandler(w http.ResponseWriter, r *http.Request) {
	var req vendorDecision
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.Console.DeclineVendor(r.Context(), chi.URLParam(r, "vendorId"), req.Reason, req.Confirmed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
