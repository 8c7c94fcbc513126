package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/infra/logging"
	"activation-code-admin/internal/infra/metrics"
)

// Wire DTOs. The JSON field names are the console's API contract.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Token   *string `json:"token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type codeDTO struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	IsUsed      bool       `json:"isUsed"`
	CreatedAt   time.Time  `json:"createdAt"`
	ActivatedAt *time.Time `json:"activatedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	UserID      *string    `json:"userId,omitempty"`
}

type codesResponse struct {
	Codes         []codeDTO `json:"codes"`
	TotalCount    int       `json:"totalCount"`
	PageSize      int       `json:"pageSize"`
	NextSkipToken *int      `json:"nextSkipToken"`
	HasMore       bool      `json:"hasMore"`
}

type generateCodesRequest struct {
	Count  int    `json:"count"`
	Prefix string `json:"prefix,omitempty"`
}

type generateCodesResponse struct {
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Prefix  string   `json:"prefix"`
	Codes   []string `json:"codes,omitempty"`
	Note    string   `json:"note,omitempty"`
}

type batchDeleteRequest struct {
	Pattern string `json:"pattern"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

type batchDeleteResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	MatchedCount int      `json:"matchedCount"`
	DeletedCount int      `json:"deletedCount"`
	MatchedCodes []string `json:"matchedCodes"`
	WasDryRun    bool     `json:"wasDryRun"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	account, err := s.authUC.Login(r.Context(), req.Username, req.Password, host)
	if err != nil {
		status := statusFor(err)
		writeJSON(w, status, loginResponse{Success: false, Message: publicMessage(err)})
		return
	}

	token, err := s.auth.Mint(account.Username)
	if err != nil {
		s.logError(r, "mint token", err)
		writeJSON(w, http.StatusInternalServerError, loginResponse{Success: false, Message: "internal server error"})
		return
	}
	metrics.IncAdminOp("login", "ok")
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "login successful", Token: &token})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := logging.Admin(r.Context())
	if err := s.authUC.ChangePassword(r.Context(), username, req.OldPassword, req.NewPassword); err != nil {
		metrics.IncAdminOp("change_password", "error")
		s.writeDomainError(w, r, "change password", err)
		return
	}
	metrics.IncAdminOp("change_password", "ok")
	writeJSON(w, http.StatusOK, messageResponse{Message: "password changed successfully"})
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var isUsed *bool
	if v := q.Get("isUsed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid isUsed parameter")
			return
		}
		isUsed = &b
	}
	skipToken := 0
	if v := q.Get("skipToken"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid skipToken parameter")
			return
		}
		skipToken = n
	}
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	page, err := s.codeUC.List(r.Context(), isUsed, skipToken, pageSize)
	if err != nil {
		s.writeDomainError(w, r, "list codes", err)
		return
	}

	now := time.Now()
	resp := codesResponse{
		Codes:         make([]codeDTO, 0, len(page.Codes)),
		TotalCount:    page.TotalCount,
		PageSize:      page.PageSize,
		NextSkipToken: page.NextSkipToken,
		HasMore:       page.HasMore,
	}
	for _, c := range page.Codes {
		resp.Codes = append(resp.Codes, toCodeDTO(c, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateCodes(w http.ResponseWriter, r *http.Request) {
	var req generateCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.codeUC.Generate(r.Context(), req.Count, req.Prefix)
	if err != nil {
		metrics.IncAdminOp("generate", "error")
		s.writeDomainError(w, r, "generate codes", err)
		return
	}
	metrics.IncAdminOp("generate", "ok")
	writeJSON(w, http.StatusCreated, generateCodesResponse{
		Message: fmt.Sprintf("generated %d activation codes", res.Count),
		Count:   res.Count,
		Prefix:  res.Prefix,
		Codes:   res.Codes,
		Note:    res.Note,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.codeUC.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDeleteCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.codeUC.DeleteOne(r.Context(), code); err != nil {
		metrics.IncAdminOp("delete_one", "error")
		s.writeDomainError(w, r, "delete code", err)
		return
	}
	metrics.IncAdminOp("delete_one", "ok")
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("deleted activation code %s", code)})
}

func (s *Server) handleDeleteExpired(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.codeUC.DeleteExpired(r.Context())
	if err != nil {
		metrics.IncAdminOp("delete_expired", "error")
		s.writeDomainError(w, r, "delete expired", err)
		return
	}
	metrics.IncAdminOp("delete_expired", "ok")
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("deleted %d expired activation codes", deleted)})
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.codeUC.BatchDelete(r.Context(), req.Pattern, req.DryRun)
	if err != nil {
		metrics.IncAdminOp("batch_delete", "error")
		s.writeDomainError(w, r, "batch delete", err)
		return
	}
	metrics.IncAdminOp("batch_delete", "ok")

	msg := fmt.Sprintf("deleted %d activation codes", res.DeletedCount)
	if res.WasDryRun {
		msg = fmt.Sprintf("matched %d activation codes (dry run)", res.MatchedCount)
	}
	matched := res.MatchedCodes
	if matched == nil {
		matched = []string{}
	}
	writeJSON(w, http.StatusOK, batchDeleteResponse{
		Success:      true,
		Message:      msg,
		MatchedCount: res.MatchedCount,
		DeletedCount: res.DeletedCount,
		MatchedCodes: matched,
		WasDryRun:    res.WasDryRun,
	})
}

func toCodeDTO(c *model.ActivationCode, now time.Time) codeDTO {
	return codeDTO{
		ID:          c.ID,
		Code:        c.Code,
		Status:      string(c.Status(now)),
		IsUsed:      c.IsUsed(),
		CreatedAt:   c.CreatedAt,
		ActivatedAt: c.ActivatedAt,
		ExpiresAt:   c.ExpiresAt,
		UserID:      c.UserID,
	}
}

// writeDomainError maps domain sentinels to HTTP status codes. Unmapped
// errors are logged in full and answered with a generic message.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logError(r, op, err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, publicMessage(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string { return err.Error() }

func (s *Server) logError(r *http.Request, op string, err error) {
	logging.With(r.Context(), s.log).Error().Err(err).Str("op", op).Msg("request failed")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}
