package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	applicationservice "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service"
	appservice "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/application"
	apperrors "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/domain/errors"
	appports "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"
	apphttp "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/transport/http"
	reviewertokenservice "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service"
	tokenerrors "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/domain/errors"
	tokenports "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"
	tokenhttp "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/transport/http"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Business error codes carried in the response envelope.
const (
	codeOK        = 0
	codeInvalid   = 1001
	codeNotFound  = 1002
	codeForbidden = 1003
	codeConflict  = 1007
)

const defaultPageSize = 10

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	applications applicationservice.Module
	tokens       reviewertokenservice.Module
}

func New(
	applications applicationservice.Module,
	tokens reviewertokenservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		applications: applications,
		tokens:       tokens,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest-driven tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/applications", s.handleCreateApplication)
	s.mux.HandleFunc("GET /api/v1/applications", s.handleListApplications)
	s.mux.HandleFunc("GET /api/v1/applications/summary", s.handleCategorySummary)
	s.mux.HandleFunc("GET /api/v1/applications/by-category", s.handleListByCategory)
	s.mux.HandleFunc("GET /api/v1/applications/{application_id}", s.handleGetApplication)
	s.mux.HandleFunc("PUT /api/v1/applications/{application_id}", s.handleUpdateApplication)
	s.mux.HandleFunc("DELETE /api/v1/applications/{application_id}", s.handleDeleteApplication)
	s.mux.HandleFunc("POST /api/v1/applications/{application_id}/withdraw", s.handleWithdrawApplication)

	s.mux.HandleFunc("POST /api/v1/tokens", s.handleIssueToken)
	s.mux.HandleFunc("POST /api/v1/tokens/activate", s.handleActivateToken)
	s.mux.HandleFunc("GET /api/v1/tokens", s.handleListTokens)
	s.mux.HandleFunc("POST /api/v1/tokens/{token_id}/revoke", s.handleRevokeToken)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	var req apphttp.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeApplicationError(w, http.StatusBadRequest, codeInvalid, "request body must be valid JSON", requestID)
		return
	}

	resp, err := s.applications.Handler.CreateApplicationHandler(r.Context(), caller, req)
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, size, err := parsePaging(query.Get("page"), query.Get("size"))
	if err != nil {
		writeApplicationError(w, http.StatusBadRequest, codeInvalid, "page and size must be integers", requestID)
		return
	}

	resp, err := s.applications.Handler.ListApplicationsHandler(r.Context(), caller, appservice.ListQuery{
		Status:    query.Get("status"),
		AwardType: query.Get("award_type"),
		Category:  query.Get("category"),
		Keyword:   query.Get("keyword"),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.applications.Handler.GetApplicationHandler(r.Context(), caller, r.PathValue("application_id"))
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	var req apphttp.UpdateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeApplicationError(w, http.StatusBadRequest, codeInvalid, "request body must be valid JSON", requestID)
		return
	}

	resp, err := s.applications.Handler.UpdateApplicationHandler(r.Context(), caller, r.PathValue("application_id"), req)
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.applications.Handler.WithdrawApplicationHandler(r.Context(), caller, r.PathValue("application_id"))
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	if err := s.applications.Handler.DeleteApplicationHandler(r.Context(), caller, r.PathValue("application_id")); err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, nil, requestID)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.applications.Handler.CategorySummaryHandler(r.Context(), caller, r.URL.Query().Get("term"))
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveApplicationCaller(w, r, requestID)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, size, err := parsePaging(query.Get("page"), query.Get("size"))
	if err != nil {
		writeApplicationError(w, http.StatusBadRequest, codeInvalid, "page and size must be integers", requestID)
		return
	}

	resp, err := s.applications.Handler.ListByCategoryHandler(r.Context(), caller, appservice.ByCategoryQuery{
		Category: query.Get("category"),
		SubType:  query.Get("sub_type"),
		Status:   query.Get("status"),
		Term:     query.Get("term"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		s.writeApplicationDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveTokenCaller(w, r, requestID)
	if !ok {
		return
	}

	var req tokenhttp.IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTokenError(w, http.StatusBadRequest, codeInvalid, "request body must be valid JSON", requestID)
		return
	}

	resp, err := s.tokens.Handler.IssueTokenHandler(r.Context(), caller, req)
	if err != nil {
		s.writeTokenDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleActivateToken(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveTokenCaller(w, r, requestID)
	if !ok {
		return
	}

	var req tokenhttp.ActivateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTokenError(w, http.StatusBadRequest, codeInvalid, "request body must be valid JSON", requestID)
		return
	}

	resp, err := s.tokens.Handler.ActivateTokenHandler(r.Context(), caller, req)
	if err != nil {
		s.writeTokenDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveTokenCaller(w, r, requestID)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, size, err := parsePaging(query.Get("page"), query.Get("size"))
	if err != nil {
		writeTokenError(w, http.StatusBadRequest, codeInvalid, "page and size must be integers", requestID)
		return
	}

	resp, err := s.tokens.Handler.ListTokensHandler(r.Context(), caller, query.Get("status"), page, size)
	if err != nil {
		s.writeTokenDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	requestID := resolveRequestID(w, r)
	caller, ok := resolveTokenCaller(w, r, requestID)
	if !ok {
		return
	}

	resp, err := s.tokens.Handler.RevokeTokenHandler(r.Context(), caller, r.PathValue("token_id"))
	if err != nil {
		s.writeTokenDomainError(w, err, requestID)
		return
	}
	writeData(w, http.StatusOK, resp, requestID)
}

func (s *Server) writeApplicationDomainError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidApplicationInput):
		writeApplicationError(w, http.StatusBadRequest, codeInvalid, err.Error(), requestID)
	case errors.Is(err, apperrors.ErrApplicationNotFound):
		writeApplicationError(w, http.StatusNotFound, codeNotFound, err.Error(), requestID)
	case errors.Is(err, apperrors.ErrForbidden):
		writeApplicationError(w, http.StatusForbidden, codeForbidden, err.Error(), requestID)
	case errors.Is(err, apperrors.ErrStatusNotEditable),
		errors.Is(err, apperrors.ErrVersionConflict):
		writeApplicationError(w, http.StatusConflict, codeConflict, err.Error(), requestID)
	default:
		s.logger.Error("unhandled application error",
			"event", "http_application_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeApplicationError(w, http.StatusInternalServerError, codeInvalid, "internal server error", requestID)
	}
}

func (s *Server) writeTokenDomainError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, tokenerrors.ErrInvalidTokenInput):
		writeTokenError(w, http.StatusBadRequest, codeInvalid, err.Error(), requestID)
	case errors.Is(err, tokenerrors.ErrTokenNotFound),
		errors.Is(err, tokenerrors.ErrUserNotFound):
		writeTokenError(w, http.StatusNotFound, codeNotFound, err.Error(), requestID)
	case errors.Is(err, tokenerrors.ErrForbidden),
		errors.Is(err, tokenerrors.ErrClassNotEligible):
		writeTokenError(w, http.StatusForbidden, codeForbidden, err.Error(), requestID)
	case errors.Is(err, tokenerrors.ErrTokenConsumed),
		errors.Is(err, tokenerrors.ErrTokenRevoked),
		errors.Is(err, tokenerrors.ErrTokenExpired),
		errors.Is(err, tokenerrors.ErrSecretTaken):
		writeTokenError(w, http.StatusConflict, codeConflict, err.Error(), requestID)
	default:
		s.logger.Error("unhandled token error",
			"event", "http_token_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeTokenError(w, http.StatusInternalServerError, codeInvalid, "internal server error", requestID)
	}
}

func resolveApplicationCaller(w http.ResponseWriter, r *http.Request, requestID string) (appports.Caller, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	role := strings.TrimSpace(r.Header.Get("X-User-Role"))
	if userID == "" || role == "" {
		writeApplicationError(w, http.StatusUnauthorized, codeForbidden, "X-User-Id and X-User-Role headers are required", requestID)
		return appports.Caller{}, false
	}
	return appports.Caller{UserID: userID, Role: role}, true
}

func resolveTokenCaller(w http.ResponseWriter, r *http.Request, requestID string) (tokenports.Caller, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	role := strings.TrimSpace(r.Header.Get("X-User-Role"))
	if userID == "" || role == "" {
		writeTokenError(w, http.StatusUnauthorized, codeForbidden, "X-User-Id and X-User-Role headers are required", requestID)
		return tokenports.Caller{}, false
	}

	classID := 0
	if raw := strings.TrimSpace(r.Header.Get("X-Class-Id")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeTokenError(w, http.StatusBadRequest, codeInvalid, "X-Class-Id must be an integer", requestID)
			return tokenports.Caller{}, false
		}
		classID = parsed
	}
	return tokenports.Caller{UserID: userID, Role: role, ClassID: classID}, true
}

// resolveRequestID echoes the inbound X-Request-Id or mints a fresh one.
func resolveRequestID(w http.ResponseWriter, r *http.Request) string {
	requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)
	return requestID
}

type dataEnvelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id"`
}

func writeData(w http.ResponseWriter, status int, payload any, requestID string) {
	writeJSON(w, status, dataEnvelope{
		Code:      codeOK,
		Message:   "ok",
		Data:      payload,
		RequestID: requestID,
	})
}

func writeApplicationError(w http.ResponseWriter, status int, code int, message string, requestID string) {
	writeJSON(w, status, apphttp.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

func writeTokenError(w http.ResponseWriter, status int, code int, message string, requestID string) {
	writeJSON(w, status, tokenhttp.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parsePaging(pageRaw string, sizeRaw string) (int, int, error) {
	page := 1
	size := defaultPageSize
	if strings.TrimSpace(pageRaw) != "" {
		parsed, err := strconv.Atoi(pageRaw)
		if err != nil {
			return 0, 0, err
		}
		page = parsed
	}
	if strings.TrimSpace(sizeRaw) != "" {
		parsed, err := strconv.Atoi(sizeRaw)
		if err != nil {
			return 0, 0, err
		}
		size = parsed
	}
	return page, size, nil
}
