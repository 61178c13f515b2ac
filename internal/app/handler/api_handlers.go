package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

// APIHandler serves the JSON API and the health check.
type APIHandler struct {
	links  service.LinkServiceIface
	logger *zap.Logger
}

func NewAPI(s service.LinkServiceIface, l *zap.Logger) *APIHandler {
	return &APIHandler{
		links:  s,
		logger: l,
	}
}

// CreateLink handles POST /api/links.
func (h *APIHandler) CreateLink(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	account, ok := middleware.AccountFrom(req.Context())
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var request models.ShortenRequest
	if err := decodeJSONBody(res, req, &request); err != nil {
		var mr *malformedRequest
		if errors.As(err, &mr) {
			http.Error(res, mr.msg, mr.status)
			return
		}
		h.logger.Error("cannot decode request", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	l, err := h.links.Shorten(ctx, account.Name, request.URL, request.Alias)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrDuplicate):
		h.logger.Info("alias already taken", zap.String("owner", account.Name), zap.String("alias", request.Alias))
		http.Error(res, AliasTakenText, http.StatusConflict)
		return
	case errors.Is(err, service.ErrEmptyURL), errors.Is(err, service.ErrInvalidAlias):
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	default:
		h.logger.Error("unable to create link", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusCreated, models.ShortenResponse{
		Code:      l.Code,
		ShortURL:  h.links.ShortURL(*l),
		TenantURL: h.links.TenantURL(*l),
	})
}

// ListLinks handles GET /api/links.
func (h *APIHandler) ListLinks(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	account, ok := middleware.AccountFrom(req.Context())
	if !ok {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	links, err := h.links.List(ctx, account.Name)
	if err != nil {
		h.logger.Error("cannot list links", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(links) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	out := make([]models.LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, models.LinkResponse{
			Code:        l.Code,
			Destination: l.Destination,
			ShortURL:    h.links.ShortURL(l),
			TenantURL:   h.links.TenantURL(l),
			Clicks:      l.Clicks,
			CreatedAt:   l.Created.Format(time.RFC3339),
		})
	}

	writeJSON(res, http.StatusOK, out)
}

// PingDB handles GET /ping.
func (h *APIHandler) PingDB(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := h.links.PingContext(ctx); err != nil {
		h.logger.Error("store ping failed", zap.Error(err))
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

func writeJSON(res http.ResponseWriter, status int, v any) {
	response, err := json.Marshal(v)
	if err != nil {
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_, _ = res.Write(response)
}
