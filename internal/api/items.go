package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/id/uuid"
	"github.com/JakeFAU/catalog-crawler/internal/ingest"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/pipeline"
	"github.com/JakeFAU/catalog-crawler/internal/store"
)

type ownerKey struct{}

// ownerMiddleware rejects requests without an owner id.
func ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			writeError(w, http.StatusBadRequest, "missing "+OwnerHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

type scrapeResponse struct {
	pipeline.Report
	Error string `json:"error,omitempty"`
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.opts.ScrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ScrapeTimeout)
		defer cancel()
	}

	report, err := s.scraper.Scrape(ctx, ownerFrom(ctx))
	if err == nil {
		writeJSON(w, http.StatusOK, scrapeResponse{Report: report})
		return
	}

	status := http.StatusInternalServerError
	msg := "scrape failed"
	switch {
	case errors.Is(err, ingest.ErrOwnerRequired):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ingest.ErrStorageUnavailable):
		status, msg = http.StatusServiceUnavailable, "storage unavailable"
	case errors.Is(err, crawler.ErrUpstreamUnavailable):
		status, msg = http.StatusBadGateway, "upstream catalog unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "scrape timed out"
	}
	logging.FromContext(ctx, s.logger).Warn("scrape request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, scrapeResponse{Report: report, Error: msg})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.ListItems(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := s.items.GetItem(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := s.items.DeleteItem(r.Context(), ownerFrom(r.Context()), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := uuid.Canonical(chi.URLParam(r, "item_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return "", false
	}
	return id, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	logging.FromContext(r.Context(), s.logger).Error("item store failed", zap.Error(err))
	writeError(w, http.StatusServiceUnavailable, "storage unavailable")
}
