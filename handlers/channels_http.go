package handlers

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"channel-catalog/filter"
	"channel-catalog/logger"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/sha3"
)

type ChannelsHTTPHandler struct {
	store  CatalogReader
	logger logger.Logger
}

func NewChannelsHTTPHandler(store CatalogReader, logger logger.Logger) *ChannelsHTTPHandler {
	return &ChannelsHTTPHandler{
		store:  store,
		logger: logger,
	}
}

// ListAll serves the unfiltered upstream channel list.
func (h *ChannelsHTTPHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.AllChannels(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch channels")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, listResponse{
		Success: true,
		Count:   intPtr(len(channels)),
		Data:    channels,
	})
}

// ListCountry serves the country catalog narrowed by the query filters.
func (h *ChannelsHTTPHandler) ListCountry(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Catalog(r.Context())
	if err != nil {
		writeError(w, h.logger, err, fmt.Sprintf("Failed to fetch %s channels", h.store.Country()))
		return
	}

	filters := filter.FromQuery(r.URL.Query())
	etag := listETag(snap.Fingerprint, filters)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	filtered := filter.Apply(snap.Channels, filters)
	h.logger.Debugf("Serving %d of %d channels for filters %+v", len(filtered), len(snap.Channels), filters)

	writeJSON(w, h.logger, http.StatusOK, listResponse{
		Success: true,
		Count:   intPtr(len(filtered)),
		Total:   intPtr(len(snap.Channels)),
		Data:    filtered,
	})
}

func (h *ChannelsHTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	ch, err := h.store.Channel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch channel")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dataResponse{Success: true, Data: ch})
}

func (h *ChannelsHTTPHandler) Related(w http.ResponseWriter, r *http.Request) {
	related, err := h.store.Related(r.Context(), chi.URLParam(r, "channelId"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch related channels")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, listResponse{
		Success: true,
		Count:   intPtr(len(related)),
		Data:    related,
	})
}

func (h *ChannelsHTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.Categories(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch categories")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dataResponse{Success: true, Data: categories})
}

func (h *ChannelsHTTPHandler) Languages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.store.Languages(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch languages")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dataResponse{Success: true, Data: languages})
}

func (h *ChannelsHTTPHandler) CountryStreams(w http.ResponseWriter, r *http.Request) {
	streams, err := h.store.CountryStreams(r.Context())
	if err != nil {
		writeError(w, h.logger, err, fmt.Sprintf("Failed to fetch %s streams", h.store.Country()))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, listResponse{
		Success: true,
		Count:   intPtr(len(streams)),
		Data:    streams,
	})
}

func (h *ChannelsHTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.store.CacheStats()
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"status":  "OK",
		"message": "Channel catalog API is running",
		"cache":   stats,
	})
}

// listETag ties a filtered list to the catalog version it was computed from.
func listETag(fingerprint string, f filter.Filters) string {
	sum := sha3.Sum224([]byte(fmt.Sprintf("%s|%+v", fingerprint, f)))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
