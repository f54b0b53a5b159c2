package handlers

import (
	"errors"
	"net/http"

	"channel-catalog/catalog"
	"channel-catalog/logger"

	"github.com/goccy/go-json"
	"github.com/valyala/bytebufferpool"
)

type listResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Total   *int `json:"total,omitempty"`
	Data    any  `json:"data"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func intPtr(i int) *int { return &i }

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, body any) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := json.NewEncoder(buf).Encode(body); err != nil {
		log.Errorf("Error encoding response: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.B); err != nil {
		log.Debugf("Error writing http response: %v", err)
	}
}

// writeError maps core errors to responses. Not-found ids become 404, every
// other failure is reported as a generic server error with fallback as message.
func writeError(w http.ResponseWriter, log logger.Logger, err error, fallback string) {
	var notFound *catalog.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, log, http.StatusNotFound, errorResponse{Message: "Channel not found"})
		return
	}

	var fetchErr *catalog.FetchError
	if errors.As(err, &fetchErr) {
		log.Errorf("Upstream %s unavailable: %v", fetchErr.Resource, err)
	} else {
		log.Errorf("%s: %v", fallback, err)
	}
	writeJSON(w, log, http.StatusInternalServerError, errorResponse{Message: fallback})
}
