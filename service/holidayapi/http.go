package holidayapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHandler initializes a new holiday API handler
func NewHandler(l log.Logger, s Service) *chi.Mux {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Get("/{year}", yearHandler(l, s))
		r.Get("/{year}/bulan/{bulan}", monthHandler(l, s))
		r.Get("/{year}/tanggal/{tanggal}", dateHandler(l, s))
	})

	return r
}

func yearHandler(l log.Logger, s Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.Year(r.Context(), chi.URLParam(r, "year"))
		if err != nil {
			writeError(l, w, err)
			return
		}
		WriteJSON(l, w, http.StatusOK, resp)
	}
}

func monthHandler(l log.Logger, s Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.Month(r.Context(), chi.URLParam(r, "year"), urlParam(r, "bulan"))
		if err != nil {
			writeError(l, w, err)
			return
		}
		WriteJSON(l, w, http.StatusOK, resp)
	}
}

func dateHandler(l log.Logger, s Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.Date(r.Context(), chi.URLParam(r, "year"), urlParam(r, "tanggal"))
		if err != nil {
			writeError(l, w, err)
			return
		}
		WriteJSON(l, w, http.StatusOK, resp)
	}
}

// urlParam returns a decoded path parameter. chi routes on the raw path when
// the request carries one, its params are only escaped in that case.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(l log.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(l).Log("msg", "error writing response", "err", err)
	}
}

func writeError(l log.Logger, w http.ResponseWriter, err error) {
	var (
		invalid *holiday.InvalidInputError
		fetch   *holiday.FetchError
		parse   *holiday.ParseError
	)
	switch {
	case errors.As(err, &invalid):
		WriteJSON(l, w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: invalid.Error()})
	case errors.As(err, &fetch):
		level.Error(l).Log("msg", "upstream fetch failed", "year", fetch.Year, "status", fetch.Status, "err", err)
		WriteJSON(l, w, http.StatusInternalServerError, errorResponse{Error: "fetch_error", Message: fetch.Error()})
	case errors.As(err, &parse):
		level.Error(l).Log("msg", "upstream page could not be parsed", "err", err)
		WriteJSON(l, w, http.StatusInternalServerError, errorResponse{Error: "parse_error", Message: parse.Error()})
	default:
		level.Error(l).Log("err", err)
		WriteJSON(l, w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()})
	}
}
