package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"WhereToEat/src/draw"
	"WhereToEat/src/token"
	"WhereToEat/src/types"
)

const maxBodyBytes = 1 << 20

type Config struct {
	// Radius and page size applied to every nearby search.
	SearchRadius int
	PageSize     int

	// KakaoJSKey is handed to the map SDK on result pages.
	KakaoJSKey string
}

// Handler serves the JSON API and HTML pages. Store and Auth are optional; the
// local listing and recommendation routes are only mounted when they are set.
type Handler struct {
	Draw      *draw.Service
	Geocoder  types.Geocoder
	Store     types.DataStore
	Auth      *token.Authenticator
	Templates *Templates
	Config    Config
	Log       *zap.Logger
}

func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.accessLog)

	r.HandleFunc("/", h.HandleHome).Methods(http.MethodGet)
	r.HandleFunc("/result", h.HandleResult).Methods(http.MethodGet)
	r.HandleFunc("/result/pick", h.HandleResultPick).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", h.HandleCategoriesAPI).Methods(http.MethodGet)
	api.HandleFunc("/address", h.HandleAddressAPI).Methods(http.MethodGet)
	api.HandleFunc("/draw", h.HandleDrawAPI).Methods(http.MethodGet)
	api.HandleFunc("/pick", h.HandlePickAPI).Methods(http.MethodPost)

	if h.Store != nil {
		r.HandleFunc("/places", h.HandleGetPlacesHTML).Methods(http.MethodGet)
		api.HandleFunc("/places/", h.HandleGetPlacesAPI).Methods(http.MethodGet)
		api.HandleFunc("/places", h.HandleGetPlacesAPI).Methods(http.MethodGet)
		if h.Auth != nil {
			api.HandleFunc("/get_token", h.Auth.GetToken).Methods(http.MethodPost)
			api.Handle("/recommend", h.Auth.JwtMiddleware(http.HandlerFunc(h.HandleRecommendAPI))).Methods(http.MethodGet)
		}
	}
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger().Warn("encoding response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger().Error("rendering template", zap.String("template", tmpl.Name()), zap.Error(err))
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}
