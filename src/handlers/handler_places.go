package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"WhereToEat/src/token"
	"WhereToEat/src/types"
)

const (
	pageSize = 10
)

type HandlePlaces struct {
	Name     string        `json:"name"`
	Total    int           `json:"total"`
	Places   []types.Place `json:"places"`
	Page     int           `json:"page"`
	LastPage int           `json:"last_page"`
	PrevPage int           `json:"prev_page,omitempty"`
	NextPage int           `json:"next_page,omitempty"`
}

type Recommendation struct {
	Name   string        `json:"name"`
	Places []types.Place `json:"places"`
}

// parsePage reads the 1-based page parameter, defaulting to 1.
func parsePage(r *http.Request) (int, bool) {
	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		return 1, true
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func (h *Handler) getPlaces(r *http.Request) (*HandlePlaces, int, string) {
	page, ok := parsePage(r)
	if !ok {
		return nil, http.StatusBadRequest, "Invalid 'page' value: " + r.URL.Query().Get("page")
	}

	places, total, err := h.Store.GetPlaces(pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger().Error("listing places", zap.Int("page", page), zap.Error(err))
		return nil, http.StatusBadGateway, "Error fetching places"
	}

	lastPage := (total + pageSize - 1) / pageSize
	if lastPage > 0 && page > lastPage {
		return nil, http.StatusBadRequest, "Invalid 'page' value: " + strconv.Itoa(page)
	}

	data := &HandlePlaces{
		Name:     "Places",
		Places:   places,
		Total:    total,
		Page:     page,
		LastPage: lastPage,
	}
	if page > 1 {
		data.PrevPage = page - 1
	}
	if page < lastPage {
		data.NextPage = page + 1
	}
	return data, http.StatusOK, ""
}

func (h *Handler) HandleGetPlacesHTML(w http.ResponseWriter, r *http.Request) {
	data, status, msg := h.getPlaces(r)
	if data == nil {
		http.Error(w, msg, status)
		return
	}
	h.render(w, h.Templates.Places, data)
}

func (h *Handler) HandleGetPlacesAPI(w http.ResponseWriter, r *http.Request) {
	data, status, msg := h.getPlaces(r)
	if data == nil {
		h.writeError(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

func (h *Handler) HandleRecommendAPI(w http.ResponseWriter, r *http.Request) {
	point, msg := parsePoint(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, _ := token.Username(r.Context())
	places, err := h.Store.GetNearbyPlaces(point.Lat, point.Lon)
	if err != nil {
		h.logger().Error("fetching recommendations", zap.String("user", user), zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "Error fetching recommendations")
		return
	}

	h.writeJSON(w, http.StatusOK, Recommendation{
		Name:   "Recommendation",
		Places: places,
	})
}

func parsePoint(latStr, lonStr string) (types.GeoPoint, string) {
	if latStr == "" || lonStr == "" {
		return types.GeoPoint{}, "Missing latitude or longitude"
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return types.GeoPoint{}, "Invalid latitude"
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return types.GeoPoint{}, "Invalid longitude"
	}
	return types.GeoPoint{Lat: lat, Lon: lon}, ""
}
