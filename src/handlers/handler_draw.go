package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"WhereToEat/src/cursor"
	"WhereToEat/src/draw"
	"WhereToEat/src/kakao"
	"WhereToEat/src/types"
)

const maxSampleSize = 15

type drawRequest struct {
	Query  types.Query
	Cursor cursor.Cursor
	Redraw bool
	K      int
}

// parseDrawRequest reads category, x (longitude), y (latitude), page, at_end,
// redraw and k.
func (h *Handler) parseDrawRequest(r *http.Request) (drawRequest, string) {
	q := r.URL.Query()

	category := q.Get("category")
	if _, ok := types.LookupCategory(category); !ok {
		return drawRequest{}, "Unknown category: " + category
	}

	point, msg := parsePoint(q.Get("y"), q.Get("x"))
	if msg != "" {
		return drawRequest{}, msg
	}

	page, ok := parsePage(r)
	if !ok {
		return drawRequest{}, "Invalid 'page' value: " + q.Get("page")
	}

	atEnd, err := parseBool(q.Get("at_end"))
	if err != nil {
		return drawRequest{}, "Invalid 'at_end' value: " + q.Get("at_end")
	}
	redraw, err := parseBool(q.Get("redraw"))
	if err != nil {
		return drawRequest{}, "Invalid 'redraw' value: " + q.Get("redraw")
	}

	k := 0
	if kStr := q.Get("k"); kStr != "" {
		k, err = strconv.Atoi(kStr)
		if err != nil || k < 1 || k > maxSampleSize {
			return drawRequest{}, "Invalid 'k' value: " + kStr
		}
	}

	return drawRequest{
		Query: types.Query{
			Category: category,
			Location: point,
			Radius:   h.Config.SearchRadius,
			Size:     h.Config.PageSize,
		},
		Cursor: cursor.Cursor{Page: page, AtEnd: atEnd},
		Redraw: redraw,
		K:      k,
	}, ""
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// runDraw samples req.K places, or the service's configured size when k was
// not given.
func (h *Handler) runDraw(ctx context.Context, req drawRequest) (draw.Result, error) {
	switch {
	case req.K == 0 && req.Redraw:
		return h.Draw.Redraw(ctx, req.Query, req.Cursor)
	case req.K == 0:
		return h.Draw.Draw(ctx, req.Query, req.Cursor)
	case req.Redraw:
		return h.Draw.RedrawN(ctx, req.Query, req.Cursor, req.K)
	default:
		return h.Draw.DrawN(ctx, req.Query, req.Cursor, req.K)
	}
}

// isBadPage reports a cursor the place source refuses to page to.
func isBadPage(err error) bool {
	return errors.Is(err, kakao.ErrPageOutOfRange) || errors.Is(err, cursor.ErrInvalidPage)
}

func (h *Handler) HandleCategoriesAPI(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, types.Categories)
}

type addressResponse struct {
	Addresses []types.Address `json:"addresses"`
}

func (h *Handler) HandleAddressAPI(w http.ResponseWriter, r *http.Request) {
	if h.Geocoder == nil {
		h.writeError(w, http.StatusNotImplemented, "Address search is not configured")
		return
	}

	addresses, err := h.Geocoder.SearchAddress(r.Context(), r.URL.Query().Get("query"))
	if errors.Is(err, kakao.ErrEmptyQuery) {
		h.writeError(w, http.StatusBadRequest, "Missing query")
		return
	}
	if err != nil {
		h.logger().Error("address search", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "Address search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, addressResponse{Addresses: addresses})
}

func (h *Handler) HandleDrawAPI(w http.ResponseWriter, r *http.Request) {
	req, msg := h.parseDrawRequest(r)
	if msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.runDraw(r.Context(), req)
	if isBadPage(err) {
		h.writeError(w, http.StatusBadRequest, "Invalid 'page' value: "+strconv.Itoa(req.Cursor.Page))
		return
	}
	if err != nil {
		h.logger().Error("drawing places",
			zap.String("category", req.Query.Category),
			zap.Int("page", req.Cursor.Page),
			zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "Place search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

type pickRequest struct {
	Places []types.Place `json:"places"`
}

type pickResponse struct {
	Place types.Place `json:"place"`
}

func (h *Handler) HandlePickAPI(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	place, ok := h.Draw.PickOne(req.Places)
	if !ok {
		h.writeError(w, http.StatusNotFound, "No results")
		return
	}
	h.writeJSON(w, http.StatusOK, pickResponse{Place: place})
}
