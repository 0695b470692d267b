package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"WhereToEat/src/cursor"
	"WhereToEat/src/types"
)

type homePage struct {
	Categories []types.Category
	Category   string
	Query      string
	Addresses  []addressLink
	Searched   bool
	Error      string
}

type addressLink struct {
	Name string
	URL  string
}

type resultPage struct {
	Local      string
	Category   types.Category
	Places     []types.Place
	Picked     *types.Place
	SampleJSON string
	Cursor     cursor.Cursor
	RedrawURL  string
	PickURL    string
	SearchURL  string
	KakaoJSKey string
	Failed     bool
}

func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := homePage{
		Categories: types.Categories,
		Category:   q.Get("category"),
		Query:      strings.TrimSpace(q.Get("query")),
	}

	if _, ok := types.LookupCategory(data.Category); data.Query != "" && !ok {
		data.Error = "Choose a category first."
		data.Query = ""
	}

	if data.Query != "" && h.Geocoder != nil {
		data.Searched = true
		addresses, err := h.Geocoder.SearchAddress(r.Context(), data.Query)
		if err != nil {
			h.logger().Warn("address search", zap.String("query", data.Query), zap.Error(err))
		}
		for _, addr := range addresses {
			data.Addresses = append(data.Addresses, addressLink{
				Name: addr.Name,
				URL:  ResultURL(data.Category, addr),
			})
		}
	}
	h.render(w, h.Templates.Home, data)
}

// ResultURL builds the result page link for an address picked on the home page.
func ResultURL(category string, addr types.Address) string {
	v := url.Values{}
	v.Set("category", category)
	v.Set("local", addr.Name)
	v.Set("x", strconv.FormatFloat(addr.Location.Lon, 'f', -1, 64))
	v.Set("y", strconv.FormatFloat(addr.Location.Lat, 'f', -1, 64))
	return "/result?" + v.Encode()
}

func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	req, msg := h.parseDrawRequest(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	data := h.newResultPage(r, req)
	res, err := h.runDraw(r.Context(), req)
	if err != nil {
		h.logger().Error("drawing places", zap.String("category", req.Query.Category), zap.Error(err))
		data.Failed = true
	} else {
		data.Places = res.Places
		data.Cursor = res.Cursor
	}
	h.fillLinks(r, &data)
	h.render(w, h.Templates.Result, data)
}

// HandleResultPick narrows the posted shortlist to one place.
func (h *Handler) HandleResultPick(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	// The draw parameters ride along in the form action's query string.
	req, msg := h.parseDrawRequest(r)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	var sample []types.Place
	if err := json.Unmarshal([]byte(r.PostForm.Get("sample")), &sample); err != nil {
		http.Error(w, "Invalid sample", http.StatusBadRequest)
		return
	}

	data := h.newResultPage(r, req)
	data.Places = sample
	if place, ok := h.Draw.PickOne(sample); ok {
		data.Picked = &place
	}
	h.fillLinks(r, &data)
	h.render(w, h.Templates.Result, data)
}

func (h *Handler) newResultPage(r *http.Request, req drawRequest) resultPage {
	category, _ := types.LookupCategory(req.Query.Category)
	return resultPage{
		Local:      r.URL.Query().Get("local"),
		Category:   category,
		Cursor:     req.Cursor,
		KakaoJSKey: h.Config.KakaoJSKey,
		SearchURL:  "/?category=" + url.QueryEscape(req.Query.Category),
	}
}

// fillLinks carries the cursor into the re-draw link and serialises the sample
// for the pick form.
func (h *Handler) fillLinks(r *http.Request, data *resultPage) {
	v := url.Values{}
	for _, key := range []string{"category", "local", "x", "y", "k"} {
		if val := r.URL.Query().Get(key); val != "" {
			v.Set(key, val)
		}
	}
	v.Set("page", strconv.Itoa(data.Cursor.Page))
	v.Set("at_end", strconv.FormatBool(data.Cursor.AtEnd))
	data.PickURL = "/result/pick?" + v.Encode()

	v.Set("redraw", "true")
	data.RedrawURL = "/result?" + v.Encode()

	sample, err := json.Marshal(data.Places)
	if err != nil {
		h.logger().Warn("encoding sample", zap.Error(err))
		return
	}
	data.SampleJSON = string(sample)
}
