// Package kakao is a client for the Kakao Local REST API: address search for
// picking a search origin and category search for places around it.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"WhereToEat/src/types"
)

const (
	DefaultBaseURL = "https://dapi.kakao.com"

	addressPath  = "/v2/local/search/address.json"
	categoryPath = "/v2/local/search/category.json"

	addressSize = 10
	maxPage     = 45
	maxRadius   = 20000
	maxSize     = 15
)

var (
	ErrEmptyQuery     = errors.New("empty address query")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrMissingKey     = errors.New("kakao REST API key is not set")
)

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Type       string `json:"errorType"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kakao: status %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

type Config struct {
	BaseURL   string
	RESTKey   string
	RPS       float64
	CacheSize int
	Timeout   time.Duration
}

type Client struct {
	baseURL    string
	restKey    string
	httpClient *http.Client
	limiter    *rate.Limiter
	addresses  *lru.Cache[string, []types.Address]
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.RESTKey == "" {
		return nil, ErrMissingKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	cache, err := lru.New[string, []types.Address](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		restKey:    cfg.RESTKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		addresses:  cache,
		log:        log,
	}, nil
}

type meta struct {
	TotalCount    int  `json:"total_count"`
	PageableCount int  `json:"pageable_count"`
	IsEnd         bool `json:"is_end"`
}

type addressDocument struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type addressResponse struct {
	Meta      meta              `json:"meta"`
	Documents []addressDocument `json:"documents"`
}

type placeDocument struct {
	ID                string `json:"id"`
	PlaceName         string `json:"place_name"`
	CategoryName      string `json:"category_name"`
	CategoryGroupCode string `json:"category_group_code"`
	Phone             string `json:"phone"`
	AddressName       string `json:"address_name"`
	RoadAddressName   string `json:"road_address_name"`
	X                 string `json:"x"`
	Y                 string `json:"y"`
	PlaceURL          string `json:"place_url"`
	Distance          string `json:"distance"`
}

type placeResponse struct {
	Meta      meta            `json:"meta"`
	Documents []placeDocument `json:"documents"`
}

// SearchAddress geocodes a free-form address or place name.
func (c *Client) SearchAddress(ctx context.Context, query string) ([]types.Address, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if cached, ok := c.addresses.Get(query); ok {
		return slices.Clone(cached), nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("size", strconv.Itoa(addressSize))

	var resp addressResponse
	if err := c.get(ctx, addressPath, params, &resp); err != nil {
		return nil, err
	}

	addresses := make([]types.Address, 0, len(resp.Documents))
	for _, doc := range resp.Documents {
		point, err := parsePoint(doc.X, doc.Y)
		if err != nil {
			c.log.Warn("skipping address with bad coordinates",
				zap.String("address", doc.AddressName), zap.Error(err))
			continue
		}
		addresses = append(addresses, types.Address{Name: doc.AddressName, Location: point})
	}

	// The cache keeps its own copy so callers may modify the result.
	c.addresses.Add(query, slices.Clone(addresses))
	return addresses, nil
}

// SearchPlaces returns one page of places of a category around query.Location.
func (c *Client) SearchPlaces(ctx context.Context, query types.Query, page int) (types.Page, error) {
	if page < 1 || page > maxPage {
		return types.Page{}, errors.Wrapf(ErrPageOutOfRange, "page %d", page)
	}
	query = query.WithDefaults()

	params := url.Values{}
	params.Set("category_group_code", query.Category)
	params.Set("x", strconv.FormatFloat(query.Location.Lon, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(query.Location.Lat, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(min(query.Radius, maxRadius)))
	params.Set("size", strconv.Itoa(min(query.Size, maxSize)))
	params.Set("page", strconv.Itoa(page))

	var resp placeResponse
	if err := c.get(ctx, categoryPath, params, &resp); err != nil {
		return types.Page{}, err
	}

	places := make([]types.Place, 0, len(resp.Documents))
	for _, doc := range resp.Documents {
		point, err := parsePoint(doc.X, doc.Y)
		if err != nil {
			c.log.Warn("skipping place with bad coordinates",
				zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		places = append(places, types.Place{
			ID:           doc.ID,
			Name:         doc.PlaceName,
			Category:     doc.CategoryName,
			CategoryCode: doc.CategoryGroupCode,
			Address:      doc.AddressName,
			RoadAddress:  doc.RoadAddressName,
			Phone:        doc.Phone,
			URL:          doc.PlaceURL,
			Distance:     doc.Distance,
			Location:     point,
		})
	}

	return types.Page{
		Places: places,
		IsEnd:  resp.Meta.IsEnd || page >= maxPage,
		Total:  resp.Meta.TotalCount,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.restKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "kakao request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading kakao response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decoding kakao response")
	}
	return nil
}

// parsePoint reads Kakao's string coordinates: x is longitude, y latitude.
func parsePoint(x, y string) (types.GeoPoint, error) {
	lon, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return types.GeoPoint{}, errors.Wrap(err, "x")
	}
	lat, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return types.GeoPoint{}, errors.Wrap(err, "y")
	}
	return types.GeoPoint{Lon: lon, Lat: lat}, nil
}
