package db

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"WhereToEat/src/types"
)

const (
	nearbyCount     = 3
	maxResultWindow = 20000
)

type ElasticStore struct {
	Client *elastic.Client
	Index  string
	log    *zap.Logger
}

type Config struct {
	URL   string
	Index string

	// Healthcheck pings the cluster on start. Disabled in tests against fake servers.
	Healthcheck bool
}

func NewElasticStore(cfg Config, log *zap.Logger) (*ElasticStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := elastic.NewClient(
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(cfg.Healthcheck),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "creating elastic client for %s", cfg.URL)
	}
	return &ElasticStore{Client: client, Index: cfg.Index, log: log}, nil
}

func (es *ElasticStore) Stop() {
	es.Client.Stop()
}

// SearchPlaces returns one page of indexed places within query.Radius metres of
// query.Location, nearest first.
func (es *ElasticStore) SearchPlaces(ctx context.Context, query types.Query, page int) (types.Page, error) {
	if page < 1 {
		return types.Page{}, errors.Errorf("invalid page %d", page)
	}
	query = query.WithDefaults()

	filter := elastic.NewBoolQuery().Filter(
		elastic.NewGeoDistanceQuery("location").
			Lat(query.Location.Lat).
			Lon(query.Location.Lon).
			Distance(strconv.Itoa(query.Radius) + "m"),
	)
	if query.Category != "" {
		filter = filter.Filter(categoryFilter(query.Category))
	}

	searchResult, err := es.Client.Search().
		Index(es.Index).
		Query(filter).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(query.Location.Lat, query.Location.Lon).
			Asc().
			Unit("m").
			DistanceType("arc")).
		From((page - 1) * query.Size).
		Size(query.Size).
		Do(ctx)
	if err != nil {
		return types.Page{}, errors.Wrap(err, "searching places")
	}

	places := es.decodeHits(searchResult)
	total := int(searchResult.TotalHits())

	return types.Page{
		Places: places,
		IsEnd:  page*query.Size >= total,
		Total:  total,
	}, nil
}

// categoryFilter matches places of the given category code. Places indexed
// without a code, as the six column dumps are, match every category.
func categoryFilter(code string) elastic.Query {
	return elastic.NewBoolQuery().
		Should(
			elastic.NewTermQuery("category_code", code),
			elastic.NewBoolQuery().MustNot(elastic.NewExistsQuery("category_code")),
		).
		MinimumNumberShouldMatch(1)
}

func (es *ElasticStore) GetNearbyPlaces(lat, lon float64) ([]types.Place, error) {
	ctx := context.Background()

	searchResult, err := es.Client.Search().
		Index(es.Index).
		Query(elastic.NewMatchAllQuery()).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(lat, lon).
			Asc().
			Unit("km").
			DistanceType("arc").
			IgnoreUnmapped(true)).
		Size(nearbyCount).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "searching nearby places")
	}

	return es.decodeHits(searchResult), nil
}

func (es *ElasticStore) GetPlaces(limit, offset int) ([]types.Place, int, error) {
	ctx := context.Background()

	searchResult, err := es.Client.Search().
		Index(es.Index).
		Query(elastic.NewMatchAllQuery()).
		Size(limit).
		From(offset).
		Do(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing places")
	}

	places := es.decodeHits(searchResult)

	count, err := es.Client.Count().Index(es.Index).Do(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting places")
	}

	return places, int(count), nil
}

func (es *ElasticStore) decodeHits(searchResult *elastic.SearchResult) []types.Place {
	if searchResult.Hits == nil {
		return []types.Place{}
	}
	places := make([]types.Place, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		var place types.Place
		if err := json.Unmarshal(hit.Source, &place); err != nil {
			es.log.Warn("skipping undecodable hit", zap.String("id", hit.Id), zap.Error(err))
			continue
		}
		if place.ID == "" {
			place.ID = hit.Id
		}
		places = append(places, place)
	}
	return places
}

func (es *ElasticStore) CreateIndexWithMapping(ctx context.Context, pathStruct string) error {
	exists, err := es.Client.IndexExists(es.Index).Do(ctx)
	if err != nil {
		return errors.Wrap(err, "checking if index exists")
	}
	if exists {
		es.log.Info("index already exists", zap.String("index", es.Index))
		return nil
	}

	schemaBytes, err := os.ReadFile(pathStruct)
	if err != nil {
		return errors.Wrap(err, "reading index mapping")
	}

	createIndex, err := es.Client.CreateIndex(es.Index).BodyString(string(schemaBytes)).Do(ctx)
	if err != nil {
		return errors.Wrap(err, "creating index")
	}
	if !createIndex.Acknowledged {
		es.log.Warn("create index was not acknowledged", zap.String("index", es.Index))
	}

	settings := map[string]interface{}{
		"index": map[string]interface{}{
			"max_result_window": maxResultWindow,
		},
	}
	if _, err := es.Client.IndexPutSettings(es.Index).BodyJson(settings).Do(ctx); err != nil {
		return errors.Wrap(err, "updating index settings")
	}

	es.log.Info("index created", zap.String("index", es.Index))
	return nil
}

// LoadData bulk indexes a tab separated place dump with a header row.
func (es *ElasticStore) LoadData(ctx context.Context, pathData string) (int, error) {
	file, err := os.Open(pathData)
	if err != nil {
		return 0, errors.Wrap(err, "opening place data")
	}
	defer file.Close()

	places, err := ReadPlaces(file)
	if err != nil {
		return 0, err
	}
	if len(places) == 0 {
		return 0, nil
	}

	if err := es.savePlaces(ctx, places); err != nil {
		return 0, err
	}
	return len(places), nil
}

func (es *ElasticStore) savePlaces(ctx context.Context, places []types.Place) error {
	bulkRequest := es.Client.Bulk()
	for _, place := range places {
		req := elastic.NewBulkIndexRequest().Index(es.Index).Id(place.ID).Doc(place)
		bulkRequest = bulkRequest.Add(req)
	}

	bulkResponse, err := bulkRequest.Do(ctx)
	if err != nil {
		return errors.Wrap(err, "executing bulk request")
	}

	for _, item := range bulkResponse.Failed() {
		es.log.Warn("bulk index failed", zap.String("id", item.Id), zap.String("reason", item.Error.Reason))
	}
	return nil
}

// ReadPlaces parses rows of id, name, address, phone, longitude, latitude and
// optionally category code and category name.
func ReadPlaces(r io.Reader) ([]types.Place, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading place data")
	}

	places := make([]types.Place, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		place, err := parseRecord(record)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		places = append(places, place)
	}
	return places, nil
}

func parseRecord(record []string) (types.Place, error) {
	if len(record) < 6 {
		return types.Place{}, errors.Errorf("expected at least 6 fields, got %d", len(record))
	}
	longitude, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return types.Place{}, errors.Wrap(err, "longitude")
	}
	latitude, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return types.Place{}, errors.Wrap(err, "latitude")
	}

	place := types.Place{
		ID:      record[0],
		Name:    record[1],
		Address: record[2],
		Phone:   record[3],
		Location: types.GeoPoint{
			Lat: latitude,
			Lon: longitude,
		},
	}
	if len(record) > 6 {
		place.CategoryCode = record[6]
	}
	if len(record) > 7 {
		place.Category = record[7]
	}
	return place, nil
}
