// Package draw implements the results view: fetch the page a cursor points
// at, sample a shortlist from it, re-draw from the next page, pick one.
package draw

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"WhereToEat/src/cursor"
	"WhereToEat/src/sampler"
	"WhereToEat/src/types"
)

type Config struct {
	SampleSize int
	Policy     cursor.Policy
}

type Result struct {
	Places []types.Place `json:"places"`
	Cursor cursor.Cursor `json:"cursor"`
	Total  int           `json:"total"`
}

type Service struct {
	source  types.PlaceSource
	sampler *sampler.Sampler
	cfg     Config
	log     *zap.Logger
}

func New(source types.PlaceSource, s *sampler.Sampler, cfg Config, log *zap.Logger) *Service {
	if s == nil {
		s = sampler.New(nil)
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = sampler.DefaultSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, sampler: s, cfg: cfg, log: log}
}

// Draw samples from the page cur points at. On failure the returned cursor is
// cur itself.
func (s *Service) Draw(ctx context.Context, query types.Query, cur cursor.Cursor) (Result, error) {
	return s.DrawN(ctx, query, cur, s.cfg.SampleSize)
}

func (s *Service) DrawN(ctx context.Context, query types.Query, cur cursor.Cursor, k int) (Result, error) {
	if err := cur.Validate(); err != nil {
		return Result{Cursor: cur}, err
	}

	page, err := s.source.SearchPlaces(ctx, query, cur.Page)
	if err != nil {
		return Result{Cursor: cur}, errors.Wrapf(err, "fetching page %d", cur.Page)
	}

	next := cur.Observe(page.IsEnd)
	s.log.Debug("drew from page",
		zap.String("category", query.Category),
		zap.Int("page", next.Page),
		zap.Bool("at_end", next.AtEnd),
		zap.Int("candidates", len(page.Places)),
	)

	return Result{
		Places: sampler.SampleWith(s.sampler, page.Places, k),
		Cursor: next,
		Total:  page.Total,
	}, nil
}

// Redraw advances past the current page and draws again. An empty page after
// advancing under the wrap policy starts over from page one.
func (s *Service) Redraw(ctx context.Context, query types.Query, cur cursor.Cursor) (Result, error) {
	return s.RedrawN(ctx, query, cur, s.cfg.SampleSize)
}

func (s *Service) RedrawN(ctx context.Context, query types.Query, cur cursor.Cursor, k int) (Result, error) {
	if err := cur.Validate(); err != nil {
		return Result{Cursor: cur}, err
	}

	res, err := s.DrawN(ctx, query, cur.Advance(s.cfg.Policy), k)
	if err != nil {
		return Result{Cursor: cur}, err
	}
	if len(res.Places) == 0 && s.cfg.Policy == cursor.Wrap && res.Cursor.Page != 1 {
		res, err = s.DrawN(ctx, query, res.Cursor.Reset(), k)
		if err != nil {
			return Result{Cursor: cur}, err
		}
	}
	return res, nil
}

func (s *Service) PickOne(sample []types.Place) (types.Place, bool) {
	return sampler.PickOneWith(s.sampler, sample)
}
