package draw

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"WhereToEat/src/cursor"
	"WhereToEat/src/sampler"
	"WhereToEat/src/types"
)

var errUpstream = errors.New("upstream down")

// pagedSource serves fixed pages; requests past the last page return an empty
// page flagged as the end.
type pagedSource struct {
	pages     [][]types.Place
	requested []int
	fail      map[int]bool
}

func (p *pagedSource) SearchPlaces(_ context.Context, _ types.Query, page int) (types.Page, error) {
	p.requested = append(p.requested, page)
	if p.fail[page] {
		return types.Page{}, errUpstream
	}
	if page > len(p.pages) {
		return types.Page{IsEnd: true}, nil
	}
	return types.Page{Places: p.pages[page-1], IsEnd: page == len(p.pages)}, nil
}

func places(prefix string, n int) []types.Place {
	out := make([]types.Place, n)
	for i := range out {
		out[i] = types.Place{ID: fmt.Sprintf("%s%d", prefix, i), Name: prefix}
	}
	return out
}

func newService(src types.PlaceSource, policy cursor.Policy) *Service {
	return New(src, sampler.New(sampler.NewSeededSource(1)), Config{Policy: policy}, nil)
}

func TestDraw(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10), places("b", 3)}}
	svc := newService(src, cursor.Wrap)

	res, err := svc.Draw(context.Background(), types.Query{Category: "FD6"}, cursor.New())
	require.NoError(err)
	require.Len(res.Places, sampler.DefaultSize)
	require.Subset(src.pages[0], res.Places)
	require.Equal(cursor.Cursor{Page: 1, AtEnd: false}, res.Cursor)
	require.Equal([]int{1}, src.requested)
}

func TestDrawObservesEnd(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10), places("b", 3)}}
	svc := newService(src, cursor.Wrap)

	res, err := svc.Draw(context.Background(), types.Query{}, cursor.Cursor{Page: 2})
	require.NoError(err)
	require.Equal(src.pages[1], res.Places)
	require.Equal(cursor.Cursor{Page: 2, AtEnd: true}, res.Cursor)
}

func TestDrawFailureKeepsCursor(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10)}, fail: map[int]bool{1: true}}
	svc := newService(src, cursor.Wrap)

	in := cursor.Cursor{Page: 1, AtEnd: false}
	res, err := svc.Draw(context.Background(), types.Query{}, in)
	require.ErrorIs(err, errUpstream)
	require.Equal(in, res.Cursor)
	require.Empty(res.Places)
}

func TestDrawInvalidCursor(t *testing.T) {
	src := &pagedSource{}
	svc := newService(src, cursor.Wrap)

	_, err := svc.Draw(context.Background(), types.Query{}, cursor.Cursor{Page: 0})
	require.ErrorIs(t, err, cursor.ErrInvalidPage)
	require.Empty(t, src.requested)
}

func TestRedrawAdvances(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10), places("b", 3)}}
	svc := newService(src, cursor.Stay)

	res, err := svc.Redraw(context.Background(), types.Query{}, cursor.New())
	require.NoError(err)
	require.Equal(src.pages[1], res.Places)
	require.Equal(cursor.Cursor{Page: 2, AtEnd: true}, res.Cursor)
}

func TestRedrawAtEndWraps(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10), places("b", 3), places("c", 4)}}
	svc := newService(src, cursor.Wrap)

	res, err := svc.Redraw(context.Background(), types.Query{}, cursor.Cursor{Page: 3, AtEnd: true})
	require.NoError(err)
	require.Equal(cursor.Cursor{Page: 1, AtEnd: false}, res.Cursor)
	require.Subset(src.pages[0], res.Places)
	require.Equal([]int{1}, src.requested)
}

func TestRedrawAtEndStays(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10), places("b", 3)}}
	svc := newService(src, cursor.Stay)

	res, err := svc.Redraw(context.Background(), types.Query{}, cursor.Cursor{Page: 2, AtEnd: true})
	require.NoError(err)
	require.Equal(cursor.Cursor{Page: 2, AtEnd: true}, res.Cursor)
	require.Equal(src.pages[1], res.Places)
}

func TestRedrawEmptyPageWraps(t *testing.T) {
	require := require.New(t)

	// The source did not flag page 1 as the end, but page 2 is empty.
	src := &pagedSource{pages: [][]types.Place{places("a", 6), {}}}
	svc := newService(src, cursor.Wrap)

	res, err := svc.Redraw(context.Background(), types.Query{}, cursor.New())
	require.NoError(err)
	require.Equal([]int{2, 1}, src.requested)
	require.Equal(cursor.Cursor{Page: 1, AtEnd: false}, res.Cursor)
	require.Len(res.Places, 5)
}

func TestRedrawFailureKeepsCursor(t *testing.T) {
	require := require.New(t)

	src := &pagedSource{pages: [][]types.Place{places("a", 10), places("b", 10)}, fail: map[int]bool{2: true}}
	svc := newService(src, cursor.Wrap)

	in := cursor.New()
	res, err := svc.Redraw(context.Background(), types.Query{}, in)
	require.ErrorIs(err, errUpstream)
	require.Equal(in, res.Cursor)
}

func TestDrawN(t *testing.T) {
	src := &pagedSource{pages: [][]types.Place{places("a", 10)}}
	svc := newService(src, cursor.Wrap)

	res, err := svc.DrawN(context.Background(), types.Query{}, cursor.New(), 2)
	require.NoError(t, err)
	require.Len(t, res.Places, 2)
}

func TestPickOne(t *testing.T) {
	require := require.New(t)
	svc := newService(&pagedSource{}, cursor.Wrap)

	_, ok := svc.PickOne(nil)
	require.False(ok)

	sample := places("a", 5)
	got, ok := svc.PickOne(sample)
	require.True(ok)
	require.Contains(sample, got)
}
