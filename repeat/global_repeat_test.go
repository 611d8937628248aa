package repeat

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruimo/klavier-core-sub000/interval"
	"github.com/ruimo/klavier-core-sub000/model"
)

func iv(lo, hi uint32) interval.Interval {
	return interval.Interval{Lo: lo, Hi: hi}
}

func TestBuilderDcWithoutFine(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(4000, 240*4))
	b.SetFirstBarLen(240 * 4)

	gr, warnings, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(0, math.MaxUint32-1))))
}

func TestBuilderDcWithFine(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(8000, 240*4))
	require.NoError(t, b.AddFine(4000))
	b.SetFirstBarLen(240 * 4)

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), gr.Segno())
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(0, 3999))))
	fine, ok := gr.Fine()
	assert.True(t, ok)
	assert.Equal(t, uint32(4000), fine)
}

func TestDcWithFineAuftakt(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(4000, 240*4))
	require.NoError(t, b.AddFine(2000))
	b.SetFirstBarLen(240)

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, uint32(240), gr.Segno())
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(240, 1999))))
}

func TestDcCompletingAuftakt(t *testing.T) {
	// the D.C. bar supplies the beats missing from the pickup
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(4000, 720))
	b.SetFirstBarLen(240)

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), gr.Segno())
}

func TestDcWithCodaFineAuftakt(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(4000, 240*4))
	require.NoError(t, b.AddCoda(1000))
	require.NoError(t, b.AddCoda(5000))
	require.NoError(t, b.AddFine(8000))
	b.SetFirstBarLen(240)

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(240, 999), iv(5000, 7999))))
	coda, ok := gr.Coda()
	assert.True(t, ok)
	assert.Equal(t, [2]uint32{1000, 5000}, coda)
}

func TestDsWithoutFine(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDs(4000))
	require.NoError(t, b.AddSegno(100))

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, Ds, gr.DsDc().Kind)
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(100, math.MaxUint32-1))))
}

func TestBuilderDsWithFine(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDs(8000))
	require.NoError(t, b.AddFine(4000))
	require.NoError(t, b.AddSegno(100))

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(100, 3999))))
}

func TestDsWithCodaFine(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDs(4000))
	require.NoError(t, b.AddCoda(1000))
	require.NoError(t, b.AddCoda(5000))
	require.NoError(t, b.AddFine(8000))
	require.NoError(t, b.AddSegno(240))

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.True(t, gr.Iter1IntervalSet().Equal(interval.New(iv(240, 999), iv(5000, 7999))))
}

func TestFineBeforeSegnoLeavesNothingToReplay(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDs(4000))
	require.NoError(t, b.AddFine(100))
	require.NoError(t, b.AddSegno(200))

	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.True(t, gr.Iter1IntervalSet().IsEmpty())
}

func TestNoDsDc(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddFine(100))
	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.Nil(t, gr)
}

func TestDcWithoutFirstBarLen(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(960, 960))
	gr, _, err := b.Build()
	require.NoError(t, err)
	assert.Nil(t, gr)
}

func TestDuplicatedDsDc(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(100, 0))
	err := b.AddDc(200, 100)
	var rerr *RenderRegionError
	require.True(t, errors.As(err, &rerr))
	assert.ErrorIs(t, err, ErrDuplicatedDsDc)
	assert.Equal(t, []uint32{100, 200}, rerr.Ticks)

	b = NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(100, 0))
	err = b.AddDs(300)
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []uint32{100, 300}, rerr.Ticks)
}

func TestDuplicatedMarks(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddFine(100))
	assert.ErrorIs(t, b.AddFine(200), ErrDuplicatedFine)

	require.NoError(t, b.AddSegno(100))
	assert.ErrorIs(t, b.AddSegno(200), ErrDuplicatedSegno)

	require.NoError(t, b.AddCoda(100))
	require.NoError(t, b.AddCoda(200))
	err := b.AddCoda(300)
	assert.ErrorIs(t, err, ErrMoreThanTwoCodas)
	assert.Equal(t, []uint32{100, 200, 300}, err.(*RenderRegionError).Ticks)
}

func TestNoSegnoForDs(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDs(100))
	_, _, err := b.Build()
	assert.ErrorIs(t, err, ErrNoSegnoForDs)
}

func TestCodaAfterFine(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDs(4000))
	require.NoError(t, b.AddSegno(0))
	require.NoError(t, b.AddCoda(1000))
	require.NoError(t, b.AddCoda(5000))
	require.NoError(t, b.AddFine(3000))
	_, _, err := b.Build()
	assert.ErrorIs(t, err, ErrCodaAfterFine)
}

func TestWarnings(t *testing.T) {
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.AddDc(4000, 960))
	require.NoError(t, b.AddSegno(960))
	require.NoError(t, b.AddCoda(1920))
	b.SetFirstBarLen(960)

	gr, warnings, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, uint32(960), gr.Segno())
	_, ok := gr.Coda()
	assert.False(t, ok)
	assert.Equal(t, []Warning{
		SegnoAndDcFound{SegnoTick: 960, DcTick: 4000},
		OrphanCodaFound{CodaTick: 1920},
	}, warnings)
}

func TestOnBarTracksFirstBarAndDcLen(t *testing.T) {
	rhythm := model.MustRhythm(3, 4)
	b := NewGlobalRepeatBuilder(model.DefaultRhythm())
	require.NoError(t, b.OnBar(model.NewBar(0, &rhythm, model.EmptyRepeatSet)))
	require.NoError(t, b.OnBar(model.NewBar(720, nil, model.EmptyRepeatSet)))
	require.NoError(t, b.OnBar(model.NewBar(1440, nil, model.MustRepeatSet(model.RepeatDc))))

	d, ok := b.DsDc()
	require.True(t, ok)
	assert.Equal(t, DsDc{Kind: Dc, Tick: 1440, Len: 720}, d)

	gr, _, err := b.Build()
	require.NoError(t, err)
	// full 3/4 bars on both ends
	assert.Equal(t, uint32(0), gr.Segno())
}
