package play

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruimo/klavier-core-sub000/chunk"
)

func simpleRepeat() chunk.Index {
	return chunk.ByAccumTick([]chunk.Chunk{
		chunk.New(0, 100), chunk.New(100, 200), chunk.New(100, 200), chunk.New(200, chunk.OpenEnd),
	})
}

func TestIter(t *testing.T) {
	assert.Equal(t, uint8(1), Iter{}.Value())
	assert.Equal(t, uint8(1), NewIter(0).Value())
	assert.Equal(t, uint8(MaxIter), NewIter(9).Value())

	i := NewIter(2)
	assert.True(t, i.Set(5))
	assert.Equal(t, uint8(5), i.Value())
	assert.False(t, i.Set(6))
	assert.False(t, i.Set(0))
	assert.Equal(t, uint8(5), i.Value())
	assert.Equal(t, "#5", i.String())
}

func TestNoMarkers(t *testing.T) {
	idx := chunk.ByAccumTick([]chunk.Chunk{chunk.New(0, chunk.OpenEnd)})
	for _, tick := range []uint32{0, 1, 960, 123456} {
		accum, err := NewStartTick(tick, 1).ToAccumTick(idx)
		require.NoError(t, err)
		assert.Equal(t, tick, accum)

		_, err = NewStartTick(tick, 2).ToAccumTick(idx)
		var cerr *CannotFindError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, &CannotFindError{SpecifiedIter: 2, MaxIter: 1}, cerr)
	}
}

func TestSimpleRepeatToAccumTick(t *testing.T) {
	idx := simpleRepeat()

	accum, err := NewStartTick(150, 1).ToAccumTick(idx)
	require.NoError(t, err)
	assert.Equal(t, chunk.AccumTick(150), accum)

	accum, err = NewStartTick(150, 2).ToAccumTick(idx)
	require.NoError(t, err)
	assert.Equal(t, chunk.AccumTick(250), accum)

	accum, err = NewStartTick(200, 1).ToAccumTick(idx)
	require.NoError(t, err)
	assert.Equal(t, chunk.AccumTick(300), accum)

	_, err = NewStartTick(50, 2).ToAccumTick(idx)
	assert.EqualError(t, err, "cannot find iteration 2, the tick is played 1 time(s)")
}

func TestClamp(t *testing.T) {
	idx := simpleRepeat()
	assert.Equal(t, NewStartTick(50, 1), NewStartTick(50, 3).Clamp(idx))
	assert.Equal(t, NewStartTick(150, 2), NewStartTick(150, 4).Clamp(idx))
	assert.Equal(t, NewStartTick(150, 2), NewStartTick(150, 2).Clamp(idx))
	assert.Equal(t, 2, Passes(idx, 100))
	assert.Equal(t, 0, Passes(chunk.Index{}, 100))
}

func TestFromAccumTick(t *testing.T) {
	idx := simpleRepeat()
	cases := []struct {
		accum chunk.AccumTick
		want  StartTick
	}{
		{0, NewStartTick(0, 1)},
		{150, NewStartTick(150, 1)},
		{250, NewStartTick(150, 2)},
		{300, NewStartTick(200, 1)},
		{10000, NewStartTick(9900, 1)},
	}
	for _, tc := range cases {
		got, err := FromAccumTick(idx, tc.accum)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)

		back, err := got.ToAccumTick(idx)
		require.NoError(t, err)
		assert.Equal(t, tc.accum, back)
	}
}

func TestFromAccumTickOutOfRange(t *testing.T) {
	idx := chunk.ByAccumTick([]chunk.Chunk{chunk.New(0, 1440), chunk.New(0, 480)})
	got, err := FromAccumTick(idx, 1500)
	require.NoError(t, err)
	assert.Equal(t, NewStartTick(60, 2), got)

	_, err = FromAccumTick(idx, 1920)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = FromAccumTick(chunk.Index{}, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
