package play

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/util"
)

var ErrOutOfRange = errors.New("accumulated tick out of range")

// CannotFindError reports that the requested pass never reaches the tick.
// MaxIter is the number of passes that do.
type CannotFindError struct {
	SpecifiedIter uint8
	MaxIter       uint8
}

func (e *CannotFindError) Error() string {
	return fmt.Sprintf("cannot find iteration %d, the tick is played %d time(s)", e.SpecifiedIter, e.MaxIter)
}

// StartTick is the position reached when playback is at score tick Tick
// during pass Iter.
type StartTick struct {
	Tick uint32
	Iter Iter
}

func NewStartTick(tick uint32, iter uint8) StartTick {
	return StartTick{Tick: tick, Iter: NewIter(iter)}
}

func (s StartTick) String() string {
	return fmt.Sprintf("%d%v", s.Tick, s.Iter)
}

// ToAccumTick finds the rendered tick at which the score tick is played for
// the requested pass.
func (s StartTick) ToAccumTick(idx chunk.Index) (chunk.AccumTick, error) {
	want := s.Iter.Value()
	var passes uint8
	for _, e := range idx {
		if e.Chunk.Contains(s.Tick) {
			passes++
			if passes == want {
				return e.AccumTick + (s.Tick - e.Chunk.StartTick), nil
			}
		}
	}
	return 0, &CannotFindError{SpecifiedIter: want, MaxIter: passes}
}

// Passes counts how many times the score tick is played.
func Passes(idx chunk.Index, tick uint32) int {
	n := 0
	for _, e := range idx {
		if e.Chunk.Contains(tick) {
			n++
		}
	}
	return n
}

// Clamp lowers the pass number to the last pass that reaches the tick.
func (s StartTick) Clamp(idx chunk.Index) StartTick {
	n := Passes(idx, s.Tick)
	if n == 0 {
		return StartTick{Tick: s.Tick, Iter: NewIter(1)}
	}
	return StartTick{Tick: s.Tick, Iter: NewIter(uint8(util.Min(int(s.Iter.Value()), n)))}
}

// FromAccumTick finds the score tick and pass playing at a rendered tick.
// Passes beyond MaxIter are reported as MaxIter.
func FromAccumTick(idx chunk.Index, accum chunk.AccumTick) (StartTick, error) {
	i, ok := idx.Pos(accum)
	if !ok {
		return StartTick{}, errors.Wrapf(ErrOutOfRange, "accum %d, total %d", accum, idx.Total())
	}
	e := idx[i]
	tick := e.Chunk.StartTick + (accum - e.AccumTick)
	passes := 1
	for _, prev := range idx[:i] {
		if prev.Chunk.Contains(tick) {
			passes++
		}
	}
	return StartTick{Tick: tick, Iter: NewIter(uint8(util.Min(passes, int(MaxIter))))}, nil
}
