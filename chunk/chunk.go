package chunk

import (
	"fmt"
	"math"
	"sort"

	"github.com/ruimo/klavier-core-sub000/util"
)

// AccumTick is a tick in rendered (played back) time. It keeps growing
// across repeats while the score tick jumps back.
type AccumTick = uint32

// OpenEnd marks a chunk that runs to the end of the piece.
const OpenEnd uint32 = math.MaxUint32

// Chunk is the half-open score range [StartTick, EndTick) played once in a
// row during playback.
type Chunk struct {
	StartTick uint32 `json:"start"`
	EndTick   uint32 `json:"end"`
}

// New does not validate; callers keep start <= end.
func New(start, end uint32) Chunk {
	return Chunk{StartTick: start, EndTick: end}
}

func (c Chunk) Contains(tick uint32) bool {
	return c.StartTick <= tick && tick < c.EndTick
}

func (c Chunk) IsOpenEnded() bool {
	return c.EndTick == OpenEnd
}

// Len panics on an open-ended chunk.
func (c Chunk) Len() uint32 {
	if c.IsOpenEnded() {
		panic(fmt.Sprintf("length of open-ended chunk %v", c))
	}
	return c.EndTick - c.StartTick
}

func (c Chunk) String() string {
	if c.IsOpenEnded() {
		return fmt.Sprintf("[%d, max)", c.StartTick)
	}
	return fmt.Sprintf("[%d, %d)", c.StartTick, c.EndTick)
}

// Optimize merges chunks that continue each other. The result is for display
// only: pass counting and accumulated ticks work on the unoptimized list.
func Optimize(chunks []Chunk) []Chunk {
	res := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if n := len(res); n > 0 && res[n-1].EndTick == c.StartTick {
			res[n-1].EndTick = c.EndTick
			continue
		}
		res = append(res, c)
	}
	return res
}

type Entry struct {
	AccumTick AccumTick `json:"accum_tick"`
	Chunk     Chunk     `json:"chunk"`
}

// Index is the rendered chunk list keyed by the accumulated tick at which
// each chunk starts playing. Keys never decrease.
type Index []Entry

func ByAccumTick(chunks []Chunk) Index {
	idx := make(Index, 0, len(chunks))
	var offset AccumTick
	for _, c := range chunks {
		idx = append(idx, Entry{AccumTick: offset, Chunk: c})
		if !c.IsOpenEnded() {
			offset += c.Len()
		}
	}
	return idx
}

// At returns the entry with the greatest key not after accum. The flag
// tells whether accum actually falls inside that entry's chunk.
func (idx Index) At(accum AccumTick) (Entry, bool) {
	i, ok := idx.Pos(accum)
	if i < 0 {
		return Entry{}, false
	}
	return idx[i], ok
}

// Pos is At returning the position in idx, -1 when accum precedes every key.
func (idx Index) Pos(accum AccumTick) (int, bool) {
	i := sort.Search(len(idx), func(i int) bool {
		return idx[i].AccumTick > accum
	}) - 1
	if i < 0 {
		return i, false
	}
	e := idx[i]
	if e.Chunk.IsOpenEnded() {
		return i, true
	}
	return i, accum-e.AccumTick < e.Chunk.Len()
}

// Total is the rendered length of the finite chunks.
func (idx Index) Total() AccumTick {
	lens := make([]uint32, 0, len(idx))
	for _, e := range idx {
		if !e.Chunk.IsOpenEnded() {
			lens = append(lens, e.Chunk.Len())
		}
	}
	return AccumTick(util.Sum(lens))
}

func (idx Index) IsOpenEnded() bool {
	return len(idx) > 0 && idx[len(idx)-1].Chunk.IsOpenEnded()
}

func (idx Index) Chunks() []Chunk {
	res := make([]Chunk, len(idx))
	for i, e := range idx {
		res[i] = e.Chunk
	}
	return res
}
