package repeat

import (
	"fmt"
	"strings"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/interval"
)

type PhaseKind int

const (
	// PhaseNonDcDs renders a piece without D.C./D.S. straight through.
	PhaseNonDcDs PhaseKind = iota
	// PhaseDcDsIter0 renders the first pass, cut at the jump.
	PhaseDcDsIter0
	// PhaseDcDsIter1 renders the replay after the jump.
	PhaseDcDsIter1
)

// Phase tells a region which pass it is rendering.
type Phase struct {
	Kind     PhaseKind
	DcDsTick uint32
	Global   *GlobalRepeat
}

func NonDcDs() Phase {
	return Phase{Kind: PhaseNonDcDs}
}

func DcDsIter0(dcDsTick uint32) Phase {
	return Phase{Kind: PhaseDcDsIter0, DcDsTick: dcDsTick}
}

func DcDsIter1(dcDsTick uint32, global *GlobalRepeat) Phase {
	return Phase{Kind: PhaseDcDsIter1, DcDsTick: dcDsTick, Global: global}
}

// Region is one of NullRegion, SequenceRegion, RepeatRegion,
// VariationRegion or *CompoundRegion.
type Region interface {
	fmt.Stringer
	region()
}

type NullRegion struct{}

// SequenceRegion is the span [StartTick, EndTick) played once.
type SequenceRegion struct {
	StartTick uint32
	EndTick   uint32
}

// RepeatRegion is a span played twice.
type RepeatRegion struct {
	Body SequenceRegion
}

// VariationRegion is a common span followed by numbered endings. Every
// ending is played in its own pass, each pass starting with Common.
type VariationRegion struct {
	Common     SequenceRegion
	Variations []SequenceRegion
}

// CompoundRegion is the whole piece. With a non-nil Global its regions are
// rendered up to the jump and then again from the Segno.
type CompoundRegion struct {
	Regions []Region
	Global  *GlobalRepeat
}

func (NullRegion) region() {}
func (SequenceRegion) region() {}
func (RepeatRegion) region() {}
func (VariationRegion) region() {}
func (*CompoundRegion) region() {}

func (NullRegion) String() string {
	return "Null"
}

func (r SequenceRegion) String() string {
	return "Seq" + chunk.New(r.StartTick, r.EndTick).String()
}

func (r RepeatRegion) String() string {
	return "Repeat" + chunk.New(r.Body.StartTick, r.Body.EndTick).String()
}

func (r VariationRegion) String() string {
	vars := make([]string, len(r.Variations))
	for i, v := range r.Variations {
		vars[i] = fmt.Sprintf("%d.%v", i+1, chunk.New(v.StartTick, v.EndTick))
	}
	return fmt.Sprintf("Variation{%v %s}", chunk.New(r.Common.StartTick, r.Common.EndTick), strings.Join(vars, " "))
}

func (r *CompoundRegion) String() string {
	parts := make([]string, len(r.Regions))
	for i, c := range r.Regions {
		parts[i] = c.String()
	}
	s := "Compound[" + strings.Join(parts, " ") + "]"
	if r.Global != nil {
		d := r.Global.DsDc()
		s += fmt.Sprintf(" %v@%d->%d", d.Kind, d.Tick, r.Global.Segno())
	}
	return s
}

func (r RepeatRegion) StartTick() uint32 {
	return r.Body.StartTick
}

func (r RepeatRegion) EndTick() uint32 {
	return r.Body.EndTick
}

func (r VariationRegion) StartTick() uint32 {
	return r.Common.StartTick
}

func (r VariationRegion) EndTick() uint32 {
	if len(r.Variations) == 0 {
		return r.Common.EndTick
	}
	return r.Variations[len(r.Variations)-1].EndTick
}

// ToChunks renders the region into the score ranges of one complete
// performance, in playback order.
func ToChunks(r Region) []chunk.Chunk {
	if c, ok := r.(*CompoundRegion); ok {
		return c.ToChunks()
	}
	return render(r, NonDcDs())
}

func (r *CompoundRegion) ToChunks() []chunk.Chunk {
	var res []chunk.Chunk
	if r.Global == nil {
		for _, c := range r.Regions {
			res = append(res, render(c, NonDcDs())...)
		}
		return res
	}

	tick := r.Global.DsDc().Tick
	for _, c := range r.Regions {
		res = append(res, render(c, DcDsIter0(tick))...)
	}
	for _, c := range r.Regions {
		res = append(res, render(c, DcDsIter1(tick, r.Global))...)
	}
	return res
}

func render(r Region, phase Phase) []chunk.Chunk {
	switch r := r.(type) {
	case NullRegion:
		return nil
	case SequenceRegion:
		return renderSequence(r, phase)
	case RepeatRegion:
		return renderRepeat(r, phase)
	case VariationRegion:
		return renderVariation(r, phase)
	case *CompoundRegion:
		return r.ToChunks()
	default:
		panic(fmt.Sprintf("unknown region %T", r))
	}
}

func renderSequence(r SequenceRegion, phase Phase) []chunk.Chunk {
	if r.EndTick <= r.StartTick {
		return nil
	}
	switch phase.Kind {
	case PhaseDcDsIter0:
		if r.EndTick <= phase.DcDsTick {
			return []chunk.Chunk{chunk.New(r.StartTick, r.EndTick)}
		}
		if r.StartTick < phase.DcDsTick {
			return []chunk.Chunk{chunk.New(r.StartTick, phase.DcDsTick)}
		}
		return nil
	case PhaseDcDsIter1:
		return intersectChunks(closed(r), phase.Global)
	default:
		return []chunk.Chunk{chunk.New(r.StartTick, r.EndTick)}
	}
}

func renderRepeat(r RepeatRegion, phase Phase) []chunk.Chunk {
	switch phase.Kind {
	case PhaseDcDsIter0:
		if r.EndTick() <= phase.DcDsTick {
			return renderRepeat(r, NonDcDs())
		}
		if phase.DcDsTick <= r.StartTick() {
			return nil
		}
		panic(fmt.Sprintf("logic error: D.C./D.S. at %d inside %v", phase.DcDsTick, r))
	case PhaseDcDsIter1:
		return intersectChunks(closed(r.Body), phase.Global)
	default:
		once := renderSequence(r.Body, phase)
		return append(once, once...)
	}
}

func renderVariation(r VariationRegion, phase Phase) []chunk.Chunk {
	switch phase.Kind {
	case PhaseDcDsIter0:
		if phase.DcDsTick <= r.StartTick() {
			return nil
		}
		if r.EndTick() <= phase.DcDsTick {
			return renderVariation(r, NonDcDs())
		}
		panic(fmt.Sprintf("logic error: D.C./D.S. at %d inside %v", phase.DcDsTick, r))
	case PhaseDcDsIter1:
		if len(r.Variations) == 0 {
			return intersectChunks(closed(r.Common), phase.Global)
		}
		last := r.Variations[len(r.Variations)-1]
		return intersectChunks(closed(r.Common).Union(closed(last)), phase.Global)
	default:
		var res []chunk.Chunk
		for _, v := range r.Variations {
			res = append(res, renderSequence(r.Common, phase)...)
			res = append(res, renderSequence(v, phase)...)
		}
		return res
	}
}

func closed(r SequenceRegion) interval.Set {
	if r.EndTick <= r.StartTick {
		return interval.Set{}
	}
	return interval.New(interval.Interval{Lo: r.StartTick, Hi: r.EndTick - 1})
}

func intersectChunks(s interval.Set, global *GlobalRepeat) []chunk.Chunk {
	var res []chunk.Chunk
	for _, iv := range s.Intersect(global.Iter1IntervalSet()).Intervals() {
		res = append(res, chunk.New(iv.Lo, iv.Hi+1))
	}
	return res
}
