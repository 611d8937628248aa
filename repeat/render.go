package repeat

import (
	"github.com/charmbracelet/log"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/model"
)

type stateKind int

const (
	stateIdle stateKind = iota
	stateSeq
	stateRepeatStart
	stateVariation
)

type renderState struct {
	kind  stateKind
	start uint32
	// first tick of every numbered ending seen so far
	regionStartTicks []uint32
}

type renderer struct {
	state   renderState
	regions []Region
	global  *GlobalRepeatBuilder
}

// RenderRegion scans the bars once, in tick order, and builds the region
// tree of the piece. Warnings are returned with a valid tree; a structural
// problem in the repeat marks fails the whole render.
func RenderRegion(tuneRhythm model.Rhythm, bars []model.Bar) (*CompoundRegion, []Warning, error) {
	r := &renderer{global: NewGlobalRepeatBuilder(tuneRhythm)}
	for _, bar := range bars {
		if err := r.global.OnBar(bar); err != nil {
			return nil, nil, err
		}
		if err := r.onBar(bar); err != nil {
			return nil, nil, err
		}
	}

	switch r.state.kind {
	case stateIdle, stateSeq:
		r.push(SequenceRegion{StartTick: r.state.start, EndTick: chunk.OpenEnd})
	case stateRepeatStart:
		return nil, nil, newError(ErrNoRepeatEnd, r.state.start)
	case stateVariation:
		return nil, nil, newError(ErrVariationNotClosed, r.state.start)
	}

	global, warnings, err := r.global.Build()
	if err != nil {
		return nil, nil, err
	}
	log.Debug("rendered regions", "bars", len(bars), "regions", len(r.regions), "global", global != nil, "warnings", len(warnings))
	return &CompoundRegion{Regions: r.regions, Global: global}, warnings, nil
}

func (r *renderer) push(region Region) {
	r.regions = append(r.regions, region)
}

func (r *renderer) seq(tick uint32) {
	r.state = renderState{kind: stateSeq, start: tick}
}

func (r *renderer) repeatStart(tick uint32) {
	r.state = renderState{kind: stateRepeatStart, start: tick}
}

func (r *renderer) onBar(bar model.Bar) error {
	tick := bar.BaseStartTick()
	repeats := bar.Repeats
	isStart := repeats.Contains(model.RepeatStart)
	isEnd := repeats.Contains(model.RepeatEnd)
	isDcDs := repeats.Contains(model.RepeatDc) || repeats.Contains(model.RepeatDs)
	idx, hasIdx := repeats.RegionIndex()
	start := r.state.start

	switch r.state.kind {
	case stateIdle:
		switch {
		case isEnd:
			// the repeat runs back to the top of the piece
			if err := r.checkJumpOutside(0, tick, ErrDcDsWhileRepeat); err != nil {
				return err
			}
			r.push(RepeatRegion{Body: SequenceRegion{StartTick: 0, EndTick: tick}})
			if isStart {
				r.repeatStart(tick)
			} else {
				r.seq(tick)
			}
		case isStart:
			r.push(SequenceRegion{StartTick: 0, EndTick: tick})
			r.repeatStart(tick)
		case hasIdx:
			return r.openVariation(0, tick, idx, isDcDs)
		}

	case stateSeq:
		switch {
		case isEnd:
			return newError(ErrOrphanRepeatEnd, tick)
		case isStart:
			r.push(SequenceRegion{StartTick: start, EndTick: tick})
			r.repeatStart(tick)
		case hasIdx:
			return r.openVariation(start, tick, idx, isDcDs)
		}

	case stateRepeatStart:
		switch {
		case isEnd:
			r.push(RepeatRegion{Body: SequenceRegion{StartTick: start, EndTick: tick}})
			if isStart {
				r.repeatStart(tick)
			} else {
				r.seq(tick)
			}
		case isStart:
			return newError(ErrDuplicatedRepeatStart, start, tick)
		case isDcDs:
			return newError(ErrDcDsWhileRepeat, start, tick)
		case hasIdx:
			return r.openVariation(start, tick, idx, false)
		}

	case stateVariation:
		switch {
		case isEnd:
			return newError(ErrRepeatInVariation, tick)
		case hasIdx:
			// RepeatSet.TryAdd already refuses D.C./D.S. next to an ending
			if isDcDs {
				return newError(ErrDcDsWhileVariation, tick)
			}
			count := len(r.state.regionStartTicks)
			switch int(idx.Value()) {
			case count:
			case count + 1:
				r.state.regionStartTicks = append(r.state.regionStartTicks, tick)
			default:
				return &RenderRegionError{Err: ErrInvalidRegionIndex, Ticks: []uint32{tick}, Index: idx.Value()}
			}
		default:
			return r.closeVariation(tick, isStart)
		}
	}
	return nil
}

// checkJumpOutside fails when a D.C./D.S. already seen lies strictly inside
// (start, end), a span that only now turns out to be repeated.
func (r *renderer) checkJumpOutside(start, end uint32, err error) error {
	if dsDc, ok := r.global.DsDc(); ok && start < dsDc.Tick && dsDc.Tick < end {
		return newError(err, dsDc.Tick)
	}
	return nil
}

func (r *renderer) openVariation(start, tick uint32, idx model.VarIndex, isDcDs bool) error {
	if idx.Value() != 1 {
		return &RenderRegionError{Err: ErrInvalidRegionIndex, Ticks: []uint32{tick}, Index: idx.Value()}
	}
	// same as above, TryAdd keeps this out of real bar sets
	if isDcDs {
		return newError(ErrDcDsWhileVariation, tick)
	}
	if err := r.checkJumpOutside(start, tick, ErrDcDsWhileVariation); err != nil {
		return err
	}
	r.state = renderState{kind: stateVariation, start: start, regionStartTicks: []uint32{tick}}
	return nil
}

func (r *renderer) closeVariation(tick uint32, isStart bool) error {
	ticks := r.state.regionStartTicks
	last := ticks[len(ticks)-1]
	if segno, ok := r.global.Segno(); ok && last < segno && segno < tick {
		return newError(ErrSegnoWhileVariation, segno)
	}

	variations := make([]SequenceRegion, len(ticks))
	for i, t := range ticks {
		end := tick
		if i+1 < len(ticks) {
			end = ticks[i+1]
		}
		variations[i] = SequenceRegion{StartTick: t, EndTick: end}
	}
	r.push(VariationRegion{
		Common:     SequenceRegion{StartTick: r.state.start, EndTick: ticks[0]},
		Variations: variations,
	})

	if isStart {
		r.repeatStart(tick)
	} else {
		r.seq(tick)
	}
	return nil
}
