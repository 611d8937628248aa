package repeat

import (
	"math"

	"github.com/ruimo/klavier-core-sub000/interval"
	"github.com/ruimo/klavier-core-sub000/model"
)

type DsDcKind int

const (
	Dc DsDcKind = iota + 1
	Ds
)

func (k DsDcKind) String() string {
	if k == Ds {
		return "D.S."
	}
	return "D.C."
}

// DsDc is the jump back found in the piece. Len is the length of the bar
// that ends at the D.C. mark and is only meaningful for D.C.
type DsDc struct {
	Kind DsDcKind
	Tick uint32
	Len  uint32
}

// GlobalRepeat is the resolved D.C./D.S. structure of a piece. It is built
// once by GlobalRepeatBuilder and never changes.
type GlobalRepeat struct {
	dsDc     DsDc
	fine     *uint32
	segno    uint32
	coda     *[2]uint32
	iter1Set interval.Set
}

func (g *GlobalRepeat) DsDc() DsDc {
	return g.dsDc
}

func (g *GlobalRepeat) Fine() (uint32, bool) {
	if g.fine == nil {
		return 0, false
	}
	return *g.fine, true
}

// Segno is where the replay starts, also for D.C.
func (g *GlobalRepeat) Segno() uint32 {
	return g.segno
}

func (g *GlobalRepeat) Coda() ([2]uint32, bool) {
	if g.coda == nil {
		return [2]uint32{}, false
	}
	return *g.coda, true
}

// Iter1IntervalSet is the part of the score played after the jump.
func (g *GlobalRepeat) Iter1IntervalSet() interval.Set {
	return g.iter1Set
}

// GlobalRepeatBuilder collects D.C., D.S., Fine, Segno and Coda marks while
// the bars are scanned once from left to right.
type GlobalRepeatBuilder struct {
	dsDc        *DsDc
	fine        *uint32
	segno       *uint32
	coda        []uint32
	firstBarLen *uint32
	topRhythm   model.Rhythm
	prevBarTick *uint32
}

func NewGlobalRepeatBuilder(tuneRhythm model.Rhythm) *GlobalRepeatBuilder {
	return &GlobalRepeatBuilder{topRhythm: tuneRhythm}
}

func u32(v uint32) *uint32 {
	return &v
}

func (b *GlobalRepeatBuilder) AddDc(tick, barLen uint32) error {
	if b.dsDc != nil {
		return newError(ErrDuplicatedDsDc, b.dsDc.Tick, tick)
	}
	b.dsDc = &DsDc{Kind: Dc, Tick: tick, Len: barLen}
	return nil
}

func (b *GlobalRepeatBuilder) AddDs(tick uint32) error {
	if b.dsDc != nil {
		return newError(ErrDuplicatedDsDc, b.dsDc.Tick, tick)
	}
	b.dsDc = &DsDc{Kind: Ds, Tick: tick}
	return nil
}

func (b *GlobalRepeatBuilder) AddFine(tick uint32) error {
	if b.fine != nil {
		return newError(ErrDuplicatedFine, *b.fine, tick)
	}
	b.fine = u32(tick)
	return nil
}

func (b *GlobalRepeatBuilder) AddSegno(tick uint32) error {
	if b.segno != nil {
		return newError(ErrDuplicatedSegno, *b.segno, tick)
	}
	b.segno = u32(tick)
	return nil
}

func (b *GlobalRepeatBuilder) AddCoda(tick uint32) error {
	if len(b.coda) == 2 {
		return newError(ErrMoreThanTwoCodas, b.coda[0], b.coda[1], tick)
	}
	b.coda = append(b.coda, tick)
	return nil
}

func (b *GlobalRepeatBuilder) SetFirstBarLen(firstBarLen uint32) {
	b.firstBarLen = u32(firstBarLen)
}

// DsDc returns the jump recorded so far.
func (b *GlobalRepeatBuilder) DsDc() (DsDc, bool) {
	if b.dsDc == nil {
		return DsDc{}, false
	}
	return *b.dsDc, true
}

// Segno returns the Segno recorded so far.
func (b *GlobalRepeatBuilder) Segno() (uint32, bool) {
	if b.segno == nil {
		return 0, false
	}
	return *b.segno, true
}

func (b *GlobalRepeatBuilder) OnBar(bar model.Bar) error {
	repeats := bar.Repeats
	tick := bar.BaseStartTick()

	if b.firstBarLen == nil {
		if tick == 0 {
			if bar.Rhythm != nil {
				b.topRhythm = *bar.Rhythm
			}
		} else {
			b.firstBarLen = u32(tick)
		}
	}

	if repeats.Contains(model.RepeatDc) {
		var barLen uint32
		if b.prevBarTick != nil {
			barLen = tick - *b.prevBarTick
		}
		if err := b.AddDc(tick, barLen); err != nil {
			return err
		}
	}
	if repeats.Contains(model.RepeatDs) {
		if err := b.AddDs(tick); err != nil {
			return err
		}
	}
	if repeats.Contains(model.RepeatFine) {
		if err := b.AddFine(tick); err != nil {
			return err
		}
	}
	if repeats.Contains(model.RepeatSegno) {
		if err := b.AddSegno(tick); err != nil {
			return err
		}
	}
	if repeats.Contains(model.RepeatCoda) {
		if err := b.AddCoda(tick); err != nil {
			return err
		}
	}

	b.prevBarTick = u32(tick)
	return nil
}

// Build resolves the collected marks. A nil GlobalRepeat means the piece is
// played straight through once.
func (b *GlobalRepeatBuilder) Build() (*GlobalRepeat, []Warning, error) {
	var warnings []Warning
	if b.dsDc == nil {
		return nil, warnings, nil
	}

	var segno uint32
	switch b.dsDc.Kind {
	case Dc:
		if b.firstBarLen == nil {
			return nil, warnings, nil
		}
		firstBarLen := *b.firstBarLen
		if b.segno != nil {
			warnings = append(warnings, SegnoAndDcFound{SegnoTick: *b.segno, DcTick: b.dsDc.Tick})
			segno = *b.segno
		} else {
			// D.C. skips an incomplete first bar unless the bar holding the
			// D.C. completes it.
			barLen := b.topRhythm.TickLen()
			if b.dsDc.Len+firstBarLen == barLen {
				segno = 0
			} else if b.dsDc.Len == barLen && firstBarLen == barLen {
				segno = 0
			} else {
				segno = firstBarLen
			}
		}
	case Ds:
		if b.segno == nil {
			return nil, nil, newError(ErrNoSegnoForDs, b.dsDc.Tick)
		}
		segno = *b.segno
	}

	var coda *[2]uint32
	switch len(b.coda) {
	case 1:
		warnings = append(warnings, OrphanCodaFound{CodaTick: b.coda[0]})
	case 2:
		if err := checkCodaPos(b.coda[0], b.coda[1], b.fine); err != nil {
			return nil, nil, err
		}
		coda = &[2]uint32{b.coda[0], b.coda[1]}
	}

	return &GlobalRepeat{
		dsDc:     *b.dsDc,
		fine:     b.fine,
		segno:    segno,
		coda:     coda,
		iter1Set: toIntervalSet(segno, b.fine, coda),
	}, warnings, nil
}

func checkCodaPos(codaFrom, codaTo uint32, fine *uint32) error {
	if fine != nil && *fine < codaTo {
		return newError(ErrCodaAfterFine, codaFrom, codaTo, *fine)
	}
	return nil
}

func toIntervalSet(startTick uint32, fine *uint32, coda *[2]uint32) interval.Set {
	endTick := uint32(math.MaxUint32)
	if fine != nil {
		endTick = *fine
	}
	var intervals []interval.Interval
	if coda != nil {
		if startTick < coda[0] {
			intervals = append(intervals, interval.Interval{Lo: startTick, Hi: coda[0] - 1})
		}
		if coda[1] < endTick {
			intervals = append(intervals, interval.Interval{Lo: coda[1], Hi: endTick - 1})
		}
	} else if startTick < endTick {
		intervals = append(intervals, interval.Interval{Lo: startTick, Hi: endTick - 1})
	}
	return interval.New(intervals...)
}
