package repeat

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Structural errors. They reach callers wrapped in a *RenderRegionError that
// carries the offending ticks; match them with errors.Is.
var (
	ErrDuplicatedDsDc        = errors.New("D.C./D.S. found more than once")
	ErrDuplicatedFine        = errors.New("Fine found more than once")
	ErrDuplicatedSegno       = errors.New("Segno found more than once")
	ErrMoreThanTwoCodas      = errors.New("more than two Codas found")
	ErrNoSegnoForDs          = errors.New("D.S. without Segno")
	ErrCodaAfterFine         = errors.New("Coda placed after Fine")
	ErrOrphanRepeatEnd       = errors.New("repeat end without repeat start")
	ErrDuplicatedRepeatStart = errors.New("repeat start inside an open repeat")
	ErrDcDsWhileRepeat       = errors.New("D.C./D.S. inside a repeat")
	ErrInvalidRegionIndex    = errors.New("variation index out of sequence")
	ErrRepeatInVariation     = errors.New("repeat end inside a variation")
	ErrDcDsWhileVariation    = errors.New("D.C./D.S. inside a variation")
	ErrSegnoWhileVariation   = errors.New("Segno inside the last variation")
	ErrNoRepeatEnd           = errors.New("repeat start without repeat end")
	ErrVariationNotClosed    = errors.New("variation not closed")
)

type RenderRegionError struct {
	Err   error
	Ticks []uint32
	// Index is the offending variation index for ErrInvalidRegionIndex.
	Index uint8
}

func newError(err error, ticks ...uint32) *RenderRegionError {
	return &RenderRegionError{Err: err, Ticks: ticks}
}

func (e *RenderRegionError) Error() string {
	ticks := make([]string, len(e.Ticks))
	for i, t := range e.Ticks {
		ticks[i] = fmt.Sprint(t)
	}
	msg := fmt.Sprintf("%v (tick %s)", e.Err, strings.Join(ticks, ", "))
	if e.Index != 0 {
		msg += fmt.Sprintf(" index %d", e.Index)
	}
	return msg
}

func (e *RenderRegionError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal finding returned next to a rendered region.
type Warning interface {
	fmt.Stringer
	warning()
}

// SegnoAndDcFound: the piece has both Segno and D.C.; D.C. returns to the Segno.
type SegnoAndDcFound struct {
	SegnoTick uint32
	DcTick    uint32
}

func (SegnoAndDcFound) warning() {}

func (w SegnoAndDcFound) String() string {
	return fmt.Sprintf("Segno (tick %d) and D.C. (tick %d) found, D.C. returns to Segno", w.SegnoTick, w.DcTick)
}

// OrphanCodaFound: a single Coda has no partner and is ignored.
type OrphanCodaFound struct {
	CodaTick uint32
}

func (OrphanCodaFound) warning() {}

func (w OrphanCodaFound) String() string {
	return fmt.Sprintf("Coda (tick %d) has no partner, ignored", w.CodaTick)
}
