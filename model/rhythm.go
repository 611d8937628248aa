package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TickResolution is the number of ticks in a quarter note.
const TickResolution = 240

const (
	MinNumerator = 1
	MaxNumerator = 99
)

var (
	ErrInvalidNumerator   = errors.New("invalid numerator")
	ErrInvalidDenominator = errors.New("invalid denominator")
	ErrCannotParseRhythm  = errors.New("cannot parse rhythm")
)

// Rhythm is a time signature such as 3/4 or 6/8.
type Rhythm struct {
	Numerator   uint8 `json:"numerator" yaml:"numerator"`
	Denominator uint8 `json:"denominator" yaml:"denominator"`
}

func NewRhythm(numerator, denominator uint8) (Rhythm, error) {
	r := Rhythm{Numerator: numerator, Denominator: denominator}
	if err := r.Validate(); err != nil {
		return Rhythm{}, err
	}
	return r, nil
}

func MustRhythm(numerator, denominator uint8) Rhythm {
	r, err := NewRhythm(numerator, denominator)
	if err != nil {
		panic(err)
	}
	return r
}

func DefaultRhythm() Rhythm {
	return Rhythm{Numerator: 4, Denominator: 4}
}

// ParseRhythm reads the "3/4" form used on the command line.
func ParseRhythm(s string) (Rhythm, error) {
	num, denom, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rhythm{}, errors.Wrapf(ErrCannotParseRhythm, "%q", s)
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil {
		return Rhythm{}, errors.Wrapf(ErrCannotParseRhythm, "%q", s)
	}
	d, err := strconv.ParseUint(denom, 10, 8)
	if err != nil {
		return Rhythm{}, errors.Wrapf(ErrCannotParseRhythm, "%q", s)
	}
	return NewRhythm(uint8(n), uint8(d))
}

func (r Rhythm) Validate() error {
	if r.Numerator < MinNumerator || MaxNumerator < r.Numerator {
		return errors.Wrapf(ErrInvalidNumerator, "%d", r.Numerator)
	}
	switch r.Denominator {
	case 2, 4, 8, 16, 32, 64:
		return nil
	default:
		return errors.Wrapf(ErrInvalidDenominator, "%d", r.Denominator)
	}
}

func (r Rhythm) IsZero() bool {
	return r.Numerator == 0 && r.Denominator == 0
}

// TickLen is the length of one bar in ticks.
func (r Rhythm) TickLen() uint32 {
	return uint32(r.Numerator) * TickResolution * 4 / uint32(r.Denominator)
}

func (r Rhythm) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}
