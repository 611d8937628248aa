package model

import (
	"github.com/pkg/errors"
)

var ErrUnsortedBars = errors.New("bar ticks must be strictly increasing")

// Score is the input of a render: the top rhythm and the bar lines with
// their repeat marks.
type Score struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Rhythm Rhythm `json:"rhythm" yaml:"rhythm"`
	Bars   []Bar  `json:"bars" yaml:"bars"`
}

// Normalize fills in the default rhythm and checks the bar order.
func (s *Score) Normalize() error {
	if s.Rhythm.IsZero() {
		s.Rhythm = DefaultRhythm()
	}
	if err := s.Rhythm.Validate(); err != nil {
		return err
	}
	for i, b := range s.Bars {
		if b.Rhythm != nil {
			if err := b.Rhythm.Validate(); err != nil {
				return errors.Wrapf(err, "bar at tick %d", b.StartTick)
			}
		}
		if i > 0 && b.StartTick <= s.Bars[i-1].StartTick {
			return errors.Wrapf(ErrUnsortedBars, "tick %d after %d", b.StartTick, s.Bars[i-1].StartTick)
		}
	}
	return nil
}
