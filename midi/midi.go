package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/ruimo/klavier-core-sub000/model"
)

var ErrUnsupportedTimeFormat = errors.New("only metric time format is supported")

func ReadMidiFile(path string) (*smf.SMF, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file")
	}
	return parse(dat)
}

func parse(dat []byte) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, errors.New(fmt.Sprint(r))
		}
	}()

	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing midi file")
	}
	return res, nil
}

// ReadScore reads an SMF and turns its bar lines and marker texts into a
// score named after the file.
func ReadScore(path string) (model.Score, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return model.Score{}, err
	}
	rhythm, bars, err := ReadBars(s)
	if err != nil {
		return model.Score{}, errors.Wrapf(err, "%s", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return model.Score{Name: name, Rhythm: rhythm, Bars: bars}, nil
}

func ReadScoreFrom(r io.Reader, name string) (model.Score, error) {
	dat, err := io.ReadAll(r)
	if err != nil {
		return model.Score{}, errors.Wrap(err, "Error reading midi file")
	}
	s, err := parse(dat)
	if err != nil {
		return model.Score{}, err
	}
	rhythm, bars, err := ReadBars(s)
	if err != nil {
		return model.Score{}, err
	}
	return model.Score{Name: name, Rhythm: rhythm, Bars: bars}, nil
}

type meter struct {
	tick   uint32
	rhythm model.Rhythm
}

type marker struct {
	tick uint32
	text string
}

// ReadBars places a bar line at the end of every measure, scaled to
// model.TickResolution ticks per quarter. Time signature events start a new
// measure where they occur. Marker and text events whose words parse as
// repeat marks are attached to the nearest bar line.
func ReadBars(s *smf.SMF) (model.Rhythm, []model.Bar, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt.Resolution() == 0 {
		return model.Rhythm{}, nil, errors.Wrapf(ErrUnsupportedTimeFormat, "%v", s.TimeFormat)
	}
	resolution := uint64(mt.Resolution())
	scale := func(tick uint64) uint32 {
		return uint32(tick * model.TickResolution / resolution)
	}

	var meters []meter
	var markers []marker
	var last uint32
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			tick := scale(abs)
			if tick > last {
				last = tick
			}

			var num, denom, cpt, dsqpq uint8
			var text string
			switch {
			case ev.Message.GetMetaTimeSig(&num, &denom, &cpt, &dsqpq):
				r, err := model.NewRhythm(num, denom)
				if err != nil {
					log.Warn("ignoring time signature", "tick", tick, "err", err)
					continue
				}
				meters = append(meters, meter{tick: tick, rhythm: r})
			case ev.Message.GetMetaMarker(&text), ev.Message.GetMetaText(&text):
				markers = append(markers, marker{tick: tick, text: text})
			}
		}
	}

	sort.SliceStable(meters, func(i, j int) bool {
		return meters[i].tick < meters[j].tick
	})
	top, bars := barLines(meters, last)
	bars = attachMarkers(top, bars, markers)
	return top, bars, nil
}

func barLines(meters []meter, last uint32) (model.Rhythm, []model.Bar) {
	top := model.DefaultRhythm()
	mi := 0
	for ; mi < len(meters) && meters[mi].tick == 0; mi++ {
		top = meters[mi].rhythm
	}

	var bars []model.Bar
	rhythm := top
	pos := uint32(0)
	for pos < last {
		next := pos + rhythm.TickLen()
		if mi < len(meters) && meters[mi].tick <= next {
			// the last of several signatures at one tick wins
			m := meters[mi]
			for mi++; mi < len(meters) && meters[mi].tick == m.tick; mi++ {
				m = meters[mi]
			}
			rhythm = m.rhythm
			r := rhythm
			if n := len(bars); n > 0 && bars[n-1].StartTick == m.tick {
				bars[n-1].Rhythm = &r
			} else {
				bars = append(bars, model.NewBar(m.tick, &r, model.EmptyRepeatSet))
			}
			pos = m.tick
			continue
		}
		pos = next
		bars = append(bars, model.NewBar(pos, nil, model.EmptyRepeatSet))
	}
	return top, bars
}

func attachMarkers(top model.Rhythm, bars []model.Bar, markers []marker) []model.Bar {
	for _, m := range markers {
		words := strings.FieldsFunc(m.text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		var repeats []model.Repeat
		for _, w := range words {
			r, err := model.ParseRepeat(w)
			if err != nil {
				log.Debug("ignoring marker text", "tick", m.tick, "text", w)
				continue
			}
			repeats = append(repeats, r)
		}
		if len(repeats) == 0 {
			continue
		}

		i := nearest(bars, m.tick)
		if i < 0 {
			r := top
			bars = append([]model.Bar{model.NewBar(0, &r, model.EmptyRepeatSet)}, bars...)
			i = 0
		}
		for _, r := range repeats {
			set, err := bars[i].Repeats.TryAdd(r)
			if err != nil {
				log.Warn("ignoring repeat mark", "tick", bars[i].StartTick, "err", err)
				continue
			}
			bars[i].Repeats = set
		}
	}
	return bars
}

// nearest returns the bar line closest to tick, or -1 when the start of the
// piece is closer. Ties go to the earlier position.
func nearest(bars []model.Bar, tick uint32) int {
	i := sort.Search(len(bars), func(i int) bool {
		return bars[i].StartTick >= tick
	})
	best, dist := -1, tick
	if i > 0 {
		best, dist = i-1, tick-bars[i-1].StartTick
	}
	if i < len(bars) && bars[i].StartTick-tick < dist {
		best = i
	}
	if best < 0 && len(bars) > 0 && bars[0].StartTick == 0 {
		best = 0
	}
	return best
}
