package model

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrMinusTick       = errors.New("tick would be negative")
	ErrInvalidVarIndex = errors.New("invalid variation index")
	ErrUnknownRepeat   = errors.New("unknown repeat mark")
)

// Repeat is a single repeat mark that can be placed on a bar line.
type Repeat uint8

const (
	RepeatStart Repeat = iota
	RepeatEnd
	RepeatDc
	RepeatFine
	RepeatDs
	RepeatSegno
	RepeatCoda
	RepeatVar1
	RepeatVar2
	RepeatVar3
	RepeatVar4
	RepeatVar5
	RepeatVar6
	RepeatVar7
	RepeatVar8
)

const MaxVarIndex = 8

var repeatNames = [...]string{
	RepeatStart: "|:",
	RepeatEnd:   ":|",
	RepeatDc:    "D.C.",
	RepeatFine:  "Fine",
	RepeatDs:    "D.S.",
	RepeatSegno: "Segno",
	RepeatCoda:  "Coda",
	RepeatVar1:  "1.",
	RepeatVar2:  "2.",
	RepeatVar3:  "3.",
	RepeatVar4:  "4.",
	RepeatVar5:  "5.",
	RepeatVar6:  "6.",
	RepeatVar7:  "7.",
	RepeatVar8:  "8.",
}

var repeatAliases = map[string]Repeat{
	"start": RepeatStart,
	"end":   RepeatEnd,
	"dc":    RepeatDc,
	"ds":    RepeatDs,
}

func (r Repeat) String() string {
	if int(r) < len(repeatNames) {
		return repeatNames[r]
	}
	return fmt.Sprintf("Repeat(%d)", uint8(r))
}

func (r Repeat) bit() uint16 {
	return 1 << r
}

// ParseRepeat accepts the printed form of a mark ("|:", "D.C.", "2.") as
// well as the names "start", "end", "dc", "ds" and "var1".."var8",
// case-insensitively.
func ParseRepeat(s string) (Repeat, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range repeatNames {
		if strings.ToLower(name) == key {
			return Repeat(i), nil
		}
	}
	if r, ok := repeatAliases[key]; ok {
		return r, nil
	}
	if strings.HasPrefix(key, "var") {
		var n uint8
		if _, err := fmt.Sscanf(key, "var%d", &n); err == nil {
			if idx, err := NewVarIndex(n); err == nil {
				return idx.Repeat(), nil
			}
		}
	}
	return 0, errors.Wrapf(ErrUnknownRepeat, "%q", s)
}

// VarIndex is the number of a variation ending, 1 to MaxVarIndex.
type VarIndex uint8

func NewVarIndex(value uint8) (VarIndex, error) {
	if value < 1 || MaxVarIndex < value {
		return 0, errors.Wrapf(ErrInvalidVarIndex, "%d", value)
	}
	return VarIndex(value), nil
}

func (v VarIndex) Value() uint8 {
	return uint8(v)
}

func (v VarIndex) Next() (VarIndex, error) {
	return NewVarIndex(v.Value() + 1)
}

func (v VarIndex) Prev() (VarIndex, error) {
	return NewVarIndex(v.Value() - 1)
}

func (v VarIndex) Repeat() Repeat {
	return RepeatVar1 + Repeat(v-1)
}

const (
	regionBits = 0xff << RepeatVar1

	startDislike = 1<<RepeatDc | 1<<RepeatDs | regionBits
	endDislike   = regionBits
	dcDislike    = 1<<RepeatStart | 1<<RepeatDs | 1<<RepeatSegno | regionBits
	dsDislike    = 1<<RepeatStart | regionBits
	regionCommon = 1<<RepeatStart | 1<<RepeatEnd | 1<<RepeatDc | 1<<RepeatDs | 1<<RepeatSegno
)

func dislikeOf(r Repeat) uint16 {
	switch {
	case r == RepeatStart:
		return startDislike
	case r == RepeatEnd:
		return endDislike
	case r == RepeatDc:
		return dcDislike
	case r == RepeatDs:
		return dsDislike
	case r >= RepeatVar1 && r <= RepeatVar8:
		return regionCommon | (regionBits &^ r.bit())
	default:
		return 0
	}
}

// ConflictError is returned by RepeatSet.TryAdd when a mark cannot share a
// bar line with marks already in the set.
type ConflictError struct {
	Repeat    Repeat
	Conflicts RepeatSet
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v cannot be combined with %v", e.Repeat, e.Conflicts)
}

// RepeatSet is the set of repeat marks on one bar line.
type RepeatSet struct {
	value uint16
}

var EmptyRepeatSet = RepeatSet{}

// NewRepeatSet adds the marks one by one and fails on the first conflict.
func NewRepeatSet(rs ...Repeat) (RepeatSet, error) {
	set := EmptyRepeatSet
	for _, r := range rs {
		var err error
		if set, err = set.TryAdd(r); err != nil {
			return EmptyRepeatSet, err
		}
	}
	return set, nil
}

func MustRepeatSet(rs ...Repeat) RepeatSet {
	set, err := NewRepeatSet(rs...)
	if err != nil {
		panic(err)
	}
	return set
}

func (s RepeatSet) Contains(r Repeat) bool {
	return s.value&r.bit() != 0
}

func (s RepeatSet) TryAdd(r Repeat) (RepeatSet, error) {
	conflicts := dislikeOf(r) & s.value
	for _, m := range s.Repeats() {
		if dislikeOf(m)&r.bit() != 0 {
			conflicts |= m.bit()
		}
	}
	if conflicts != 0 {
		return s, &ConflictError{Repeat: r, Conflicts: RepeatSet{conflicts}}
	}
	return RepeatSet{s.value | r.bit()}, nil
}

func (s RepeatSet) Remove(r Repeat) RepeatSet {
	return RepeatSet{s.value &^ r.bit()}
}

func (s RepeatSet) RemoveRegions() RepeatSet {
	return RepeatSet{s.value &^ regionBits}
}

func (s RepeatSet) Len() int {
	return bits.OnesCount16(s.value)
}

func (s RepeatSet) IsZero() bool {
	return s.value == 0
}

// RegionIndex returns the variation ending this bar line opens, if any.
func (s RepeatSet) RegionIndex() (VarIndex, bool) {
	for r := RepeatVar1; r <= RepeatVar8; r++ {
		if s.Contains(r) {
			return VarIndex(r-RepeatVar1) + 1, true
		}
	}
	return 0, false
}

// Repeats lists the marks in declaration order.
func (s RepeatSet) Repeats() []Repeat {
	var res []Repeat
	for r := RepeatStart; r <= RepeatVar8; r++ {
		if s.Contains(r) {
			res = append(res, r)
		}
	}
	return res
}

func (s RepeatSet) String() string {
	return "{" + strings.Join(s.names(), " ") + "}"
}

func (s RepeatSet) names() []string {
	names := make([]string, 0, s.Len())
	for _, r := range s.Repeats() {
		names = append(names, r.String())
	}
	return names
}

func repeatSetFromNames(names []string) (RepeatSet, error) {
	set := EmptyRepeatSet
	for _, name := range names {
		r, err := ParseRepeat(name)
		if err != nil {
			return EmptyRepeatSet, err
		}
		if set, err = set.TryAdd(r); err != nil {
			return EmptyRepeatSet, err
		}
	}
	return set, nil
}

func (s RepeatSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.names())
}

func (s *RepeatSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set, err := repeatSetFromNames(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func (s RepeatSet) MarshalYAML() (interface{}, error) {
	return s.names(), nil
}

func (s *RepeatSet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	set, err := repeatSetFromNames(names)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*s = set
	return nil
}

type Bar struct {
	StartTick uint32    `json:"tick" yaml:"tick"`
	Rhythm    *Rhythm   `json:"rhythm,omitempty" yaml:"rhythm,omitempty"`
	Repeats   RepeatSet `json:"repeats" yaml:"repeats,omitempty"`
}

func NewBar(startTick uint32, rhythm *Rhythm, repeats RepeatSet) Bar {
	return Bar{StartTick: startTick, Rhythm: rhythm, Repeats: repeats}
}

func (b Bar) BaseStartTick() uint32 {
	return b.StartTick
}

func (b Bar) WithTickAdded(delta int32) (Bar, error) {
	tick := int64(b.StartTick) + int64(delta)
	if tick < 0 {
		return b, ErrMinusTick
	}
	b.StartTick = uint32(tick)
	return b, nil
}
