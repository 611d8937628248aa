// Package interval implements sets of closed uint32 intervals.
package interval

import (
	"fmt"
	"sort"
	"strings"
)

// Interval is the closed range [Lo, Hi].
type Interval struct {
	Lo, Hi uint32
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d]", i.Lo, i.Hi)
}

// Set is a normalized list of disjoint, non-adjacent intervals sorted by Lo.
// The zero value is the empty set.
type Set struct {
	intervals []Interval
}

// New normalizes the given intervals. Inverted intervals (Lo > Hi) are
// dropped, overlapping and touching ones merged.
func New(intervals ...Interval) Set {
	list := make([]Interval, 0, len(intervals))
	for _, i := range intervals {
		if i.Lo <= i.Hi {
			list = append(list, i)
		}
	}
	sort.Slice(list, func(a, b int) bool {
		return list[a].Lo < list[b].Lo
	})

	var res []Interval
	for _, i := range list {
		if n := len(res); n > 0 && (res[n-1].Hi == ^uint32(0) || i.Lo <= res[n-1].Hi+1) {
			if res[n-1].Hi < i.Hi {
				res[n-1].Hi = i.Hi
			}
			continue
		}
		res = append(res, i)
	}
	return Set{intervals: res}
}

func (s Set) IsEmpty() bool {
	return len(s.intervals) == 0
}

func (s Set) Intervals() []Interval {
	res := make([]Interval, len(s.intervals))
	copy(res, s.intervals)
	return res
}

func (s Set) Contains(v uint32) bool {
	i := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].Hi >= v
	})
	return i < len(s.intervals) && s.intervals[i].Lo <= v
}

func (s Set) Union(other Set) Set {
	all := make([]Interval, 0, len(s.intervals)+len(other.intervals))
	all = append(all, s.intervals...)
	all = append(all, other.intervals...)
	return New(all...)
}

// Intersect walks both sorted lists once.
func (s Set) Intersect(other Set) Set {
	var res []Interval
	a, b := s.intervals, other.intervals
	for len(a) > 0 && len(b) > 0 {
		lo := a[0].Lo
		if lo < b[0].Lo {
			lo = b[0].Lo
		}
		hi := a[0].Hi
		if b[0].Hi < hi {
			hi = b[0].Hi
		}
		if lo <= hi {
			res = append(res, Interval{Lo: lo, Hi: hi})
		}
		if a[0].Hi < b[0].Hi {
			a = a[1:]
		} else {
			b = b[1:]
		}
	}
	return Set{intervals: res}
}

func (s Set) Equal(other Set) bool {
	if len(s.intervals) != len(other.intervals) {
		return false
	}
	for i := range s.intervals {
		if s.intervals[i] != other.intervals[i] {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	parts := make([]string, len(s.intervals))
	for i, iv := range s.intervals {
		parts[i] = iv.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
