package play

import "fmt"

// MaxIter is the highest pass number a position can name.
const MaxIter uint8 = 5

// Iter is a 1-based pass number clamped to [1, MaxIter]. The zero value is
// the first pass.
type Iter struct {
	value uint8
}

func NewIter(value uint8) Iter {
	if value < 1 {
		value = 1
	}
	if MaxIter < value {
		value = MaxIter
	}
	return Iter{value: value}
}

func (i Iter) Value() uint8 {
	if i.value == 0 {
		return 1
	}
	return i.value
}

// Set leaves the iteration unchanged and returns false when value is out of
// range.
func (i *Iter) Set(value uint8) bool {
	if 0 < value && value <= MaxIter {
		i.value = value
		return true
	}
	return false
}

func (i Iter) String() string {
	return fmt.Sprintf("#%d", i.Value())
}
