package mana

import (
	"fmt"
	"sort"
	"strings"
)

// GenericKey is the cost map key for the generic component of a cost, payable
// with mana of any color.
const GenericKey = "generic"

// Cost is a card's mana cost: color letters ("W", "U", "B", "R", "G", "C")
// mapped to amounts, plus an optional "generic" amount. A nil or empty Cost
// is free (lands).
type Cost map[string]int

// Colored returns the amount required of a specific color.
func (c Cost) Colored(color Color) int {
	return c[string(color)]
}

// Generic returns the generic amount of the cost.
func (c Cost) Generic() int {
	return c[GenericKey]
}

// Total returns the converted cost: colored amounts plus generic.
func (c Cost) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// Validate rejects costs with unknown keys or negative amounts.
func (c Cost) Validate() error {
	for k, v := range c {
		if v < 0 {
			return fmt.Errorf("negative amount %d for %q", v, k)
		}
		switch k {
		case GenericKey,
			string(White), string(Blue), string(Black),
			string(Red), string(Green), string(Colorless):
		default:
			return fmt.Errorf("unknown cost key %q", k)
		}
	}
	return nil
}

// String renders the cost in a stable symbol form, e.g. "{2}{W}{W}".
func (c Cost) String() string {
	if len(c) == 0 {
		return "{0}"
	}
	var sb strings.Builder
	if g := c.Generic(); g > 0 {
		fmt.Fprintf(&sb, "{%d}", g)
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		if k != GenericKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for i := 0; i < c[k]; i++ {
			fmt.Fprintf(&sb, "{%s}", k)
		}
	}
	if sb.Len() == 0 {
		return "{0}"
	}
	return sb.String()
}
