// Package cursor tracks the page position in an externally paginated search.
//
// A Cursor is a value. Every transition returns the next state and leaves the
// receiver untouched, so a caller holding the previous state after a failed
// fetch still has it.
package cursor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidPage = errors.New("page must be 1 or greater")

// Policy decides what Advance does once the source has reported its last page.
type Policy int

const (
	// Wrap starts over from the first page.
	Wrap Policy = iota
	// Stay keeps the cursor on the last page.
	Stay
)

func (p Policy) String() string {
	switch p {
	case Wrap:
		return "wrap"
	case Stay:
		return "stay"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap":
		return Wrap, nil
	case "stay":
		return Stay, nil
	}
	return 0, errors.Errorf("unknown exhausted-pages policy %q", s)
}

type Cursor struct {
	Page  int  `json:"page"`
	AtEnd bool `json:"at_end"`
}

func New() Cursor {
	return Cursor{Page: 1}
}

// Advance moves to the next page. Past the reported end it follows policy.
func (c Cursor) Advance(policy Policy) Cursor {
	if !c.AtEnd {
		return Cursor{Page: c.Page + 1}
	}
	if policy == Wrap {
		return New()
	}
	return c
}

// Observe records the end-of-results flag reported by the last fetch.
func (c Cursor) Observe(atEnd bool) Cursor {
	c.AtEnd = atEnd
	return c
}

func (c Cursor) Reset() Cursor {
	return New()
}

func (c Cursor) Validate() error {
	if c.Page < 1 {
		return errors.Wrapf(ErrInvalidPage, "got %d", c.Page)
	}
	return nil
}
