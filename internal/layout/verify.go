package layout

import (
	"errors"
	"fmt"
)

// ErrOverflow is matched by every *OverflowError.
var ErrOverflow = errors.New("layout overflow")

// epsilon absorbs float rounding from additive width sums.
const epsilon = 1e-6

// OverflowError reports content placed wider than the space available to it,
// or below the printable page height.
type OverflowError struct {
	Text      string
	Width     float64
	Available float64
	Page      int
	Vertical  bool
}

func (e *OverflowError) Error() string {
	if e.Vertical {
		return fmt.Sprintf("layout overflow: line at offset %.2f passes page %d height %.2f",
			e.Width, e.Page, e.Available)
	}
	return fmt.Sprintf("layout overflow: %q is %.2f wide, only %.2f available on page %d",
		truncate(e.Text, 40), e.Width, e.Available, e.Page)
}

func (e *OverflowError) Is(target error) bool {
	return target == ErrOverflow
}

// Fits reports whether width fits within available, allowing for rounding.
func Fits(width, available float64) bool {
	return width <= available+epsilon
}

// Verify re-checks a finished instruction stream against cfg.
func Verify(instructions []Instruction, cfg Config) error {
	for _, in := range instructions {
		if in.Kind == KindPageBreak {
			continue
		}
		if !Fits(in.Y+in.Height, cfg.PageHeight) {
			return &OverflowError{Width: in.Y + in.Height, Available: cfg.PageHeight, Page: in.Page, Vertical: true}
		}
		if in.Kind != KindPlace {
			continue
		}
		avail := cfg.effectiveWidth(in.Indent)
		if !Fits(in.Width, in.Limit) || !Fits(in.Limit, avail) {
			return &OverflowError{Text: in.Text, Width: in.Width, Available: min(in.Limit, avail), Page: in.Page}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
