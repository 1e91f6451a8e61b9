package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/model"
)

// ErrInvalidColor is returned by ParseHex for malformed input.
var ErrInvalidColor = errors.New("invalid color")

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// White is the light tint every gradient starts from.
var White = RGB{255, 255, 255}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, errors.Wrapf(ErrInvalidColor, "%q", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, errors.Wrapf(errors.Mark(err, ErrInvalidColor), "%q", s)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// MustParseHex is ParseHex for compile-time constants. It panics on error.
func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns "#RRGGBB" in upper case.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// CSS returns "rgb(r, g, b)".
func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler using the hex form.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RGB) UnmarshalText(b []byte) error {
	parsed, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Palette holds one base color per category.
type Palette struct {
	Physical RGB `json:"physical"`
	Attack   RGB `json:"attack"`
	Defense  RGB `json:"defense"`
}

// DefaultPalette returns the built-in category colors.
func DefaultPalette() Palette {
	return Palette{
		Physical: MustParseHex(catalog.PhysicalColor),
		Attack:   MustParseHex(catalog.AttackColor),
		Defense:  MustParseHex(catalog.DefenseColor),
	}
}

// Of returns the base color for c.
func (p Palette) Of(c catalog.Category) RGB {
	switch c {
	case catalog.Attack:
		return p.Attack
	case catalog.Defense:
		return p.Defense
	default:
		return p.Physical
	}
}

// Gradient interpolates from White at score 0 to base at score 100.
// The score is clamped to [0,100] first; channels are truncated.
func Gradient(base RGB, score float64) RGB {
	norm := math.Max(0, math.Min(1, score/100))
	if math.IsNaN(norm) {
		norm = 0
	}
	return RGB{
		R: channel(base.R, norm),
		G: channel(base.G, norm),
		B: channel(base.B, norm),
	}
}

func channel(base uint8, norm float64) uint8 {
	return uint8(255 - (255-float64(base))*norm)
}

// CellStyle is the shading of one leaderboard score cell.
type CellStyle struct {
	Background RGB    `json:"background"`
	Text       string `json:"text"`
}

// Text colors used by CellStyle.
const (
	TextDark  = "black"
	TextLight = "white"
)

const lightTextFactor = 0.6

// Shade computes the cell style for score. Scores below threshold stay
// white. Above it the base color is blended in proportionally, and text
// turns light once the blend passes 60%. ok is false for a missing score.
func Shade(base RGB, score model.Value, threshold float64) (style CellStyle, ok bool) {
	v, ok := score.Get()
	if !ok {
		return CellStyle{}, false
	}
	if v < threshold || threshold >= 100 {
		return CellStyle{Background: White, Text: TextDark}, true
	}

	factor := math.Max(0, math.Min(1, (v-threshold)/(100-threshold)))
	blend := func(b uint8) uint8 {
		return uint8(math.Round(255 - factor*(255-float64(b))))
	}
	style = CellStyle{
		Background: RGB{R: blend(base.R), G: blend(base.G), B: blend(base.B)},
		Text:       TextDark,
	}
	if factor > lightTextFactor {
		style.Text = TextLight
	}
	return style, true
}
