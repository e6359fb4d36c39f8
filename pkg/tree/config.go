package tree

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by [Config.Validate].
var ErrInvalidConfig = errors.New("invalid layout config")

// Size is a box size in layout units, as drawn on screen.
type Size struct {
	Width  int `json:"width" toml:"width" bson:"width"`
	Height int `json:"height" toml:"height" bson:"height"`
}

// Config holds the box sizes and spacing constants of a layout.
//
// Sizes are screen sizes: a person box is PersonSize.Width wide and
// PersonSize.Height tall in both orientations. The gatherer works in
// (depth, lateral) coordinates and only swaps the axes when Vertical is
// false.
type Config struct {
	PersonSize   Size
	FamilySize   Size
	MarkerSize   Size
	MarriageSize Size

	SpaceBetweenPartners    int
	SpaceBetweenSiblings    int
	SpaceBetweenAncestors   int
	SpaceBetweenGenerations int // gap between generations, on top of the family box

	// Vertical lays generations out top to bottom; otherwise left to right.
	Vertical bool
	// MarriageSymbols places a marriage pseudo-link between every couple.
	MarriageSymbols bool
}

// DefaultConfig returns the standard box sizes and spacing.
func DefaultConfig() Config {
	return Config{
		PersonSize:              Size{Width: 160, Height: 90},
		FamilySize:              Size{Width: 80, Height: 20},
		MarkerSize:              Size{Width: 10, Height: 10},
		MarriageSize:            Size{Width: 8, Height: 8},
		SpaceBetweenPartners:    2,
		SpaceBetweenSiblings:    20,
		SpaceBetweenAncestors:   20,
		SpaceBetweenGenerations: 40,
		Vertical:                true,
		MarriageSymbols:         true,
	}
}

// Validate reports non-positive box sizes and negative spacing.
func (c Config) Validate() error {
	sizes := []struct {
		name string
		s    Size
	}{
		{"person", c.PersonSize},
		{"family", c.FamilySize},
		{"marker", c.MarkerSize},
		{"marriage", c.MarriageSize},
	}
	for _, s := range sizes {
		if s.s.Width <= 0 || s.s.Height <= 0 {
			return fmt.Errorf("%w: %s size %dx%d must be positive", ErrInvalidConfig, s.name, s.s.Width, s.s.Height)
		}
	}
	if c.SpaceBetweenPartners < 0 || c.SpaceBetweenSiblings < 0 ||
		c.SpaceBetweenAncestors < 0 || c.SpaceBetweenGenerations < 0 {
		return fmt.Errorf("%w: spacing must not be negative", ErrInvalidConfig)
	}
	return nil
}

// extent returns a screen size as (depth, lateral) extents.
func (c Config) extent(s Size) (depth, lateral int) {
	if c.Vertical {
		return s.Height, s.Width
	}
	return s.Width, s.Height
}

// metrics are the derived distances between box centres used while
// gathering. All values are in layout units along the depth or lateral
// axis.
type metrics struct {
	distOfEntities    int // person centre to family centre of the same couple
	distOfGenerations int // person centre to person centre one generation apart
	distOfAncestors   int // minimum lateral distance between neighbouring ancestor trees
	distOfPartners    int // lateral distance between spouses
	distOfSiblings    int // minimum lateral distance between sibling trees
	distOfIndiMarker  int // person centre to its collapse marker
	distOfFamMarker   int // family centre to its collapse marker
}

func (c Config) metrics() metrics {
	indiDepth, indiLateral := c.extent(c.PersonSize)
	famDepth, _ := c.extent(c.FamilySize)

	partnerGap := c.SpaceBetweenPartners
	if c.MarriageSymbols {
		_, marrLateral := c.extent(c.MarriageSize)
		partnerGap = max(partnerGap, marrLateral+4)
	}

	return metrics{
		distOfEntities:    1 + indiDepth/2 + famDepth/2 + 1,
		distOfGenerations: famDepth + c.SpaceBetweenGenerations + indiDepth,
		distOfAncestors:   c.SpaceBetweenAncestors + indiLateral,
		distOfPartners:    partnerGap + indiLateral,
		distOfSiblings:    c.SpaceBetweenSiblings + indiLateral,
		distOfIndiMarker:  indiDepth / 2,
		distOfFamMarker:   famDepth / 2,
	}
}
