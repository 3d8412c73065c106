package valueobjects

import (
	"errors"
	"math"
)

// Position is a 2D canvas coordinate
type Position struct {
	x float64
	y float64
}

// NewPosition creates a position, rejecting NaN and infinite coordinates
func NewPosition(x, y float64) (Position, error) {
	if !isFinite(x) || !isFinite(y) {
		return Position{}, errors.New("position coordinates must be finite")
	}
	return Position{x: x, y: y}, nil
}

// X returns the horizontal coordinate
func (p Position) X() float64 { return p.x }

// Y returns the vertical coordinate
func (p Position) Y() float64 { return p.y }

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	return p.x == other.x && p.y == other.y
}

// Dimensions is the rendered size of a node. The layout engine owns it; the
// core only stores and round-trips it.
type Dimensions struct {
	width  float64
	height float64
}

// NewDimensions creates dimensions, rejecting negative or non-finite sizes
func NewDimensions(width, height float64) (Dimensions, error) {
	if !isFinite(width) || !isFinite(height) {
		return Dimensions{}, errors.New("dimensions must be finite")
	}
	if width < 0 || height < 0 {
		return Dimensions{}, errors.New("dimensions cannot be negative")
	}
	return Dimensions{width: width, height: height}, nil
}

// Width returns the width
func (d Dimensions) Width() float64 { return d.width }

// Height returns the height
func (d Dimensions) Height() float64 { return d.height }

// Equals checks if two dimension values are equal
func (d Dimensions) Equals(other Dimensions) bool {
	return d.width == other.width && d.height == other.height
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
