package components

import (
	"github.com/MidZik/gridworld/ecs"
)

// wrapi wraps i into [lower, upper).
func wrapi(i, lower, upper int32) int32 {
	r := upper - lower
	i = (i - lower) % r
	if i < 0 {
		return upper + i
	}
	return lower + i
}

// SWorld is the toroidal map singleton: one entity slot per cell, row-major.
type SWorld struct {
	Width  int32        `json:"width"`
	Height int32        `json:"height"`
	Map    []ecs.Entity `json:"-"`
}

// NewSWorld returns a world of the default 20×20 size with an empty map.
func NewSWorld() SWorld {
	w := SWorld{}
	w.Reset(20, 20)
	return w
}

// Reset resizes the map to width×height and clears every cell.
func (w *SWorld) Reset(width, height int32) {
	w.Width = width
	w.Height = height
	w.Map = make([]ecs.Entity, width*height)
	for i := range w.Map {
		w.Map[i] = ecs.NullEntity
	}
}

// ResetSame clears the map keeping the current dimensions.
func (w *SWorld) ResetSame() {
	w.Reset(w.Width, w.Height)
}

// NormalizeX wraps an x coordinate onto the torus.
func (w *SWorld) NormalizeX(x int32) int32 {
	return wrapi(x, 0, w.Width)
}

// NormalizeY wraps a y coordinate onto the torus.
func (w *SWorld) NormalizeY(y int32) int32 {
	return wrapi(y, 0, w.Height)
}

// MapIndex returns the row-major cell index for (x, y) after wrapping.
func (w *SWorld) MapIndex(x, y int32) int32 {
	return w.NormalizeY(y)*w.Width + w.NormalizeX(x)
}

// IndexX returns the x coordinate of a cell index.
func (w *SWorld) IndexX(idx int32) int32 {
	return idx % w.Width
}

// IndexY returns the y coordinate of a cell index.
func (w *SWorld) IndexY(idx int32) int32 {
	return idx / w.Width
}

// At returns the occupant of the cell containing (x, y).
func (w *SWorld) At(x, y int32) ecs.Entity {
	return w.Map[w.MapIndex(x, y)]
}

// Set writes the occupant of the cell containing (x, y).
func (w *SWorld) Set(x, y int32, e ecs.Entity) {
	w.Map[w.MapIndex(x, y)] = e
}
