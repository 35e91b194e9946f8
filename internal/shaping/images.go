package shaping

import (
	"strconv"

	"inkwell/internal/models"
)

// SelectFeatured returns the first featured image, else the first image,
// else nil.
func SelectFeatured(images []models.BlogImage) *models.BlogImage {
	for i := range images {
		if images[i].IsFeatured {
			return &images[i]
		}
	}
	if len(images) > 0 {
		return &images[0]
	}
	return nil
}

// Layout patterns, keyed strictly on image count.
const (
	PatternNone              = "none"
	PatternFull              = "full"
	PatternHalves            = "halves"
	PatternOneLargeTwoStack  = "one-large-two-stacked"
	PatternOneTopThreeBottom = "one-top-three-bottom"
	PatternTwoOverThree      = "two-over-three"
)

// MaxTiles is the number of tiles shown for five or more images.
const MaxTiles = 5

// Tile places image Image on a grid of Layout.Columns by Layout.Rows cells.
// Col and Row are 1-based.
type Tile struct {
	Image   int    `json:"image"`
	Col     int    `json:"col"`
	Row     int    `json:"row"`
	ColSpan int    `json:"col_span"`
	RowSpan int    `json:"row_span"`
	Overlay string `json:"overlay,omitempty"`
}

type Layout struct {
	Pattern string `json:"pattern"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
	Tiles   []Tile `json:"tiles"`
	Overlay string `json:"overlay,omitempty"`
}

// LayoutFor returns the grid for n images. Five or more images show five
// tiles, the last one carrying "+N" for the N images not shown.
func LayoutFor(n int) Layout {
	switch {
	case n <= 0:
		return Layout{Pattern: PatternNone, Tiles: []Tile{}}
	case n == 1:
		return Layout{Pattern: PatternFull, Columns: 2, Rows: 2, Tiles: []Tile{
			{Image: 0, Col: 1, Row: 1, ColSpan: 2, RowSpan: 2},
		}}
	case n == 2:
		return Layout{Pattern: PatternHalves, Columns: 2, Rows: 1, Tiles: []Tile{
			{Image: 0, Col: 1, Row: 1, ColSpan: 1, RowSpan: 1},
			{Image: 1, Col: 2, Row: 1, ColSpan: 1, RowSpan: 1},
		}}
	case n == 3:
		return Layout{Pattern: PatternOneLargeTwoStack, Columns: 2, Rows: 2, Tiles: []Tile{
			{Image: 0, Col: 1, Row: 1, ColSpan: 1, RowSpan: 2},
			{Image: 1, Col: 2, Row: 1, ColSpan: 1, RowSpan: 1},
			{Image: 2, Col: 2, Row: 2, ColSpan: 1, RowSpan: 1},
		}}
	case n == 4:
		return Layout{Pattern: PatternOneTopThreeBottom, Columns: 3, Rows: 2, Tiles: []Tile{
			{Image: 0, Col: 1, Row: 1, ColSpan: 3, RowSpan: 1},
			{Image: 1, Col: 1, Row: 2, ColSpan: 1, RowSpan: 1},
			{Image: 2, Col: 2, Row: 2, ColSpan: 1, RowSpan: 1},
			{Image: 3, Col: 3, Row: 2, ColSpan: 1, RowSpan: 1},
		}}
	}

	// two over three on a six column grid
	l := Layout{Pattern: PatternTwoOverThree, Columns: 6, Rows: 2, Tiles: []Tile{
		{Image: 0, Col: 1, Row: 1, ColSpan: 3, RowSpan: 1},
		{Image: 1, Col: 4, Row: 1, ColSpan: 3, RowSpan: 1},
		{Image: 2, Col: 1, Row: 2, ColSpan: 2, RowSpan: 1},
		{Image: 3, Col: 3, Row: 2, ColSpan: 2, RowSpan: 1},
		{Image: 4, Col: 5, Row: 2, ColSpan: 2, RowSpan: 1},
	}}
	if hidden := n - MaxTiles; hidden > 0 {
		l.Overlay = "+" + strconv.Itoa(hidden)
		l.Tiles[MaxTiles-1].Overlay = l.Overlay
	}
	return l
}
