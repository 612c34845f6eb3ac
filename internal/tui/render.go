package tui

import (
	"math"
	"strings"

	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/mapview"
)

// Map glyphs.
const (
	glyphEmpty  = ' '
	glyphCircle = '·'
	glyphCenter = '+'
	glyphMarker = '●'
	glyphActive = '◆'
)

// metersPerDegreeLat is the length of one degree of latitude.
const metersPerDegreeLat = 111320.0

// renderMap draws the canvas as a width x height character grid centred on
// the canvas pan position. One cell is roughly 8x16 map pixels at the
// canvas zoom level. activeMarker is drawn with a distinct glyph.
func renderMap(c *mapview.Canvas, activeMarker mapview.MarkerHandle, width, height int) string {
	if width < 1 || height < 1 {
		return ""
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(string(glyphEmpty), width))
	}

	center := c.Center()
	lngPerCell := 360 / (256 * math.Pow(2, float64(c.Zoom()))) * 8
	latPerCell := lngPerCell * 2

	plot := func(p geo.Point, r rune) {
		col := width/2 + int(math.Round((p.Lng-center.Lng)/lngPerCell))
		row := height/2 - int(math.Round((p.Lat-center.Lat)/latPerCell))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = r
		}
	}

	for _, circle := range c.Circles() {
		dLat := circle.RadiusMeters / metersPerDegreeLat
		dLng := dLat / math.Cos(circle.Center.Lat*math.Pi/180)
		for deg := 0; deg < 360; deg += 6 {
			rad := float64(deg) * math.Pi / 180
			plot(geo.Point{
				Lat: circle.Center.Lat + dLat*math.Sin(rad),
				Lng: circle.Center.Lng + dLng*math.Cos(rad),
			}, glyphCircle)
		}
	}

	plot(center, glyphCenter)

	for _, m := range c.Markers() {
		if m.Handle == activeMarker {
			continue
		}
		plot(m.Position, glyphMarker)
	}
	for _, m := range c.Markers() {
		if m.Handle == activeMarker {
			plot(m.Position, glyphActive)
		}
	}

	lines := make([]string, height)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

// popupLines renders one popup's content.
func popupLines(p mapview.PopupContent) []string {
	if p.Kind == mapview.PopupCompact {
		return []string{p.Title + " · " + p.Distance}
	}
	lines := []string{
		p.Title,
		"Type: " + p.PropertyType,
		"Developer: " + p.Developer,
		"Distance: " + p.Distance,
		"Units: " + p.Units,
		"Coordinates: " + p.Coordinates,
	}
	if p.Expanded {
		lines = append(lines,
			"Status: "+p.BuildingStatus,
			"Location: "+p.Location,
			"Province: "+p.Province,
			"Price from: "+p.PriceMin,
			"[d] Less details",
		)
	} else {
		lines = append(lines, "[d] More details")
	}
	return lines
}
