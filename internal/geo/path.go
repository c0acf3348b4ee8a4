package geo

import (
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// Point is a single lat/lng pair in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// PathGeoJSON encodes an ordered trail as a GeoJSON geometry: a LineString for two or more
// points, a Point for one, nil for none. GeoJSON coordinates are [lng, lat].
func PathGeoJSON(points []Point) ([]byte, error) {
	switch len(points) {
	case 0:
		return nil, nil
	case 1:
		p := geom.NewPointFlat(geom.XY, []float64{points[0].Longitude, points[0].Latitude})
		return gjson.Marshal(p)
	}

	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Longitude, p.Latitude)
	}
	line := geom.NewLineStringFlat(geom.XY, flat)
	return gjson.Marshal(line)
}
