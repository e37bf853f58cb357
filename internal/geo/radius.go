package geo

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// Point is a located item to be filtered by distance.
type Point struct {
	ID  string
	Loc domain.LatLng
}

type indexedPoint struct {
	rect rtreego.Rect
	Point
}

func (p *indexedPoint) Bounds() rtreego.Rect { return p.rect }

const (
	milesPerDegreeLat = domain.EarthRadiusMiles * math.Pi / 180
	bboxMargin        = 1.01
	pointExtent       = 1e-9
)

// WithinRadius returns the IDs of the points whose great-circle distance
// from center is at most radiusMi, sorted ascending. An r-tree bounding box
// prefilter narrows the candidates; membership is decided by the exact
// haversine distance only.
func WithinRadius(center domain.LatLng, radiusMi float64, points []Point) []string {
	if radiusMi < 0 || len(points) == 0 {
		return nil
	}

	// dim = 2 (lng, lat), min children 25, max children 50
	tree := rtreego.NewTree(2, 25, 50)
	for _, p := range points {
		rect, err := rtreego.NewRect(rtreego.Point{p.Loc.Lng, p.Loc.Lat}, []float64{pointExtent, pointExtent})
		if err != nil {
			continue
		}
		tree.Insert(&indexedPoint{rect: rect, Point: p})
	}

	var ids []string
	for _, s := range tree.SearchIntersect(searchBox(center, radiusMi)) {
		p := s.(*indexedPoint)
		if domain.HaversineMiles(center, p.Loc) <= radiusMi {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// searchBox returns a lng/lat box that contains every point within
// radiusMi of center. Near the poles or across the antimeridian the box
// spans every longitude.
func searchBox(center domain.LatLng, radiusMi float64) rtreego.Rect {
	dLat := radiusMi / milesPerDegreeLat * bboxMargin
	minLat, maxLat := center.Lat-dLat, center.Lat+dLat

	// Slightly beyond the valid range so points on the boundary still
	// intersect the box.
	minLng, maxLng := -181.0, 181.0
	if minLat > -90 && maxLat < 90 {
		maxAbsLat := math.Max(math.Abs(minLat), math.Abs(maxLat))
		dLng := dLat / math.Cos(maxAbsLat*math.Pi/180)
		if center.Lng-dLng > -180 && center.Lng+dLng < 180 {
			minLng, maxLng = center.Lng-dLng, center.Lng+dLng
		}
	} else {
		minLat, maxLat = -91, 91
	}

	box, _ := rtreego.NewRectFromPoints(
		rtreego.Point{minLng - pointExtent, minLat - pointExtent},
		rtreego.Point{maxLng + pointExtent, maxLat + pointExtent},
	)
	return box
}
