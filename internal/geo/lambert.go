package geo

// NAD83 lon/lat ↔ New York Long Island state plane (EPSG:2263), Lambert
// Conformal Conic, US-feet. The TIGER polygons arrive in EPSG:4269 degrees;
// the spatial join runs in 2263 feet; the GeoJSON output goes back to
// degrees (4269 and 4326 are numerically interchangeable at this precision).

import "math"

const (
	liFalseEasting  = 984250.0 // 300000 m in US survey feet
	liFalseNorthing = 0.0
	liPhi0Deg       = 40.16666666666666 // latitude of origin
	liPhi1Deg       = 41.03333333333333 // standard parallel 1
	liPhi2Deg       = 40.66666666666666 // standard parallel 2
	liLon0Deg       = -74.0             // central meridian

	ftPerMeter = 3.2808333333333334 // US survey foot
	semiMajorM = 6378137.0          // NAD83 semi-major axis (metres)
	e2         = 0.00669438002290   // NAD83 eccentricity squared
)

// conic holds the precomputed Lambert constants for one state-plane zone.
type conic struct {
	n      float64
	f      float64 // includes the semi-major axis, so rho comes out in feet
	rho0   float64
	lon0   float64
	fe, fn float64
}

var longIsland = newConic(liPhi0Deg, liPhi1Deg, liPhi2Deg, liLon0Deg, liFalseEasting, liFalseNorthing)

func newConic(phi0Deg, phi1Deg, phi2Deg, lon0Deg, fe, fn float64) conic {
	phi0 := phi0Deg * math.Pi / 180
	phi1 := phi1Deg * math.Pi / 180
	phi2 := phi2Deg * math.Pi / 180

	m1 := lambertM(phi1)
	m2 := lambertM(phi2)
	t0 := lambertT(phi0)
	t1 := lambertT(phi1)
	t2 := lambertT(phi2)

	n := math.Log(m1/m2) / math.Log(t1/t2)
	aFt := semiMajorM * ftPerMeter
	f := aFt * m1 / (n * math.Pow(t1, n))

	return conic{
		n:    n,
		f:    f,
		rho0: f * math.Pow(t0, n),
		lon0: lon0Deg * math.Pi / 180,
		fe:   fe,
		fn:   fn,
	}
}

func lambertM(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e2*s*s)
}

func lambertT(phi float64) float64 {
	e := math.Sqrt(e2)
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
}

// forward projects lon/lat degrees to easting/northing feet.
func (c conic) forward(lonDeg, latDeg float64) (x, y float64) {
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180

	rho := c.f * math.Pow(lambertT(phi), c.n)
	theta := c.n * (lambda - c.lon0)

	x = rho*math.Sin(theta) + c.fe
	y = c.rho0 - rho*math.Cos(theta) + c.fn
	return
}

// inverse unprojects easting/northing feet back to lon/lat degrees using
// the usual fixed-point iteration for the isometric latitude.
func (c conic) inverse(x, y float64) (lonDeg, latDeg float64) {
	dx := x - c.fe
	dy := c.rho0 - (y - c.fn)

	rho := math.Sqrt(dx*dx + dy*dy)
	if c.n < 0 {
		rho = -rho
		dx = -dx
		dy = -dy
	}
	theta := math.Atan2(dx, dy)
	lambda := theta/c.n + c.lon0

	t := math.Pow(rho/c.f, 1/c.n)
	e := math.Sqrt(e2)
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 10; i++ {
		s := math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-e*s)/(1+e*s), e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	return lambda * 180 / math.Pi, phi * 180 / math.Pi
}

// ToStatePlane converts a lon/lat degree point to EPSG:2263 feet.
func ToStatePlane(p Point) Point {
	x, y := longIsland.forward(p.X, p.Y)
	return Point{X: x, Y: y}
}

// ToLonLat converts an EPSG:2263 point back to lon/lat degrees.
func ToLonLat(p Point) Point {
	lon, lat := longIsland.inverse(p.X, p.Y)
	return Point{X: lon, Y: lat}
}
