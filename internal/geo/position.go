// Package geo holds the position model used to interpret parsed NMEA fixes:
// degrees-minutes conversion, bearing, ellipsoidal distance and projection.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// EarthRadius is the WGS-84 equatorial radius in meters.
	EarthRadius = 6378137.0
	// Flattening is the WGS-84 reference ellipsoid flattening.
	Flattening = 1 / 298.257223563
)

// ErrInvalidOperand is returned by geodesic operations on an unset position.
var ErrInvalidOperand = errors.New("geo: invalid operand")

// Position is a latitude/longitude pair in decimal degrees. The zero value is
// unset, which is how a missing fix is represented.
type Position struct {
	lat float64
	lon float64
	set bool
}

// NewPosition builds a position from decimal degrees.
//
// Values outside [-90,90] / [-180,180] yield an unset position rather than an
// error; receivers occasionally emit garbage and callers already handle unset.
func NewPosition(lat, lon float64) Position {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return Position{}
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Position{}
	}
	return Position{lat: lat, lon: lon, set: true}
}

// FromNMEA builds a position from NMEA ddmm.mmmm / dddmm.mmmm values and their
// hemisphere letters. Empty coordinates give an unset position.
func FromNMEA(lat, ns, lon, ew string) (Position, error) {
	la, latOK, err := ParseLatitude(lat, ns)
	if err != nil {
		return Position{}, err
	}
	lo, lonOK, err := ParseLongitude(lon, ew)
	if err != nil {
		return Position{}, err
	}
	if !latOK || !lonOK {
		return Position{}, nil
	}
	return NewPosition(la, lo), nil
}

// ParseLatitude converts an NMEA ddmm.mmmm latitude to decimal degrees,
// negative for the southern hemisphere. ok is false for an empty value.
func ParseLatitude(v string, ns string) (deg float64, ok bool, err error) {
	return parseDegreesMinutes(v, strings.EqualFold(strings.TrimSpace(ns), "S"))
}

// ParseLongitude converts an NMEA dddmm.mmmm longitude to decimal degrees,
// negative for the western hemisphere. ok is false for an empty value.
func ParseLongitude(v string, ew string) (deg float64, ok bool, err error) {
	return parseDegreesMinutes(v, strings.EqualFold(strings.TrimSpace(ew), "W"))
}

func parseDegreesMinutes(v string, negate bool) (float64, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false, nil
	}
	raw, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("geo: bad coordinate %q: %w", v, err)
	}
	dec := DegreesMinutes(raw)
	if negate {
		dec = -dec
	}
	return dec, true, nil
}

// FormatLatitude renders decimal degrees as NMEA ddmm.mmmm plus N/S.
func FormatLatitude(deg float64) (value, ns string) {
	ns = "N"
	if deg < 0 {
		ns = "S"
	}
	return formatDegreesMinutes(math.Abs(deg), 2), ns
}

// FormatLongitude renders decimal degrees as NMEA dddmm.mmmm plus E/W.
func FormatLongitude(deg float64) (value, ew string) {
	ew = "E"
	if deg < 0 {
		ew = "W"
	}
	return formatDegreesMinutes(math.Abs(deg), 3), ew
}

func formatDegreesMinutes(abs float64, degWidth int) string {
	d := math.Floor(abs)
	m := math.Round((abs-d)*60*1e4) / 1e4
	if m >= 60 {
		d, m = d+1, 0
	}
	return fmt.Sprintf("%0*d%07.4f", degWidth, int(d), m)
}

// DegreesMinutes converts a packed DDDMM.MMMM value to decimal degrees.
func DegreesMinutes(v float64) float64 {
	deg := math.Trunc(v / 100)
	mins := v - deg*100
	return deg + mins/60
}

// IsSet reports whether the position holds a fix.
func (p Position) IsSet() bool { return p.set }

func (p Position) Lat() float64 { return p.lat }

func (p Position) Lon() float64 { return p.lon }

func (p Position) String() string {
	if !p.set {
		return "unset"
	}
	return fmt.Sprintf("%.6f,%.6f", p.lat, p.lon)
}

// MarshalJSON renders {"lat":..,"lon":..}, or null when unset.
func (p Position) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}{p.lat, p.lon})
}

func checkOperands(a, b Position) error {
	if !a.set {
		return fmt.Errorf("%w: position is unset", ErrInvalidOperand)
	}
	if !b.set {
		return fmt.Errorf("%w: destination is unset", ErrInvalidOperand)
	}
	return nil
}

// Bearing returns the initial true course from p to dest in degrees [0,360),
// on a spherical earth.
func (p Position) Bearing(dest Position) (float64, error) {
	if err := checkOperands(p, dest); err != nil {
		return 0, err
	}
	lat1, lat2 := radians(p.lat), radians(dest.lat)
	dLon := radians(dest.lon - p.lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	b := math.Mod(degrees(math.Atan2(y, x))+360, 360)
	if b >= 360 {
		b = 0
	}
	return b, nil
}

// Distance returns the distance from p to dest in meters using the
// Andoyer-Lambert correction on the WGS-84 ellipsoid.
func (p Position) Distance(dest Position) (float64, error) {
	if err := checkOperands(p, dest); err != nil {
		return 0, err
	}

	f := radians((p.lat + dest.lat) / 2)
	g := radians((p.lat - dest.lat) / 2)
	l := radians((p.lon - dest.lon) / 2)

	sinF, cosF := math.Sincos(f)
	sinG, cosG := math.Sincos(g)
	sinL, cosL := math.Sincos(l)

	s := sq(sinG)*sq(cosL) + sq(cosF)*sq(sinL)
	c := sq(cosG)*sq(cosL) + sq(sinF)*sq(sinL)
	if s == 0 {
		// Coincident points: the auxiliary angle is zero.
		return 0, nil
	}

	w := math.Atan(math.Sqrt(s / c))
	d := 2 * w * EarthRadius
	r := math.Sqrt(s*c) / w

	h2 := (3*r + 1) / (2 * s)
	k := 1 - Flattening*h2*sq(cosF)*sq(sinG)
	if c != 0 {
		// c is zero only for antipodal points, where sin(F) is zero too.
		h1 := (3*r - 1) / (2 * c)
		k += Flattening * h1 * sq(sinF) * sq(cosG)
	}

	dist := d * k
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return d, nil
	}
	return dist, nil
}

// Project returns the position reached from p after travelling distance meters
// along the initial bearing (degrees), on a spherical earth.
func (p Position) Project(distance, bearing float64) (Position, error) {
	if !p.set {
		return Position{}, fmt.Errorf("%w: position is unset", ErrInvalidOperand)
	}
	if math.IsNaN(distance) || math.IsNaN(bearing) || math.IsInf(distance, 0) || math.IsInf(bearing, 0) {
		return Position{}, fmt.Errorf("%w: distance=%v bearing=%v", ErrInvalidOperand, distance, bearing)
	}

	lat1, lon1 := radians(p.lat), radians(p.lon)
	theta := radians(bearing)
	delta := distance / EarthRadius

	sinLat1, cosLat1 := math.Sincos(lat1)
	sinDelta, cosDelta := math.Sincos(delta)

	sinLat2 := sinLat1*cosDelta + cosLat1*sinDelta*math.Cos(theta)
	lat2 := math.Asin(sinLat2)
	lon2 := lon1 + math.Atan2(math.Sin(theta)*sinDelta*cosLat1, cosDelta-sinLat1*sinLat2)

	lon := math.Mod(degrees(lon2)+540, 360) - 180
	return NewPosition(degrees(lat2), lon), nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func sq(v float64) float64 { return v * v }
