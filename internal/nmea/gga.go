package nmea

import "gpsreader/internal/geo"

// GGA is the global positioning system fix sentence.
type GGA struct{ Sentence }

func NewGGA() *GGA {
	return &GGA{newSentence(TypeGGA,
		&StringField{},      // 0 UTC time hhmmss.ss
		&StringField{},      // 1 latitude
		&StringField{},      // 2 N/S
		&StringField{},      // 3 longitude
		&StringField{},      // 4 E/W
		&IntField{},         // 5 fix quality
		&IntField{Width: 2}, // 6 satellites in use
		&FloatField{},       // 7 HDOP
		&StringField{},      // 8 antenna altitude
		&StringField{},      // 9 altitude unit
		&StringField{},      // 10 geoid separation
		&StringField{},      // 11 separation unit
		&StringField{},      // 12 DGPS age
		&StringField{},      // 13 DGPS station
	)}
}

func (g *GGA) Clone() *GGA { return &GGA{g.Sentence.clone()} }

// FixQuality returns the raw fix quality indicator; false when the field is empty.
func (g *GGA) FixQuality() (int, bool) {
	q := g.intField(5)
	return q.Int(), q.Set()
}

func (g *GGA) hasFix() bool {
	q, ok := g.FixQuality()
	return ok && q >= 1 && q <= 6
}

func (g *GGA) Position() (geo.Position, error) {
	if !g.hasFix() {
		return geo.Position{}, ErrNoValidFix
	}
	return g.position(1)
}

func (g *GGA) Time() (string, error) {
	if !g.hasFix() {
		return "", ErrNoValidFix
	}
	return g.Value(0), nil
}

// AntennaHeight is the antenna altitude above mean sea level as transmitted.
func (g *GGA) AntennaHeight() (string, error) {
	if !g.hasFix() {
		return "", ErrNoValidFix
	}
	return g.Value(8), nil
}

// Satellites is the number of satellites used for the fix.
func (g *GGA) Satellites() (int, error) {
	if !g.hasFix() {
		return 0, ErrNoValidFix
	}
	return g.intField(6).Int(), nil
}

func (g *GGA) HDOP() (float64, error) {
	if !g.hasFix() {
		return 0, ErrNoValidFix
	}
	return reported(g.floatField(7), "hdop")
}
