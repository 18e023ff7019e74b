package nmea

import "gpsreader/internal/geo"

// GLL is the geographic position sentence.
type GLL struct{ Sentence }

func NewGLL() *GLL {
	return &GLL{newSentence(TypeGLL,
		&StringField{}, // 0 latitude
		&StringField{}, // 1 N/S
		&StringField{}, // 2 longitude
		&StringField{}, // 3 E/W
		&StringField{}, // 4 UTC time
		&StringField{}, // 5 status A/V
		&StringField{}, // 6 mode indicator
	)}
}

func (g *GLL) Clone() *GLL { return &GLL{g.Sentence.clone()} }

func (g *GLL) hasFix() bool { return g.Value(5) == "A" }

func (g *GLL) Position() (geo.Position, error) {
	if !g.hasFix() {
		return geo.Position{}, ErrNoValidFix
	}
	return g.position(0)
}

func (g *GLL) Time() (string, error) {
	if !g.hasFix() {
		return "", ErrNoValidFix
	}
	return g.Value(4), nil
}
