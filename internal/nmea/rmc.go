package nmea

import (
	"fmt"
	"time"

	"gpsreader/internal/geo"
)

// RMC is the recommended minimum navigation sentence.
type RMC struct{ Sentence }

func NewRMC() *RMC {
	return &RMC{newSentence(TypeRMC,
		&StringField{}, // 0 UTC time hhmmss.ss
		&StringField{}, // 1 status A/V
		&StringField{}, // 2 latitude
		&StringField{}, // 3 N/S
		&StringField{}, // 4 longitude
		&StringField{}, // 5 E/W
		&FloatField{},  // 6 speed over ground, knots
		&FloatField{},  // 7 track made good, degrees true
		&StringField{}, // 8 date ddmmyy
		&StringField{}, // 9 magnetic variation
		&StringField{}, // 10 E/W
		&StringField{}, // 11 mode indicator
	)}
}

func (r *RMC) Clone() *RMC { return &RMC{r.Sentence.clone()} }

// Status is the raw validity character, "A" for a valid fix.
func (r *RMC) Status() string { return r.Value(1) }

func (r *RMC) hasFix() bool { return r.Status() == "A" }

func (r *RMC) Position() (geo.Position, error) {
	if !r.hasFix() {
		return geo.Position{}, ErrNoValidFix
	}
	return r.position(2)
}

func (r *RMC) Time() (string, error) {
	if !r.hasFix() {
		return "", ErrNoValidFix
	}
	return r.Value(0), nil
}

// TimeDate returns the hhmmss.ss time and ddmmyy date fields.
func (r *RMC) TimeDate() (string, string, error) {
	if !r.hasFix() {
		return "", "", ErrNoValidFix
	}
	return r.Value(0), r.Value(8), nil
}

// Timestamp combines the date and time fields into a UTC time.
func (r *RMC) Timestamp() (time.Time, error) {
	tm, date, err := r.TimeDate()
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse("020106 150405", date+" "+tm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date=%q time=%q", ErrTypeMismatch, date, tm)
	}
	return ts, nil
}

// Course is the track made good in degrees true.
func (r *RMC) Course() (float64, error) {
	if !r.hasFix() {
		return 0, ErrNoValidFix
	}
	return reported(r.floatField(7), "course")
}

// Speed is the speed over ground in km/h.
func (r *RMC) Speed() (float64, error) {
	kn, err := r.SpeedKnots()
	if err != nil {
		return 0, err
	}
	return geo.KnotsToKMH(kn), nil
}

func (r *RMC) SpeedKnots() (float64, error) {
	if !r.hasFix() {
		return 0, ErrNoValidFix
	}
	return reported(r.floatField(6), "speed")
}
