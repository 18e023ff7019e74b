package nmea

// SpeedUnit selects the unit returned by VTG.Speed.
type SpeedUnit int

const (
	KMH SpeedUnit = iota
	Knots
)

// VTG is the course over ground and ground speed sentence.
type VTG struct{ Sentence }

func NewVTG() *VTG {
	return &VTG{newSentence(TypeVTG,
		&FloatField{},  // 0 track, degrees
		&StringField{}, // 1 T (true)
		&StringField{}, // 2 magnetic track
		&StringField{}, // 3 M
		&FloatField{},  // 4 speed, knots
		&StringField{}, // 5 N
		&FloatField{},  // 6 speed, km/h
		&StringField{}, // 7 K
		&StringField{}, // 8 mode indicator
	)}
}

func (v *VTG) Clone() *VTG { return &VTG{v.Sentence.clone()} }

// Mode is the raw mode indicator; "A" is autonomous.
func (v *VTG) Mode() string { return v.Value(8) }

func (v *VTG) hasFix() bool { return v.Mode() == "A" }

// Course returns the track in degrees and its reference letter ("T" for true).
func (v *VTG) Course() (float64, string, error) {
	if !v.hasFix() {
		return 0, "", ErrNoValidFix
	}
	track, err := reported(v.floatField(0), "track")
	if err != nil {
		return 0, "", err
	}
	return track, v.Value(1), nil
}

func (v *VTG) Speed(unit SpeedUnit) (float64, error) {
	if !v.hasFix() {
		return 0, ErrNoValidFix
	}
	if unit == Knots {
		return reported(v.floatField(4), "speed")
	}
	return reported(v.floatField(6), "speed")
}
