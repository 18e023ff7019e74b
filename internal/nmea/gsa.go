package nmea

// GSA reports the satellites used for the fix and the dilution of precision.
type GSA struct{ Sentence }

const gsaSlots = 12

func NewGSA() *GSA {
	fields := []Field{
		&StringField{}, // 0 selection mode M/A
		&IntField{},    // 1 fix mode 1=none 2=2D 3=3D
	}
	for i := 0; i < gsaSlots; i++ {
		fields = append(fields, &IntField{Width: 2})
	}
	fields = append(fields, &FloatField{}, &FloatField{}, &FloatField{}) // PDOP HDOP VDOP
	return &GSA{newSentence(TypeGSA, fields...)}
}

func (g *GSA) Clone() *GSA { return &GSA{g.Sentence.clone()} }

func (g *GSA) SelectionMode() string { return g.Value(0) }

// FixMode returns the fix mode; false when the field is empty.
func (g *GSA) FixMode() (int, bool) {
	m := g.intField(1)
	return m.Int(), m.Set()
}

func (g *GSA) hasFix() bool {
	m, ok := g.FixMode()
	return ok && m != 1
}

// SatellitesUsed returns the IDs of the occupied slots, rendered the way GSV
// keys its satellites.
func (g *GSA) SatellitesUsed() ([]string, error) {
	if !g.hasFix() {
		return nil, ErrNoValidFix
	}
	var ids []string
	for i := 2; i < 2+gsaSlots; i++ {
		if f := g.intField(i); f.Set() {
			ids = append(ids, f.String())
		}
	}
	return ids, nil
}

func (g *GSA) PDOP() (float64, error) { return g.dop(14, "pdop") }

func (g *GSA) HDOP() (float64, error) { return g.dop(15, "hdop") }

func (g *GSA) VDOP() (float64, error) { return g.dop(16, "vdop") }

func (g *GSA) dop(i int, name string) (float64, error) {
	if !g.hasFix() {
		return 0, ErrNoValidFix
	}
	return reported(g.floatField(i), name)
}
