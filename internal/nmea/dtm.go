package nmea

// DTM is the datum reference sentence. It carries no validity indicator.
type DTM struct{ Sentence }

// NewDTM fields: local datum, sub code, lat offset, N/S, lon offset, E/W,
// altitude offset, reference datum.
func NewDTM() *DTM {
	return &DTM{newSentence(TypeDTM, stringFields(8)...)}
}

func (d *DTM) Clone() *DTM { return &DTM{d.Sentence.clone()} }

func (d *DTM) LocalDatumCode() string { return d.Value(0) }

func (d *DTM) LocalDatumSubCode() string { return d.Value(1) }

// Datum is the reference datum name, e.g. "W84".
func (d *DTM) Datum() string { return d.Value(7) }
