package nmea

import "fmt"

// Satellite is one entry of a GSV sentence. Values are kept as transmitted;
// receivers pad missing SNR with blanks.
type Satellite struct {
	ID        string `json:"id"`
	Elevation string `json:"elevation"`
	Azimuth   string `json:"azimuth"`
	SNR       string `json:"snr"`
}

// GSV is the satellites in view sentence. Its length varies with the number of
// satellites it carries (one to four), so it is parsed without a fixed schema.
type GSV struct {
	header []Field
	sats   []Satellite
}

const (
	gsvHeader  = 3
	gsvPerSat  = 4
	gsvMaxSats = 4
)

func NewGSV() *GSV {
	return &GSV{header: []Field{
		&IntField{},         // total messages
		&IntField{},         // message number
		&IntField{Width: 2}, // satellites in view
	}}
}

func (g *GSV) Type() Type { return TypeGSV }

// Parse decodes line and replaces the satellite list. Satellites from a
// previous sentence are not kept.
func (g *GSV) Parse(line string) error {
	tokens, err := splitPayload(line, TypeGSV)
	if err != nil {
		return err
	}
	n := len(tokens)
	if n%2 == 0 {
		return fmt.Errorf("%w: GSV has even field count %d", ErrMalformed, n)
	}
	count := (n - gsvHeader) / gsvPerSat
	if n < gsvHeader+gsvPerSat || count > gsvMaxSats || (n-gsvHeader)%gsvPerSat != 0 {
		return fmt.Errorf("%w: GSV field count %d", ErrMalformed, n)
	}

	header, err := decodeFields(g.header, tokens[:gsvHeader])
	if err != nil {
		return err
	}
	sats := make([]Satellite, count)
	for k := range sats {
		off := gsvHeader + gsvPerSat*k
		var f [gsvPerSat]StringField
		for j := range f {
			if err := f[j].Parse(tokens[off+j]); err != nil {
				return fmt.Errorf("satellite %d: %w", k, err)
			}
		}
		sats[k] = Satellite{ID: f[0].Value(), Elevation: f[1].Value(), Azimuth: f[2].Value(), SNR: f[3].Value()}
	}

	g.header, g.sats = header, sats
	return nil
}

func (g *GSV) MessageCount() int { return g.header[0].(*IntField).Int() }

func (g *GSV) MessageNumber() int { return g.header[1].(*IntField).Int() }

// InView is the total number of satellites in view across the whole sequence.
func (g *GSV) InView() int { return g.header[2].(*IntField).Int() }

// Satellites returns a copy of the satellites of the last parsed sentence in
// transmission order.
func (g *GSV) Satellites() []Satellite {
	return append([]Satellite(nil), g.sats...)
}

// Satellite returns the entry for id. A PRN repeated within one sentence
// resolves to its last occurrence.
func (g *GSV) Satellite(id string) (Satellite, bool) {
	for i := len(g.sats) - 1; i >= 0; i-- {
		if g.sats[i].ID == id {
			return g.sats[i], true
		}
	}
	return Satellite{}, false
}

func (g *GSV) Elevation(id string) (string, bool) {
	s, ok := g.Satellite(id)
	return s.Elevation, ok
}

func (g *GSV) Azimuth(id string) (string, bool) {
	s, ok := g.Satellite(id)
	return s.Azimuth, ok
}

func (g *GSV) SNR(id string) (string, bool) {
	s, ok := g.Satellite(id)
	return s.SNR, ok
}

func (g *GSV) Values() []string {
	out := make([]string, 0, gsvHeader+gsvPerSat*len(g.sats))
	for _, f := range g.header {
		out = append(out, f.String())
	}
	for _, s := range g.sats {
		out = append(out, s.ID, s.Elevation, s.Azimuth, s.SNR)
	}
	return out
}

func (g *GSV) String() string { return Encode(TypeGSV, g.Values()) }

func (g *GSV) Clone() *GSV {
	header := make([]Field, len(g.header))
	for i, f := range g.header {
		header[i] = f.clone()
	}
	return &GSV{header: header, sats: g.Satellites()}
}
