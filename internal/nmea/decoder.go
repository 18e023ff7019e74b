package nmea

import "strings"

// Message is implemented by every catalog sentence.
type Message interface {
	Type() Type
	Parse(line string) error
	String() string
	Values() []string
}

// Decoder holds one reusable instance of every catalog sentence and routes
// lines to them. It is not safe for concurrent use; hand readers a Clone.
type Decoder struct {
	GGA *GGA
	RMC *RMC
	VTG *VTG
	GLL *GLL
	DTM *DTM
	GSV *GSV
	GSA *GSA

	received    [TypeGSA + 1]uint64
	badChecksum uint64
}

func NewDecoder() *Decoder {
	return &Decoder{
		GGA: NewGGA(),
		RMC: NewRMC(),
		VTG: NewVTG(),
		GLL: NewGLL(),
		DTM: NewDTM(),
		GSV: NewGSV(),
		GSA: NewGSA(),
	}
}

// Message returns the decoder's instance for t, or nil for TypeUnknown.
func (d *Decoder) Message(t Type) Message {
	switch t {
	case TypeGGA:
		return d.GGA
	case TypeRMC:
		return d.RMC
	case TypeVTG:
		return d.VTG
	case TypeGLL:
		return d.GLL
	case TypeDTM:
		return d.DTM
	case TypeGSV:
		return d.GSV
	case TypeGSA:
		return d.GSA
	default:
		return nil
	}
}

// Feed decodes one line. Lines of an unknown type and lines failing the
// checksum are ignored and reported as TypeUnknown with a nil error. A parse
// error leaves the matching sentence unchanged.
func (d *Decoder) Feed(line string) (Type, error) {
	line = strings.TrimRight(line, "\r\n")
	t := ParseType(line)
	if t == TypeUnknown {
		return TypeUnknown, nil
	}
	if !VerifyChecksum(line) {
		d.badChecksum++
		return TypeUnknown, nil
	}
	if err := d.Message(t).Parse(line); err != nil {
		return t, err
	}
	d.received[t]++
	return t, nil
}

// Received counts successfully parsed sentences of type t.
func (d *Decoder) Received(t Type) uint64 {
	if t <= TypeUnknown || t > TypeGSA {
		return 0
	}
	return d.received[t]
}

// ChecksumFailures counts known sentences dropped for a bad checksum.
func (d *Decoder) ChecksumFailures() uint64 { return d.badChecksum }

// Clone returns a deep copy that later Feed calls do not affect.
func (d *Decoder) Clone() *Decoder {
	return &Decoder{
		GGA:         d.GGA.Clone(),
		RMC:         d.RMC.Clone(),
		VTG:         d.VTG.Clone(),
		GLL:         d.GLL.Clone(),
		DTM:         d.DTM.Clone(),
		GSV:         d.GSV.Clone(),
		GSA:         d.GSA.Clone(),
		received:    d.received,
		badChecksum: d.badChecksum,
	}
}
