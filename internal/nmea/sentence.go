package nmea

import (
	"fmt"
	"strings"

	"gpsreader/internal/geo"
)

// Sentence is a fixed-schema NMEA sentence: one typed field per payload token.
// Catalog types embed it and add fix-gated accessors.
type Sentence struct {
	typ    Type
	fields []Field
}

func newSentence(t Type, fields ...Field) Sentence {
	return Sentence{typ: t, fields: fields}
}

// Type reports which catalog entry the sentence belongs to.
func (s *Sentence) Type() Type { return s.typ }

// Len is the number of payload fields.
func (s *Sentence) Len() int { return len(s.fields) }

// Parse decodes line into the sentence fields. On any error the previous
// values are left untouched.
func (s *Sentence) Parse(line string) error {
	tokens, err := splitPayload(line, s.typ)
	if err != nil {
		return err
	}
	if len(tokens) != len(s.fields) {
		return fmt.Errorf("%w: %s has %d fields, want %d", ErrMalformed, s.typ, len(tokens), len(s.fields))
	}
	next, err := decodeFields(s.fields, tokens)
	if err != nil {
		return err
	}
	s.fields = next
	return nil
}

// splitPayload checks the sentence framing and returns the comma separated
// tokens between "$TTTTT," and "*HH".
func splitPayload(line string, t Type) ([]string, error) {
	n := len(line)
	if n < 10 || line[0] != '$' || line[n-3] != '*' {
		return nil, fmt.Errorf("%w: bad framing %q", ErrMalformed, line)
	}
	if line[3:6] != t.String() {
		return nil, fmt.Errorf("%w: identifier %q is not %s", ErrMalformed, line[3:6], t)
	}
	if line[6] != ',' {
		return nil, fmt.Errorf("%w: missing field separator after identifier", ErrMalformed)
	}
	return strings.Split(line[7:n-3], ","), nil
}

// decodeFields parses tokens into clones of tmpl so a failure halfway leaves
// tmpl unchanged.
func decodeFields(tmpl []Field, tokens []string) ([]Field, error) {
	next := make([]Field, len(tmpl))
	for i, f := range tmpl {
		c := f.clone()
		if err := c.Parse(tokens[i]); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		next[i] = c
	}
	return next, nil
}

// Encode renders a sentence of type t with the GP talker and a freshly
// computed checksum.
func Encode(t Type, tokens []string) string {
	body := "GP" + t.String() + "," + strings.Join(tokens, ",")
	return fmt.Sprintf("$%s*%02X", body, xorBytes(body))
}

// String renders the sentence back to NMEA text. The transmitted checksum is
// not kept; a new one is computed.
func (s *Sentence) String() string {
	return Encode(s.typ, s.Values())
}

// Value returns the rendered text of field i, or "" when i is out of range.
func (s *Sentence) Value(i int) string {
	if i < 0 || i >= len(s.fields) {
		return ""
	}
	return s.fields[i].String()
}

// Values returns every field rendered as text.
func (s *Sentence) Values() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.String()
	}
	return out
}

func (s *Sentence) intField(i int) *IntField {
	return s.fields[i].(*IntField)
}

func (s *Sentence) floatField(i int) *FloatField {
	return s.fields[i].(*FloatField)
}

// position builds a geo.Position from four consecutive fields: latitude,
// N/S, longitude, E/W.
func (s *Sentence) position(at int) (geo.Position, error) {
	p, err := geo.FromNMEA(s.Value(at), s.Value(at+1), s.Value(at+2), s.Value(at+3))
	if err != nil {
		return geo.Position{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return p, nil
}

func (s *Sentence) clone() Sentence {
	fields := make([]Field, len(s.fields))
	for i, f := range s.fields {
		fields[i] = f.clone()
	}
	return Sentence{typ: s.typ, fields: fields}
}

func stringFields(n int) []Field {
	out := make([]Field, n)
	for i := range out {
		out[i] = &StringField{}
	}
	return out
}

// reported returns the value of an optional numeric field, or ErrNoValidFix
// when the receiver left it empty.
func reported(f *FloatField, name string) (float64, error) {
	if !f.Set() {
		return 0, fmt.Errorf("%w: %s not reported", ErrNoValidFix, name)
	}
	return f.Float(), nil
}
