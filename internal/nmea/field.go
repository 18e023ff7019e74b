package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field is one typed slot of a sentence. Parse overwrites the previous value.
type Field interface {
	Parse(token string) error
	// String renders the value the way it is written back into a sentence.
	String() string
	clone() Field
}

// StringField stores its token verbatim.
type StringField struct {
	value string
}

func (f *StringField) Parse(token string) error {
	if !utf8.ValidString(token) || strings.ContainsFunc(token, unicode.IsControl) {
		return fmt.Errorf("%w: %q is not text", ErrTypeMismatch, token)
	}
	f.value = token
	return nil
}

func (f *StringField) Value() string { return f.value }

func (f *StringField) String() string { return f.value }

func (f *StringField) clone() Field {
	c := *f
	return &c
}

// IntField decodes a signed decimal integer. Leading zeros are not significant
// on input; Width sets the minimum zero-padded width on output (0 = natural).
//
// An empty token is the NMEA null field: Set reports false and Int returns 0.
type IntField struct {
	Width int

	value int
	set   bool
}

func (f *IntField) Parse(token string) error {
	if token == "" {
		f.value, f.set = 0, false
		return nil
	}
	v, err := parseInt(token)
	if err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

func parseInt(token string) (int, error) {
	sign, digits := "", token
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		sign, digits = digits[:1], digits[1:]
	}
	if digits == "" {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, token)
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(sign + digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, token)
	}
	return v, nil
}

func (f *IntField) Int() int { return f.value }

func (f *IntField) Set() bool { return f.set }

func (f *IntField) String() string {
	if !f.set {
		return ""
	}
	sign, digits := "", strconv.Itoa(f.value)
	if f.value < 0 {
		sign, digits = "-", digits[1:]
	}
	if pad := f.Width - len(sign) - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return sign + digits
}

func (f *IntField) clone() Field {
	c := *f
	return &c
}

// FloatField decodes a decimal number and keeps the token for output.
// An empty token is the NMEA null field.
type FloatField struct {
	raw   string
	value float64
	set   bool
}

func (f *FloatField) Parse(token string) error {
	if token == "" {
		*f = FloatField{}
		return nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, token)
	}
	f.raw, f.value, f.set = token, v, true
	return nil
}

func (f *FloatField) Float() float64 { return f.value }

func (f *FloatField) Set() bool { return f.set }

func (f *FloatField) String() string { return f.raw }

func (f *FloatField) clone() Field {
	c := *f
	return &c
}
