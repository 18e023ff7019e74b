package nmea

import (
	"errors"
	"testing"
)

func TestIntField_Parse(t *testing.T) {
	cases := []struct {
		token string
		width int
		want  int
		set   bool
		text  string
	}{
		{"06", 0, 6, true, "6"},
		{"06", 2, 6, true, "06"},
		{"12", 2, 12, true, "12"},
		{"0000", 0, 0, true, "0"},
		{"0", 2, 0, true, "00"},
		{"-05", 3, -5, true, "-05"},
		{"+7", 0, 7, true, "7"},
		{"36734", 1, 36734, true, "36734"},
		{"36734", 6, 36734, true, "036734"},
		{"", 2, 0, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			f := IntField{Width: tc.width}
			if err := f.Parse(tc.token); err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.token, err)
			}
			if f.Int() != tc.want || f.Set() != tc.set {
				t.Fatalf("Int()=%d Set()=%v want %d %v", f.Int(), f.Set(), tc.want, tc.set)
			}
			if f.String() != tc.text {
				t.Fatalf("String()=%q want %q", f.String(), tc.text)
			}
		})
	}
}

func TestIntField_TypeMismatch(t *testing.T) {
	for _, token := range []string{"abc", "-", "12a", "1.5", " 1"} {
		f := IntField{}
		if err := f.Parse("4"); err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		err := f.Parse(token)
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("Parse(%q) err=%v want ErrTypeMismatch", token, err)
		}
		if f.Int() != 4 {
			t.Fatalf("failed parse overwrote value: %d", f.Int())
		}
	}
}

func TestStringField(t *testing.T) {
	var f StringField
	if err := f.Parse("  "); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if f.Value() != "  " {
		t.Fatalf("Value()=%q", f.Value())
	}
	for _, token := range []string{"\xff\xfe", "a\x01b", "line\n"} {
		if err := f.Parse(token); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("Parse(%q) err=%v want ErrTypeMismatch", token, err)
		}
	}
}

func TestFloatField(t *testing.T) {
	var f FloatField
	if err := f.Parse("2.20"); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if f.Float() != 2.2 || !f.Set() || f.String() != "2.20" {
		t.Fatalf("got %v %v %q", f.Float(), f.Set(), f.String())
	}
	if err := f.Parse("x"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err=%v want ErrTypeMismatch", err)
	}
	if err := f.Parse(""); err != nil {
		t.Fatalf("Parse empty error: %v", err)
	}
	if f.Set() || f.String() != "" {
		t.Fatalf("empty token should clear the field")
	}
}
