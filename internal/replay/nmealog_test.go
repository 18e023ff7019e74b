package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (fs *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	fs.slept = append(fs.slept, d)
	return nil
}

const (
	gga = "$GPGGA,190055.000,5336.3190,N,00952.0345,E,1,06,2.2,44.0,M,45.1,M,,0000*66"
	vtg = "$GPVTG,199.50,T,,M,0.24,N,0.4,K,N*04"
)

func TestReaderReadAll(t *testing.T) {
	in := strings.NewReader(`
# comment

START
0,` + gga + `
10, ` + vtg + `
`)

	recs, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if !recs[0].IsStart() {
		t.Fatalf("expected START marker, got %+v", recs[0])
	}
	if recs[1].At != 0 || recs[1].Line != gga {
		t.Fatalf("record 1 = %+v", recs[1])
	}
	if recs[2].At != 10*time.Nanosecond || recs[2].Line != vtg {
		t.Fatalf("record 2 = %+v", recs[2])
	}
}

func TestReaderReadAll_InvalidLine(t *testing.T) {
	for _, in := range []string{"not-a-valid-line\n", "x," + gga + "\n", "-5," + gga + "\n", "12,\n"} {
		if _, err := NewReader(strings.NewReader(in)).ReadAll(); err == nil {
			t.Fatalf("ReadAll(%q): expected error", in)
		}
	}
}

func TestPlay_RespectsTimingAndStart(t *testing.T) {
	var lines []string
	fs := &fakeSleeper{}

	recs := []Record{
		{At: 1 * time.Second},
		{At: 1 * time.Second, Line: "a"},
		{At: 1*time.Second + 100*time.Nanosecond, Line: "b"},
		{At: 2 * time.Second},
		{At: 2*time.Second + 50*time.Nanosecond, Line: "c"},
	}

	err := Play(context.Background(), recs, 1.0, false, fs, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"a", "b", "c"}) {
		t.Fatalf("lines = %v", lines)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{100 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [100ns]", fs.slept)
	}
}

func TestPlay_SpeedMultiplier(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 0, Line: "a"},
		{At: 100 * time.Nanosecond, Line: "b"},
	}

	err := Play(context.Background(), recs, 2.0, false, fs, func(string) error { return nil })
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{50 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [50ns]", fs.slept)
	}
}

func TestPlay_InvalidSpeed(t *testing.T) {
	recs := []Record{{At: 0, Line: "a"}}
	if err := Play(context.Background(), recs, 0, false, nil, func(string) error { return nil }); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPlay_LoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	recs := []Record{{At: 0, Line: "a"}}

	n := 0
	err := Play(ctx, recs, 1.0, true, &fakeSleeper{}, func(string) error {
		n++
		if n == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Play() error = %v, want context.Canceled", err)
	}
	if n != 3 {
		t.Fatalf("callback ran %d times, want 3", n)
	}
}

func TestPlay_CallbackErrorStops(t *testing.T) {
	boom := errors.New("boom")
	recs := []Record{{Line: "a"}, {Line: "b"}}
	n := 0
	err := Play(context.Background(), recs, 1.0, false, &fakeSleeper{}, func(string) error {
		n++
		return boom
	})
	if !errors.Is(err, boom) || n != 1 {
		t.Fatalf("err=%v n=%d", err, n)
	}
}

func TestWriter_WritesExpectedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	w.start = time.Unix(0, 0)

	if err := w.WriteLine(time.Unix(0, 20), vtg+"\r\n"); err != nil {
		t.Fatalf("WriteLine() error: %v", err)
	}
	if err := w.WriteLine(time.Unix(0, 30), "bad\nline"); err == nil {
		t.Fatalf("expected error for embedded newline")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.WriteLine(time.Unix(0, 40), vtg); err == nil {
		t.Fatalf("expected error after Close")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(b) != "START\n20,"+vtg+"\n" {
		t.Fatalf("unexpected file contents: %q", string(b))
	}
}

func TestRecordReplay_RoundTripLinesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nmea-record.log")

	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	// Same timestamp for every line so replay has zero waits.
	now := time.Now()
	in := []string{gga, vtg, "$GPGSV,2,2,07,24,67,135,20,25,32,251,40,32,06,346,13*4C"}
	for _, l := range in {
		if err := w.WriteLine(now, l); err != nil {
			_ = w.Close()
			t.Fatalf("WriteLine() error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	recs, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	var out []string
	fs := &fakeSleeper{}
	err = Play(context.Background(), recs, 1.0, false, fs, func(line string) error {
		out = append(out, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if len(fs.slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", fs.slept)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("lines mismatch\n got: %q\nwant: %q", out, in)
	}
}
