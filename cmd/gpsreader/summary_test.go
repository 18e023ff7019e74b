package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gpsreader/internal/nmea"
	"gpsreader/internal/replay"
)

const (
	ggaFix   = "$GPGGA,190055.000,5336.3190,N,00952.0345,E,1,06,2.2,44.0,M,45.1,M,,0000*66"
	vtgNoFix = "$GPVTG,199.50,T,,M,0.24,N,0.4,K,N*04"
)

func nmeaLine(body string) string {
	return "$" + body + "*" + strings.ToUpper(nmea.Checksum(body))
}

func TestSummarizeNMEALog(t *testing.T) {
	recs := []replay.Record{
		{},
		{At: 0, Line: ggaFix},
		{At: 100 * time.Millisecond, Line: vtgNoFix},
		{At: 200 * time.Millisecond, Line: strings.TrimSuffix(ggaFix, "66") + "00"},
		{At: 300 * time.Millisecond, Line: nmeaLine("GPGGA,190055.000,5336.3190,N")},
		{At: 400 * time.Millisecond, Line: nmeaLine("GPZDA,201530.00,04,07,2002,00,00")},
		{},
		{At: 2 * time.Second, Line: vtgNoFix},
	}

	s := summarizeNMEALog(recs)
	if s.Segments != 2 {
		t.Fatalf("segments=%d want 2", s.Segments)
	}
	if s.Lines != 6 {
		t.Fatalf("lines=%d want 6", s.Lines)
	}
	if s.TypeCounts[nmea.TypeGGA] != 1 || s.TypeCounts[nmea.TypeVTG] != 2 {
		t.Fatalf("counts=%v", s.TypeCounts)
	}
	if s.ChecksumFailures != 1 {
		t.Fatalf("checksum_failures=%d want 1", s.ChecksumFailures)
	}
	if s.ParseErrors != 1 {
		t.Fatalf("parse_errors=%d want 1", s.ParseErrors)
	}
	if s.Unknown != 1 {
		t.Fatalf("unknown=%d want 1", s.Unknown)
	}
	if s.MaxDuration != 2*time.Second {
		t.Fatalf("max_duration=%s want 2s", s.MaxDuration)
	}
}

func TestSummarizeNMEALog_NoStartMarker(t *testing.T) {
	s := summarizeNMEALog([]replay.Record{{At: time.Second, Line: vtgNoFix}})
	if s.Segments != 1 || s.Lines != 1 {
		t.Fatalf("segments=%d lines=%d", s.Segments, s.Lines)
	}
	if s := summarizeNMEALog(nil); s.Segments != 0 || s.Lines != 0 {
		t.Fatalf("empty summary=%+v", s)
	}
}

func TestPrintLogSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gps.log")
	w, err := replay.CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	now := time.Now()
	for _, line := range []string{ggaFix, vtgNoFix, ggaFix} {
		if err := w.WriteLine(now, line); err != nil {
			t.Fatalf("WriteLine() error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	var out bytes.Buffer
	if err := printLogSummary(&out, path); err != nil {
		t.Fatalf("printLogSummary() error: %v", err)
	}
	got := out.String()
	for _, want := range []string{"segments: 1\n", "lines: 3\n", "checksum_failures: 0\n", "  GGA: 2\n", "  VTG: 1\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "RMC") {
		t.Fatalf("summary should omit zero counts:\n%s", got)
	}
}

func TestPrintLogSummary_Errors(t *testing.T) {
	var out bytes.Buffer
	if err := printLogSummary(&out, "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := printLogSummary(&out, filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
