package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gpsreader/internal/nmea"
	"gpsreader/internal/replay"
)

type logSummary struct {
	Segments         int
	Lines            int
	Unknown          int
	ChecksumFailures int
	ParseErrors      int
	MaxDuration      time.Duration
	TypeCounts       map[nmea.Type]int
}

func summarizeNMEALog(records []replay.Record) logSummary {
	s := logSummary{TypeCounts: map[nmea.Type]int{}}
	dec := nmea.NewDecoder()
	origin := time.Duration(0)
	hasLines := false

	for _, r := range records {
		if r.IsStart() {
			s.Segments++
			origin = r.At
			continue
		}
		hasLines = true
		s.Lines++
		if at := r.At - origin; at > s.MaxDuration {
			s.MaxDuration = at
		}

		before := dec.ChecksumFailures()
		typ, err := dec.Feed(r.Line)
		switch {
		case err != nil:
			s.ParseErrors++
		case dec.ChecksumFailures() != before:
			s.ChecksumFailures++
		case typ == nmea.TypeUnknown:
			s.Unknown++
		default:
			s.TypeCounts[typ]++
		}
	}
	if s.Segments == 0 && hasLines {
		s.Segments = 1
	}
	return s
}

func printLogSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	recs, err := replay.Open(path)
	if err != nil {
		return err
	}
	s := summarizeNMEALog(recs)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "lines: %d\n", s.Lines)
	fmt.Fprintf(w, "checksum_failures: %d\n", s.ChecksumFailures)
	fmt.Fprintf(w, "parse_errors: %d\n", s.ParseErrors)
	fmt.Fprintf(w, "unknown: %d\n", s.Unknown)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	fmt.Fprintf(w, "type_counts:\n")
	for _, t := range nmea.Types {
		if n := s.TypeCounts[t]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", t, n)
		}
	}
	return nil
}
