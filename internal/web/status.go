package web

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Status tracks process-level counters shown at /api/status. The GPS fix
// itself is served from the reader's snapshot.
type Status struct {
	startUnixNano int64
	linesTotal    uint64
	lastLineNano  int64
	outputs       atomic.Value // map[string]any
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.outputs.Store(map[string]any{})
	return s
}

// SetOutputs records which sinks are active (udp dest, mqtt broker, ...).
func (s *Status) SetOutputs(outputs map[string]any) {
	if outputs != nil {
		s.outputs.Store(outputs)
	}
}

func (s *Status) MarkLine(nowUTC time.Time) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	atomic.StoreInt64(&s.lastLineNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.linesTotal, 1)
}

type StatusSnapshot struct {
	Service     string         `json:"service"`
	NowUTC      string         `json:"now_utc"`
	UptimeSec   int64          `json:"uptime_sec"`
	GoVersion   string         `json:"go_version"`
	Version     string         `json:"version,omitempty"`
	Commit      string         `json:"commit,omitempty"`
	LinesTotal  uint64         `json:"lines_total"`
	LastLineUTC string         `json:"last_line_utc,omitempty"`
	Outputs     map[string]any `json:"outputs"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:    "gpsreader",
		NowUTC:     nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:  int64(nowUTC.Sub(start).Seconds()),
		GoVersion:  runtime.Version(),
		LinesTotal: atomic.LoadUint64(&s.linesTotal),
		Outputs:    s.outputs.Load().(map[string]any),
	}
	if last := atomic.LoadInt64(&s.lastLineNano); last != 0 {
		snap.LastLineUTC = time.Unix(0, last).UTC().Format(time.RFC3339Nano)
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		snap.Version = bi.Main.Version
		for _, st := range bi.Settings {
			if st.Key == "vcs.revision" {
				snap.Commit = st.Value
			}
		}
	}
	return snap
}
