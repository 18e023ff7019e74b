package gps

import (
	"strconv"
	"time"

	"gpsreader/internal/geo"
	"gpsreader/internal/nmea"
)

// Snapshot is a flat, immutable view of the decoder state. Optional values are
// nil when the receiver has not reported them or reports no fix.
type Snapshot struct {
	Enabled bool `json:"enabled"`
	Valid   bool `json:"valid"`

	Source string `json:"source,omitempty"`
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`
	Addr   string `json:"addr,omitempty"`

	Position   geo.Position `json:"position"`
	AltitudeM  *float64     `json:"altitude_m,omitempty"`
	SpeedKMH   *float64     `json:"speed_kmh,omitempty"`
	SpeedKt    *float64     `json:"speed_kt,omitempty"`
	CourseDeg  *float64     `json:"course_deg,omitempty"`
	FixQuality *int         `json:"fix_quality,omitempty"`
	FixMode    *int         `json:"fix_mode,omitempty"`
	Satellites *int         `json:"satellites,omitempty"`
	InView     int          `json:"satellites_in_view,omitempty"`
	HDOP       *float64     `json:"hdop,omitempty"`
	PDOP       *float64     `json:"pdop,omitempty"`
	VDOP       *float64     `json:"vdop,omitempty"`
	Datum      string       `json:"datum,omitempty"`
	FixTimeUTC string       `json:"fix_time_utc,omitempty"`

	RawLine          string            `json:"raw_line,omitempty"`
	LastLineUTC      string            `json:"last_line_utc,omitempty"`
	Sentences        map[string]uint64 `json:"sentences,omitempty"`
	ChecksumFailures uint64            `json:"checksum_failures,omitempty"`
	LastError        string            `json:"last_error,omitempty"`
}

// withDecoder fills the fix fields of snap from d. Position and motion prefer
// RMC, then GGA/VTG, then GLL.
func (snap Snapshot) withDecoder(d *nmea.Decoder) Snapshot {
	for _, pos := range []func() (geo.Position, error){d.RMC.Position, d.GGA.Position, d.GLL.Position} {
		if p, err := pos(); err == nil && p.IsSet() {
			snap.Position = p
			break
		}
	}
	snap.Valid = snap.Position.IsSet()

	if kn, err := d.RMC.SpeedKnots(); err == nil {
		snap.SpeedKt = ptr(kn)
		snap.SpeedKMH = ptr(geo.KnotsToKMH(kn))
	} else if kmh, err := d.VTG.Speed(nmea.KMH); err == nil {
		snap.SpeedKMH = ptr(kmh)
		snap.SpeedKt = ptr(geo.KMHToKnots(kmh))
	}
	if c, err := d.RMC.Course(); err == nil {
		snap.CourseDeg = ptr(c)
	} else if c, _, err := d.VTG.Course(); err == nil {
		snap.CourseDeg = ptr(c)
	}
	if ts, err := d.RMC.Timestamp(); err == nil {
		snap.FixTimeUTC = ts.Format(time.RFC3339Nano)
	}

	if q, ok := d.GGA.FixQuality(); ok {
		snap.FixQuality = ptr(q)
	}
	if n, err := d.GGA.Satellites(); err == nil {
		snap.Satellites = ptr(n)
	}
	if h, err := d.GGA.AntennaHeight(); err == nil {
		if alt, err := strconv.ParseFloat(h, 64); err == nil {
			snap.AltitudeM = ptr(alt)
		}
	}
	if h, err := d.GSA.HDOP(); err == nil {
		snap.HDOP = ptr(h)
	} else if h, err := d.GGA.HDOP(); err == nil {
		snap.HDOP = ptr(h)
	}
	if m, ok := d.GSA.FixMode(); ok {
		snap.FixMode = ptr(m)
	}
	if p, err := d.GSA.PDOP(); err == nil {
		snap.PDOP = ptr(p)
	}
	if v, err := d.GSA.VDOP(); err == nil {
		snap.VDOP = ptr(v)
	}

	snap.InView = d.GSV.InView()
	snap.Datum = d.DTM.Datum()

	snap.Sentences = make(map[string]uint64, len(nmea.Types))
	for _, t := range nmea.Types {
		if n := d.Received(t); n > 0 {
			snap.Sentences[t.String()] = n
		}
	}
	snap.ChecksumFailures = d.ChecksumFailures()
	return snap
}

func ptr[T any](v T) *T { return &v }
