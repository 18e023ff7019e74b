// Package sim synthesizes the sentence stream of a moving GPS receiver so the
// reader can be exercised without hardware.
package sim

import (
	"fmt"
	"math"
	"time"

	"gpsreader/internal/geo"
	"gpsreader/internal/nmea"
)

const knotsPerMS = 3600.0 / 1852.0

// Receiver flies a deterministic figure-eight around Center.
type Receiver struct {
	Center    geo.Position
	RadiusM   float64
	Period    time.Duration
	AltitudeM float64
}

// State is the simulated kinematics at one instant.
type State struct {
	Position  geo.Position
	TrackDeg  float64
	SpeedKt   float64
	AltitudeM float64
}

type satellite struct {
	id, elevation, azimuth, snr string
	used                        bool
}

var constellation = []satellite{
	{"02", "06", "128", "21", true},
	{"05", "45", "180", "38", true},
	{"12", "71", "251", "41", true},
	{"14", "37", "302", "34", true},
	{"19", "15", "045", "", false},
	{"24", "67", "135", "40", true},
	{"25", "32", "251", "36", true},
	{"29", "09", "012", "", false},
	{"31", "22", "078", "29", true},
	{"32", "06", "346", "18", true},
}

func (r Receiver) period() time.Duration {
	if r.Period <= 0 {
		return 120 * time.Second
	}
	return r.Period
}

func (r Receiver) radius() float64 {
	if r.RadiusM <= 0 {
		return 500
	}
	return r.RadiusM
}

// At returns the deterministic state for now.
func (r Receiver) At(now time.Time) (State, error) {
	if !r.Center.IsSet() {
		return State{}, fmt.Errorf("sim center is unset")
	}
	period := r.period()
	radius := r.radius()

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	w := 2 * math.Pi * phase

	// x east, y north, in meters:
	//	x = R*cos(2πt)
	//	y = R/2*sin(4πt)
	x := radius * math.Cos(w)
	y := 0.5 * radius * math.Sin(2*w)

	pos := r.Center
	if d := math.Hypot(x, y); d > 0 {
		p, err := r.Center.Project(d, math.Mod(math.Atan2(x, y)*180/math.Pi+360, 360))
		if err != nil {
			return State{}, err
		}
		pos = p
	}

	omega := 2 * math.Pi / period.Seconds()
	vx := -radius * omega * math.Sin(w)
	vy := radius * omega * math.Cos(2*w)
	track := math.Mod(math.Atan2(vx, vy)*180/math.Pi+360, 360)

	// Vertical period is decoupled from horizontal to avoid repetitive sync.
	vp := period / 2
	if vp < 30*time.Second {
		vp = 30 * time.Second
	}
	vphase := float64(now.UnixNano()%vp.Nanoseconds()) / float64(vp.Nanoseconds())
	alt := r.AltitudeM + 150*math.Sin(2*math.Pi*vphase)

	return State{
		Position:  pos,
		TrackDeg:  track,
		SpeedKt:   math.Hypot(vx, vy) * knotsPerMS,
		AltitudeM: alt,
	}, nil
}

// Burst returns one second of receiver output: GGA, GSA, GSV..., RMC, VTG.
func (r Receiver) Burst(now time.Time) ([]string, error) {
	st, err := r.At(now)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	hms := fmt.Sprintf("%02d%02d%02d.%02d", now.Hour(), now.Minute(), now.Second(), now.Nanosecond()/1e7)
	lat, ns := geo.FormatLatitude(st.Position.Lat())
	lon, ew := geo.FormatLongitude(st.Position.Lon())
	track := fmt.Sprintf("%.1f", st.TrackDeg)
	knots := fmt.Sprintf("%.1f", st.SpeedKt)

	used := make([]string, 0, 12)
	for _, s := range constellation {
		if s.used {
			used = append(used, s.id)
		}
	}

	out := []string{
		nmea.Encode(nmea.TypeGGA, []string{
			hms, lat, ns, lon, ew, "1", fmt.Sprintf("%02d", len(used)), "0.9",
			fmt.Sprintf("%.1f", st.AltitudeM), "M", "47.0", "M", "", "",
		}),
	}

	gsa := []string{"A", "3"}
	for i := 0; i < 12; i++ {
		if i < len(used) {
			gsa = append(gsa, used[i])
		} else {
			gsa = append(gsa, "")
		}
	}
	out = append(out, nmea.Encode(nmea.TypeGSA, append(gsa, "1.6", "0.9", "1.3")))

	count := (len(constellation) + 3) / 4
	for msg := 0; msg < count; msg++ {
		tokens := []string{fmt.Sprint(count), fmt.Sprint(msg + 1), fmt.Sprintf("%02d", len(constellation))}
		for _, s := range constellation[msg*4 : min(msg*4+4, len(constellation))] {
			tokens = append(tokens, s.id, s.elevation, s.azimuth, s.snr)
		}
		out = append(out, nmea.Encode(nmea.TypeGSV, tokens))
	}

	out = append(out,
		nmea.Encode(nmea.TypeRMC, []string{hms, "A", lat, ns, lon, ew, knots, track, now.Format("020106"), "", "", "A"}),
		nmea.Encode(nmea.TypeVTG, []string{track, "T", "", "M", knots, "N", fmt.Sprintf("%.1f", geo.KnotsToKMH(st.SpeedKt)), "K", "A"}),
	)
	return out, nil
}
