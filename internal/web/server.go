package web

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gpsreader/internal/geo"
	"gpsreader/internal/gps"
	"gpsreader/internal/track"
)

// Source is the GPS reader as seen by the HTTP API.
type Source interface {
	Snapshot() gps.Snapshot
	Sky() []gps.SkySatellite
}

// TrackSource exposes recorded sessions. Optional.
type TrackSource interface {
	Sessions() ([]track.Session, error)
	Summarize(session string) (track.Summary, error)
}

// Options wires the HTTP API. Only GPS is required.
type Options struct {
	Status *Status
	GPS    Source
	Logs   *LogBuffer
	Stream *Broadcaster
	Track  TrackSource
}

type NavigateResponse struct {
	From          geo.Position `json:"from"`
	To            geo.Position `json:"to"`
	BearingDeg    float64      `json:"bearing_deg"`
	DistanceM     float64      `json:"distance_m"`
	CourseDeg     *float64     `json:"course_deg,omitempty"`
	CorrectionDeg *float64     `json:"correction_deg,omitempty"`
}

type SatellitesResponse struct {
	NowUTC     string             `json:"now_utc"`
	Satellites []gps.SkySatellite `json:"satellites"`
}

func Handler(opts Options) http.Handler {
	if opts.Status == nil {
		opts.Status = NewStatus()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if allowGet(w, r) {
			writeJSON(w, opts.Status.Snapshot(time.Now().UTC()))
		}
	})

	mux.HandleFunc("/api/gps", func(w http.ResponseWriter, r *http.Request) {
		if allowGet(w, r) {
			writeJSON(w, opts.GPS.Snapshot())
		}
	})

	mux.HandleFunc("/api/satellites", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		sats := opts.GPS.Sky()
		if sats == nil {
			sats = []gps.SkySatellite{}
		}
		writeJSON(w, SatellitesResponse{NowUTC: time.Now().UTC().Format(time.RFC3339Nano), Satellites: sats})
	})

	mux.HandleFunc("/api/navigate", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		to, err := parseTarget(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := navigate(opts.GPS.Snapshot(), to)
		if errors.Is(err, geo.ErrInvalidOperand) {
			http.Error(w, "no valid fix", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("/api/track", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		if opts.Track == nil {
			http.Error(w, "track log disabled", http.StatusNotFound)
			return
		}
		if id := strings.TrimSpace(r.URL.Query().Get("session")); id != "" {
			sum, err := opts.Track.Summarize(id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, sum)
			return
		}
		sessions, err := opts.Track.Sessions()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []track.Session{}
		}
		writeJSON(w, struct {
			Sessions []track.Session `json:"sessions"`
		}{sessions})
	})

	if opts.Logs != nil {
		mux.Handle("/api/logs", opts.Logs.Handler())
	}
	if opts.Stream != nil {
		mux.Handle("/api/stream", StreamHandler(opts.Stream))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := opts.GPS.Snapshot()
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>gpsreader</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>gpsreader</h1>")
		_, _ = fmt.Fprintf(w, "<pre>source=%s\nvalid=%t\nposition=%s\nlast_line_utc=%s\nlast_error=%s</pre>",
			html.EscapeString(snap.Source), snap.Valid, html.EscapeString(snap.Position.String()),
			html.EscapeString(snap.LastLineUTC), html.EscapeString(snap.LastError),
		)
		_, _ = fmt.Fprintf(w, "<p><a href=\"/api/gps\">/api/gps</a> <a href=\"/api/satellites\">/api/satellites</a> <a href=\"/api/logs?format=text\">/api/logs</a></p>")
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func parseTarget(r *http.Request) (geo.Position, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	if err != nil {
		return geo.Position{}, fmt.Errorf("lat must be a number")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lon")), 64)
	if err != nil {
		return geo.Position{}, fmt.Errorf("lon must be a number")
	}
	p := geo.NewPosition(lat, lon)
	if !p.IsSet() {
		return geo.Position{}, fmt.Errorf("lat/lon out of range")
	}
	return p, nil
}

func navigate(snap gps.Snapshot, to geo.Position) (NavigateResponse, error) {
	if !snap.Valid {
		return NavigateResponse{}, geo.ErrInvalidOperand
	}
	brg, err := snap.Position.Bearing(to)
	if err != nil {
		return NavigateResponse{}, err
	}
	dist, err := snap.Position.Distance(to)
	if err != nil {
		return NavigateResponse{}, err
	}
	resp := NavigateResponse{From: snap.Position, To: to, BearingDeg: brg, DistanceM: dist}
	if snap.CourseDeg != nil {
		c := *snap.CourseDeg
		corr := geo.CourseCorrection(c, brg)
		resp.CourseDeg, resp.CorrectionDeg = &c, &corr
	}
	return resp, nil
}

func Serve(ctx context.Context, listenAddr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
