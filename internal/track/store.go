// Package track keeps a SQLite log of valid fixes grouped into sessions.
package track

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"gpsreader/internal/geo"
	"gpsreader/internal/gps"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS session(
		id TEXT PRIMARY KEY,
		started_utc TEXT NOT NULL,
		source TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS fix(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL REFERENCES session(id),
		at_utc TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		altitude_m REAL,
		speed_kmh REAL,
		course_deg REAL,
		satellites INTEGER,
		hdop REAL
	);`,
	`CREATE INDEX IF NOT EXISTS fix_session ON fix(session, id);`,
}

type Session struct {
	ID         string `json:"id"`
	StartedUTC string `json:"started_utc"`
	Source     string `json:"source,omitempty"`
}

type Point struct {
	At        time.Time    `json:"at"`
	Position  geo.Position `json:"position"`
	AltitudeM *float64     `json:"altitude_m,omitempty"`
	SpeedKMH  *float64     `json:"speed_kmh,omitempty"`
	CourseDeg *float64     `json:"course_deg,omitempty"`
}

// Summary describes one recorded session.
type Summary struct {
	Session   string    `json:"session"`
	Points    int       `json:"points"`
	DistanceM float64   `json:"distance_m"`
	First     time.Time `json:"first,omitempty"`
	Last      time.Time `json:"last,omitempty"`
}

type Store struct {
	db          *sql.DB
	minInterval time.Duration

	mu      sync.Mutex
	session string
	lastAt  time.Time
}

// Open opens or creates the database at path. Fixes closer together than
// minInterval are dropped by Record.
func Open(path string, minInterval time.Duration) (*Store, error) {
	// PRAGMA foreign_keys is per connection, so set it in the DSN.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=yes", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open track db: %w", err)
	}
	// One writer; avoids "database is locked" between pooled connections.
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("track schema: %w", err)
		}
	}
	return &Store{db: db, minInterval: minInterval}, nil
}

// Begin starts a new session and returns its ID.
func (s *Store) Begin(source string, now time.Time) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO session(id, started_utc, source) VALUES (?, ?, ?)`,
		id, now.UTC().Format(time.RFC3339Nano), source); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	s.mu.Lock()
	s.session = id
	s.lastAt = time.Time{}
	s.mu.Unlock()
	return id, nil
}

// Session returns the active session ID, or "" before Begin.
func (s *Store) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Record stores snap when it holds a valid fix. It reports whether a row was
// written.
func (s *Store) Record(snap gps.Snapshot, now time.Time) (bool, error) {
	if !snap.Valid || !snap.Position.IsSet() {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == "" {
		return false, fmt.Errorf("track: no active session")
	}
	if !s.lastAt.IsZero() && now.Sub(s.lastAt) < s.minInterval {
		return false, nil
	}

	_, err := s.db.Exec(`INSERT INTO fix(session, at_utc, lat, lon, altitude_m, speed_kmh, course_deg, satellites, hdop)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, now.UTC().Format(time.RFC3339Nano), snap.Position.Lat(), snap.Position.Lon(),
		nullable(snap.AltitudeM), nullable(snap.SpeedKMH), nullable(snap.CourseDeg), nullable(snap.Satellites), nullable(snap.HDOP))
	if err != nil {
		return false, fmt.Errorf("insert fix: %w", err)
	}
	s.lastAt = now
	return true, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, started_utc, COALESCE(source, '') FROM session ORDER BY started_utc, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var ss Session
		if err := rows.Scan(&ss.ID, &ss.StartedUTC, &ss.Source); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Points returns the fixes of a session in recording order.
func (s *Store) Points(session string) ([]Point, error) {
	rows, err := s.db.Query(`SELECT at_utc, lat, lon, altitude_m, speed_kmh, course_deg FROM fix WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var (
			at                 string
			lat, lon           float64
			alt, speed, course sql.NullFloat64
		)
		if err := rows.Scan(&at, &lat, &lon, &alt, &speed, &course); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("fix time %q: %w", at, err)
		}
		out = append(out, Point{
			At:        ts,
			Position:  geo.NewPosition(lat, lon),
			AltitudeM: fromNull(alt),
			SpeedKMH:  fromNull(speed),
			CourseDeg: fromNull(course),
		})
	}
	return out, rows.Err()
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// Summarize returns the point count and travelled distance of a session.
func (s *Store) Summarize(session string) (Summary, error) {
	pts, err := s.Points(session)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Session: session, Points: len(pts)}
	if len(pts) == 0 {
		return sum, nil
	}
	sum.First, sum.Last = pts[0].At, pts[len(pts)-1].At
	for i := 1; i < len(pts); i++ {
		d, err := pts[i-1].Position.Distance(pts[i].Position)
		if err != nil {
			continue
		}
		sum.DistanceM += d
	}
	return sum, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
