package gps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gpsreader/internal/nmea"
	"gpsreader/internal/replay"
	"gpsreader/internal/sim"
)

const (
	SourceSerial = "serial"
	SourceTCP    = "tcp"
	SourceReplay = "replay"
	SourceSim    = "sim"

	// DefaultBaud is the NMEA-0183 standard rate.
	DefaultBaud = 4800
)

// SupportedBauds lists the serial rates accepted for a receiver.
var SupportedBauds = []int{4800, 9600, 19200, 38400, 57600, 115200}

// Config controls the GPS reader.
//
// Device may be empty to auto-detect /dev/ttyACM* and /dev/ttyUSB*.
type Config struct {
	Enable bool

	// Source selects how sentences are ingested: "serial", "tcp", "replay"
	// or "sim".
	// When empty, defaults to "serial".
	Source string

	Device string
	Baud   int

	// TCPAddr is host:port of an NMEA-over-TCP feed when Source=="tcp".
	TCPAddr string

	ReplayPath  string
	ReplaySpeed float64
	ReplayLoop  bool

	// Sim describes the synthetic receiver when Source=="sim".
	Sim sim.Receiver

	// SkyTTL is how long a satellite stays in the sky view after its last GSV.
	SkyTTL time.Duration

	// OnRaw, when set, sees every non-empty line read from the source before
	// it is decoded, including lines the decoder rejects. It runs on the
	// reader goroutine.
	OnRaw func(at time.Time, line string)
}

// Update is passed to handlers for every line the decoder accepted.
type Update struct {
	At       time.Time
	Line     string
	Type     nmea.Type
	Snapshot Snapshot
}

type Service struct {
	cfg      Config
	handlers []func(Update)

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last      atomic.Value // Snapshot
	sentences atomic.Value // *nmea.Decoder, never mutated after Store

	mu     sync.Mutex
	closer io.Closer

	// Owned by the reader goroutine.
	dec *nmea.Decoder
	sky *Sky
	now func() time.Time
}

// New creates a stopped service. Handlers run on the reader goroutine and must
// not block.
func New(cfg Config, handlers ...func(Update)) *Service {
	cfg.Source = normalizeSource(cfg.Source)
	if cfg.Source == SourceSerial {
		cfg.Baud = NormalizeBaud(cfg.Baud)
	}
	s := &Service{
		cfg:      cfg,
		handlers: handlers,
		dec:      nmea.NewDecoder(),
		sky:      NewSky(cfg.SkyTTL),
		now:      time.Now,
	}
	s.last.Store(s.baseSnapshot())
	s.sentences.Store(s.dec.Clone())
	return s
}

func normalizeSource(src string) string {
	src = strings.ToLower(strings.TrimSpace(src))
	if src == "" {
		return SourceSerial
	}
	return src
}

// NormalizeBaud returns baud when it is a supported rate and DefaultBaud
// otherwise.
func NormalizeBaud(baud int) int {
	for _, b := range SupportedBauds {
		if b == baud {
			return baud
		}
	}
	if baud != 0 {
		log.Printf("gps baud=%d unsupported, using %d", baud, DefaultBaud)
	}
	return DefaultBaud
}

func (s *Service) baseSnapshot() Snapshot {
	snap := Snapshot{Enabled: s.cfg.Enable, Source: s.cfg.Source}
	switch s.cfg.Source {
	case SourceSerial:
		snap.Device = s.cfg.Device
		snap.Baud = s.cfg.Baud
	case SourceTCP:
		snap.Addr = strings.TrimSpace(s.cfg.TCPAddr)
	case SourceReplay:
		snap.Device = s.cfg.ReplayPath
	}
	return snap
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	switch s.cfg.Source {
	case SourceSerial:
		return s.startSerialLocked(ctx)
	case SourceTCP:
		return s.startTCPLocked(ctx)
	case SourceReplay:
		return s.startReplayLocked(ctx)
	case SourceSim:
		return s.startSimLocked(ctx)
	default:
		return fmt.Errorf("gps source %q is not supported", s.cfg.Source)
	}
}

func (s *Service) startSerialLocked(ctx context.Context) error {
	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.setErrorLocked("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			return fmt.Errorf("gps auto-detect failed")
		}
	}
	baud := s.cfg.Baud

	port, err := openSerial(device, baud)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, baud, err))
		return err
	}
	// Keep the port for Close(); closing it unblocks the pending read.
	s.closer = port

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	snap := s.Snapshot()
	snap.Device = device
	s.last.Store(snap)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("gps enabled source=serial device=%s baud=%d", device, baud)
		backoff := 250 * time.Millisecond
		maxBackoff := 10 * time.Second

		for {
			err := s.readLines(childCtx, port)
			_ = port.Close()
			if childCtx.Err() != nil {
				return
			}
			s.setError(fmt.Sprintf("gps read stopped device=%s: %v", device, err))

			// Reopen with backoff; the device may have been unplugged.
			for {
				t := backoff
				if t > maxBackoff {
					t = maxBackoff
				}
				select {
				case <-childCtx.Done():
					return
				case <-time.After(t):
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
				port, err = openSerial(device, baud)
				if err == nil {
					break
				}
				s.setError(fmt.Sprintf("gps reopen failed device=%s: %v", device, err))
			}
			backoff = 250 * time.Millisecond

			s.mu.Lock()
			if childCtx.Err() != nil {
				s.mu.Unlock()
				_ = port.Close()
				return
			}
			s.closer = port
			s.mu.Unlock()
			log.Printf("gps reopened device=%s", device)
		}
	}()
	return nil
}

func (s *Service) startTCPLocked(ctx context.Context) error {
	addr := strings.TrimSpace(s.cfg.TCPAddr)
	if addr == "" {
		return fmt.Errorf("gps tcp addr is required")
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("gps enabled source=tcp addr=%s", addr)
		dialer := &net.Dialer{Timeout: 2 * time.Second}
		backoff := 250 * time.Millisecond
		maxBackoff := 10 * time.Second

		for {
			select {
			case <-childCtx.Done():
				return
			default:
			}

			conn, err := dialer.DialContext(childCtx, "tcp", addr)
			if err != nil {
				s.setError(fmt.Sprintf("gps dial failed addr=%s: %v", addr, err))
				t := backoff
				if t > maxBackoff {
					t = maxBackoff
				}
				select {
				case <-childCtx.Done():
					return
				case <-time.After(t):
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
				continue
			}
			backoff = 250 * time.Millisecond

			s.mu.Lock()
			if childCtx.Err() != nil {
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
			// Swap the closer so Close() can interrupt an active connection.
			s.closer = conn
			s.mu.Unlock()

			err = s.readLines(childCtx, conn)
			_ = conn.Close()
			if err != nil {
				s.setError(fmt.Sprintf("gps tcp read stopped: %v", err))
			}
			// Loop and reconnect.
		}
	}()
	return nil
}

func (s *Service) startReplayLocked(ctx context.Context) error {
	path := strings.TrimSpace(s.cfg.ReplayPath)
	if path == "" {
		return fmt.Errorf("gps replay path is required")
	}
	recs, err := replay.Open(path)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps replay open failed path=%s: %v", path, err))
		return err
	}
	speed := s.cfg.ReplaySpeed
	if speed <= 0 {
		speed = 1
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("gps enabled source=replay path=%s records=%d speed=%.2f loop=%t", path, len(recs), speed, s.cfg.ReplayLoop)
		err := replay.Play(childCtx, recs, speed, s.cfg.ReplayLoop, nil, func(line string) error {
			s.handleLine(line)
			return nil
		})
		if err != nil && childCtx.Err() == nil {
			s.setError(fmt.Sprintf("gps replay stopped: %v", err))
			return
		}
		if err == nil {
			log.Printf("gps replay finished path=%s", path)
		}
	}()
	return nil
}

func (s *Service) startSimLocked(ctx context.Context) error {
	rx := s.cfg.Sim
	if !rx.Center.IsSet() {
		return fmt.Errorf("gps sim center is required")
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("gps enabled source=sim center=%s radius_m=%.0f period=%s", rx.Center, rx.RadiusM, rx.Period)
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			lines, err := rx.Burst(s.now())
			if err != nil {
				s.setError(fmt.Sprintf("gps sim: %v", err))
				return
			}
			for _, line := range lines {
				s.handleLine(line)
			}
			select {
			case <-childCtx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return nil
}

// maxLineBytes bounds one line. Longer runs, such as binary UBX at receiver
// boot or a wrong baud rate, are dropped up to the next newline.
const maxLineBytes = 4096

// readLines feeds every line of r to the decoder until r fails or ctx ends.
// A clean EOF is reported as io.EOF.
func (s *Service) readLines(ctx context.Context, r io.Reader) error {
	br := bufio.NewReaderSize(r, maxLineBytes)
	var line []byte
	overlong := false

	for {
		if ctx.Err() != nil {
			return nil
		}
		chunk, err := br.ReadSlice('\n')
		if !overlong {
			line = append(line, chunk...)
			if len(line) > maxLineBytes {
				overlong = true
				line = line[:0]
				s.setError(fmt.Sprintf("gps line longer than %d bytes dropped", maxLineBytes))
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == nil {
			if !overlong {
				s.handleLine(string(line))
			}
			line = line[:0]
			overlong = false
			continue
		}

		if len(line) > 0 && !overlong {
			s.handleLine(string(line))
		}
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}

// handleLine runs on the reader goroutine only.
func (s *Service) handleLine(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	now := s.now().UTC()
	if s.cfg.OnRaw != nil {
		s.cfg.OnRaw(now, line)
	}
	// Some receivers emit non-NMEA chatter at boot; filter quickly.
	if !strings.HasPrefix(line, "$") {
		return
	}

	typ, err := s.dec.Feed(line)
	if err != nil {
		// Avoid spamming on bad noise; just keep the last error.
		s.setError(fmt.Sprintf("gps %s: %v", typ, err))
		return
	}
	if typ == nmea.TypeUnknown {
		return
	}

	if typ == nmea.TypeGSV {
		s.sky.Observe(s.dec.GSV.Satellites(), now)
	}

	s.mu.Lock()
	snap := s.baseSnapshotFrom(s.Snapshot()).withDecoder(s.dec)
	snap.RawLine = line
	snap.LastLineUTC = now.Format(time.RFC3339Nano)
	s.sentences.Store(s.dec.Clone())
	s.last.Store(snap)
	s.mu.Unlock()

	u := Update{At: now, Line: line, Type: typ, Snapshot: snap}
	for _, h := range s.handlers {
		h(u)
	}
}

// baseSnapshotFrom keeps the connection fields and last error of prev.
func (s *Service) baseSnapshotFrom(prev Snapshot) Snapshot {
	return Snapshot{
		Enabled:   prev.Enabled,
		Source:    prev.Source,
		Device:    prev.Device,
		Baud:      prev.Baud,
		Addr:      prev.Addr,
		LastError: prev.LastError,
	}
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	// Cancel under the lock so a reader swapping in a new closer sees it.
	if cancel != nil {
		cancel()
	}
	s.mu.Unlock()

	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

// Sentences returns a private copy of the decoder state as of the last
// accepted line.
func (s *Service) Sentences() *nmea.Decoder {
	if s == nil {
		return nmea.NewDecoder()
	}
	return s.sentences.Load().(*nmea.Decoder).Clone()
}

// Sky returns every satellite seen within SkyTTL, merged across GSV
// sequences and flagged with the satellites the last GSA used for the fix.
func (s *Service) Sky() []SkySatellite {
	if s == nil {
		return nil
	}
	used, _ := s.sentences.Load().(*nmea.Decoder).GSA.SatellitesUsed()
	return s.sky.View(used)
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErrorLocked(msg)
}

func (s *Service) setErrorLocked(msg string) {
	cur := s.Snapshot()
	cur.LastError = msg
	// Do not force Valid=false here; transient parse issues shouldn't flip validity.
	s.last.Store(cur)
}

func autoDetectDevice() string {
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
