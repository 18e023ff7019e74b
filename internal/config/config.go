package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gpsreader/internal/geo"
	"gpsreader/internal/gps"
	"gpsreader/internal/sim"
)

type Config struct {
	GPS    GPSConfig    `yaml:"gps"`
	Record RecordConfig `yaml:"record"`
	UDP    UDPConfig    `yaml:"udp"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Track  TrackConfig  `yaml:"track"`
	Web    WebConfig    `yaml:"web"`
}

type GPSConfig struct {
	Enable  bool          `yaml:"enable"`
	Source  string        `yaml:"source"`
	Device  string        `yaml:"device"`
	Baud    int           `yaml:"baud"`
	TCPAddr string        `yaml:"tcp_addr"`
	Replay  ReplayConfig  `yaml:"replay"`
	Sim     SimConfig     `yaml:"sim"`
	SkyTTL  time.Duration `yaml:"sky_ttl"`
}

type SimConfig struct {
	CenterLat float64       `yaml:"center_lat"`
	CenterLon float64       `yaml:"center_lon"`
	RadiusM   float64       `yaml:"radius_m"`
	Period    time.Duration `yaml:"period"`
	AltitudeM float64       `yaml:"altitude_m"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
}

type TrackConfig struct {
	Enable      bool          `yaml:"enable"`
	Path        string        `yaml:"path"`
	MinInterval time.Duration `yaml:"min_interval"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

// ServiceConfig maps the gps section onto the reader service.
func (c Config) ServiceConfig() gps.Config {
	return gps.Config{
		Enable:      c.GPS.Enable,
		Source:      c.GPS.Source,
		Device:      c.GPS.Device,
		Baud:        c.GPS.Baud,
		TCPAddr:     c.GPS.TCPAddr,
		ReplayPath:  c.GPS.Replay.Path,
		ReplaySpeed: c.GPS.Replay.Speed,
		ReplayLoop:  c.GPS.Replay.Loop,
		Sim: sim.Receiver{
			Center:    geo.NewPosition(c.GPS.Sim.CenterLat, c.GPS.Sim.CenterLon),
			RadiusM:   c.GPS.Sim.RadiusM,
			Period:    c.GPS.Sim.Period,
			AltitudeM: c.GPS.Sim.AltitudeM,
		},
		SkyTTL: c.GPS.SkyTTL,
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		var te *yaml.TypeError
		if errors.As(err, &te) && unknownFieldsOnly(te) {
			return Config{}, fmt.Errorf("config contains unknown fields: %s", strings.Join(te.Errors, "; "))
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	g := &cfg.GPS
	g.Source = strings.ToLower(strings.TrimSpace(g.Source))
	if g.Source == "" {
		g.Source = gps.SourceSerial
	}
	switch g.Source {
	case gps.SourceSerial:
		if g.Baud == 0 {
			g.Baud = gps.DefaultBaud
		}
		if !supportedBaud(g.Baud) {
			return fmt.Errorf("gps.baud %d is not supported", g.Baud)
		}
	case gps.SourceTCP:
		if strings.TrimSpace(g.TCPAddr) == "" {
			return fmt.Errorf("gps.tcp_addr is required when gps.source is 'tcp'")
		}
	case gps.SourceReplay:
		if g.Replay.Path == "" {
			return fmt.Errorf("gps.replay.path is required when gps.source is 'replay'")
		}
		if g.Replay.Speed == 0 {
			g.Replay.Speed = 1
		}
		if g.Replay.Speed < 0 {
			return fmt.Errorf("gps.replay.speed must be > 0")
		}
	case gps.SourceSim:
		if !geo.NewPosition(g.Sim.CenterLat, g.Sim.CenterLon).IsSet() {
			return fmt.Errorf("gps.sim.center_lat/center_lon out of range")
		}
		if g.Sim.RadiusM <= 0 {
			g.Sim.RadiusM = 500
		}
		if g.Sim.Period <= 0 {
			g.Sim.Period = 120 * time.Second
		}
	default:
		return fmt.Errorf("gps.source must be one of serial, tcp, replay, sim")
	}
	if g.SkyTTL < 0 {
		return fmt.Errorf("gps.sky_ttl must be >= 0")
	}
	if g.SkyTTL == 0 {
		g.SkyTTL = 30 * time.Second
	}

	if cfg.Record.Enable {
		if cfg.Record.Path == "" {
			return fmt.Errorf("record.path is required when record.enable is true")
		}
		if g.Source == gps.SourceReplay {
			return fmt.Errorf("record cannot be used with gps.source=replay")
		}
	}

	if cfg.UDP.Enable && strings.TrimSpace(cfg.UDP.Dest) == "" {
		return fmt.Errorf("udp.dest is required when udp.enable is true")
	}

	if cfg.MQTT.Enable {
		if strings.TrimSpace(cfg.MQTT.Broker) == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "gpsreader"
		}
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = "gpsreader/fix"
		}
		if cfg.MQTT.Interval < 0 {
			return fmt.Errorf("mqtt.interval must be > 0")
		}
		if cfg.MQTT.Interval == 0 {
			cfg.MQTT.Interval = 1 * time.Second
		}
	}

	if cfg.Track.Enable {
		if cfg.Track.Path == "" {
			return fmt.Errorf("track.path is required when track.enable is true")
		}
		if cfg.Track.MinInterval < 0 {
			return fmt.Errorf("track.min_interval must be >= 0")
		}
		if cfg.Track.MinInterval == 0 {
			cfg.Track.MinInterval = 5 * time.Second
		}
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	return nil
}

func unknownFieldsOnly(te *yaml.TypeError) bool {
	for _, e := range te.Errors {
		if !strings.Contains(e, "not found in type") {
			return false
		}
	}
	return len(te.Errors) > 0
}

func supportedBaud(baud int) bool {
	for _, b := range gps.SupportedBauds {
		if b == baud {
			return true
		}
	}
	return false
}
