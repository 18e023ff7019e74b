package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  enable: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "serial" {
		t.Fatalf("source=%q want serial", cfg.GPS.Source)
	}
	if cfg.GPS.Baud != 4800 {
		t.Fatalf("baud=%d want 4800", cfg.GPS.Baud)
	}
	if cfg.GPS.SkyTTL != 30*time.Second {
		t.Fatalf("sky_ttl=%s want 30s", cfg.GPS.SkyTTL)
	}
	if cfg.Web.Listen != ":8080" {
		t.Fatalf("web.listen=%q want :8080", cfg.Web.Listen)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeTempConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Enable {
		t.Fatalf("gps should be disabled by default")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "UnknownSource",
			body: "gps:\n  source: usb\n",
			want: "gps.source must be one of serial, tcp, replay, sim",
		},
		{
			name: "UnsupportedBaud",
			body: "gps:\n  baud: 1200\n",
			want: "gps.baud 1200 is not supported",
		},
		{
			name: "TCPRequiresAddr",
			body: "gps:\n  source: tcp\n",
			want: "gps.tcp_addr is required when gps.source is 'tcp'",
		},
		{
			name: "ReplayRequiresPath",
			body: "gps:\n  source: replay\n",
			want: "gps.replay.path is required when gps.source is 'replay'",
		},
		{
			name: "ReplayNegativeSpeed",
			body: "gps:\n  source: replay\n  replay:\n    path: ./x.log\n    speed: -1\n",
			want: "gps.replay.speed must be > 0",
		},
		{
			name: "RecordRequiresPath",
			body: "record:\n  enable: true\n",
			want: "record.path is required when record.enable is true",
		},
		{
			name: "RecordWithReplay",
			body: "gps:\n  source: replay\n  replay:\n    path: ./x.log\nrecord:\n  enable: true\n  path: ./y.log\n",
			want: "record cannot be used with gps.source=replay",
		},
		{
			name: "UDPRequiresDest",
			body: "udp:\n  enable: true\n",
			want: "udp.dest is required when udp.enable is true",
		},
		{
			name: "MQTTRequiresBroker",
			body: "mqtt:\n  enable: true\n",
			want: "mqtt.broker is required when mqtt.enable is true",
		},
		{
			name: "TrackRequiresPath",
			body: "track:\n  enable: true\n",
			want: "track.path is required when track.enable is true",
		},
		{
			name: "SimCenterOutOfRange",
			body: "gps:\n  source: sim\n  sim:\n    center_lat: 95\n",
			want: "gps.sim.center_lat/center_lon out of range",
		},
		{
			name: "NegativeSkyTTL",
			body: "gps:\n  sky_ttl: -1s\n",
			want: "gps.sky_ttl must be >= 0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.body))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_ReplaySpeedDefaultsToOne(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  source: replay\n  replay:\n    path: './x.log'\n    speed: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Replay.Speed != 1 {
		t.Fatalf("speed=%v want 1", cfg.GPS.Replay.Speed)
	}
	sc := cfg.ServiceConfig()
	if sc.Source != "replay" || sc.ReplayPath != "./x.log" || sc.ReplaySpeed != 1 {
		t.Fatalf("service config=%+v", sc)
	}
}

func TestLoad_OptionalSectionDefaults(t *testing.T) {
	body := "gps:\n  source: TCP\n  tcp_addr: 127.0.0.1:10110\n" +
		"mqtt:\n  enable: true\n  broker: tcp://localhost:1883\n" +
		"track:\n  enable: true\n  path: ./track.db\n"
	cfg, err := Load(writeTempConfig(t, body))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "tcp" {
		t.Fatalf("source=%q want tcp", cfg.GPS.Source)
	}
	if cfg.MQTT.ClientID != "gpsreader" || cfg.MQTT.Topic != "gpsreader/fix" || cfg.MQTT.Interval != time.Second {
		t.Fatalf("mqtt=%+v", cfg.MQTT)
	}
	if cfg.Track.MinInterval != 5*time.Second {
		t.Fatalf("track.min_interval=%s want 5s", cfg.Track.MinInterval)
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  enable: true\n  bogus: 1\n")
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "config contains unknown fields: ") || !strings.Contains(msg, "field bogus not found") {
		t.Fatalf("error=%q", msg)
	}
}

func TestLoad_TypeErrorIsNotUnknownField(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  baud: fast\n")
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "unknown fields") {
		t.Fatalf("error=%q", err.Error())
	}
}

func TestLoad_SimDefaults(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  enable: true\n  source: sim\n  sim:\n    center_lat: 47.45\n    center_lon: 8.56\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Sim.RadiusM != 500 || cfg.GPS.Sim.Period != 120*time.Second {
		t.Fatalf("sim=%+v", cfg.GPS.Sim)
	}
	rx := cfg.ServiceConfig().Sim
	if !rx.Center.IsSet() || rx.Center.Lat() != 47.45 || rx.Center.Lon() != 8.56 {
		t.Fatalf("center=%v", rx.Center)
	}
}
