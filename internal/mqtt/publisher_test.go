package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"gpsreader/internal/gps"
	"gpsreader/internal/nmea"
)

type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool { return !t.pending }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	msgs         []published
	err          error
	pending      bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return &fakeToken{err: c.err, pending: c.pending}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

type fakeSource struct {
	snap gps.Snapshot
	sky  []gps.SkySatellite
}

func (s *fakeSource) Snapshot() gps.Snapshot { return s.snap }
func (s *fakeSource) Sky() []gps.SkySatellite { return s.sky }

func TestPublish_FixAndSky(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(Config{Topic: "gps/fix"}, fc)
	src := &fakeSource{
		snap: gps.Snapshot{Valid: true, LastLineUTC: "2026-10-18T12:00:00Z", InView: 7},
		sky:  []gps.SkySatellite{{Satellite: nmea.Satellite{ID: "24", SNR: "20"}, Used: true}},
	}

	sent, err := p.Publish(src)
	if err != nil || !sent {
		t.Fatalf("Publish()=%v,%v", sent, err)
	}
	if len(fc.msgs) != 2 {
		t.Fatalf("messages=%d want 2", len(fc.msgs))
	}
	if fc.msgs[0].topic != "gps/fix" || !fc.msgs[0].retained {
		t.Fatalf("fix message=%+v", fc.msgs[0])
	}
	var snap gps.Snapshot
	if err := json.Unmarshal(fc.msgs[0].payload, &snap); err != nil {
		t.Fatalf("fix payload: %v", err)
	}
	if !snap.Valid || snap.InView != 7 {
		t.Fatalf("fix payload=%s", fc.msgs[0].payload)
	}
	if fc.msgs[1].topic != "gps/fix/sky" {
		t.Fatalf("sky topic=%q", fc.msgs[1].topic)
	}
	var sky []map[string]any
	if err := json.Unmarshal(fc.msgs[1].payload, &sky); err != nil {
		t.Fatalf("sky payload: %v", err)
	}
	if len(sky) != 1 || sky[0]["id"] != "24" || sky[0]["used"] != true {
		t.Fatalf("sky payload=%s", fc.msgs[1].payload)
	}
}

func TestPublish_SkipsUnchangedSnapshot(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(Config{Topic: "gps"}, fc)
	src := &fakeSource{}

	if sent, _ := p.Publish(src); sent {
		t.Fatalf("published before any line was received")
	}
	src.snap.LastLineUTC = "a"
	if sent, _ := p.Publish(src); !sent {
		t.Fatalf("expected publish")
	}
	if sent, _ := p.Publish(src); sent {
		t.Fatalf("republished the same snapshot")
	}
	src.snap.LastLineUTC = "b"
	if sent, _ := p.Publish(src); !sent {
		t.Fatalf("expected publish after new line")
	}
}

func TestPublish_ErrorIsRetried(t *testing.T) {
	fc := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(Config{Topic: "gps"}, fc)
	src := &fakeSource{snap: gps.Snapshot{LastLineUTC: "a"}}

	if _, err := p.Publish(src); err == nil {
		t.Fatalf("expected error")
	}
	fc.err = nil
	if sent, err := p.Publish(src); err != nil || !sent {
		t.Fatalf("retry Publish()=%v,%v", sent, err)
	}
}

func TestPublish_PendingTokenTimesOut(t *testing.T) {
	fc := &fakeClient{pending: true}
	p := newPublisher(Config{Topic: "gps", Interval: 10 * time.Millisecond}, fc)
	src := &fakeSource{snap: gps.Snapshot{LastLineUTC: "a"}}

	_, err := p.Publish(src)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("Publish() err=%v want timeout", err)
	}
	fc.mu.Lock()
	fc.pending = false
	fc.mu.Unlock()
	if sent, err := p.Publish(src); err != nil || !sent {
		t.Fatalf("retry Publish()=%v,%v", sent, err)
	}
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(Config{Topic: "gps", Interval: 5 * time.Millisecond}, fc)
	src := &fakeSource{snap: gps.Snapshot{LastLineUTC: "a"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, src)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for fc.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for publish")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done

	if fc.count() != 2 {
		t.Fatalf("messages=%d want 2 (one fix, one sky)", fc.count())
	}
	p.Close()
	if !fc.disconnected {
		t.Fatalf("Close did not disconnect")
	}
}

func TestConnect_RequiresBroker(t *testing.T) {
	if _, err := Connect(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
