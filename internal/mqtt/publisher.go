// Package mqtt publishes GPS snapshots as JSON to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"gpsreader/internal/gps"
)

type Config struct {
	Broker   string
	ClientID string
	// Topic receives the fix; Topic+"/sky" receives the satellite view.
	Topic    string
	Interval time.Duration
}

// client is the subset of paho.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Source supplies the data to publish; *gps.Service satisfies it.
type Source interface {
	Snapshot() gps.Snapshot
	Sky() []gps.SkySatellite
}

type Publisher struct {
	cfg    Config
	client client

	lastLine string
}

func Connect(cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	c := paho.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect broker=%s: %w", cfg.Broker, token.Error())
	}
	log.Printf("mqtt connected broker=%s client_id=%s topic=%s", cfg.Broker, cfg.ClientID, cfg.Topic)
	return newPublisher(cfg, c), nil
}

func newPublisher(cfg Config, c client) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Publisher{cfg: cfg, client: c}
}

// Publish sends the fix and sky view once. Snapshots without a new line since
// the previous call are skipped and reported as false.
func (p *Publisher) Publish(src Source) (bool, error) {
	snap := src.Snapshot()
	if snap.LastLineUTC == "" || snap.LastLineUTC == p.lastLine {
		return false, nil
	}
	if err := p.send(p.cfg.Topic, snap); err != nil {
		return false, err
	}
	if err := p.send(p.cfg.Topic+"/sky", src.Sky()); err != nil {
		return false, err
	}
	p.lastLine = snap.LastLineUTC
	return true, nil
}

func (p *Publisher) send(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	token := p.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(p.cfg.Interval) {
		return fmt.Errorf("publish %s: timed out after %s", topic, p.cfg.Interval)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Run publishes every Interval until ctx is done.
func (p *Publisher) Run(ctx context.Context, src Source) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Publish(src); err != nil {
				log.Printf("mqtt %v", err)
			}
		}
	}
}

func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(250)
}
