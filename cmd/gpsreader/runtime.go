package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gpsreader/internal/config"
	"gpsreader/internal/gps"
	"gpsreader/internal/mqtt"
	"gpsreader/internal/replay"
	"gpsreader/internal/track"
	"gpsreader/internal/udp"
	"gpsreader/internal/web"
)

// runtime owns the reader service and every sink fed from it.
type runtime struct {
	cfg    config.Config
	status *web.Status
	stream *web.Broadcaster

	gpsSvc   *gps.Service
	recorder *replay.Writer
	fwd      *udp.Forwarder
	tracks   *track.Store
	pub      *mqtt.Publisher

	wg sync.WaitGroup

	// Last error per sink, so a failing sink logs once per distinct error.
	errMu   sync.Mutex
	lastErr map[string]string
}

func newRuntime(cfg config.Config, status *web.Status) (*runtime, error) {
	if status == nil {
		return nil, fmt.Errorf("status is nil")
	}
	r := &runtime{
		cfg:     cfg,
		status:  status,
		stream:  web.NewBroadcaster(),
		lastErr: map[string]string{},
	}
	outputs := map[string]any{}

	if cfg.Record.Enable {
		w, err := replay.CreateWriter(cfg.Record.Path)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("record init failed: %w", err)
		}
		r.recorder = w
		outputs["record"] = cfg.Record.Path
		log.Printf("record enabled path=%s", cfg.Record.Path)
	}

	if cfg.UDP.Enable {
		f, err := udp.NewForwarder(cfg.UDP.Dest)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("udp forwarder init failed: %w", err)
		}
		r.fwd = f
		outputs["udp"] = cfg.UDP.Dest
		log.Printf("udp enabled dest=%s", cfg.UDP.Dest)
	}

	if cfg.Track.Enable {
		st, err := track.Open(cfg.Track.Path, cfg.Track.MinInterval)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("track init failed: %w", err)
		}
		id, err := st.Begin(cfg.GPS.Source, time.Now())
		if err != nil {
			_ = st.Close()
			r.Close()
			return nil, fmt.Errorf("track init failed: %w", err)
		}
		r.tracks = st
		outputs["track"] = cfg.Track.Path
		log.Printf("track enabled path=%s session=%s min_interval=%s", cfg.Track.Path, id, cfg.Track.MinInterval)
	}

	if cfg.MQTT.Enable {
		p, err := mqtt.Connect(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Interval: cfg.MQTT.Interval,
		})
		if err != nil {
			// Keep running without MQTT; the broker may come up later.
			log.Printf("mqtt init failed: %v", err)
		} else {
			r.pub = p
			outputs["mqtt"] = cfg.MQTT.Broker
		}
	}

	status.SetOutputs(outputs)
	svcCfg := cfg.ServiceConfig()
	if r.recorder != nil {
		svcCfg.OnRaw = r.record
	}
	r.gpsSvc = gps.New(svcCfg, r.handle)
	return r, nil
}

// Start brings up the reader and the periodic publishers.
func (r *runtime) Start(ctx context.Context) {
	if err := r.gpsSvc.Start(ctx); err != nil {
		// Keep serving the API even if the receiver is missing.
		log.Printf("gps init failed: %v", err)
	}
	if r.pub != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.pub.Run(ctx, r.gpsSvc)
		}()
	}
}

// record runs on the reader goroutine for every line read, decoded or not.
func (r *runtime) record(at time.Time, line string) {
	r.sinkErr("record", r.recorder.WriteLine(at, line))
}

// handle runs on the reader goroutine for every accepted sentence.
func (r *runtime) handle(u gps.Update) {
	r.status.MarkLine(u.At)
	if r.fwd != nil {
		r.sinkErr("udp", r.fwd.Forward(u.Line))
	}
	if r.tracks != nil {
		_, err := r.tracks.Record(u.Snapshot, u.At)
		r.sinkErr("track", err)
	}
	r.stream.Publish(u)
}

func (r *runtime) sinkErr(sink string, err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if err == nil {
		delete(r.lastErr, sink)
		return
	}
	if r.lastErr[sink] == err.Error() {
		return
	}
	r.lastErr[sink] = err.Error()
	log.Printf("%s error: %v", sink, err)
}

func (r *runtime) WebOptions(logs *web.LogBuffer) web.Options {
	opts := web.Options{Status: r.status, GPS: r.gpsSvc, Logs: logs, Stream: r.stream}
	if r.tracks != nil {
		opts.Track = r.tracks
	}
	return opts
}

func (r *runtime) Close() {
	if r == nil {
		return
	}
	// Stop the reader first so no handler touches a closed sink.
	if r.gpsSvc != nil {
		r.gpsSvc.Close()
	}
	r.wg.Wait()
	if r.pub != nil {
		r.pub.Close()
		r.pub = nil
	}
	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			log.Printf("record close failed: %v", err)
		}
		r.recorder = nil
	}
	if r.fwd != nil {
		_ = r.fwd.Close()
		r.fwd = nil
	}
	if r.tracks != nil {
		_ = r.tracks.Close()
		r.tracks = nil
	}
}
