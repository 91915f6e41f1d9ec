package services

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"codecalm/internal/bridge"
	"codecalm/internal/gate"
	"codecalm/internal/telemetry"
)

const defaultSampleInterval = 5 * time.Second

// Sampler drives the periodic detection cycle: every tick it extracts the
// feature vector and hands it to the bridge, and it forwards predictions
// coming back from the worker to the intervention gate.
type Sampler struct {
	log     *zap.Logger
	monitor *telemetry.Monitor
	bridge  *bridge.Bridge
	gate    *gate.Gate

	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewSampler(log *zap.Logger, monitor *telemetry.Monitor, br *bridge.Bridge, g *gate.Gate, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = defaultSampleInterval
	}
	return &Sampler{
		log:      log.Named("sampler"),
		monitor:  monitor,
		bridge:   br,
		gate:     g,
		interval: interval,
	}
}

// Start launches the sampling loop. Starting twice is a no-op.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.stop)
	s.log.Info("Sampler started", zap.Duration("interval", s.interval))
}

// Stop halts the loop and waits for it to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Sampler stopped")
}

func (s *Sampler) run(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sample()
		case pred := <-s.bridge.Predictions():
			if iv, ok := s.gate.Deliver(pred); ok {
				s.log.Debug("prediction surfaced", zap.String("id", iv.ID))
			}
		}
	}
}

func (s *Sampler) sample() {
	if !s.monitor.IsMonitoring() {
		return
	}
	features := s.monitor.ExtractFeatures()
	if !s.bridge.SendFeatures(features) {
		s.log.Debug("detector unavailable for sample")
	}
}
