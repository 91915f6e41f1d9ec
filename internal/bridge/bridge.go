package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"codecalm/internal/models"
	"codecalm/internal/telemetry"
)

// Startup failures. All of them abort the current Start attempt; calling
// Start again retries from scratch.
var (
	ErrModelNotFound  = errors.New("model artifact not found")
	ErrWorkerNotFound = errors.New("worker executable not found")
	ErrConnectTimeout = errors.New("timed out connecting to worker socket")
	ErrInitFailed     = errors.New("worker rejected initialize")
)

// State is the bridge lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateConnected
	StateRunning
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateConnected:
		return "connected"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config carries the IPC tunables. Zero values fall back to the defaults
// the worker was written against.
type Config struct {
	SocketPath      string
	SettleDelay     time.Duration
	RetryInterval   time.Duration
	ConnectAttempts int
	ExchangeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.SettleDelay == 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = time.Second
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 30
	}
	if c.ExchangeTimeout == 0 {
		c.ExchangeTimeout = 10 * time.Second
	}
}

// Bridge owns the inference worker process and the duplex channel to it.
// Predictions that call for an intervention are published on a buffered
// channel; the sampler service consumes them and drives the gate.
type Bridge struct {
	log *zap.Logger
	cfg Config

	state atomic.Int32

	mu   sync.Mutex
	cmd  *exec.Cmd
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder

	predictions chan models.PredictionResult
	watcherDone chan struct{}

	// dial is swapped out in tests.
	dial func(path string) (net.Conn, error)
}

func New(cfg Config, log *zap.Logger) *Bridge {
	cfg.applyDefaults()
	return &Bridge{
		log:         log,
		cfg:         cfg,
		predictions: make(chan models.PredictionResult, 8),
		dial: func(path string) (net.Conn, error) {
			return net.Dial("unix", path)
		},
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

func (b *Bridge) setState(s State) {
	b.state.Store(int32(s))
}

// Predictions is the channel of intervention-worthy results.
func (b *Bridge) Predictions() <-chan models.PredictionResult {
	return b.predictions
}

// Start verifies the model and worker exist, spawns the worker, connects to
// its socket with bounded retry and runs the initialize handshake. Safe to
// retry after any failure.
func (b *Bridge) Start(workerPath, modelDir string) error {
	switch b.State() {
	case StateStopped, StateFailed:
	default:
		return nil
	}
	b.setState(StateStarting)

	if _, err := os.Stat(modelDir); err != nil {
		b.setState(StateFailed)
		return fmt.Errorf("%w: %s", ErrModelNotFound, modelDir)
	}
	if _, err := os.Stat(workerPath); err != nil {
		b.setState(StateFailed)
		return fmt.Errorf("%w: %s", ErrWorkerNotFound, workerPath)
	}

	// A stale socket from a previous run would accept the dial but never
	// answer; clear it before the worker rebinds.
	_ = os.Remove(b.cfg.SocketPath)

	cmd := exec.Command(workerPath, b.cfg.SocketPath, modelDir)
	if err := cmd.Start(); err != nil {
		b.setState(StateFailed)
		return fmt.Errorf("starting worker: %w", err)
	}

	b.log.Info("Inference worker started",
		zap.String("worker", workerPath),
		zap.Int("pid", cmd.Process.Pid))

	// Give the worker time to create its endpoint before hammering it.
	time.Sleep(b.cfg.SettleDelay)

	conn, err := b.connectWithRetry()
	if err != nil {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		b.setState(StateFailed)
		return err
	}

	b.mu.Lock()
	b.cmd = cmd
	b.conn = conn
	b.enc = json.NewEncoder(conn)
	b.dec = json.NewDecoder(conn)
	b.mu.Unlock()
	b.setState(StateConnected)

	if err := b.initialize(modelDir); err != nil {
		// The watcher is not running yet, so reap the child here or it
		// lingers as a zombie.
		b.closeConn()
		b.mu.Lock()
		b.cmd = nil
		b.mu.Unlock()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		b.setState(StateFailed)
		return err
	}

	b.setState(StateRunning)
	b.watcherDone = make(chan struct{})
	go b.watchWorker(cmd, b.watcherDone)

	b.log.Info("Inference bridge running", zap.String("socket", b.cfg.SocketPath))
	return nil
}

func (b *Bridge) connectWithRetry() (net.Conn, error) {
	for attempt := 0; attempt < b.cfg.ConnectAttempts; attempt++ {
		conn, err := b.dial(b.cfg.SocketPath)
		if err == nil {
			return conn, nil
		}
		time.Sleep(b.cfg.RetryInterval)
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrConnectTimeout, b.cfg.ConnectAttempts)
}

func (b *Bridge) initialize(modelDir string) error {
	resp, err := b.exchange(initializeRequest{Type: "initialize", ModelDir: modelDir})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	if resp.Status != statusOK {
		return fmt.Errorf("%w: %s", ErrInitFailed, resp.Message)
	}
	return nil
}

// exchange writes one request and reads one response, serializing callers so
// request/response pairs cannot interleave.
func (b *Bridge) exchange(req any) (*workerResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil, errors.New("not connected")
	}

	deadline := time.Now().Add(b.cfg.ExchangeTimeout)
	_ = b.conn.SetDeadline(deadline)

	// A failed exchange leaves the decoder mid-stream; a late frame would
	// otherwise be handed back as the answer to the next request. Drop the
	// connection so later callers fail fast instead.
	if err := b.enc.Encode(req); err != nil {
		b.closeConnLocked()
		return nil, fmt.Errorf("write: %w", err)
	}
	var resp workerResponse
	if err := b.dec.Decode(&resp); err != nil {
		b.closeConnLocked()
		return nil, fmt.Errorf("read: %w", err)
	}
	return &resp, nil
}

// SendFeatures submits one feature vector and reports whether the worker
// called for an intervention. Transport failures and malformed responses are
// logged and degrade to "no intervention this cycle"; they never propagate
// and the bridge stays eligible for the next cycle.
func (b *Bridge) SendFeatures(features telemetry.FeatureVector) bool {
	if b.State() != StateRunning {
		return false
	}

	resp, err := b.exchange(analyzeRequest{Type: "analyze", Features: features[:]})
	if err != nil {
		b.log.Warn("Analyze exchange failed, skipping cycle", zap.Error(err))
		return false
	}

	result := parsePrediction(resp)
	if resp.Status != statusOK || resp.Prediction == nil {
		b.log.Warn("Malformed analyze response, treating as no intervention",
			zap.String("status", resp.Status),
			zap.String("message", resp.Message))
	}

	if result.ShouldIntervene {
		select {
		case b.predictions <- result:
		default:
			b.log.Warn("Prediction channel full, dropping result")
		}
	}
	return result.ShouldIntervene
}

// parsePrediction maps a worker response onto a PredictionResult, treating
// any schema violation as a low-confidence non-event.
func parsePrediction(resp *workerResponse) models.PredictionResult {
	result := models.PredictionResult{
		Level:     models.LevelLow,
		Timestamp: time.Now(),
	}
	if resp.Status != statusOK || resp.Prediction == nil {
		return result
	}

	level := models.ParseAnxietyLevel(resp.Prediction.Level)
	if level == models.LevelUnknown {
		return result
	}

	result.Level = level
	result.Confidence = resp.Prediction.Confidence
	result.TriggeredFeatures = resp.Prediction.TriggeredFeatures
	result.ShouldIntervene = resp.ShouldIntervene
	return result
}

// watchWorker waits on the child and flags an unexpected exit. During an
// orderly Stop the state has already left Running and nothing happens here.
func (b *Bridge) watchWorker(cmd *exec.Cmd, done chan struct{}) {
	defer close(done)
	err := cmd.Wait()

	if State(b.state.Load()) != StateRunning {
		return
	}
	b.setState(StateFailed)
	b.log.Warn("Inference worker exited unexpectedly", zap.Error(err))
	b.closeConn()
}

// Stop sends a best-effort shutdown, closes the channel and terminates the
// worker. Safe to call at any time, including mid-connect.
func (b *Bridge) Stop() {
	switch b.State() {
	case StateStopped, StateStopping:
		return
	}
	b.setState(StateStopping)

	b.mu.Lock()
	if b.enc != nil && b.conn != nil {
		_ = b.conn.SetDeadline(time.Now().Add(time.Second))
		_ = b.enc.Encode(shutdownRequest{Type: "shutdown"})
	}
	b.mu.Unlock()

	b.teardown()

	if b.watcherDone != nil {
		select {
		case <-b.watcherDone:
		case <-time.After(2 * time.Second):
			b.log.Warn("Timeout waiting for worker watcher to exit")
		}
		b.watcherDone = nil
	}

	b.setState(StateStopped)
	b.log.Info("Inference bridge stopped")
}

func (b *Bridge) closeConn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeConnLocked()
}

func (b *Bridge) closeConnLocked() {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
		b.enc = nil
		b.dec = nil
	}
}

func (b *Bridge) teardown() {
	b.closeConn()

	b.mu.Lock()
	cmd := b.cmd
	b.cmd = nil
	b.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
