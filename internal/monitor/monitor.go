// Package monitor periodically evaluates a fixed list of cities using live
// weather and keeps the latest outcome per city.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
	"github.com/go-co-op/gocron"
)

// CityAssessor evaluates the current conditions in a city.
type CityAssessor interface {
	AssessCity(ctx context.Context, city string, g domain.ConductorGeometry) (domain.Evaluation, error)
}

// Result is the latest outcome for one monitored city. Exactly one of
// Evaluation and Error is set.
type Result struct {
	City       string             `json:"city"`
	Evaluation *domain.Evaluation `json:"evaluation,omitempty"`
	Error      string             `json:"error,omitempty"`
	CheckedAt  time.Time          `json:"checked_at"`
}

// Monitor runs a sweep over its cities on a fixed interval.
type Monitor struct {
	scheduler *gocron.Scheduler
	engine    CityAssessor
	cities    []string
	geometry  domain.ConductorGeometry
	interval  time.Duration
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu     sync.RWMutex
	latest map[string]Result
}

// New creates a Monitor. It does nothing until Start is called.
func New(engine CityAssessor, cities []string, g domain.ConductorGeometry, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Monitor {
	return &Monitor{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    engine,
		cities:    cities,
		geometry:  g,
		interval:  interval,
		timeout:   30 * time.Second,
		metrics:   metrics,
		logger:    logger,
		latest:    make(map[string]Result, len(cities)),
	}
}

// Start schedules the sweep, runs it once immediately and returns.
func (m *Monitor) Start() error {
	if len(m.cities) == 0 {
		m.logger.Info("monitor: no cities configured; nothing to schedule")
		return nil
	}

	_, err := m.scheduler.Every(m.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	m.logger.Info("monitor started", "cities", len(m.cities), "interval", m.interval)
	m.scheduler.StartAsync()
	return nil
}

// Stop cancels future sweeps.
func (m *Monitor) Stop() {
	m.scheduler.Stop()
}

// Sweep evaluates every city once. A city whose weather fetch fails is
// skipped for this sweep and its previous evaluation is dropped.
func (m *Monitor) Sweep(ctx context.Context) {
	m.logger.Debug("monitor sweep starting", "cities", len(m.cities))

	var wg sync.WaitGroup
	for _, city := range m.cities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.record(m.assess(ctx, city))
		}()
	}
	wg.Wait()

	m.metrics.MonitorRuns.Inc()
	m.logger.Debug("monitor sweep completed")
}

func (m *Monitor) assess(ctx context.Context, city string) Result {
	ev, err := m.engine.AssessCity(ctx, city, m.geometry)
	res := Result{City: city, CheckedAt: time.Now().UTC()}
	if err != nil {
		m.metrics.RecordFailure(observability.SourceMonitor, err)
		m.logger.Warn("monitor: evaluation skipped", "city", city, "error", err)
		res.Error = err.Error()
		return res
	}

	m.metrics.RecordEvaluation(observability.SourceMonitor, ev)
	m.logger.Info("monitor: city evaluated",
		"city", city,
		"combined_risk", string(ev.Assessment.CombinedRisk),
		"ice_mm", ev.Ice.ThicknessMM,
		"bounce_m", ev.Assessment.BounceAmplitudeM,
		"classifier_unavailable", ev.Assessment.ClassifierUnavailable,
	)
	res.Evaluation = &ev
	res.CheckedAt = ev.AssessedAt
	return res
}

func (m *Monitor) record(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[res.City] = res
}

// Latest returns the most recent outcome per city, ordered by city name.
func (m *Monitor) Latest() []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Result, 0, len(m.latest))
	for _, r := range m.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}
