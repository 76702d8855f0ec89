package ant

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"antfarm/internal/domain"
)

// Event is one model call, successful or not.
type Event struct {
	Operation    string
	Model        domain.ModelID
	Latency      time.Duration
	InputTokens  int
	OutputTokens int
	EstimatedUSD float64
	Attempt      int
	MaxAttempts  int
	Success      bool
	ErrorClass   string
}

// TickSummary aggregates one tick's model calls.
type TickSummary struct {
	AntID        string
	Requests     int
	Successes    int
	Failures     int
	EstimatedUSD float64
	Events       []Event
}

// TickCollector gathers events for a single tick. It is carried in the tick's
// context, so concurrent ticks never share state and nothing survives the
// tick that created it.
type TickCollector struct {
	antID string

	mu     sync.Mutex
	events []Event
}

type tickCollectorKey struct{}

// WithTick returns a context carrying a fresh collector for antID.
func WithTick(ctx context.Context, antID string) (context.Context, *TickCollector) {
	c := &TickCollector{antID: antID}
	return context.WithValue(ctx, tickCollectorKey{}, c), c
}

// TickFromContext returns the tick's collector, or nil when the context does
// not carry one. All collector methods are nil-safe, so callers record
// unconditionally.
func TickFromContext(ctx context.Context) *TickCollector {
	c, _ := ctx.Value(tickCollectorKey{}).(*TickCollector)
	return c
}

// Record adds one event and updates the process-wide counters.
func (c *TickCollector) Record(e Event) {
	outcome := "success"
	if !e.Success {
		outcome = "failure"
	}
	modelCallsTotal.WithLabelValues(string(e.Model), e.Operation, outcome).Inc()
	if e.EstimatedUSD > 0 {
		estimatedSpendUSD.Add(e.EstimatedUSD)
	}

	if c == nil {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Summary snapshots the tick so far.
func (c *TickCollector) Summary() TickSummary {
	if c == nil {
		return TickSummary{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := TickSummary{AntID: c.antID, Events: append([]Event(nil), c.events...)}
	for _, e := range c.events {
		s.Requests++
		if e.Success {
			s.Successes++
		} else {
			s.Failures++
		}
		s.EstimatedUSD += e.EstimatedUSD
	}
	return s
}

// ModelPrice is USD per 1M tokens.
type ModelPrice struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// PriceTable maps model ids to prices. Unknown models cost zero rather than
// failing.
type PriceTable map[domain.ModelID]ModelPrice

// EstimateCost computes the USD cost of one call.
func (t PriceTable) EstimateCost(model domain.ModelID, inputTokens, outputTokens int) float64 {
	p, ok := t[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*p.InputPerMillion/1e6 + float64(outputTokens)*p.OutputPerMillion/1e6
}

// Process-wide counters, in addition to the per-tick collector.
var (
	ticksStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "antfarm_ticks_started_total",
		Help: "Agent ticks started.",
	})
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antfarm_runs_total",
		Help: "Room-scoped runs by terminal status.",
	}, []string{"status"})
	modelCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antfarm_model_calls_total",
		Help: "Model call attempts by model, operation, and outcome.",
	}, []string{"model", "operation", "outcome"})
	poolRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "antfarm_worker_pool_rejections_total",
		Help: "Tick submissions dropped because the worker queue was full.",
	})
	estimatedSpendUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "antfarm_estimated_spend_usd_total",
		Help: "Estimated model spend in USD from the price table.",
	})
)
