package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DriverCollector bundles Prometheus metrics for the simulation driver.
// All observer methods tolerate a nil receiver so the driver can run
// without metrics wired.
type DriverCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal    *prometheus.CounterVec
	SolveDuration *prometheus.HistogramVec
	CurrentStep   prometheus.Gauge
}

// NewDriverCollector registers driver metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registration reuses the existing collectors, so repeated simulation
// runs in one process share the same metric families.
func NewDriverCollector(reg prometheus.Registerer) (*DriverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powersim_driver_ticks_total",
		Help: "Total driver ticks executed, labeled by problem and solve status.",
	}, []string{"problem", "status"})
	ticks, err := registerCounterVec(reg, ticks, "powersim_driver_ticks_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "powersim_driver_solve_duration_seconds",
		Help:    "Wall-clock duration of single-problem solves.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"problem"})
	durations, err = registerHistogramVec(reg, durations, "powersim_driver_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	step := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powersim_driver_current_step",
		Help: "Most recently completed top-level simulation step.",
	})
	step, err = registerGauge(reg, step, "powersim_driver_current_step")
	if err != nil {
		return nil, err
	}

	return &DriverCollector{
		gatherer:      gatherer,
		TicksTotal:    ticks,
		SolveDuration: durations,
		CurrentStep:   step,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *DriverCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *DriverCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncTick counts one executed tick.
func (c *DriverCollector) IncTick(problem, status string) {
	if c == nil || c.TicksTotal == nil {
		return
	}
	c.TicksTotal.WithLabelValues(problem, status).Inc()
}

// ObserveSolve records one solve duration.
func (c *DriverCollector) ObserveSolve(problem string, d time.Duration) {
	if c == nil || c.SolveDuration == nil {
		return
	}
	c.SolveDuration.WithLabelValues(problem).Observe(d.Seconds())
}

// SetCurrentStep updates the completed-step gauge.
func (c *DriverCollector) SetCurrentStep(step int) {
	if c == nil || c.CurrentStep == nil {
		return
	}
	c.CurrentStep.Set(float64(step))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
