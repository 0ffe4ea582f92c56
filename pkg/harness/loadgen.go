package harness

import (
	"fmt"
	"math"
	"time"

	"github.com/dbpulse/dbpulse/internal/logging"
	"github.com/dbpulse/dbpulse/pkg/workqueue"
	uuid "github.com/satori/go.uuid"
)

// PatternKind identifies one of the closed set of pacing patterns.
type PatternKind string

const (
	PatternConstant PatternKind = "constant"
	PatternBurst    PatternKind = "burst"
	PatternRamp     PatternKind = "ramp"
	PatternSine     PatternKind = "sine"
)

// minSineRPS floors the sine pattern's rate to avoid a non-positive or
// infinite inter-request delay.
const minSineRPS = 1.0

// Pattern describes how the load generator paces its sends. Use one of the
// constructors; the kind determines which fields are meaningful.
type Pattern struct {
	Kind PatternKind

	RPS       float64       // constant, burst: the fixed send rate
	StartRPS  float64       // ramp: the rate at elapsed = 0
	EndRPS    float64       // ramp: the rate at elapsed = Duration
	BaseRPS   float64       // sine: the midline rate
	Amplitude float64       // sine: the peak deviation from the midline
	Duration  time.Duration // burst, ramp: the elapsed-time cutoff
	Period    time.Duration // sine: the oscillation period
}

// ConstantPattern sends at a fixed rate until the total request count is
// reached.
func ConstantPattern(rps float64) Pattern {
	return Pattern{Kind: PatternConstant, RPS: rps}
}

// BurstPattern sends at a fixed rate, stopping at whichever comes first: the
// total request count or the given duration.
func BurstPattern(rps float64, duration time.Duration) Pattern {
	return Pattern{Kind: PatternBurst, RPS: rps, Duration: duration}
}

// RampPattern linearly interpolates the rate from startRPS to endRPS over
// the given duration, stopping early once the duration has elapsed.
func RampPattern(startRPS, endRPS float64, duration time.Duration) Pattern {
	return Pattern{Kind: PatternRamp, StartRPS: startRPS, EndRPS: endRPS, Duration: duration}
}

// SinePattern oscillates the rate around baseRPS with the given amplitude
// and period, floored at 1 request/sec, until the total request count is
// reached.
func SinePattern(baseRPS, amplitude float64, period time.Duration) Pattern {
	return Pattern{Kind: PatternSine, BaseRPS: baseRPS, Amplitude: amplitude, Period: period}
}

func (p Pattern) Validate() error {
	switch p.Kind {
	case PatternConstant:
		if p.RPS <= 0 {
			return fmt.Errorf("Expected constant pattern rate to be > 0, but was %f", p.RPS)
		}
	case PatternBurst:
		if p.RPS <= 0 {
			return fmt.Errorf("Expected burst pattern rate to be > 0, but was %f", p.RPS)
		}
		if p.Duration <= 0 {
			return fmt.Errorf("Expected burst pattern duration to be > 0, but was %s", p.Duration)
		}
	case PatternRamp:
		if p.StartRPS <= 0 || p.EndRPS <= 0 {
			return fmt.Errorf("Expected ramp pattern rates to be > 0, but got %f -> %f", p.StartRPS, p.EndRPS)
		}
		if p.Duration <= 0 {
			return fmt.Errorf("Expected ramp pattern duration to be > 0, but was %s", p.Duration)
		}
	case PatternSine:
		if p.BaseRPS <= 0 {
			return fmt.Errorf("Expected sine pattern base rate to be > 0, but was %f", p.BaseRPS)
		}
		if p.Period <= 0 {
			return fmt.Errorf("Expected sine pattern period to be > 0, but was %s", p.Period)
		}
	default:
		return fmt.Errorf("Unrecognized load pattern: %s", p.Kind)
	}
	return nil
}

func (p Pattern) String() string {
	switch p.Kind {
	case PatternConstant:
		return fmt.Sprintf("Constant{rps=%.1f}", p.RPS)
	case PatternBurst:
		return fmt.Sprintf("Burst{rps=%.1f, duration=%s}", p.RPS, p.Duration)
	case PatternRamp:
		return fmt.Sprintf("Ramp{start=%.1f, end=%.1f, duration=%s}", p.StartRPS, p.EndRPS, p.Duration)
	case PatternSine:
		return fmt.Sprintf("Sine{base=%.1f, amplitude=%.1f, period=%s}", p.BaseRPS, p.Amplitude, p.Period)
	default:
		return fmt.Sprintf("Unknown{%s}", p.Kind)
	}
}

// rate returns the target instantaneous send rate for the given elapsed
// time since generation started.
func (p Pattern) rate(elapsed time.Duration) float64 {
	switch p.Kind {
	case PatternConstant, PatternBurst:
		return p.RPS
	case PatternRamp:
		progress := elapsed.Seconds() / p.Duration.Seconds()
		if progress > 1.0 {
			progress = 1.0
		}
		return p.StartRPS + (p.EndRPS-p.StartRPS)*progress
	case PatternSine:
		phase := (elapsed.Seconds() / p.Period.Seconds()) * 2.0 * math.Pi
		rate := p.BaseRPS + p.Amplitude*math.Sin(phase)
		if rate < minSineRPS {
			rate = minSineRPS
		}
		return rate
	default:
		return minSineRPS
	}
}

// interval converts the instantaneous rate into the delay before the next
// send.
func (p Pattern) interval(elapsed time.Duration) time.Duration {
	return time.Duration(float64(time.Second) / p.rate(elapsed))
}

// RequestFactory builds the request for the given zero-based sequence
// index.
type RequestFactory func(seq uint64) WorkRequest

// SequentialRequestFactory produces requests with ids of the form
// "<prefix>-<seq>".
func SequentialRequestFactory(prefix string) RequestFactory {
	return func(seq uint64) WorkRequest {
		return WorkRequest{ID: fmt.Sprintf("%s-%d", prefix, seq)}
	}
}

// UUIDRequestFactory produces requests with random UUID ids.
func UUIDRequestFactory() RequestFactory {
	return func(seq uint64) WorkRequest {
		return WorkRequest{ID: uuid.NewV4().String()}
	}
}

// LoadGenerator synthesizes requests and enqueues them into the work queue
// at the cadence dictated by its pattern. It never waits on reply channels;
// in the harness's default use requests are fire-and-forget.
type LoadGenerator struct {
	pattern       Pattern
	totalRequests uint64
	queue         *workqueue.Queue[WorkItem]
	logger        logging.Logger
}

func NewLoadGenerator(pattern Pattern, totalRequests uint64, queue *workqueue.Queue[WorkItem]) *LoadGenerator {
	return &LoadGenerator{
		pattern:       pattern,
		totalRequests: totalRequests,
		queue:         queue,
		logger:        logging.NewLogrusLogger("loadgen"),
	}
}

// Generate runs the generation loop on the calling goroutine and returns the
// wall-clock duration of the run. Pacing is a best-effort sleep between
// sends computed from the current instantaneous rate; no attempt is made to
// compensate for cumulative drift. A send that fails because the queue has
// been closed terminates generation cooperatively.
func (g *LoadGenerator) Generate(factory RequestFactory) time.Duration {
	g.logger.Info("Starting load generation", "pattern", g.pattern.String(), "totalRequests", g.totalRequests)
	start := time.Now()

	var sent uint64
	for sent < g.totalRequests {
		elapsed := time.Since(start)
		if g.pattern.Kind == PatternBurst && elapsed >= g.pattern.Duration {
			break
		}

		item, _ := NewWorkItem(factory(sent))
		if err := g.queue.Send(item); err != nil {
			g.logger.Info("Work queue closed, stopping load generation", "sent", sent)
			break
		}
		sent++

		time.Sleep(g.pattern.interval(elapsed))

		if g.pattern.Kind == PatternRamp && time.Since(start) >= g.pattern.Duration {
			break
		}
	}

	took := time.Since(start)
	g.logger.Info("Load generation complete", "sent", sent, "took", took)
	return took
}

// SpawnLoadGenerator runs Generate on a dedicated goroutine, delivering the
// generation duration on the returned channel when done.
func SpawnLoadGenerator(pattern Pattern, totalRequests uint64, queue *workqueue.Queue[WorkItem], factory RequestFactory) <-chan time.Duration {
	donec := make(chan time.Duration, 1)
	go func() {
		generator := NewLoadGenerator(pattern, totalRequests, queue)
		donec <- generator.Generate(factory)
	}()
	return donec
}
