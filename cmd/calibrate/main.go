package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/BTBurke/accrual"
	"github.com/BTBurke/accrual/pkg/clock"
	"github.com/BTBurke/accrual/pkg/metric"
	"github.com/BTBurke/accrual/pkg/rng"
	"github.com/go-logfmt/logfmt"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	NumProcs int           = 4
	Step     time.Duration = 10 * time.Millisecond
)

type params struct {
	loops       int
	heartbeats  int
	mean        time.Duration
	stdev       time.Duration
	lognormal   bool
	loss        float64
	pause       time.Duration
	minStd      time.Duration
	sampleSize  int
	seed        int64
	onlyLatency bool
}

type result struct {
	threshold float64
	errorRate float64
	latency   time.Duration
}

// simClock is moved explicitly by the simulation
type simClock struct {
	*clock.Fake
	now time.Duration
}

func (c *simClock) Timestamp() time.Duration {
	return c.now
}

type results struct {
	mu  sync.Mutex
	val []result
}

func (r *results) record(res result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.val = append(r.val, res)
}

func main() {
	pf := pflag.NewFlagSet("calibrate", pflag.ExitOnError)
	from := pf.Float64("from", 1.0, "First threshold to simulate")
	to := pf.Float64("to", 12.0, "Last threshold to simulate")
	by := pf.Float64("by", 1.0, "Threshold increment")
	out := pf.StringP("output", "o", "", "Also write results to this file")
	p := params{}
	pf.IntVar(&p.loops, "loops", 1000, "Simulated heartbeat streams per threshold")
	pf.IntVar(&p.heartbeats, "heartbeats", 1000, "Heartbeats per stream")
	pf.DurationVar(&p.mean, "mean", time.Second, "Mean heartbeat interval")
	pf.DurationVar(&p.stdev, "stdev", 100*time.Millisecond, "Standard deviation of the heartbeat interval")
	pf.BoolVar(&p.lognormal, "lognormal", false, "Draw intervals from a log normal instead of a normal distribution")
	pf.Float64Var(&p.loss, "loss", 0, "Mean number of heartbeats lost in a row after each heartbeat (Poisson)")
	pf.DurationVar(&p.pause, "acceptable-heartbeat-pause", 0, "Acceptable heartbeat pause of the detector")
	pf.DurationVar(&p.minStd, "min-std-deviation", 100*time.Millisecond, "Minimum standard deviation of the detector")
	pf.IntVar(&p.sampleSize, "max-sample-size", 1000, "Max sample size of the detector")
	pf.Int64Var(&p.seed, "seed", 0, "Random seed, 0 uses the current time")
	pf.Parse(os.Args[1:])

	if *by <= 0 || *from > *to {
		log.Fatalf("invalid threshold range %v..%v by %v", *from, *to, *by)
	}
	if p.loops < 1 || p.heartbeats < 2 {
		log.Fatalf("need at least one loop of two heartbeats, got loops=%d heartbeats=%d", p.loops, p.heartbeats)
	}

	res := &results{}
	start := time.Now()
	g := new(errgroup.Group)
	g.SetLimit(NumProcs)
	for k, i := *from, int64(0); k <= *to+1e-9; k, i = k+*by, i+1 {
		k, seed := k, p.seed
		if seed != 0 {
			seed += i
		}
		log.Printf("start threshold=%1.2f\n", k)
		g.Go(func() error {
			r, err := errorRate(k, p, seed)
			if err != nil {
				return err
			}
			res.record(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
	log.Printf("Time Elapsed: %v\n", time.Since(start))

	sort.Slice(res.val, func(i, j int) bool { return res.val[i].threshold < res.val[j].threshold })
	var b bytes.Buffer
	enc := logfmt.NewEncoder(&b)
	for _, r := range res.val {
		enc.EncodeKeyvals("threshold", r.threshold, "false_positive_rate", r.errorRate, "detection_latency", r.latency)
		enc.EndRecord()
	}
	os.Stdout.Write(b.Bytes())
	if len(*out) > 0 {
		if err := os.WriteFile(*out, b.Bytes(), 0644); err != nil {
			log.Fatalf("could not write results: %v", err)
		}
	}
}

func intervalRNG(p params, seed int64) rng.RNG {
	if p.lognormal {
		mu, sigma := rng.LogNormalFor(float64(p.mean.Milliseconds()), float64(p.stdev.Milliseconds()))
		return rng.NewLogNormalRNG(mu, sigma, seed)
	}
	return rng.NewNormalRNG(float64(p.mean.Milliseconds()), float64(p.stdev.Milliseconds()), seed)
}

// lossSeed derives the seed of the loss generator from the interval seed.  Zero stays zero so
// both generators are seeded from the current time.
func lossSeed(seed int64) int64 {
	if seed == 0 {
		return 0
	}
	return seed + 1
}

// errorRate simulates heartbeat streams and returns the fraction of streams in which the
// detector suspected the resource at least once, and the mean time to detect the resource
// after the heartbeats stop
func errorRate(threshold float64, p params, seed int64) (result, error) {
	intervals := intervalRNG(p, seed)
	var loss rng.RNG
	if p.loss > 0 {
		loss = rng.NewPoissonRNG(p.loss, lossSeed(seed))
	}

	errors := metric.NewCounter()
	var latency time.Duration
	for i := 0; i < p.loops; i++ {
		clk := &simClock{Fake: clock.NewFakeDurations()}
		d, errs := accrual.NewWithClock[time.Duration](clk,
			accrual.Threshold(threshold),
			accrual.MaxSampleSize(p.sampleSize),
			accrual.MinStdDeviation(p.minStd),
			accrual.AcceptableHeartbeatPause(p.pause),
			accrual.FirstHeartbeatEstimate(p.mean),
		)
		if len(errs) > 0 {
			return result{}, fmt.Errorf("unexpected error constructing detector: %v", errs)
		}

		// each check happens one millisecond before the next heartbeat, where phi is highest
		suspected := false
		d.Heartbeat()
		for j := 1; j < p.heartbeats; j++ {
			gap := rng.Interval(intervals, 2*time.Millisecond)
			if loss != nil {
				for lost := int(loss.Rand()); lost > 0; lost-- {
					gap += rng.Interval(intervals, 2*time.Millisecond)
				}
			}
			clk.now += gap - time.Millisecond
			if !d.IsAvailable() {
				suspected = true
			}
			clk.now += time.Millisecond
			d.Heartbeat()
		}
		if suspected {
			errors.Add(1)
		}

		stopped := clk.now
		for d.IsAvailable() {
			clk.now += Step
			if clk.now-stopped > time.Hour {
				return result{}, fmt.Errorf("resource never detected at threshold %v", threshold)
			}
		}
		latency += clk.now - stopped
	}

	type1error := float64(errors.Value()) / float64(p.loops)
	fmt.Printf("Result: threshold=%1.2f p=%1.5f errs=%d\n", threshold, type1error, errors.Value())
	return result{
		threshold: threshold,
		errorRate: type1error,
		latency:   latency / time.Duration(p.loops),
	}, nil
}
