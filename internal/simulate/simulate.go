// Package simulate runs many attack resolutions with one weapon profile and
// summarises the outcome distribution.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// DefaultTrials is the trial count used when Config.Trials is zero.
const DefaultTrials = 10000

// histogramWidth is the widest bar String draws.
const histogramWidth = 50

// ErrInvalidConfig is wrapped by Config validation failures.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config describes one simulation.
type Config struct {
	Weapon         weapon.Instance
	Characteristic int
	Actions        []string
	TargetRange    int
	Trials         int
	// Seed selects deterministic dice when Seeded is set or Seed is non-zero.
	Seed   int64
	Seeded bool
	// Workers splits the trials; values below 1 mean one worker.
	Workers int
	// Catalog defaults to combat.DefaultCatalog.
	Catalog *combat.Catalog
	// Options are passed to every worker's resolver.
	Options []combat.Option
}

func (c Config) deterministic() bool { return c.Seeded || c.Seed != 0 }

func (c Config) request() combat.Request {
	return combat.Request{
		Weapon:              c.Weapon,
		CharacteristicValue: c.Characteristic,
		Actions:             c.Actions,
		TargetRange:         c.TargetRange,
	}
}

// Report aggregates the outcome of every trial.
type Report struct {
	Weapon    string
	Actions   []string
	RangeBand string
	Trials    int
	Successes int
	Hits      int
	Damage    int
	MinDamage int // over successful attacks
	MaxDamage int
	Histogram map[int]int // total damage of a successful attack -> count
	Elapsed   time.Duration
}

// HitRate is the fraction of attacks that hit.
func (r *Report) HitRate() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Trials)
}

// MeanDamage is the damage per attack, misses included.
func (r *Report) MeanDamage() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.Damage) / float64(r.Trials)
}

// MeanDamageOnHit is the damage per successful attack.
func (r *Report) MeanDamageOnHit() float64 {
	if r.Successes == 0 {
		return 0
	}
	return float64(r.Damage) / float64(r.Successes)
}

// MeanHits is the number of hits per successful attack.
func (r *Report) MeanHits() float64 {
	if r.Successes == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Successes)
}

func (r *Report) add(res combat.AttackResult) {
	r.Trials++
	if !res.Success {
		return
	}
	if r.Successes == 0 || res.TotalDamage < r.MinDamage {
		r.MinDamage = res.TotalDamage
	}
	r.MaxDamage = max(r.MaxDamage, res.TotalDamage)
	r.Successes++
	r.Hits += res.Hits
	r.Damage += res.TotalDamage
	r.Histogram[res.TotalDamage]++
}

func (r *Report) merge(o *Report) {
	if o.Successes > 0 {
		if r.Successes == 0 || o.MinDamage < r.MinDamage {
			r.MinDamage = o.MinDamage
		}
		r.MaxDamage = max(r.MaxDamage, o.MaxDamage)
	}
	r.Trials += o.Trials
	r.Successes += o.Successes
	r.Hits += o.Hits
	r.Damage += o.Damage
	for k, v := range o.Histogram {
		r.Histogram[k] += v
	}
}

// String renders the summary followed by a text histogram, e.g.
//
//	Laspistol [Standard Attack] at normal range, 10000 trials
//	hit rate 41.3%, 1.00 hits per hit
//	damage: mean 3.0, mean on hit 7.4, min 4, max 21
//	  4 | ######                  412
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", r.Weapon)
	if len(r.Actions) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(r.Actions, ", "))
	}
	if r.RangeBand != "" && r.RangeBand != combat.RangeNone.String() {
		fmt.Fprintf(&b, " at %s range", r.RangeBand)
	}
	fmt.Fprintf(&b, ", %d trials\n", r.Trials)
	fmt.Fprintf(&b, "hit rate %.1f%%, %.2f hits per hit\n", 100*r.HitRate(), r.MeanHits())
	fmt.Fprintf(&b, "damage: mean %.1f, mean on hit %.1f, min %d, max %d\n",
		r.MeanDamage(), r.MeanDamageOnHit(), r.MinDamage, r.MaxDamage)

	keys := make([]int, 0, len(r.Histogram))
	peak := 0
	for k, v := range r.Histogram {
		keys = append(keys, k)
		peak = max(peak, v)
	}
	sort.Ints(keys)
	for _, k := range keys {
		n := r.Histogram[k]
		bar := strings.Repeat("#", max(1, n*histogramWidth/peak))
		fmt.Fprintf(&b, "%4d | %-*s %d\n", k, histogramWidth, bar, n)
	}
	return b.String()
}

// Run resolves cfg.Trials attacks and reports the distribution. The request
// is validated once before any dice are drawn.
//
// Postcondition: on a nil error, report.Trials == cfg.Trials (or
// DefaultTrials). A cancelled ctx returns ctx.Err().
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (*Report, error) {
	start := time.Now()
	if cfg.Trials < 0 {
		return nil, fmt.Errorf("%w: trials %d", ErrInvalidConfig, cfg.Trials)
	}
	if cfg.Trials == 0 {
		cfg.Trials = DefaultTrials
	}
	if cfg.Catalog == nil {
		cfg.Catalog = combat.DefaultCatalog()
	}
	if cfg.Weapon.Craftsmanship == "" {
		cfg.Weapon.Craftsmanship = weapon.CraftsmanshipCommon
	}
	workers := min(max(cfg.Workers, 1), cfg.Trials)

	req := cfg.request()
	quiet := zap.NewNop()
	probe := combat.NewResolver(cfg.Catalog, dice.NewLoggedRoller(dice.NewCryptoSource(), quiet), quiet, cfg.Options...)
	actions, err := probe.Validate(req)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Weapon:    cfg.Weapon.Name,
		RangeBand: combat.ClassifyRange(cfg.TargetRange, cfg.Weapon.Range, cfg.Weapon.Class).String(),
		Histogram: make(map[int]int),
	}
	for _, a := range actions {
		report.Actions = append(report.Actions, a.Name)
	}

	logger.Info("simulation started",
		zap.String("weapon", cfg.Weapon.Name),
		zap.Int("trials", cfg.Trials),
		zap.Int("workers", workers),
		zap.Int64("seed", cfg.Seed),
		zap.Bool("seeded", cfg.deterministic()),
	)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := range workers {
		n := cfg.Trials / workers
		if i < cfg.Trials%workers {
			n++
		}
		src := dice.NewCryptoSource()
		if cfg.deterministic() {
			src = dice.NewSeededSource(cfg.Seed + int64(i))
		}
		resolver := combat.NewResolver(cfg.Catalog, dice.NewLoggedRoller(src, quiet), quiet, cfg.Options...)

		wg.Add(1)
		go func() {
			defer wg.Done()
			part, err := runWorker(ctx, resolver, req, n)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			report.merge(part)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	report.Elapsed = time.Since(start)
	logger.Info("simulation finished",
		zap.Int("trials", report.Trials),
		zap.Float64("hit_rate", report.HitRate()),
		zap.Float64("mean_damage", report.MeanDamage()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// ctxCheckEvery is how many trials a worker runs between ctx checks.
const ctxCheckEvery = 1024

func runWorker(ctx context.Context, resolver *combat.Resolver, req combat.Request, n int) (*Report, error) {
	part := &Report{Histogram: make(map[int]int)}
	for i := range n {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		actx, err := resolver.Resolve(req)
		if err != nil {
			return nil, err
		}
		part.add(actx.Result())
	}
	return part, nil
}
