package planner

import (
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Extension is one entry of the extension schedule: take Repeat extension
// steps of length Step before moving on to the next entry.
type Extension struct {
	Step   float64 `json:"step" yaml:"step"`
	Repeat int     `json:"repeat" yaml:"repeat"`
}

// Defaults, taken from the reference run configuration.
const (
	DefaultMaxSamples      = 1024
	DefaultResolution      = 1.0
	DefaultGoalProbability = 0.15
)

// DefaultSchedule extends by 8 units, 4 times per cycle.
func DefaultSchedule() []Extension {
	return []Extension{{Step: 8, Repeat: 4}}
}

type options struct {
	schedule        []Extension
	maxSamples      int
	resolution      float64
	goalProbability float64
	rng             *rand.Rand
	logger          *zap.SugaredLogger
}

func defaultOptions() options {
	return options{
		schedule:        DefaultSchedule(),
		maxSamples:      DefaultMaxSamples,
		resolution:      DefaultResolution,
		goalProbability: DefaultGoalProbability,
		logger:          zap.NewNop().Sugar(),
	}
}

// Option configures a Planner.
type Option func(*options)

// WithSchedule sets the extension schedule, consumed cyclically.
func WithSchedule(schedule []Extension) Option {
	return func(o *options) {
		o.schedule = append([]Extension(nil), schedule...)
	}
}

// WithMaxSamples sets the sample budget after which the run is forced to end.
func WithMaxSamples(n int) Option {
	return func(o *options) {
		o.maxSamples = n
	}
}

// WithResolution sets the collision-check granularity.
func WithResolution(r float64) Option {
	return func(o *options) {
		o.resolution = r
	}
}

// WithGoalProbability sets the chance of a goal connection attempt per accepted extension.
func WithGoalProbability(p float64) Option {
	return func(o *options) {
		o.goalProbability = p
	}
}

// WithRand sets the random source for goal checks. Share it with the space
// to make a whole run reproducible from one seed.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func (o options) validate() error {
	var err error
	if len(o.schedule) == 0 {
		err = multierr.Append(err, errors.New("extension schedule is empty"))
	}
	for i, ext := range o.schedule {
		if ext.Step <= 0 || ext.Repeat <= 0 {
			err = multierr.Append(err, errors.Errorf("schedule entry %d needs positive step and repeat, got (%v, %d)",
				i, ext.Step, ext.Repeat))
		}
	}
	if o.maxSamples <= 0 {
		err = multierr.Append(err, errors.Errorf("max samples must be positive, got %d", o.maxSamples))
	}
	if o.resolution <= 0 {
		err = multierr.Append(err, errors.Errorf("resolution must be positive, got %v", o.resolution))
	}
	if o.goalProbability < 0 || o.goalProbability > 1 {
		err = multierr.Append(err, errors.Errorf("goal probability must be in [0, 1], got %v", o.goalProbability))
	}
	if err != nil {
		return errors.Wrap(ErrInvalidOptions, err.Error())
	}
	return nil
}
