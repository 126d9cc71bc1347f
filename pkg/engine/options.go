package engine

import "github.com/vam2p/prolog/pkg/traverse"

// Options configures an Engine at construction time: max_steps,
// trail_capacity, env_capacity, left_to_right_bodies. cmd/vam2p decodes these from an
// optional JSON file via mapstructure before calling New; Options
// itself stays a plain struct so pkg/engine never depends on a config
// decoding library, matching the teacher's NewXxx(explicit, args) style.
type Options struct {
	// MaxSteps bounds a single query's resolution steps (0 = unlimited),
	// threaded straight through to resolver.Machine.MaxSteps.
	MaxSteps int `mapstructure:"max_steps"`

	// TrailCapacity and EnvCapacity presize the Trail and the Bindings
	// arena a query's Machine allocates, avoiding reallocation for programs
	// whose working-set size is known ahead of time.
	TrailCapacity int `mapstructure:"trail_capacity"`
	EnvCapacity   int `mapstructure:"env_capacity"`

	// LeftToRightBodies selects traverse.Flags.LeftToRightClauseBodies; the
	// engine always traverses heads first and functor arguments
	// left-to-right, so this is the one ordering knob exposed here.
	LeftToRightBodies bool `mapstructure:"left_to_right_bodies"`
}

// DefaultOptions returns the engine's defaults: unlimited steps, modest
// preallocation, left-to-right body order.
func DefaultOptions() Options {
	return Options{
		MaxSteps:          0,
		TrailCapacity:     256,
		EnvCapacity:       64,
		LeftToRightBodies: true,
	}
}

func (o Options) traverseFlags() traverse.Flags {
	return traverse.Flags{
		ClauseHeadFirst:         true,
		LeftToRightClauseBodies: o.LeftToRightBodies,
		LeftToRightFunctorArgs:  true,
	}
}
