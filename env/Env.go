// Package env implements the composition and lifecycle engine of the
// environment. An Env owns one world, an ordered set of robots with
// their sensors and goals, and the physics engine handle. It composes
// the observation and action spaces from whatever plugins it is given,
// runs the bounded episode initialization protocol, and drives the
// per-step pipeline, aggregating the goals' verdicts into a single
// environment-level termination signal.
package env

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/modrl/modrl/envlog"
	"github.com/modrl/modrl/goal"
	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/sensor"
	"github.com/modrl/modrl/spaces"
	"github.com/modrl/modrl/stats"
	"github.com/modrl/modrl/timestep"
	"github.com/modrl/modrl/utils/ringbuf"
	"github.com/modrl/modrl/world"
)

// Initialization attempts before reset gives up
const maxInitAttempts = 1000

// Defaults applied when the corresponding Config field is zero
const (
	DefaultMaxStepsPerEpisode = 1024
	DefaultStatBufferSize     = 25
	DefaultSimStep            = 1.0 / 240.0
)

// ErrInitExhausted is returned by Reset when no collision-free
// starting configuration could be generated within the attempt bound.
// It indicates broken world generation, not a transient condition.
var ErrInitExhausted = errors.New("env: no collision-free starting " +
	"configuration found after 1000 attempts, check the world generation")

// ErrActionLength is returned by Step when the action vector does not
// match the composed action space
type ErrActionLength struct {
	Got, Want int
}

func (e ErrActionLength) Error() string {
	return fmt.Sprintf("env: action vector has length %v, action space "+
		"requires %v", e.Got, e.Want)
}

// Renderer captures visual frames of the simulation. Rendering is
// suspended during the reset retry loop since intermediate attempts
// have no semantic meaning.
type Renderer interface {
	Suspend()
	Resume()
	Capture(step int) error
}

// Recorder persists completed episode outcomes
type Recorder interface {
	RecordEpisode(ep stats.Episode) error
}

// Config holds the recognized environment options
type Config struct {
	NormalizeObservations bool
	NormalizeRewards      bool
	Display               bool
	DisplayExtra          bool
	Train                 bool

	// JointControl selects the action-space flavor per robot, in
	// registration order: joint control when true, inverse kinematics
	// otherwise
	JointControl []bool

	Logging int    // envlog.Off, Console, or File
	LogFile string // persisted log path, File mode only

	MaxStepsPerEpisode int
	StatBufferSize     int
	SimStep            float64
}

// Env is the environment. It is not safe for concurrent use: one call
// to Reset or Step runs to completion before the next is accepted, and
// the physics engine is owned exclusively by the Env.
type Env struct {
	cfg Config

	sim     *physics.Sim
	world   world.World
	robots  []robot.Robot
	sensors []sensor.Sensor
	goals   []goal.Goal

	observationSpace *spaces.Dict
	actionSpace      spaces.Box
	actionDims       []int

	active []bool

	goalMetrics []float64

	steps      int
	simTime    float64
	cpuTime    float64
	cpuEpoch   time.Time
	reward     float64
	cumulative float64
	last       timestep.TimeStep

	successStat   *ringbuf.Bool
	timeoutStat   *ringbuf.Bool
	oobStat       *ringbuf.Bool
	collisionStat *ringbuf.Bool

	logger     *envlog.Logger
	episodeLog []envlog.Record

	renderer Renderer
	recorder Recorder
}

// New composes an environment from its plugins. The robots are
// registered with the world in the given order, which fixes their ids,
// their action-vector slices, and the observation key order (sensors
// first, then goals). Configuration errors, including duplicate
// observation keys, are detected here.
func New(cfg Config, sim *physics.Sim, w world.World, robots []robot.Robot,
	sensors []sensor.Sensor, goals []goal.Goal) (*Env, error) {
	if len(cfg.JointControl) != len(robots) {
		return nil, fmt.Errorf("env: %v joint control flags for %v robots",
			len(cfg.JointControl), len(robots))
	}
	if cfg.MaxStepsPerEpisode == 0 {
		cfg.MaxStepsPerEpisode = DefaultMaxStepsPerEpisode
	}
	if cfg.StatBufferSize == 0 {
		cfg.StatBufferSize = DefaultStatBufferSize
	}
	if cfg.SimStep == 0 {
		cfg.SimStep = DefaultSimStep
	}

	logger, err := envlog.New(cfg.Logging, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	w.RegisterRobots(robots)

	var groups [][]spaces.Named
	for _, s := range sensors {
		if s.AddToObservationSpace() {
			groups = append(groups, s.ObservationSpaceElement())
		}
	}
	for _, g := range goals {
		if g.AddToObservationSpace() {
			groups = append(groups, g.ObservationSpaceElement())
		}
	}
	observationSpace, err := spaces.ComposeDict(groups...)
	if err != nil {
		return nil, err
	}

	actionDims := make([]int, len(robots))
	total := 0
	for i, r := range robots {
		ikDims, jointDims := r.ActionSpaceDims()
		if cfg.JointControl[i] {
			actionDims[i] = jointDims
		} else {
			actionDims[i] = ikDims
		}
		total += actionDims[i]
	}

	return &Env{
		cfg:              cfg,
		sim:              sim,
		world:            w,
		robots:           robots,
		sensors:          sensors,
		goals:            goals,
		observationSpace: observationSpace,
		actionSpace:      spaces.NewUniformBox(total, -1, 1),
		actionDims:       actionDims,
		active:           make([]bool, len(robots)),
		successStat:      ringbuf.NewBool(cfg.StatBufferSize),
		timeoutStat:      ringbuf.NewBool(cfg.StatBufferSize),
		oobStat:          ringbuf.NewBool(cfg.StatBufferSize),
		collisionStat:    ringbuf.NewBool(cfg.StatBufferSize),
		logger:           logger,
	}, nil
}

// SetRenderer attaches a frame renderer, used when Display is set
func (e *Env) SetRenderer(r Renderer) {
	e.renderer = r
}

// SetRecorder attaches a persistent episode outcome store
func (e *Env) SetRecorder(r Recorder) {
	e.recorder = r
}

// ObservationSpace returns the composed observation space
func (e *Env) ObservationSpace() *spaces.Dict {
	return e.observationSpace
}

// ActionSpace returns the composed flat action space
func (e *Env) ActionSpace() spaces.Box {
	return e.actionSpace
}

// SuccessRate returns the fraction of successes over the rolling
// episode window
func (e *Env) SuccessRate() float64 {
	return e.successStat.Rate()
}

// LastTimeStep returns the timestep produced by the most recent Reset
// or Step call
func (e *Env) LastTimeStep() timestep.TimeStep {
	return e.last
}

// CumulativeReward returns the reward accumulated so far this episode
func (e *Env) CumulativeReward() float64 {
	return e.cumulative
}

// GoalMetrics returns the per-goal metrics reported by the goals at
// the start of the current episode, in goal registration order
func (e *Env) GoalMetrics() []float64 {
	return e.goalMetrics
}

// Reset starts a new episode. It retries world generation until a
// collision-free starting configuration is found, bounded at 1000
// attempts; exhaustion returns ErrInitExhausted and leaves the
// environment ready for another Reset.
func (e *Env) Reset() (spaces.Sample, error) {
	if e.renderer != nil {
		e.renderer.Suspend()
	}

	e.steps = 0
	e.simTime = 0
	e.cpuTime = 0
	e.cpuEpoch = time.Now()
	e.reward = 0
	e.cumulative = 0
	e.episodeLog = e.episodeLog[:0]

	ok := false
	for attempt := 0; attempt < maxInitAttempts; attempt++ {
		e.sim.Reset()
		e.world.Reset()

		for _, r := range e.robots {
			r.Build()
		}

		starts := e.world.CreateEeStartingPoints()
		for i, start := range starts {
			if start.Position == nil {
				continue
			}
			if start.Angle == nil {
				e.robots[i].MoveToPosition(*start.Position)
			} else {
				e.robots[i].MoveToPositionAndOrientation(*start.Position,
					*start.Angle)
			}
		}

		e.world.CreatePositionTarget()
		e.world.CreateRotationTarget()
		e.world.Build()

		e.world.PerformCollisionCheck()
		if !e.world.InCollision() {
			ok = true
			break
		}
	}
	if !ok {
		if e.renderer != nil {
			e.renderer.Resume()
		}
		return nil, ErrInitExhausted
	}

	for i := range e.active {
		e.active[i] = true
	}
	for _, s := range e.sensors {
		s.Reset()
	}
	e.goalMetrics = e.goalMetrics[:0]
	for _, g := range e.goals {
		e.goalMetrics = append(e.goalMetrics,
			g.OnEnvReset(e.successStat.Rate()))
	}

	if e.cfg.DisplayExtra {
		e.world.BuildVisualAux()
		for _, g := range e.goals {
			g.BuildVisualAux()
		}
	}

	if e.renderer != nil {
		e.renderer.Resume()
	}

	obs := e.observation()
	e.last = timestep.New(timestep.First, 0, obs, 0)
	return obs, nil
}

// Step runs one tick of the environment. The action vector must match
// the composed action space exactly; a wrong length is a configuration
// error and no plugin is called.
func (e *Env) Step(action []float64) (spaces.Sample, float64, bool,
	envlog.Record, error) {
	if len(action) != e.actionSpace.Len() {
		return nil, 0, false, nil,
			ErrActionLength{Got: len(action), Want: e.actionSpace.Len()}
	}

	e.world.Update()
	e.sim.Advance()

	// Slice boundaries are fixed at composition time; inactive robots
	// keep their slice but are not driven
	costs := make([]float64, len(e.robots))
	offset := 0
	for i, r := range e.robots {
		slice := action[offset : offset+e.actionDims[i]]
		offset += e.actionDims[i]
		if e.active[i] {
			costs[i] = r.ProcessAction(slice)
		}
	}

	for _, s := range e.sensors {
		s.Update()
	}

	e.world.PerformCollisionCheck()

	rewards := make([]float64, 0, len(e.goals))
	anyDone, anyTimeout, anyOob := false, false, false
	allSuccess := true
	for _, g := range e.goals {
		sig := g.Reward(e.steps)
		rewards = append(rewards, sig.Reward)
		if sig.Success && !g.ContinueAfterSuccess() {
			e.active[g.Robot().ID()] = false
		}
		allSuccess = allSuccess && sig.Success
		anyDone = anyDone || sig.Done
		anyTimeout = anyTimeout || sig.Timeout
		anyOob = anyOob || sig.OutOfBounds
	}

	collision := e.world.InCollision()
	done := anyDone || collision

	if len(rewards) == 0 {
		e.reward = 0
	} else if e.cfg.NormalizeRewards {
		e.reward = stat.Mean(rewards, nil)
	} else {
		e.reward = floats.Sum(rewards)
	}
	e.cumulative += e.reward

	e.simTime += e.cfg.SimStep
	e.cpuTime = time.Since(e.cpuEpoch).Seconds()
	e.steps++

	if done {
		e.successStat.Push(allSuccess)
		e.timeoutStat.Push(anyTimeout)
		e.oobStat.Push(anyOob)
		e.collisionStat.Push(collision)
	}

	obs := e.observation()

	stepType := timestep.Mid
	if done {
		stepType = timestep.Last
	}
	e.last = timestep.New(stepType, e.reward, obs, e.steps)
	e.last.Success = allSuccess
	e.last.Timeout = anyTimeout
	e.last.OutOfBounds = anyOob
	e.last.Collision = collision

	var info envlog.Record
	if e.cfg.Logging != envlog.Off {
		info = e.buildInfo(allSuccess, costs)
		e.episodeLog = append(e.episodeLog, info)
		if done {
			if err := e.logger.EpisodeEnd(e.episodeLog); err != nil {
				return obs, e.reward, done, info, err
			}
		}
	}

	if done && e.recorder != nil {
		if err := e.recorder.RecordEpisode(e.episodeOutcome()); err != nil {
			return obs, e.reward, done, info, err
		}
	}

	if e.cfg.Display && e.renderer != nil {
		if err := e.renderer.Capture(e.steps); err != nil {
			return obs, e.reward, done, info, err
		}
	}

	return obs, e.reward, done, info, nil
}

// Close tears the environment down. After Close the environment must
// not be used.
func (e *Env) Close() {
	e.sim.Close()
}

// observation assembles the current observation from every opted-in
// sensor and goal, freshly read
func (e *Env) observation() spaces.Sample {
	obs := make(spaces.Sample)
	for _, s := range e.sensors {
		if s.AddToObservationSpace() {
			obs.Merge(s.Observation())
		}
	}
	for _, g := range e.goals {
		if g.AddToObservationSpace() {
			obs.Merge(g.Observation())
		}
	}
	return obs
}

// buildInfo assembles the per-step diagnostic record in its fixed
// field order
func (e *Env) buildInfo(isSuccess bool, costs []float64) envlog.Record {
	info := envlog.Record{
		{Key: "is_success", Value: isSuccess},
		{Key: "step", Value: e.steps},
		{Key: "success_rate", Value: e.successStat.Rate()},
		{Key: "out_of_bounds_rate", Value: e.oobStat.Rate()},
		{Key: "timeout_rate", Value: e.timeoutStat.Rate()},
		{Key: "collision_rate", Value: e.collisionStat.Rate()},
		{Key: "sim_time", Value: e.simTime},
		{Key: "cpu_time", Value: e.cpuTime},
	}
	for i, r := range e.robots {
		info = append(info, envlog.Field{
			Key:   fmt.Sprintf("action_cpu_time_%s", r.Name()),
			Value: costs[i],
		})
	}
	for _, s := range e.sensors {
		if s.AddToLogging() {
			info = append(info, s.DataForLogging()...)
		}
	}
	for _, g := range e.goals {
		if g.AddToLogging() {
			info = append(info, g.DataForLogging()...)
		}
	}
	return info
}

// episodeOutcome packages the just-completed episode for persistence
func (e *Env) episodeOutcome() stats.Episode {
	return stats.Episode{
		EndedAt:     time.Now(),
		Steps:       e.steps,
		Return:      e.cumulative,
		Success:     e.last.Success,
		Timeout:     e.last.Timeout,
		OutOfBounds: e.last.OutOfBounds,
		Collision:   e.last.Collision,
	}
}
