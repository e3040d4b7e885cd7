// Package envconfig builds environments from a declarative YAML
// description: one file names the world, the robots with their sensors
// and goals, and the environment options, and Create wires the whole
// thing together. Unknown keys and unknown plugin names are
// configuration errors.
package envconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/spatial/r1"
	"gopkg.in/yaml.v3"

	"github.com/modrl/modrl/env"
	"github.com/modrl/modrl/goal"
	"github.com/modrl/modrl/physics"
	"github.com/modrl/modrl/robot"
	"github.com/modrl/modrl/sensor"
	"github.com/modrl/modrl/world"
	"github.com/modrl/modrl/world/noisefield"
	"github.com/modrl/modrl/world/obstacles"
)

// Plugin names recognized by Create
const (
	WorldRandomObstacles = "random_obstacles"
	WorldNoiseField      = "noise_field"

	RobotArm    = "arm"
	RobotGantry = "gantry"

	SensorJoints    = "joints"
	SensorPose      = "pose"
	SensorProximity = "proximity"

	GoalPosition         = "position"
	GoalPositionRotation = "position_rotation"
)

// Defaults for optional proximity sensor settings
const (
	defaultProximityRays      = 10
	defaultProximityRayLength = 0.3
)

// Interval is a closed numeric range
type Interval struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (i Interval) toR1() r1.Interval {
	return r1.Interval{Min: i.Min, Max: i.Max}
}

// WorkspaceConfig bounds the rectangular workspace
type WorkspaceConfig struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// WorldConfig selects and parameterizes the world plugin. Only the
// fields of the selected type are consulted.
type WorldConfig struct {
	Type string `yaml:"type"`
	Seed int64  `yaml:"seed"`

	// random_obstacles
	StaticObstacles  int      `yaml:"static_obstacles"`
	MovingObstacles  int      `yaml:"moving_obstacles"`
	BoxHalfExtent    Interval `yaml:"box_half_extent"`
	SphereRadius     Interval `yaml:"sphere_radius"`
	ObstacleVelocity Interval `yaml:"obstacle_velocity"`
	TrajectoryLength Interval `yaml:"trajectory_length"`

	// noise_field
	CellSize     float64  `yaml:"cell_size"`
	Threshold    float64  `yaml:"threshold"`
	PillarRadius Interval `yaml:"pillar_radius"`
}

// SensorConfig selects and parameterizes one sensor of a robot
type SensorConfig struct {
	Type    string `yaml:"type"`
	Observe bool   `yaml:"observe"`
	Log     bool   `yaml:"log"`

	// proximity
	Rays      int     `yaml:"rays"`
	RayLength float64 `yaml:"ray_length"`
}

// GoalConfig selects and parameterizes a robot's goal
type GoalConfig struct {
	Type                 string `yaml:"type"`
	Observe              bool   `yaml:"observe"`
	Log                  bool   `yaml:"log"`
	ContinueAfterSuccess bool   `yaml:"continue_after_success"`
}

// RobotConfig selects and parameterizes one robot together with its
// sensors and goal
type RobotConfig struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	JointControl bool   `yaml:"joint_control"`

	BasePosition []float64 `yaml:"base_position"`
	BaseAngle    float64   `yaml:"base_angle"`

	// arm
	LinkLengths   []float64  `yaml:"link_lengths"`
	RestingAngles []float64  `yaml:"resting_angles"`
	JointLimits   []Interval `yaml:"joint_limits"`
	XYVelocity    float64    `yaml:"xy_velocity"`
	JointVelocity float64    `yaml:"joint_velocity"`

	// gantry
	TravelX    Interval `yaml:"travel_x"`
	TravelY    Interval `yaml:"travel_y"`
	HalfExtent float64  `yaml:"half_extent"`
	Velocity   float64  `yaml:"velocity"`

	Sensors []SensorConfig `yaml:"sensors"`
	Goal    GoalConfig     `yaml:"goal"`
}

// Config is the root of the YAML description
type Config struct {
	NormalizeObservations bool `yaml:"normalize_observations"`
	NormalizeRewards      bool `yaml:"normalize_rewards"`
	Display               bool `yaml:"display"`
	DisplayExtra          bool `yaml:"display_extra"`
	Train                 bool `yaml:"train"`

	Logging int    `yaml:"logging"`
	LogFile string `yaml:"log_file"`

	MaxStepsPerEpisode int     `yaml:"max_steps_per_episode"`
	StatBufferSize     int     `yaml:"stat_buffer_size"`
	SimStep            float64 `yaml:"sim_step"`

	Workspace WorkspaceConfig `yaml:"workspace"`
	World     WorldConfig     `yaml:"world"`
	Robots    []RobotConfig   `yaml:"robots"`
}

// Load reads and parses a YAML config. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("envconfig: read %v: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML config from memory
func Parse(data []byte) (Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("envconfig: parse: %w", err)
	}
	return cfg, nil
}

// Result bundles the created environment with the resources the caller
// may want to wire further, like a renderer over the workspace
type Result struct {
	Env       *env.Env
	Sim       *physics.Sim
	Workspace world.Bounds
}

// Create builds the environment the config describes
func Create(cfg Config) (*Result, error) {
	simStep := cfg.SimStep
	if simStep == 0 {
		simStep = env.DefaultSimStep
	}
	maxSteps := cfg.MaxStepsPerEpisode
	if maxSteps == 0 {
		maxSteps = env.DefaultMaxStepsPerEpisode
	}

	bounds := world.Bounds{
		X: r1.Interval{Min: cfg.Workspace.XMin, Max: cfg.Workspace.XMax},
		Y: r1.Interval{Min: cfg.Workspace.YMin, Max: cfg.Workspace.YMax},
	}
	if bounds.X.Min >= bounds.X.Max || bounds.Y.Min >= bounds.Y.Max {
		return nil, fmt.Errorf("envconfig: degenerate workspace %+v",
			cfg.Workspace)
	}

	sim := physics.New(simStep)

	w, err := createWorld(cfg.World, sim, bounds)
	if err != nil {
		return nil, err
	}

	var (
		robots       []robot.Robot
		sensors      []sensor.Sensor
		goals        []goal.Goal
		jointControl []bool
	)
	for _, rc := range cfg.Robots {
		r, err := createRobot(rc, sim)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
		jointControl = append(jointControl, rc.JointControl)

		for _, sc := range rc.Sensors {
			s, err := createSensor(sc, cfg, sim, r, bounds, simStep)
			if err != nil {
				return nil, err
			}
			sensors = append(sensors, s)
		}

		g, err := createGoal(rc.Goal, cfg, sim, r, w, maxSteps)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	e, err := env.New(env.Config{
		NormalizeObservations: cfg.NormalizeObservations,
		NormalizeRewards:      cfg.NormalizeRewards,
		Display:               cfg.Display,
		DisplayExtra:          cfg.DisplayExtra,
		Train:                 cfg.Train,
		JointControl:          jointControl,
		Logging:               cfg.Logging,
		LogFile:               cfg.LogFile,
		MaxStepsPerEpisode:    maxSteps,
		StatBufferSize:        cfg.StatBufferSize,
		SimStep:               simStep,
	}, sim, w, robots, sensors, goals)
	if err != nil {
		return nil, err
	}

	return &Result{Env: e, Sim: sim, Workspace: bounds}, nil
}

func createWorld(wc WorldConfig, sim *physics.Sim,
	bounds world.Bounds) (world.World, error) {
	switch wc.Type {
	case WorldRandomObstacles:
		return obstacles.New(sim, bounds, wc.StaticObstacles,
			wc.MovingObstacles, wc.BoxHalfExtent.toR1(),
			wc.SphereRadius.toR1(), wc.ObstacleVelocity.toR1(),
			wc.TrajectoryLength.toR1(), uint64(wc.Seed)), nil
	case WorldNoiseField:
		return noisefield.New(sim, bounds, wc.CellSize, wc.Threshold,
			wc.PillarRadius.toR1(), wc.Seed), nil
	default:
		return nil, fmt.Errorf("envconfig: unknown world type %q", wc.Type)
	}
}

func createRobot(rc RobotConfig, sim *physics.Sim) (robot.Robot, error) {
	if rc.Name == "" {
		return nil, fmt.Errorf("envconfig: robot of type %q has no name",
			rc.Type)
	}

	switch rc.Type {
	case RobotArm:
		if len(rc.BasePosition) != 2 {
			return nil, fmt.Errorf("envconfig: robot %v: base_position "+
				"needs 2 elements, got %v", rc.Name, len(rc.BasePosition))
		}
		if len(rc.LinkLengths) != len(rc.RestingAngles) ||
			len(rc.LinkLengths) != len(rc.JointLimits) {
			return nil, fmt.Errorf("envconfig: robot %v: link_lengths, "+
				"resting_angles and joint_limits must have equal length",
				rc.Name)
		}
		limits := make([]r1.Interval, len(rc.JointLimits))
		for i, iv := range rc.JointLimits {
			limits[i] = iv.toR1()
		}
		base := box2d.MakeB2Vec2(rc.BasePosition[0], rc.BasePosition[1])
		return robot.NewArm(rc.Name, sim, base, rc.BaseAngle,
			rc.LinkLengths, rc.RestingAngles, limits, rc.JointControl,
			rc.XYVelocity, rc.JointVelocity), nil
	case RobotGantry:
		return robot.NewGantry(rc.Name, sim, rc.TravelX.toR1(),
			rc.TravelY.toR1(), rc.HalfExtent, rc.Velocity), nil
	default:
		return nil, fmt.Errorf("envconfig: unknown robot type %q", rc.Type)
	}
}

func createSensor(sc SensorConfig, cfg Config, sim *physics.Sim,
	r robot.Robot, bounds world.Bounds,
	simStep float64) (sensor.Sensor, error) {
	normalize := cfg.NormalizeObservations

	switch sc.Type {
	case SensorJoints:
		return sensor.NewJoints(normalize, sc.Observe, sc.Log, simStep,
			r), nil
	case SensorPose:
		return sensor.NewPose(normalize, sc.Observe, sc.Log, simStep, r,
			bounds), nil
	case SensorProximity:
		rays := sc.Rays
		if rays == 0 {
			rays = defaultProximityRays
		}
		rayLength := sc.RayLength
		if rayLength == 0 {
			rayLength = defaultProximityRayLength
		}
		return sensor.NewProximity(normalize, sc.Observe, sc.Log, simStep,
			r, sim, rays, rayLength), nil
	default:
		return nil, fmt.Errorf("envconfig: unknown sensor type %q for "+
			"robot %v", sc.Type, r.Name())
	}
}

func createGoal(gc GoalConfig, cfg Config, sim *physics.Sim, r robot.Robot,
	w world.World, maxSteps int) (goal.Goal, error) {
	switch gc.Type {
	case GoalPosition:
		return goal.NewPositionCollision(r, w, sim, maxSteps,
			cfg.NormalizeRewards, cfg.NormalizeObservations, gc.Observe,
			gc.Log, cfg.Train, gc.ContinueAfterSuccess), nil
	case GoalPositionRotation:
		return goal.NewPositionRotation(r, w, sim, maxSteps,
			cfg.NormalizeRewards, cfg.NormalizeObservations, gc.Observe,
			gc.Log, cfg.Train, gc.ContinueAfterSuccess), nil
	default:
		return nil, fmt.Errorf("envconfig: unknown goal type %q for "+
			"robot %v", gc.Type, r.Name())
	}
}
