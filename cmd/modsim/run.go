package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/modrl/modrl/env"
	"github.com/modrl/modrl/envconfig"
	"github.com/modrl/modrl/render"
	"github.com/modrl/modrl/stats"
)

var (
	flagConfig   string
	flagEpisodes int
	flagStatsDB  string
	flagFrames   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run episodes with uniform random actions",
	Long: `Build the environment described by the config file and run it for a
number of episodes, sampling every action uniformly from the action
space.

Examples:
  modsim run --config env.yaml
  modsim run --config env.yaml --episodes 100 --stats-db runs.db
  modsim run --config env.yaml --frames ./frames`,
	RunE: runEpisodes,
}

func init() {
	runCmd.Flags().StringVar(&flagConfig, "config", "",
		"Path to the environment YAML (required)")
	runCmd.Flags().IntVar(&flagEpisodes, "episodes", 10,
		"Number of episodes to run")
	runCmd.Flags().StringVar(&flagStatsDB, "stats-db", "",
		"Record episode outcomes into this sqlite database")
	runCmd.Flags().StringVar(&flagFrames, "frames", "",
		"Dump one PNG frame per step into this directory")
	runCmd.MarkFlagRequired("config")
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "modsim",
	})

	cfg, err := envconfig.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagFrames != "" {
		cfg.Display = true
	}

	res, err := envconfig.Create(cfg)
	if err != nil {
		return err
	}
	e := res.Env
	defer e.Close()

	if flagStatsDB != "" {
		store, err := stats.Open(flagStatsDB)
		if err != nil {
			return err
		}
		defer store.Close()
		e.SetRecorder(store)
	}

	if flagFrames != "" {
		renderer, err := render.New(res.Sim, res.Workspace, flagFrames)
		if err != nil {
			return err
		}
		e.SetRenderer(renderer)
	}

	actions := distuv.Uniform{Min: -1, Max: 1,
		Src: rand.NewSource(flagSeed)}
	action := make([]float64, e.ActionSpace().Len())

	for episode := 1; episode <= flagEpisodes; episode++ {
		if _, err := e.Reset(); err != nil {
			if errors.Is(err, env.ErrInitExhausted) {
				return fmt.Errorf("episode %v: %w", episode, err)
			}
			return err
		}

		done := false
		for !done {
			for i := range action {
				action[i] = actions.Rand()
			}
			_, _, d, _, err := e.Step(action)
			if err != nil {
				return err
			}
			done = d
		}

		ts := e.LastTimeStep()
		logger.Info("episode finished",
			"episode", episode,
			"steps", ts.Number,
			"return", fmt.Sprintf("%.3f", e.CumulativeReward()),
			"success", ts.Success,
			"timeout", ts.Timeout,
			"collision", ts.Collision,
			"success_rate", fmt.Sprintf("%.2f", e.SuccessRate()),
		)
	}
	return nil
}
