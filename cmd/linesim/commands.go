package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/processline-sim/internal/improvement"
	"github.com/GoSim-25-26J-441/processline-sim/internal/simd"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/logger"
)

// app carries the persistent flags and the loaded registry.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	registry *config.Registry
}

// runFlags are shared by run, sweep and sensitivity.
type runFlags struct {
	n        int
	seed     uint64
	set      []string
	market   []string
	jsonOut  bool
	explore  []string
	seedSet  bool
	setpoint map[string]float64
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "linesim",
		Short:         "Monte Carlo simulation and setpoint optimization for food processing lines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "product line registry YAML (built-in lines when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to the registry's log_level")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		a.linesCmd(),
		a.runCmd(),
		a.sweepCmd(),
		a.sensitivityCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	var (
		reg *config.Registry
		err error
	)
	if a.configPath != "" {
		reg, err = config.LoadRegistry(a.configPath)
	} else {
		reg, err = config.DefaultRegistry()
	}
	if err != nil {
		return err
	}
	a.registry = reg

	level := a.logLevel
	if level == "" {
		level = reg.LogLevel
	}
	// Logs go to stderr so reports on stdout stay clean.
	logger.SetDefault(logger.NewWithFormat(a.logFormat, level, cmd.ErrOrStderr()))
	return nil
}

func (a *app) service() (*simd.Service, error) {
	return simd.NewService(a.registry)
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().IntVarP(&f.n, "scenarios", "n", simd.DefaultScenarios, "number of scenarios")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed (random when unset)")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "fix a setpoint, name=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.market, "market", nil, "stress a market input to a constant, name=value (repeatable)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print JSON instead of a table")
}

// parse resolves the flags that need more than pflag offers.
func (f *runFlags) parse(cmd *cobra.Command) error {
	f.seedSet = cmd.Flags().Changed("seed")
	setpoints, err := parseAssignments(f.set)
	if err != nil {
		return fmt.Errorf("--set: %w", err)
	}
	f.setpoint = setpoints
	return nil
}

func (f *runFlags) seedPtr() *uint64 {
	if !f.seedSet {
		return nil
	}
	seed := f.seed
	return &seed
}

func (f *runFlags) marketOverrides() (map[string]config.Distribution, error) {
	values, err := parseAssignments(f.market)
	if err != nil {
		return nil, fmt.Errorf("--market: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	overrides := make(map[string]config.Distribution, len(values))
	for name, v := range values {
		overrides[name] = config.Distribution{Kind: config.DistConstant, Mean: v}
	}
	return overrides, nil
}

// parseAssignments parses name=value pairs.
func parseAssignments(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", p)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// parseGrid parses parameter:start:stop:step.
func parseGrid(s string) (config.Grid, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return config.Grid{}, fmt.Errorf("expected parameter:start:stop:step, got %q", s)
	}
	g := config.Grid{Parameter: parts[0]}
	for i, dst := range []*float64{&g.Start, &g.Stop, &g.Step} {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return config.Grid{}, fmt.Errorf("grid %s: %w", parts[0], err)
		}
		*dst = v
	}
	return g, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) linesCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List the registered product lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), svc.Lines())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderLines(svc.Lines()))
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of a table")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run LINE",
		Short: "Evaluate a line at fixed setpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.parse(cmd); err != nil {
				return err
			}
			market, err := f.marketOverrides()
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			summary, err := svc.Evaluate(cmd.Context(), simd.EvaluateRequest{
				Line:            args[0],
				N:               f.n,
				Seed:            f.seedPtr(),
				Setpoints:       f.setpoint,
				Explore:         f.explore,
				MarketOverrides: market,
			})
			if err != nil {
				return err
			}
			if f.jsonOut {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			return err
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().StringSliceVar(&f.explore, "explore", nil, "sample these parameters uniformly over their range")
	return cmd
}

func (a *app) sweepCmd() *cobra.Command {
	var (
		f      runFlags
		grids  []string
		target string
		refine int
	)
	cmd := &cobra.Command{
		Use:   "sweep LINE",
		Short: "Scan a setpoint grid and select the best feasible setpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.parse(cmd); err != nil {
				return err
			}
			market, err := f.marketOverrides()
			if err != nil {
				return err
			}
			req := simd.SweepRequest{
				Line:            args[0],
				N:               f.n,
				Seed:            f.seedPtr(),
				Setpoints:       f.setpoint,
				MarketOverrides: market,
				Target:          target,
				RefineRounds:    refine,
			}
			for _, s := range grids {
				g, err := parseGrid(s)
				if err != nil {
					return err
				}
				req.Grids = append(req.Grids, g)
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			resp, err := svc.Sweep(cmd.Context(), req)
			if err != nil {
				return err
			}
			if f.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else if _, err := fmt.Fprintln(cmd.OutOrStdout(), renderSweep(resp)); err != nil {
				return err
			}
			if !resp.Feasible {
				return fmt.Errorf("%w: %s", improvement.ErrInfeasible, resp.InfeasibleReason)
			}
			return nil
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().StringArrayVar(&grids, "grid", nil, "grid parameter:start:stop:step (repeatable; the line's sweep when unset)")
	cmd.Flags().StringVar(&target, "target", "", "ranking target (mean_objective, mean_yield, median_yield, p10_objective)")
	cmd.Flags().IntVar(&refine, "refine", 0, "refinement rounds around the optimum")
	return cmd
}

func (a *app) sensitivityCmd() *cobra.Command {
	var (
		f       runFlags
		outcome string
	)
	cmd := &cobra.Command{
		Use:   "sensitivity LINE",
		Short: "Rank the inputs that drive an outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.parse(cmd); err != nil {
				return err
			}
			market, err := f.marketOverrides()
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			resp, err := svc.Sensitivity(cmd.Context(), simd.SensitivityRequest{
				Line:            args[0],
				N:               f.n,
				Seed:            f.seedPtr(),
				Outcome:         outcome,
				Setpoints:       f.setpoint,
				Explore:         f.explore,
				MarketOverrides: market,
			})
			if err != nil {
				return err
			}
			if f.jsonOut {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSensitivity(resp))
			return err
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().StringVar(&outcome, "outcome", "", "outcome to explain (objective when unset)")
	cmd.Flags().StringSliceVar(&f.explore, "explore", nil, "sample these parameters uniformly over their range")
	return cmd
}

// exitCode maps an error to the process status: 2 for an infeasible sweep,
// 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, improvement.ErrInfeasible) {
		return 2
	}
	return 1
}
