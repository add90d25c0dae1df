package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/spf13/cast"

	"github.com/joeycumines/goaltree/internal/config"
	"github.com/joeycumines/goaltree/internal/goal"
	"github.com/joeycumines/goaltree/internal/goals"
	"github.com/joeycumines/goaltree/internal/mind"
	"github.com/joeycumines/goaltree/internal/simtime"
)

// simFlags are the flags shared by run and report.
type simFlags struct {
	ticks     int
	dayLength time.Duration
	step      time.Duration
	start     time.Duration
	maxErrors int
	logFile   string
	logLevel  string
}

func (f *simFlags) setup(fs *flag.FlagSet) {
	fs.IntVar(&f.ticks, "ticks", 0, "Number of ticks to run (default from config)")
	fs.DurationVar(&f.dayLength, "day-length", 0, "Length of a simulated day (default from config)")
	fs.DurationVar(&f.step, "step", 0, "Simulated time advanced per tick (default from config)")
	fs.DurationVar(&f.start, "start", -1, "Simulated time of the first tick (default from config)")
	fs.IntVar(&f.maxErrors, "max-errors", 0, "Errors a goal may accumulate before it is dropped (default from config)")
	fs.StringVar(&f.logFile, "log-file", "", "Path to log file (JSON output)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// settings are the resolved simulation parameters.
type settings struct {
	ticks     int
	dayLength time.Duration
	step      time.Duration
	start     time.Duration
	maxErrors int
	cacheSize int
}

// resolve applies flag → config ([section], then global) → schema default.
func (f *simFlags) resolve(cfg *config.Config, section string) settings {
	schema := config.DefaultSchema()
	s := settings{
		ticks:     f.ticks,
		dayLength: f.dayLength,
		step:      f.step,
		start:     f.start,
		maxErrors: f.maxErrors,
		cacheSize: schema.ResolveInt(cfg, section, "mind.expr-cache-size"),
	}
	if s.ticks <= 0 {
		s.ticks = schema.ResolveInt(cfg, section, "ticks")
	}
	if s.ticks <= 0 {
		s.ticks = schema.ResolveInt(cfg, section, "mind.ticks")
	}
	if s.dayLength <= 0 {
		s.dayLength = schema.ResolveDuration(cfg, section, "time.day-length")
	}
	if s.step <= 0 {
		s.step = schema.ResolveDuration(cfg, section, "time.step")
	}
	if s.start < 0 {
		s.start = schema.ResolveDuration(cfg, section, "time.start")
	}
	if s.maxErrors <= 0 {
		s.maxErrors = schema.ResolveInt(cfg, section, "mind.max-errors")
	}
	return s
}

// simulation is a mind driven by a deterministic clock.
type simulation struct {
	mind   *mind.Mind
	agent  *mind.Agent
	clock  *simtime.Clock
	logger *slog.Logger
}

// tickResult is the outcome of one tick.
type tickResult struct {
	Tick   int
	Time   simtime.Time
	Action goal.Action
}

func (r tickResult) String() string {
	if r.Action == nil {
		return fmt.Sprintf("tick %d %s idle", r.Tick, r.Time)
	}
	return fmt.Sprintf("tick %d %s %v", r.Tick, r.Time, r.Action)
}

func newSimulation(path string, s settings, logger *slog.Logger) (*simulation, error) {
	if s.dayLength <= 0 || s.step <= 0 {
		return nil, fmt.Errorf("day length and step must be positive")
	}
	if s.cacheSize > 0 {
		goal.SetExprCacheSize(s.cacheSize)
	}

	f, err := LoadMindFile(path)
	if err != nil {
		return nil, err
	}

	registry := goals.NewRegistry()
	registry.SetLogger(logger)
	m, agent, err := f.Build(registry, mind.WithMaxErrors(s.maxErrors), mind.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &simulation{
		mind:   m,
		agent:  agent,
		clock:  simtime.NewClock(s.dayLength, s.step, s.start),
		logger: logger,
	}, nil
}

// node returns a behavior tree node performing one tick per Tick: the mind is
// ticked at the clock's current time, any action is applied to the agent,
// the result is reported, and the clock advances.
func (s *simulation) node(report func(tickResult)) bt.Node {
	var (
		count  int
		now    simtime.Time
		action goal.Action
	)
	inner := s.mind.Node(
		func() goal.Instant {
			now = s.clock.Now()
			return now
		},
		func(a goal.Action) { action = a },
	)
	return bt.New(func(children []bt.Node) (bt.Status, error) {
		count++
		action = nil
		status, err := children[0].Tick()
		if err != nil {
			return status, err
		}
		s.apply(action)
		if report != nil {
			report(tickResult{Tick: count, Time: now, Action: action})
		}
		s.clock.Tick()
		return status, nil
	}, inner)
}

// apply performs the side effects the simulation understands: an Operation
// carrying a "set" argument merges it into the agent's memory.
func (s *simulation) apply(action goal.Action) {
	op, ok := action.(*goals.Operation)
	if !ok || op == nil {
		return
	}
	raw, ok := op.Args["set"]
	if !ok {
		return
	}
	values, err := cast.ToStringMapE(raw)
	if err != nil {
		s.logger.Warn("[Sim] ignoring invalid set argument", "op", op.Op, "error", err)
		return
	}
	s.agent.Memory.Merge(values)
}

// run performs n ticks back to back, or one every interval when interval is
// positive.
func (s *simulation) run(ctx context.Context, n int, interval time.Duration, report func(tickResult)) error {
	node := s.node(report)
	if interval <= 0 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := node.Tick(); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := 0
	limited := bt.New(func(children []bt.Node) (bt.Status, error) {
		if done >= n {
			cancel()
			return bt.Failure, nil
		}
		done++
		status, err := children[0].Tick()
		if done >= n {
			cancel()
		}
		return status, err
	}, node)
	return mind.Drive(ctx, interval, limited)
}

// RunCommand runs a mind file and prints the action of every tick.
type RunCommand struct {
	*BaseCommand
	config   *config.Config
	flags    simFlags
	interval time.Duration
	verbose  bool
}

// NewRunCommand creates a new run command.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run a mind file, printing the action chosen at every tick",
			"run [options] <mind.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
	fs.DurationVar(&c.interval, "interval", -1, "Wall-clock delay between ticks; 0 runs as fast as possible (default from config)")
	fs.BoolVar(&c.verbose, "verbose", false, "Print goal traces after each tick")
}

// Execute runs the mind file.
func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: goaltree %s\n", c.Usage())
		return errors.New("expected exactly one mind file")
	}

	lc, err := resolveLogConfig(c.flags.logFile, c.flags.logLevel, c.config)
	if err != nil {
		return err
	}
	defer lc.close()
	logger := lc.logger(stderr)

	schema := config.DefaultSchema()
	s := c.flags.resolve(c.config, c.Name())
	interval := c.interval
	if interval < 0 {
		interval = schema.ResolveDuration(c.config, c.Name(), "interval")
	}
	verbose := c.verbose
	if !verbose {
		verbose = resolveBoolOption(logger, c.config, c.Name(), "verbose")
	}

	sim, err := newSimulation(args[0], s, logger)
	if err != nil {
		return err
	}

	return sim.run(context.Background(), s.ticks, interval, func(r tickResult) {
		_, _ = fmt.Fprintln(stdout, r)
		if !verbose {
			return
		}
		for _, g := range sim.mind.Goals() {
			if trace := g.LastTrace(); trace != "" {
				_, _ = fmt.Fprintf(stdout, "  %s %s\n", g.Info(), trace)
			}
		}
	})
}

// ReportCommand runs a mind file silently and prints the final goal report
// as JSON.
type ReportCommand struct {
	*BaseCommand
	config  *config.Config
	flags   simFlags
	compact bool
}

// NewReportCommand creates a new report command.
func NewReportCommand(cfg *config.Config) *ReportCommand {
	return &ReportCommand{
		BaseCommand: NewBaseCommand(
			"report",
			"Run a mind file, then print the goal report as JSON",
			"report [options] <mind.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the report command.
func (c *ReportCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
	fs.BoolVar(&c.compact, "compact", false, "Print the report on a single line")
}

// Execute runs the mind file and prints the report.
func (c *ReportCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: goaltree %s\n", c.Usage())
		return errors.New("expected exactly one mind file")
	}

	lc, err := resolveLogConfig(c.flags.logFile, c.flags.logLevel, c.config)
	if err != nil {
		return err
	}
	defer lc.close()

	logger := lc.logger(stderr)
	s := c.flags.resolve(c.config, c.Name())
	sim, err := newSimulation(args[0], s, logger)
	if err != nil {
		return err
	}
	if err := sim.run(context.Background(), s.ticks, 0, nil); err != nil {
		return err
	}

	compact := c.compact
	if !compact {
		compact = resolveBoolOption(logger, c.config, c.Name(), "compact")
	}

	enc := json.NewEncoder(stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(sim.mind.Report())
}

// resolveBoolOption resolves a boolean option of section. An invalid value
// is logged and treated as false.
func resolveBoolOption(logger *slog.Logger, cfg *config.Config, section, key string) bool {
	b, err := config.DefaultSchema().ResolveBool(cfg, section, key)
	if err != nil {
		logger.Warn("[Config] ignoring invalid option", "error", err)
		return false
	}
	return b
}
