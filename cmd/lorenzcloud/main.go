package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/lorenzcloud/internal/analysis"
	"github.com/san-kum/lorenzcloud/internal/config"
	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/export"
	"github.com/san-kum/lorenzcloud/internal/integrators"
	"github.com/san-kum/lorenzcloud/internal/metrics"
	"github.com/san-kum/lorenzcloud/internal/physics"
	"github.com/san-kum/lorenzcloud/internal/server"
	"github.com/san-kum/lorenzcloud/internal/sim"
	"github.com/san-kum/lorenzcloud/internal/storage"
	"github.com/san-kum/lorenzcloud/internal/tui"
	"github.com/san-kum/lorenzcloud/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string

	// simulation overrides
	sigma      float64
	rho        float64
	beta       float64
	speed      float64
	integrator string
	parallel   bool
	grid       int

	frames         int
	snapshotFrames int
	compareFrames  int
	delta          float64
	tracked        int
	every          int

	// output
	plane     string
	cloudOnly bool
	output    string
	width     int
	height    int

	// analysis
	dt           float64
	transient    float64
	duration     float64
	perturbation float64
	param        string
	paramMin     float64
	paramMax     float64
	paramSteps   int
	bifTransient float64
	bifDuration  float64

	addr string

	logger  = slog.Default()
	logSink io.Closer
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lorenzcloud",
		Short: "lorenz attractor point cloud",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return tui.Run(cfg, logger)
		},
		SilenceUsage: true,
	}

	defaults := config.DefaultConfig().Simulation
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".lorenzcloud", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file (the TUI logs nowhere otherwise)")
	pf.Float64Var(&sigma, "sigma", defaults.Params.Sigma, "sigma coefficient")
	pf.Float64Var(&rho, "r", defaults.Params.R, "r coefficient")
	pf.Float64Var(&beta, "b", defaults.Params.B, "b coefficient")
	pf.Float64Var(&speed, "speed", defaults.Speed, "simulation speed multiplier")
	pf.StringVar(&integrator, "integrator", defaults.Integrator, "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	pf.BoolVar(&parallel, "parallel", false, "advance and project points on all cores")
	pf.IntVar(&grid, "grid", defaults.Grid, "points per grid edge")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&frames, "frames", 3000, "frames to simulate")
	runCmd.Flags().Float64Var(&delta, "delta", 1.0/60, "frame delta in seconds")
	runCmd.Flags().IntVar(&tracked, "track", 0, "index of the point whose path is recorded")
	runCmd.Flags().IntVar(&every, "every", 1, "record one sample per this many frames")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the tracked point of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the tracked path to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the tracked path of a run onto a plane",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&plane, "plane", "xz", "projection plane")
	exportSVGCmd.Flags().BoolVar(&cloudOnly, "cloud", false, "draw the final cloud instead of the tracked path")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 800, "image height")
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render the cloud after a number of frames to SVG",
		Args:  cobra.NoArgs,
		RunE:  snapshot,
	}
	snapshotCmd.Flags().IntVar(&snapshotFrames, "frames", 600, "frames to simulate")
	snapshotCmd.Flags().Float64Var(&delta, "delta", 1.0/60, "frame delta in seconds")
	snapshotCmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators against a fine rk4 reference",
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().IntVar(&compareFrames, "frames", 300, "frames to simulate")
	compareCmd.Flags().Float64Var(&delta, "delta", 1.0/60, "frame delta in seconds")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.NoArgs,
		RunE:  lyapunov,
	}
	lyapunovCmd.Flags().Float64Var(&dt, "dt", 0.005, "integration step")
	lyapunovCmd.Flags().Float64Var(&transient, "transient", 10, "seconds discarded before measuring")
	lyapunovCmd.Flags().Float64Var(&duration, "time", 100, "seconds measured")
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-8, "initial separation")

	bifurcationCmd := &cobra.Command{
		Use:   "bifurcation",
		Short: "sweep a coefficient and plot the z maxima",
		Args:  cobra.NoArgs,
		RunE:  bifurcation,
	}
	bifurcationCmd.Flags().StringVar(&param, "param", "r", "coefficient to sweep")
	bifurcationCmd.Flags().Float64Var(&paramMin, "min", 1, "sweep start")
	bifurcationCmd.Flags().Float64Var(&paramMax, "max", 50, "sweep end")
	bifurcationCmd.Flags().IntVar(&paramSteps, "steps", 80, "sweep samples")
	bifurcationCmd.Flags().Float64Var(&dt, "dt", 0.005, "integration step")
	bifurcationCmd.Flags().Float64Var(&bifTransient, "transient", 20, "seconds discarded per sample")
	bifurcationCmd.Flags().Float64Var(&bifDuration, "time", 40, "seconds recorded per sample")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIGMA\tR\tB\tSPEED\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.3f\t%.2f\t%s\n",
					name, p.Params.Sigma, p.Params.R, p.Params.B, p.Speed, p.Description)
			}
			return w.Flush()
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the cloud to browsers over a websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		snapshotCmd, compareCmd, lyapunovCmd, bifurcationCmd, presetsCmd, serveCmd)

	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when RunE fails
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		w = f
		logSink = f
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func closeLog() error {
	if logSink == nil {
		return nil
	}
	err := logSink.Close()
	logSink = nil
	return err
}

// loadConfig layers defaults, the config file, the preset and finally any
// flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	s := &cfg.Simulation
	if flags.Changed("sigma") {
		s.Params.Sigma = sigma
	}
	if flags.Changed("r") {
		s.Params.R = rho
	}
	if flags.Changed("b") {
		s.Params.B = beta
	}
	if flags.Changed("speed") {
		s.Speed = speed
	}
	if flags.Changed("integrator") {
		s.Integrator = integrator
	}
	if flags.Changed("parallel") {
		s.Parallel = parallel
	}
	if flags.Changed("grid") {
		s.Grid = grid
	}

	if logFile == "" && cmd.Parent() == nil {
		// stderr would tear the alternate screen
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg, cfg.Validate()
}

func newSimulation(cfg *config.Config, name string) (*sim.Simulation, error) {
	st, err := integrators.Get(name)
	if err != nil {
		return nil, err
	}
	if a, ok := st.(*integrators.Adaptive); ok {
		a.MaxDisplacement = cfg.Simulation.MaxDisplacement
	}
	s := cfg.Simulation
	g := sim.Grid{Size: s.Grid, Spacing: s.Spacing, Offset: s.Offset}
	return sim.NewSimulation(g, s.Params, s.Speed, s.InitialDelta,
		sim.WithStepper(st), sim.WithParallel(s.Parallel))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if tracked < 0 || tracked >= cfg.PointCount() {
		return fmt.Errorf("track=%d out of range [0, %d)", tracked, cfg.PointCount())
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := newSimulation(cfg, cfg.Simulation.Integrator)
	if err != nil {
		return err
	}

	rec := storage.NewRecorder(tracked, every)
	rec.Start(s)
	collector := metrics.Default()
	progress := max(frames/10, 1)
	obs := sim.ObserverFunc(func(s *sim.Simulation) error {
		if s.Frame%progress == 0 {
			logger.Debug("progress", "frame", s.Frame, "time", s.Time)
		}
		if err := collector.OnFrame(s); err != nil {
			return err
		}
		return rec.OnFrame(s)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running simulation",
		"points", humanize.Comma(int64(len(s.Points))),
		"frames", frames,
		"integrator", cfg.Simulation.Integrator)
	start := time.Now()
	if err := s.Run(ctx, frames, delta, obs); err != nil {
		return err
	}
	elapsed := time.Since(start)

	recording := rec.Finish(s)
	meta := storage.RunMetadata{
		Preset:     preset,
		Params:     s.Params,
		Speed:      s.Speed,
		Delta:      delta,
		Frames:     frames,
		Points:     len(s.Points),
		Tracked:    tracked,
		Integrator: cfg.Simulation.Integrator,
		Metrics:    collector.Values(),
	}
	meta.Metrics["elapsed_ms"] = float64(elapsed.Microseconds()) / 1000

	runID, err := st.Save(meta, recording)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(recording.Times))
	fmt.Println("\nmetrics:")
	for _, name := range []string{"max_radius", "mean_radius", "mean_z", "containment", "elapsed_ms"} {
		fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
	}
	return nil
}

func formatParams(p physics.Params) string {
	values := p.GetParams()
	parts := make([]string, 0, len(values))
	for _, name := range []string{"sigma", "r", "b"} {
		parts = append(parts, fmt.Sprintf("%s=%.3f", name, values[name]))
	}
	return strings.Join(parts, " ")
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tCREATED\tPOINTS\tFRAMES\tINTEG\tSIZE")

	for _, run := range runs {
		size, err := st.Size(run.ID)
		if err != nil {
			return err
		}
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID[:min(8, len(run.ID))],
			name,
			humanize.Time(run.Timestamp),
			humanize.Comma(int64(run.Points)),
			run.Frames,
			run.Integrator,
			humanize.Bytes(uint64(size)),
		)
	}

	return w.Flush()
}

func loadRun(prefix string) (*storage.Store, *storage.RunMetadata, error) {
	st := storage.New(dataDir)
	runID, err := st.Resolve(prefix)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	return st, meta, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("params: %s\n", formatParams(meta.Params))
	fmt.Printf("samples: %d\n\n", len(states))

	for _, c := range "xyz" {
		axis := export.Axes[byte(c)]
		data := make([]float64, len(states))
		for i, p := range states {
			data[i] = axis(p)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%c of point %d", c, meta.Tracked)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.ExportCSV(os.Stdout, states, times)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, states, times)
}

func writeOutput(data string) error {
	if output == "" {
		_, err := fmt.Println(data)
		return err
	}
	if err := os.WriteFile(output, []byte(data), 0644); err != nil {
		return err
	}
	logger.Info("wrote svg", "path", output, "size", humanize.Bytes(uint64(len(data))))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	h, v, err := export.ParsePlane(plane)
	if err != nil {
		return err
	}
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if cloudOnly {
		cloud, err := st.LoadCloud(meta.ID)
		if err != nil {
			return err
		}
		svg := export.CloudToSVG(cloud, h, v, width, height, "#ffffff")
		if svg == "" {
			return fmt.Errorf("run %s has no stored cloud", meta.ID)
		}
		return writeOutput(svg)
	}
	states, _, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	svg := export.TrajectoryToSVG(states, h, v, width, height, "#4ecdc4")
	if svg == "" {
		return fmt.Errorf("run %s has fewer than two samples", meta.ID)
	}
	return writeOutput(svg)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	session, err := sim.NewSession(cfg, logger)
	if err != nil {
		return err
	}

	var f *sim.Frame
	for i := 0; i < max(snapshotFrames, 1); i++ {
		if f, err = session.Step(sim.Input{Delta: delta}); err != nil {
			return err
		}
	}
	theme, _ := viz.GetTheme(cfg.Render.Theme)
	return writeOutput(export.FrameToSVG(f, theme))
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}

	// rk4 at a tenth of the step stands in for the exact flow
	const refFactor = 10
	simCfg := cfg.Simulation
	g := sim.Grid{Size: simCfg.Grid, Spacing: simCfg.Spacing, Offset: simCfg.Offset}
	ref := make([]dynamo.Point3, g.Count())
	g.Fill(ref)
	dtFrame := delta * simCfg.Speed
	rk4 := integrators.NewRK4()
	for i, p := range ref {
		ref[i] = integrators.Integrate(rk4, p, simCfg.Params, float64(compareFrames)*dtFrame, dtFrame/refFactor)
	}
	ctx := context.Background()

	fmt.Printf("comparing integrators (points=%d, delta=%.4f, frames=%d)\n\n", len(ref), delta, compareFrames)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s\n", "integrator", "mean_err", "max_err", "time_ms")
	fmt.Println(strings.Repeat("-", 52))

	for _, name := range names {
		s, err := newSimulation(cfg, name)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		err = s.Run(ctx, compareFrames, delta, nil)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		var sum, worst float64
		for i, p := range s.Points {
			d := p.Distance(ref[i])
			sum += d
			worst = math.Max(worst, d)
		}
		fmt.Printf("%-12s  %12.4e  %12.4e  %12.2f\n", name, sum/float64(len(s.Points)), worst, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func lyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := integrators.Get(cfg.Simulation.Integrator)
	if err != nil {
		return err
	}
	prm := cfg.Simulation.Params
	x0 := dynamo.P3(1, 1, 1)

	start := time.Now()
	l := analysis.LyapunovExponent(st, prm, x0, dt, transient, duration, perturbation)
	logger.Debug("lyapunov done", "elapsed", time.Since(start))

	fmt.Printf("params: %s\n", formatParams(prm))
	fmt.Printf("largest lyapunov exponent: %.4f\n", l)
	switch {
	case math.IsNaN(l):
		fmt.Println("separation collapsed, try a larger perturbation")
	case l > 0.01:
		fmt.Println("chaotic")
	case l < -0.01:
		fmt.Println("converging")
	default:
		fmt.Println("marginal")
	}
	return nil
}

func bifurcation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := integrators.Get(cfg.Simulation.Integrator)
	if err != nil {
		return err
	}
	data, err := analysis.BifurcationDiagram(st, cfg.Simulation.Params, param,
		paramMin, paramMax, paramSteps, dynamo.P3(1, 1, 1), dt, bifTransient, bifDuration)
	if err != nil {
		return err
	}
	plot := analysis.BifurcationToASCII(data, 80, 24)
	if plot == "" {
		return fmt.Errorf("no maxima found, every sample settled on a fixed point")
	}
	fmt.Printf("z maxima vs %s in [%g, %g]\n\n", param, paramMin, paramMax)
	fmt.Println(plot)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg, logger).ListenAndServe(ctx, addr)
}
