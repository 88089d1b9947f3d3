package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fractal/internal/config"
	"github.com/san-kum/fractal/internal/escape"
	"github.com/san-kum/fractal/internal/render"
	"github.com/san-kum/fractal/internal/storage"
	"github.com/san-kum/fractal/internal/stream"
	"github.com/san-kum/fractal/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	// Config overrides
	preset    string
	frames    int
	steps     int
	pixels    int
	colormap  string
	colorBy   string
	iteration string
	grayscale bool
	normalize bool
	seconds   float64
	// Execution
	workers    int
	checkpoint bool
	seed       int64
	cols       int
	addr       string
	writeOut   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fractal",
		Short: "escape-time fractal renderer",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "output directory")

	runCmd := &cobra.Command{
		Use:   "run [config.yaml]",
		Short: "compute a fractal and write its frames",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFractal,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = one per cpu)")
	runCmd.Flags().BoolVar(&checkpoint, "checkpoint", false, "save engine state for show --write")

	randomCmd := &cobra.Command{
		Use:   "random [out.yaml]",
		Short: "write a random config and run it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  randomFractal,
	}
	randomCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	randomCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = one per cpu)")

	reanimateCmd := &cobra.Command{
		Use:   "reanimate [folder]",
		Short: "rebuild the gif of a run folder from its png frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reanimate(args[0], seconds)
		},
	}
	reanimateCmd.Flags().Float64Var(&seconds, "seconds", 0, "animation length")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run, previewing it from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&colormap, "colormap", "", "colormap")
	showCmd.Flags().StringVar(&colorBy, "color-by", "", "display mode")
	showCmd.Flags().IntVar(&cols, "cols", 64, "preview width")
	showCmd.Flags().BoolVar(&writeOut, "write", false, "re-render the frames into the run folder")

	statsCmd := &cobra.Command{
		Use:   "stats [config.yaml]",
		Short: "compute a fractal and print divergence statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  statsFractal,
	}
	addConfigFlags(statsCmd)

	liveCmd := &cobra.Command{
		Use:   "live [config.yaml]",
		Short: "iterate with live terminal preview",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [config.yaml]",
		Short: "stream runs over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tCENTER\tPARAM")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, cfg.RunType, config.FormatComplex(complex128(cfg.Center)), paramText(cfg))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, randomCmd, reanimateCmd, listCmd, showCmd, statsCmd, liveCmd, serveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&frames, "frames", 1, "frame count")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "iteration steps")
	cmd.Flags().IntVar(&pixels, "pixels", config.DefaultPixels, "pixels per side")
	cmd.Flags().StringVar(&colormap, "colormap", config.DefaultColormap, "colormap")
	cmd.Flags().StringVar(&colorBy, "color-by", string(escape.ShowIterations), "display mode")
	cmd.Flags().StringVar(&iteration, "iteration", string(escape.Bounded), "iteration mode (bounded|wrapping)")
	cmd.Flags().BoolVar(&grayscale, "grayscale", false, "grayscale output")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "pin reference pixels so frames share a color scale")
	cmd.Flags().Float64Var(&seconds, "seconds", 0, "animation length")
}

// loadFile resolves the run description: the config file if given, else
// the preset, else defaults; flags the user set override either.
func loadFile(cmd *cobra.Command, args []string) (*config.File, error) {
	cfg := config.DefaultFile()
	switch {
	case len(args) > 0:
		loaded, err := config.LoadWithPreset(args[0], preset)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("steps") {
		cfg.Steps = &steps
		cfg.StepsStart, cfg.StepsEnd = nil, nil
	}
	if flags.Changed("pixels") {
		cfg.Pixels = &pixels
		cfg.XPixels, cfg.YPixels = nil, nil
	}
	if flags.Changed("colormap") {
		cfg.Colormap = colormap
	}
	if flags.Changed("color-by") {
		cfg.ColorBy = colorBy
	}
	if flags.Changed("iteration") {
		cfg.Iteration = iteration
	}
	if flags.Changed("grayscale") {
		cfg.Grayscale = grayscale
	}
	if flags.Changed("normalize") {
		cfg.NormalizeFrameColors = normalize
	}
	if flags.Changed("seconds") {
		cfg.Seconds = &seconds
	}
	return cfg, nil
}

func lookupColormap(name string) (*render.Colormap, error) {
	if name == "" {
		name = config.DefaultColormap
	}
	return render.Lookup(name)
}

func runFractal(cmd *cobra.Command, args []string) error {
	cfg, err := loadFile(cmd, args)
	if err != nil {
		return err
	}
	if cfg.RunType == config.RunReanimate {
		return reanimate(cfg.Folder, floatValue(cfg.Seconds))
	}
	return execute(cfg)
}

func randomFractal(cmd *cobra.Command, args []string) error {
	path := "random.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	cfg := config.Random(rand.New(rand.NewSource(seed)), render.Names())
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (seed %d)\n", path, seed)
	return execute(cfg)
}

func execute(cfg *config.File) error {
	plan, err := cfg.Build()
	if err != nil {
		return err
	}
	cmap, err := lookupColormap(plan.Colormap)
	if err != nil {
		return err
	}

	start := time.Now()
	dir := cfg.OutputFolder(dataDir, start)
	st := storage.New(filepath.Dir(dir))
	runID := filepath.Base(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	ok := false
	defer func() {
		if !ok {
			// Only succeeds when nothing was written.
			os.Remove(dir)
		}
	}()

	eng, err := plan.NewEngine()
	if err != nil {
		return err
	}
	eng.SetWorkers(workers)
	eng.SetObserver(progressPrinter(plan.LogInterval))

	fmt.Printf("running %s %s on %s...\n", plan.Kind, plan.Mode, eng.Shape())
	if err := eng.Advance(plan.Steps, plan.Mode); err != nil {
		return err
	}
	disp, err := eng.SelectDisplay(plan.Display, plan.Normalize)
	if err != nil {
		return err
	}

	fmt.Println("saving images...")
	paths, err := render.WriteFrames(dir, disp, render.Options{
		Colormap:  cmap,
		Grayscale: plan.Grayscale,
		Seconds:   plan.Seconds,
	})
	if err != nil {
		return err
	}
	if err := config.Save(filepath.Join(dir, "config.yaml"), cfg); err != nil {
		return err
	}

	stats := eng.Stats()
	meta := &storage.RunMetadata{
		ID:         runID,
		Kind:       plan.Kind.String(),
		Timestamp:  start,
		Frames:     eng.Shape().Frames,
		Width:      eng.Shape().Width,
		Height:     eng.Shape().Height,
		Steps:      eng.TotalSteps(),
		Iteration:  string(plan.Mode),
		ColorBy:    string(plan.Display),
		Normalize:  plan.Normalize,
		Colormap:   cmap.Name,
		Grayscale:  plan.Grayscale,
		Seconds:    plan.Seconds,
		Params:     formatParams(disp.Params),
		Elapsed:    time.Since(start).Seconds(),
		Files:      baseNames(paths),
		Diverged:   divergedFraction(stats),
		Checkpoint: checkpoint,
	}
	if checkpoint {
		if err := st.SaveCheckpoint(runID, eng.Snapshot()); err != nil {
			return err
		}
	}
	if err := st.Save(meta, stats); err != nil {
		return err
	}
	ok = true

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d  steps: %d  diverged: %.1f%%\n", meta.Frames, meta.Steps, 100*meta.Diverged)
	return nil
}

func progressPrinter(interval int) escape.Observer {
	if interval <= 0 {
		return nil
	}
	return escape.ObserverFunc(func(round, total int) {
		if round%interval == 0 || round == total {
			fmt.Printf("%d/%d\n", round, total)
		}
	})
}

func reanimate(folder string, secs float64) error {
	if folder == "" {
		return errors.New("reanimate needs a folder")
	}
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		folder = filepath.Join(dataDir, folder)
	}
	path, err := render.Reanimate(folder, secs)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
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
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSIZE\tFRAMES\tSTEPS\tDIVERGED\tCKPT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%d\t%.1f%%\t%v\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Frames,
			run.Steps,
			100*run.Diverged,
			run.Checkpoint,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run:       %s\n", meta.ID)
	fmt.Printf("kind:      %s (%s)\n", meta.Kind, meta.Iteration)
	fmt.Printf("size:      %dx%d, %d frames\n", meta.Width, meta.Height, meta.Frames)
	fmt.Printf("steps:     %d\n", meta.Steps)
	fmt.Printf("diverged:  %.1f%%\n", 100*meta.Diverged)
	fmt.Printf("elapsed:   %.2fs\n", meta.Elapsed)
	fmt.Printf("files:     %s\n", strings.Join(meta.Files, ", "))

	if stats, err := st.LoadStats(runID); err == nil {
		if plot := viz.DivergencePlot(stats, 60, 8); plot != "" {
			fmt.Println()
			fmt.Println(plot)
		}
	}

	if !meta.Checkpoint || !st.HasCheckpoint(runID) {
		return nil
	}

	snap, err := st.LoadCheckpoint(runID)
	if err != nil {
		return err
	}
	eng, err := escape.Restore(snap)
	if err != nil {
		return err
	}

	mode := escape.DisplayMode(meta.ColorBy)
	if colorBy != "" {
		mode = escape.DisplayMode(colorBy)
	}
	disp, err := eng.SelectDisplay(mode, meta.Normalize)
	if err != nil {
		return err
	}
	cmap, err := lookupColormap(firstNonEmpty(colormap, meta.Colormap))
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Preview(disp, 0, cmap, cols))

	if writeOut {
		paths, err := render.WriteFrames(st.RunDir(runID), disp, meta.RenderOptions(cmap))
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d files\n", len(paths))
	}
	return nil
}

func statsFractal(cmd *cobra.Command, args []string) error {
	cfg, err := loadFile(cmd, args)
	if err != nil {
		return err
	}
	plan, err := cfg.Build()
	if err != nil {
		return err
	}
	eng, err := plan.NewEngine()
	if err != nil {
		return err
	}

	start := time.Now()
	if err := eng.Advance(plan.Steps, plan.Mode); err != nil {
		return err
	}
	elapsed := time.Since(start)

	stats := eng.Stats()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tPARAM\tDIVERGED\tUNDIVERGED\tMEAN\tMAX")
	for _, s := range stats {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.2f\t%d\n",
			s.Frame, config.FormatComplex(eng.FrameParam(s.Frame)), s.Diverged, s.Undiverged, s.MeanCount, s.MaxCount)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted %d steps in %v\n", eng.TotalSteps(), elapsed.Round(time.Millisecond))
	if plot := viz.DivergencePlot(stats, 60, 8); plot != "" {
		fmt.Println()
		fmt.Println(plot)
	}

	disp, err := eng.SelectDisplay(plan.Display, plan.Normalize)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.Histogram(disp, 0, 60, 10))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadFile(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("pixels") && cfg.Pixels == nil && cfg.XPixels == nil && cfg.YPixels == nil {
		small := 128
		cfg.Pixels = &small
	}
	plan, err := cfg.Build()
	if err != nil {
		return err
	}
	eng, err := plan.NewEngine()
	if err != nil {
		return err
	}

	cmaps := make([]*render.Colormap, 0)
	first, err := lookupColormap(plan.Colormap)
	if err != nil {
		return err
	}
	cmaps = append(cmaps, first)
	for _, name := range render.Names() {
		if name != first.Name {
			cm, err := render.Lookup(name)
			if err != nil {
				return err
			}
			cmaps = append(cmaps, cm)
		}
	}

	m, err := viz.NewLiveModel(eng, plan.Steps, plan.Mode, plan.Display, cmaps)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(viz.LiveModel); ok && lm.Err() != nil {
		return lm.Err()
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadFile(cmd, args)
	if err != nil {
		return err
	}
	plan, err := cfg.Build()
	if err != nil {
		return err
	}
	cmap, err := lookupColormap(plan.Colormap)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", stream.Handler(plan, cmap))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	fmt.Printf("streaming %s on ws://localhost%s/ws\n", plan.Kind, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func paramText(cfg *config.File) string {
	if cfg.RunType == config.RunMandelbrot {
		return "-"
	}
	if cfg.Param != nil {
		return config.FormatComplex(complex128(*cfg.Param))
	}
	if cfg.ParamRadius != nil {
		return fmt.Sprintf("r=%g sweep", *cfg.ParamRadius)
	}
	return config.FormatComplex(config.DefaultParam)
}

func formatParams(params []complex128) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = config.FormatComplex(p)
	}
	return out
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func divergedFraction(stats []escape.FrameStats) float64 {
	var diverged, total int
	for _, s := range stats {
		diverged += s.Diverged
		total += s.Diverged + s.Undiverged
	}
	if total == 0 {
		return 0
	}
	return float64(diverged) / float64(total)
}

func floatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
