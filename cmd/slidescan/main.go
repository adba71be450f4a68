// Command slidescan extracts still slides from a frame stream of a
// projected carousel. Point it at a directory of frames (or watch one live),
// give it the projection quadrilateral, and it writes one rectified JPEG per
// slide into the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atticfilm/slidescan/internal/capture"
	"github.com/atticfilm/slidescan/internal/config"
	"github.com/atticfilm/slidescan/internal/fsutil"
	"github.com/atticfilm/slidescan/internal/metric"
	"github.com/atticfilm/slidescan/internal/monitoring"
	"github.com/atticfilm/slidescan/internal/pipeline"
	"github.com/atticfilm/slidescan/internal/report"
	"github.com/atticfilm/slidescan/internal/sink"
	"github.com/atticfilm/slidescan/internal/source"
	"github.com/atticfilm/slidescan/internal/store"
	"github.com/atticfilm/slidescan/internal/version"
)

func main() {
	var (
		inputDir   = flag.String("input", "", "Directory of input frames")
		outputDir  = flag.String("output", "captures", "Directory for captured slides")
		configPath = flag.String("config", "", "Optional JSON config file")

		cornersJSON = flag.String("corners", "", "Slide quadrilateral as JSON [[x,y],[x,y],[x,y],[x,y]] (TL TR BR BL)")
		aspect      = flag.String("aspect", "", "Target aspect ratio, e.g. 3:2")

		metricMode = flag.String("metric", "", "Frame metric: diff | brightness | phash")
		priming    = flag.Float64("priming-threshold", 0, "Metric level that re-arms capture")
		captureT   = flag.Float64("capture-threshold", 0, "Metric level below which the feed counts as settled")

		policyName     = flag.String("policy", "backtrack", "Capture policy: backtrack | stability")
		framesRequired = flag.Int("frames-required", 0, "Stable frames needed before capture (stability policy)")
		backtrackMS    = flag.Int("backtrack-ms", 0, "Lookback duration in milliseconds (backtrack policy)")
		fps            = flag.Float64("fps", 0, "Frame rate of the source feed")

		startFrame = flag.Int("start", 0, "Frames to skip at the beginning")
		endFrame   = flag.Int("end", 0, "Stop before this frame index (0 = run to the end)")
		stride     = flag.Int("stride", 0, "Images per slide; keeps the last of each group")

		watch  = flag.Bool("watch", false, "Watch the input directory for new frames instead of replaying it")
		settle = flag.Duration("settle", 0, "Delay before reading a newly created frame in watch mode")

		clearOutput = flag.Bool("clear", false, "Remove the output directory before starting")
		archiveYear = flag.Int("archive-year", 0, "Backdate captures to this year (0 = off)")

		plotPath  = flag.String("plot", "", "Write a PNG of the metric trace to this path")
		chartPath = flag.String("chart", "", "Write an interactive HTML chart to this path")
		metricLog = flag.String("metric-log", "", "Append per-frame metric lines to this file")
		dbPath    = flag.String("db", "", "Record the session in this SQLite database")

		quiet       = flag.Bool("quiet", false, "Suppress progress logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("slidescan", version.String())
		return
	}

	if *quiet {
		monitoring.SetLogger(nil)
	}

	if *inputDir == "" {
		fmt.Fprintln(os.Stderr, "slidescan: -input is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Explicit flags win over the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["corners"] {
		cfg.Corners = cornersJSON
	}
	if set["aspect"] {
		cfg.AspectRatio = aspect
	}
	if set["metric"] {
		cfg.MetricMode = metricMode
	}
	if set["priming-threshold"] {
		cfg.PrimingThreshold = priming
	}
	if set["capture-threshold"] {
		cfg.CaptureThreshold = captureT
	}
	if set["frames-required"] {
		cfg.FramesRequired = framesRequired
	}
	if set["backtrack-ms"] {
		cfg.BacktrackMS = backtrackMS
	}
	if set["fps"] {
		cfg.FPS = fps
	}
	if set["start"] {
		cfg.StartFrame = startFrame
	}
	if set["end"] {
		cfg.EndFrame = endFrame
	}
	if set["stride"] {
		cfg.Stride = stride
	}
	if set["settle"] {
		s := settle.String()
		cfg.SettleDelay = &s
	}
	if set["archive-year"] {
		cfg.ArchiveYear = archiveYear
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
		os.Exit(1)
	}

	corners, ok := cfg.GetCorners()
	if !ok {
		fmt.Fprintln(os.Stderr, "slidescan: corners are required (pass -corners or set them in the config file)")
		os.Exit(2)
	}

	scorer, err := metric.New(cfg.GetMetricMode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
		os.Exit(1)
	}

	var policy capture.Policy
	switch *policyName {
	case "backtrack":
		depth := capture.FramesToBacktrack(cfg.GetFPS(), cfg.GetBacktrackMS())
		policy = capture.NewBacktracking(cfg.GetCaptureThreshold(), depth)
	case "stability":
		policy = capture.NewStabilityCount(cfg.GetCaptureThreshold(), cfg.GetFramesRequired())
	default:
		fmt.Fprintf(os.Stderr, "slidescan: unknown policy %q\n", *policyName)
		os.Exit(2)
	}
	machine := capture.New(scorer, policy, cfg.GetPrimingThreshold())

	fs := fsutil.OS{}
	var src source.Source
	if *watch {
		w, err := source.NewWatch(*inputDir, cfg.GetSettleDelay())
		if err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()
		src = w
	} else {
		d, err := source.NewDir(fs, *inputDir, source.DirOptions{
			Start:  cfg.GetStartFrame(),
			End:    cfg.GetEndFrame(),
			Stride: cfg.GetStride(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
			os.Exit(1)
		}
		src = d
	}

	out := sink.NewDir(fs, *outputDir)
	out.ArchiveYear = cfg.GetArchiveYear()
	if err := out.Prepare(*clearOutput); err != nil {
		fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
		os.Exit(1)
	}

	p := pipeline.New(src, machine, out, corners, cfg.GetAspectRatio())

	series := report.NewSeries(cfg.GetPrimingThreshold(), cfg.GetCaptureThreshold())
	if *plotPath != "" || *chartPath != "" {
		p.AttachSeries(series)
	}

	if *metricLog != "" {
		f, err := os.OpenFile(*metricLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: open metric log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		p.AttachMetricLog(f)
	}

	var db *store.Store
	var sessionID string
	if *dbPath != "" {
		db, err = store.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		sessionID, err = db.BeginSession(&store.Session{
			InputPath:        *inputDir,
			OutputPath:       *outputDir,
			MetricMode:       string(cfg.GetMetricMode()),
			PrimingThreshold: cfg.GetPrimingThreshold(),
			CaptureThreshold: cfg.GetCaptureThreshold(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: %v\n", err)
			os.Exit(1)
		}
		p.AttachStore(db, sessionID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	res, runErr := p.Run(ctx)

	if db != nil {
		if err := db.FinishSession(sessionID, res.FramesProcessed, len(res.Captures)); err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: record session: %v\n", err)
		}
	}
	if *plotPath != "" && series.Len() > 0 {
		if err := series.WritePNG(*plotPath); err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: write plot: %v\n", err)
		}
	}
	if *chartPath != "" && series.Len() > 0 {
		if err := series.WriteHTML(*chartPath); err != nil {
			fmt.Fprintf(os.Stderr, "slidescan: write chart: %v\n", err)
		}
	}

	if runErr != nil && runErr != context.Canceled {
		fmt.Fprintf(os.Stderr, "slidescan: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("processed %d frames in %s, captured %d slides to %s\n",
		res.FramesProcessed, time.Since(started).Round(time.Millisecond),
		len(res.Captures), *outputDir)
}
