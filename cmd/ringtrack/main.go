// Command ringtrack runs the ring coverage simulation and serves its
// state over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/ringtrack/internal/config"
	"github.com/banshee-data/ringtrack/internal/monitor"
	"github.com/banshee-data/ringtrack/internal/monitoring"
	"github.com/banshee-data/ringtrack/internal/report"
	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
	"github.com/banshee-data/ringtrack/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to a ring JSON config (defaults to the built-in demo ring)")
	listen      = flag.String("listen", ":8080", "HTTP listen address for the monitor (empty disables it)")
	duration    = flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	plotFile    = flag.String("plot", "", "Write a distance plot to this file on exit (shared scheduler only)")
	debug       = flag.Bool("debug", false, "Log per-tick debug output")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the parsed command line.
type options struct {
	listen   string
	duration time.Duration
	plotFile string
}

func loadConfig(path string) (*config.RingConfig, error) {
	if path == "" {
		cfg := config.DefaultRingConfig()
		return cfg, cfg.Validate()
	}
	return config.LoadRingConfig(path)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*debug)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("%s starting", version.String())
	opts := options{listen: *listen, duration: *duration, plotFile: *plotFile}
	if err := run(ctx, cfg, timeutil.RealClock{}, opts); err != nil {
		log.Printf("ringtrack: %v", err)
		os.Exit(1)
	}
	log.Printf("Graceful shutdown complete")
}

// run builds the simulation described by cfg and drives it until ctx is
// done or opts.duration elapses.
func run(ctx context.Context, cfg *config.RingConfig, clock timeutil.Clock, opts options) error {
	g, err := cfg.Geometry()
	if err != nil {
		return err
	}
	tracks, err := cfg.BuildTracks()
	if err != nil {
		return err
	}
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	ringOpts := ring.Options{Clock: clock, IdleColor: cfg.GetIdleColor()}

	switch cfg.GetScheduler() {
	case config.SchedulerPerPosition:
		return runPerPosition(ctx, cfg, g, tracks, ringOpts, opts)
	default:
		return runShared(ctx, cfg, g, tracks, ringOpts, opts)
	}
}

func runShared(ctx context.Context, cfg *config.RingConfig, g ring.Geometry, tracks []*ring.Track, ringOpts ring.Options, opts options) error {
	r, err := ring.NewRing(g, ringOpts)
	if err != nil {
		return err
	}
	if !r.AttachTracks(tracks) {
		return fmt.Errorf("%s: failed to attach tracks", r)
	}
	for i := 0; i < g.Total; i++ {
		p, err := ring.NewPosition(i, g, nil, ringOpts)
		if err != nil {
			return err
		}
		if err := r.Subscribe(p); err != nil {
			return err
		}
	}

	hub := monitor.NewHub()
	rec := report.NewRecorder(g.CircleLength, 0)
	r.OnFrame(hub.Publish)
	r.OnFrame(rec.Record)

	var wg sync.WaitGroup
	serveMonitor(ctx, &wg, monitor.WebServerConfig{
		Address:  opts.listen,
		Source:   r,
		Hub:      hub,
		Geometry: g,
		Units:    cfg.GetSpeedUnits(),
	})

	err = r.Run(ctx)
	hub.Close()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	for _, s := range rec.LapStats() {
		log.Printf("track %s: %d laps, %.1f m, mean lap %.2fs (sd %.2fs)", s.Label, s.Laps, s.Distance, s.Mean, s.StdDev)
	}
	if n := rec.Skipped(); n > 0 {
		log.Printf("%d track steps skipped on clock regression", n)
	}
	if opts.plotFile != "" {
		if err := rec.WritePlot(opts.plotFile); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		log.Printf("wrote distance plot to %s", opts.plotFile)
	}
	return nil
}

func runPerPosition(ctx context.Context, cfg *config.RingConfig, g ring.Geometry, tracks []*ring.Track, ringOpts ring.Options, opts options) error {
	board := monitor.NewBoard(g, ringOpts.IdleColor, ringOpts.Clock)
	positions := make([]*ring.Position, 0, g.Total)
	for i := 0; i < g.Total; i++ {
		p, err := ring.NewPosition(i, g.For(i), nil, ringOpts)
		if err != nil {
			return err
		}
		p.SetObserver(board.Observe)
		if !p.AttachTracks(tracks) {
			return fmt.Errorf("%s: failed to attach tracks", p)
		}
		positions = append(positions, p)
	}
	if opts.plotFile != "" {
		log.Printf("-plot is only supported with the shared scheduler, ignoring")
	}

	var wg sync.WaitGroup
	serveMonitor(ctx, &wg, monitor.WebServerConfig{
		Address:  opts.listen,
		Source:   board,
		Geometry: g,
		Units:    cfg.GetSpeedUnits(),
	})

	log.Printf("starting %d positions with %d tracks each", len(positions), len(tracks))
	for _, p := range positions {
		p.Start()
	}
	<-ctx.Done()
	for _, p := range positions {
		p.Stop()
	}
	wg.Wait()
	return nil
}

// serveMonitor starts the monitor server in the background unless the
// address is empty.
func serveMonitor(ctx context.Context, wg *sync.WaitGroup, wsCfg monitor.WebServerConfig) {
	if wsCfg.Address == "" {
		return
	}
	ws := monitor.NewWebServer(wsCfg)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("monitor server error: %v", err)
		}
	}()
}
