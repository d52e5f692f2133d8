package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"voxsheet/audio"
	"voxsheet/beep"
	"voxsheet/config"
	"voxsheet/doctor"
	"voxsheet/hotkey"
	"voxsheet/log"
	"voxsheet/metrics"
	"voxsheet/publish"
	"voxsheet/session"
	"voxsheet/sheet"
	"voxsheet/shutdown"
	"voxsheet/transcriber"
)

var version = "dev"

var guiMode bool

var (
	shutdownOnce sync.Once
	cleanupMu    sync.Mutex
	cleanups     []func()
)

// onShutdown registers fn to run, newest first, when the process exits.
func onShutdown(fn func()) {
	cleanupMu.Lock()
	cleanups = append(cleanups, fn)
	cleanupMu.Unlock()
}

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		cleanupMu.Lock()
		fns := cleanups
		cleanupMu.Unlock()
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
		log.Close()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

// initCrashLog sends runtime crash output to crash_log.txt in the log directory.
func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// wantsGUI scans args for -gui ahead of flag.Parse, because the window
// has to own the main thread before run starts.
func wantsGUI(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "-gui", "--gui", "-gui=true", "--gui=true":
			return true
		}
	}
	return false
}

func run() {
	envFlag := flag.String("env", ".env", "dotenv file merged into the environment (missing file is ignored)")
	backendFlag := flag.String("backend", "", "Transcription backend: google or proxy (default: $VOXSHEET_BACKEND or google)")
	proxyFlag := flag.String("proxy", "", "Transcription proxy URL for the proxy backend")
	formatFlag := flag.String("format", "", "Audio format sent to Google: linear16 or flac")
	langFlag := flag.String("lang", "", "Recognition language (default ko-KR)")
	cellFlag := flag.String("cell", "", "Start cell, e.g. B3 (default: last used cell)")
	metricsFlag := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	hybridFlag := flag.Bool("hybrid", false, "Enable hybrid tap+hold recording mode")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for PTT vs tap (e.g., 350ms)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	hotkeyFlag := flag.String("hotkey", "", "Global hotkey, e.g. ctrl+shift+space or ctrl+f9 (default: $VOXSHEET_HOTKEY)")
	flag.Bool("gui", false, "Run the desktop window (build with -tags gui)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voxsheet %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	opts, err := config.Load(*envFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *backendFlag != "" {
		opts.Backend = *backendFlag
	}
	if *proxyFlag != "" {
		opts.ProxyURL = *proxyFlag
	}
	if *formatFlag != "" {
		opts.Format = *formatFlag
	}
	if *langFlag != "" {
		opts.Language = *langFlag
	}
	if *metricsFlag != "" {
		opts.MetricsAddr = *metricsFlag
	}
	if *hotkeyFlag != "" {
		opts.Hotkey = *hotkeyFlag
	}

	opts.ClampTimeout()

	if *doctorFlag {
		os.Exit(doctor.Run(opts))
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: voxsheet -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], opts, *cellFlag, *longPressFlag)
		return
	}

	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := guiAudioCtx
	if ctx == nil {
		if ctx, err = audio.NewContext(); err != nil {
			log.Errorf("audio context init error: %v", err)
			fmt.Printf("Error initializing audio context: %v\n", err)
			os.Exit(1)
		}
	}
	onShutdown(ctx.Close)

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if selectedDevice, err = audio.FindDevice(ctx, *deviceFlag); err != nil || selectedDevice == nil {
			log.Warnf("device %q not available, using system default", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	m, err := newMic(ctx, audio.DefaultCaptureConfig(), selectedDevice)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Printf("Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	onShutdown(m.Close)

	a, err := newApp(appConfig{opts: opts, cell: *cellFlag, open: m.Open, device: m.Name(), sheets: true})
	if err != nil {
		log.Errorf("startup error: %v", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	onShutdown(a.Close)

	if opts.MetricsAddr != "" {
		srv := metrics.NewServer(opts.MetricsAddr)
		if err := srv.Start(); err != nil {
			log.Errorf("metrics server: %v", err)
		} else {
			onShutdown(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			})
		}
	}

	var sink EventSink
	switch {
	case guiMode:
		sink = attachGUI(a, m)
	case *tuiFlag:
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(a, m.Line(), opts)
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()
		<-tuiReady
		sink = tuiSink{}
	default:
		sink = newPlainSink(os.Stdout)
		fmt.Printf("voxsheet %s: %s, %s\n", version, m.Line(), a.Target())
	}
	go a.pump(sink)
	go m.watch(func(line string) {
		tuiSend(DeviceLineMsg{Text: line})
		if d, ok := sink.(interface{ DeviceLine(string) }); ok {
			d.DeviceLine(line)
		}
	})

	shutdown.Watch(func(sig os.Signal) {
		log.Info("signal: " + sig.String())
		gracefulShutdown()
	})

	go beep.Init()

	hk := hotkey.New(opts.Combo())
	if err := hk.Register(); err != nil {
		// the on-screen controls still work without a global hotkey
		log.Errorf("hotkey register error: %v", err)
		tuiSend(HotkeyLineMsg{Text: "단축키 사용 불가: " + err.Error()})
		select {}
	}
	onShutdown(hk.Unregister)

	if *hybridFlag {
		hotkeyLoop(a, hotkey.NewHybrid(hk, *longPressFlag))
	} else {
		toggleLoop(a, hk)
	}
}

type appConfig struct {
	opts   config.Options
	cell   string
	open   audio.Opener
	device string
	client transcriber.Client // nil builds one from opts
	sheets bool               // connect to Google Sheets
}

func newApp(cfg appConfig) (*app, error) {
	opts := cfg.opts
	settings := config.LoadSettings(opts.SettingsPath)

	start := cfg.cell
	if start == "" {
		start = settings.LastCell()
	}
	addr, err := sheet.ParseAddress(start)
	if err != nil {
		log.Warnf("start cell %q: %v, using A1", start, err)
		addr = sheet.MustParseAddress("A1")
	}
	pointer := sheet.NewPointer(addr)
	pointer.OnChange(func(a sheet.Address) {
		if err := settings.SetLastCell(a.String(), a.Row, a.ColumnIndex()); err != nil {
			log.Warnf("saving settings: %v", err)
		}
	})

	client := cfg.client
	if client == nil {
		ctx, cancel := context.WithTimeout(context.Background(), sheetsTimeout)
		client, err = transcriber.New(ctx, opts.Transcriber())
		cancel()
		if err != nil {
			return nil, fmt.Errorf("transcriber: %w", err)
		}
	}

	a := &app{
		opts:      opts,
		settings:  settings,
		pointer:   pointer,
		local:     sheet.NewLocalFile(opts.CSVPath),
		publisher: publish.New(publish.Config{Brokers: opts.KafkaBrokers, Topic: opts.KafkaTopic}),
		device:    cfg.device,
		client:    client,
	}
	if cfg.sheets {
		a.sheets = connectSheets(opts, settings)
	}

	router := &sheet.Router{Fallback: a.local, Metrics: metrics.DefaultMetrics}
	if a.sheets != nil {
		router.Primary = a.sheets
	}

	a.sess = session.New(session.Config{
		Capture:   audio.DefaultCaptureConfig(),
		Open:      cfg.open,
		Client:    client,
		Sinks:     router,
		Pointer:   pointer,
		Publisher: a.publisher,
		Selection: a.Selection,
		Timeout:   opts.Timeout,
		Device:    cfg.device,
	})
	return a, nil
}

// connectSheets returns nil when the API client cannot be built. A failed
// restore keeps the client so a spreadsheet can still be picked later.
func connectSheets(opts config.Options, settings *config.Settings) *sheet.GoogleSheets {
	ctx, cancel := context.WithTimeout(context.Background(), sheetsTimeout)
	defer cancel()
	gs, err := sheet.NewGoogleSheets(ctx, opts.Credentials, settings.AllowedSpreadsheets())
	if err != nil {
		log.Warnf("google sheets unavailable, saving to %s: %v", opts.CSVPath, err)
		return nil
	}
	if err := gs.Restore(ctx, settings.LastSpreadsheet(), settings.LastSheet()); err != nil {
		log.Warnf("restoring spreadsheet selection: %v", err)
		return gs
	}
	ss, ws := gs.Selection()
	if err := settings.SetLastSpreadsheet(ss); err != nil {
		log.Warnf("saving settings: %v", err)
	}
	if err := settings.SetLastSheet(ws); err != nil {
		log.Warnf("saving settings: %v", err)
	}
	log.Info("sheet_selected: " + ss + " / " + ws)
	return gs
}

func (a *app) Close() {
	a.sess.Stop()
	a.sess.Wait()
	a.sess.Drain()
	if err := a.publisher.Close(); err != nil {
		log.Warnf("closing publisher: %v", err)
	}
	if c, ok := a.client.(io.Closer); ok {
		if err := c.Close(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("closing transcriber: %v", err)
		}
	}
}

// toggleLoop starts a recording on one hotkey press and stops it on the next.
func toggleLoop(a *app, hk hotkey.Hotkey) {
	for range hk.Keydown() {
		log.Info("hotkey_down")
		a.Toggle()
	}
}

// hotkeyLoop drives the session from a hybrid hotkey: a tap toggles
// recording and a hold records until release.
func hotkeyLoop(a *app, hy *hotkey.Hybrid) {
	for ev := range hy.Start() {
		select {
		case <-hy.StopChan():
		default:
		}
		log.Info("hotkey_start_" + string(ev.Mode))
		if !a.Start() {
			hy.Reset()
			continue
		}
		done := make(chan struct{})
		go func() {
			a.sess.Wait()
			close(done)
		}()
		select {
		case <-hy.StopChan():
			log.Info("hotkey_stop")
			a.Stop()
		case <-done:
			hy.Reset()
		}
	}
}
