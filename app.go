package main

import (
	"context"
	"errors"
	"maps"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"oslo-surface/config"
	"oslo-surface/debug"
	"oslo-surface/host"
	"oslo-surface/midi"
	"oslo-surface/surface"
	"oslo-surface/theme"
	"oslo-surface/tui"
)

// app owns the song, the event loop and at most one bound controller.
// Fields below the loop marker are only touched on the loop goroutine.
type app struct {
	cfg config.Config
	log *zap.Logger

	song     *host.Song
	loop     *host.Loop
	bridge   *host.Bridge
	devices  *midi.DeviceManager
	controls *midi.Controls

	feed   *tui.Feed
	status chan tui.DeviceMsg

	// loop
	conn  midi.Conn
	surf  *surface.Surface
	ports map[string]midi.Conn // every matching port still plugged in
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	controls, err := midi.NewControls(cfg.Layout, cfg.Surface.NumTracks, &midi.Output{})
	if err != nil {
		return nil, err
	}
	song := host.NewSong()
	loop := host.NewLoop(cfg.Surface.TickInterval, log.Named("loop"))
	bridge := host.NewBridge(song, loop, host.BridgeConfig{
		Listen: cfg.OSC.Listen,
		Host:   cfg.OSC.Host,
		Port:   cfg.OSC.Port,
	}, log.Named("osc"))

	return &app{
		cfg:      cfg,
		log:      log,
		song:     song,
		loop:     loop,
		bridge:   bridge,
		devices:  midi.NewDeviceManager(cfg.MIDI.Port, cfg.MIDI.PollInterval),
		controls: controls,
		ports:    make(map[string]midi.Conn),
	}, nil
}

// enableMonitor makes the app publish snapshots and device status for the TUI
func (a *app) enableMonitor() {
	a.feed = tui.NewFeed()
	a.status = make(chan tui.DeviceMsg, 8)
}

// run serves OSC and binds controllers until ctx is cancelled
func (a *app) run(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	devCtx, stopDevices := context.WithCancel(context.Background())
	defer stopLoop()
	defer stopDevices()

	var wg sync.WaitGroup
	errs := make(chan error, 1)
	wg.Add(3)
	go func() {
		defer wg.Done()
		a.loop.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		if err := a.bridge.ListenAndServe(ctx); err != nil {
			errs <- err
		}
	}()
	go func() {
		defer wg.Done()
		a.devices.Run(devCtx)
	}()

	if err := a.bridge.RequestSync(); err != nil {
		a.log.Warn("sync request failed", zap.Error(err))
	}
	a.log.Info("waiting for controller", zap.String("match", a.cfg.MIDI.Port))

	var err error
	events := a.devices.Events()
wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case err = <-errs:
			break wait
		case ev, ok := <-events:
			if !ok {
				break wait
			}
			a.handleDevice(ev)
		}
	}

	// LEDs go dark before the ports close
	a.release()
	stopDevices()
	for range events {
	}
	stopLoop()
	wg.Wait()
	return err
}

func (a *app) post(fn func()) {
	if err := a.loop.Post(fn); err != nil {
		a.log.Debug("event dropped", zap.Error(err))
	}
}

func (a *app) handleDevice(ev midi.DeviceEvent) {
	switch ev.Type {
	case midi.DeviceConnected:
		conn := ev.Conn
		a.post(func() { a.connect(conn) })
		err := conn.Listen(func(msg gomidi.Message) {
			a.post(func() {
				if a.conn == conn && !a.controls.Dispatch(msg) {
					debug.LogEvery(50, "midi", "unmapped message %s", msg)
				}
			})
		})
		if err != nil {
			a.log.Warn("listen failed", zap.String("port", conn.Name()), zap.Error(err))
		}

	case midi.DeviceDisconnected:
		id := ev.ID
		a.post(func() { a.disconnect(id) })
	}
}

func (a *app) connect(conn midi.Conn) {
	a.ports[conn.Name()] = conn
	a.bind(conn)
}

func (a *app) bind(conn midi.Conn) {
	if a.conn != nil {
		a.log.Warn("controller already bound, ignoring",
			zap.String("bound", a.conn.Name()),
			zap.String("port", conn.Name()))
		return
	}

	a.controls.Output().Set(conn.Send)
	s, err := surface.New(a.song, a.controls.Surface(), a.loop,
		surface.WithLogger(a.log.Named("surface")),
		surface.WithPulseDelay(a.cfg.Surface.PulseDelay),
		surface.WithWindowSize(a.cfg.Surface.NumTracks),
	)
	if err != nil {
		a.controls.Output().Set(nil)
		a.log.Error("surface setup failed", zap.String("port", conn.Name()), zap.Error(err))
		return
	}
	a.conn, a.surf = conn, s
	a.log.Info("controller connected", zap.String("port", conn.Name()))

	if a.feed != nil {
		s.OnUpdate(a.feed.Publish)
		a.feed.Publish(s.Snapshot())
	}
	a.report(tui.DeviceMsg{Name: conn.Name(), Connected: true})
}

// disconnect forgets the port and, when it was the bound controller, hands
// the surface to the next matching port still plugged in.
func (a *app) disconnect(id string) {
	delete(a.ports, id)
	if a.conn == nil || a.conn.Name() != id {
		return
	}
	a.unbind(false)
	a.log.Info("controller disconnected", zap.String("port", id))
	a.report(tui.DeviceMsg{Name: id})

	for _, name := range slices.Sorted(maps.Keys(a.ports)) {
		a.bind(a.ports[name])
		if a.conn != nil {
			return
		}
	}
}

// unbind detaches the surface. With darken set the LEDs are turned off
// first, which only makes sense while the port is still open.
func (a *app) unbind(darken bool) {
	if a.surf == nil {
		return
	}
	a.surf.Disconnect()
	if darken {
		a.controls.Clear()
	}
	a.controls.Output().Set(nil)
	a.conn, a.surf = nil, nil
}

func (a *app) release() {
	done := make(chan struct{})
	err := a.loop.Post(func() {
		defer close(done)
		a.unbind(true)
	})
	if err != nil {
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		a.log.Warn("timed out clearing controller")
	}
}

func (a *app) report(msg tui.DeviceMsg) {
	if a.status == nil {
		return
	}
	select {
	case a.status <- msg:
	default:
	}
}

// TogglePlay starts or stops the transport from the monitor
func (a *app) TogglePlay() {
	a.post(func() { a.song.SetPlaying(!a.song.IsPlaying()) })
}

// SelectRelative moves the selection from the monitor, stopping at the ends
func (a *app) SelectRelative(delta int) {
	a.post(func() {
		n := a.song.NumTracks()
		if n == 0 {
			return
		}
		i := a.song.SelectedTrack()
		if i == surface.NoSelection {
			i = 0
		} else {
			i = min(max(i+delta, 0), n-1)
		}
		a.song.SelectTrack(i)
	})
}

func runSurface(cmd *cobra.Command, args []string) error {
	v, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	withTUI, _ := cmd.Flags().GetBool("tui")
	logFile := cfg.Log.File
	if withTUI && logFile == "" {
		logFile = debug.DefaultFile()
	}
	if err := debug.Enable(debug.Options{Level: cfg.Log.Level, File: logFile}); err != nil {
		return err
	}
	defer debug.Disable()
	log := debug.L()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	watchConfig(v, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !withTUI {
		return a.run(ctx)
	}

	th, err := loadTheme(cmd)
	if err != nil {
		return err
	}
	a.enableMonitor()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(tui.NewModel(a, a.feed.C(), a.status, th), tea.WithAltScreen(), tea.WithContext(ctx))

	errc := make(chan error, 1)
	go func() {
		err := a.run(ctx)
		errc <- err
		p.Quit()
	}()

	_, perr := p.Run()
	cancel()
	rerr := <-errc
	if perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
		return perr
	}
	return rerr
}

func loadTheme(cmd *cobra.Command) (*theme.Theme, error) {
	path, _ := cmd.Flags().GetString("palette")
	if path == "" {
		return theme.New(nil), nil
	}
	palette, err := theme.Load(path)
	if err != nil {
		return nil, err
	}
	return theme.New(palette), nil
}

// watchConfig applies log level edits without a restart. Other settings take
// effect on the next start.
func watchConfig(v *viper.Viper, log *zap.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	config.Watch(v, func(c config.Config) {
		if err := debug.SetLevel(c.Log.Level); err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		log.Info("config reloaded", zap.String("level", c.Log.Level))
	}, func(err error) {
		log.Warn("config edit rejected", zap.Error(err))
	})
}
