// Package main implements the nescore NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/student/nescore/internal/app"
	"github.com/student/nescore/internal/audio"
	"github.com/student/nescore/internal/bus"
	"github.com/student/nescore/internal/cartridge"
	"github.com/student/nescore/internal/graphics"
	"github.com/student/nescore/internal/input"
	"github.com/student/nescore/internal/logging"
	"github.com/student/nescore/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file")
		configFile = flag.String("config", "", "Path to configuration file")
		headless   = flag.Bool("headless", false, "Run without a window, executing a fixed number of frames")
		frames     = flag.Int("frames", 600, "Frame count to run in -headless mode")
		profile    = flag.String("profile", "", "Address to serve pprof on, e.g. localhost:6060")
		versionFlg = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *versionFlg {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	if *profile != "" {
		go func() {
			log.Println(http.ListenAndServe(*profile, nil))
		}()
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Logger(logging.NopLogger{})
	if config.Debug.EnableLogging {
		logger = logging.GlogLogger{}
	}

	emu := bus.New(logger)

	if *romFile != "" {
		cart, err := cartridge.LoadFromFile(*romFile)
		if err != nil {
			log.Fatalf("failed to load ROM %q: %v", *romFile, err)
		}
		emu.LoadCartridge(cart)
	}

	setupGracefulShutdown()

	if *headless {
		runHeadless(emu, *frames)
		return
	}

	if *romFile == "" {
		fmt.Println("nescore: no ROM specified, pass -rom <file.nes>")
		os.Exit(1)
	}

	if err := runGUI(emu, config); err != nil {
		log.Fatalf("nescore: %v", err)
	}
}

// runHeadless advances the emulator a fixed number of frames with no
// window, for scripted testing and CI smoke runs.
func runHeadless(emu *bus.Bus, frames int) {
	start := time.Now()
	emu.Run(frames)
	fmt.Printf("ran %d frames in %v (%.1f fps)\n", frames, time.Since(start), float64(frames)/time.Since(start).Seconds())
}

// runGUI opens a window through the configured graphics backend and
// drives the emulator from its per-frame update callback.
func runGUI(emu *bus.Bus, config *app.Config) error {
	backendType := graphics.BackendType(config.Video.Backend)
	backend, err := graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("creating graphics backend: %w", err)
	}

	if err := backend.Initialize(graphics.Config{
		WindowTitle:  "nescore",
		WindowWidth:  config.Window.Width,
		WindowHeight: config.Window.Height,
		Fullscreen:   config.Window.Fullscreen,
		VSync:        config.Video.VSync,
		Filter:       config.Video.Filter,
	}); err != nil {
		return fmt.Errorf("initializing graphics backend: %w", err)
	}
	defer backend.Cleanup()

	window, err := backend.CreateWindow("nescore", config.Window.Width, config.Window.Height)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Cleanup()

	window.SetVideoProcessor(graphics.NewVideoProcessor(
		config.Video.Brightness, config.Video.Contrast, config.Video.Saturation,
	))

	var player *audio.Player
	if config.Audio.Enabled {
		player = audio.NewPlayer(config.Audio.SampleRate)
		player.SetVolume(config.Audio.Volume)
		if err := player.Start(); err != nil {
			log.Printf("nescore: audio disabled: %v", err)
			player = nil
		} else {
			defer player.Close()
			emu.SetAudioSampleRate(config.Audio.SampleRate)
		}
	}

	if ebitengineWindow, ok := graphics.AsEbitengineWindow(window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(func() error {
			return stepFrame(emu, window, player)
		})
		return ebitengineWindow.Run()
	}

	for !window.ShouldClose() {
		if err := stepFrame(emu, window, player); err != nil {
			return err
		}
	}
	return nil
}

// stepFrame runs one NES frame, applies queued input events, renders
// the result, and feeds any generated audio samples to the player.
func stepFrame(emu *bus.Bus, window graphics.Window, player *audio.Player) error {
	for _, event := range window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			os.Exit(0)
		case graphics.InputEventTypeButton:
			applyButtonEvent(emu, event)
		}
	}

	emu.Frame()

	if player != nil {
		player.Feed(emu.GetAudioSamples())
	}

	window.SetColorEmphasis(emu.PPU.EmphasisBits(), emu.PPU.GreyscaleEnabled())
	return window.RenderFrame(emu.PPU.GetFrameBuffer())
}

var buttonMap = map[graphics.Button]struct {
	controller int
	button     input.Button
}{
	graphics.ButtonA:      {1, input.ButtonA},
	graphics.ButtonB:      {1, input.ButtonB},
	graphics.ButtonSelect: {1, input.ButtonSelect},
	graphics.ButtonStart:  {1, input.ButtonStart},
	graphics.ButtonUp:     {1, input.ButtonUp},
	graphics.ButtonDown:   {1, input.ButtonDown},
	graphics.ButtonLeft:   {1, input.ButtonLeft},
	graphics.ButtonRight:  {1, input.ButtonRight},

	graphics.Button2A:      {2, input.ButtonA},
	graphics.Button2B:      {2, input.ButtonB},
	graphics.Button2Select: {2, input.ButtonSelect},
	graphics.Button2Start:  {2, input.ButtonStart},
	graphics.Button2Up:     {2, input.ButtonUp},
	graphics.Button2Down:   {2, input.ButtonDown},
	graphics.Button2Left:   {2, input.ButtonLeft},
	graphics.Button2Right:  {2, input.ButtonRight},
}

func applyButtonEvent(emu *bus.Bus, event graphics.InputEvent) {
	mapping, ok := buttonMap[event.Button]
	if !ok {
		return
	}
	emu.SetControllerButton(mapping.controller, mapping.button, event.Pressed)
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		os.Exit(0)
	}()
}
