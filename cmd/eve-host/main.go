// Command eve-host boots a display coprocessor over spidev or a Klipper
// bridge MCU and offers an interactive shell for driving it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"goeve/config"
	"goeve/eve"
	"goeve/hal/klipper"
	"goeve/hal/spidev"
	"goeve/host/mcu"
	"goeve/host/serial"
	"goeve/logging"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	transport  = flag.String("transport", "", "Transport: spidev or klipper")
	port       = flag.String("port", "", "spidev port name (spidev transport)")
	device     = flag.String("device", "", "Serial device path (klipper transport)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	csPin      = flag.Uint("cs-pin", 0, "Chip select pin on the bridge MCU (klipper transport)")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat  = flag.String("log-format", "", "Log format: text or json")
	play       = flag.String("play", "", "Play a media file and exit")
	noPanel    = flag.Bool("no-panel", false, "Skip panel bring-up")
	verbose    = flag.Bool("verbose", false, "Print the MCU dictionary summary")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fatalf("config: %v", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		fatalf("%v", err)
	}

	bus, closeBus, err := openBus(cfg)
	if err != nil {
		fatalf("%v", err)
	}
	defer closeBus()

	s := eve.New(bus, cfg.SessionOptions()...)
	fmt.Println("Booting display...")
	if err := s.Boot(); err != nil {
		closeBus()
		fatalf("boot: %v", err)
	}
	if !*noPanel {
		if err := s.ApplyPanel(cfg.PanelTable()); err != nil {
			closeBus()
			fatalf("panel: %v", err)
		}
	}
	w, h := s.Size()
	fmt.Printf("Display ready (%dx%d)\n", w, h)

	sh := newShell(s, cfg, os.Stdout)
	if *play != "" {
		if err := sh.play([]string{*play}); err != nil {
			closeBus()
			fatalf("%v", err)
		}
		return
	}
	sh.interact(os.Stdin)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig reads the configuration file, if any, then applies flags
// that were set on the command line.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transport
		case "port":
			cfg.SPIDev.Port = *port
		case "device":
			cfg.Klipper.Device = *device
		case "baud":
			cfg.Klipper.Baud = *baud
		case "cs-pin":
			cfg.Klipper.CSPin = uint32(*csPin)
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	return cfg, cfg.Validate()
}

func setupLogging(lc config.LogConfig) error {
	lvl, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	f, err := logging.ParseFormat(lc.Format)
	if err != nil {
		return err
	}
	logging.SetLevel(lvl)
	logging.SetOutput(os.Stderr, f)
	return nil
}

// openBus connects the configured transport and returns it with a
// function that releases it.
func openBus(cfg *config.Config) (eve.Bus, func(), error) {
	switch cfg.Transport {
	case config.TransportKlipper:
		return openKlipper(cfg.Klipper)
	default:
		return openSPIDev(cfg.SPIDev)
	}
}

func openSPIDev(c config.SPIDevConfig) (eve.Bus, func(), error) {
	fmt.Printf("Opening SPI port %q...\n", c.Port)
	b, err := spidev.Open(spidev.Config{Port: c.Port, SpeedHz: c.SpeedHz, PDPin: c.PDPin})
	if err != nil {
		return nil, nil, err
	}
	if c.PDPin != "" {
		if err := b.PowerCycle(); err != nil {
			b.Shutdown()
			return nil, nil, fmt.Errorf("power cycle: %w", err)
		}
	}
	return b, func() { b.Shutdown() }, nil
}

func openKlipper(c config.KlipperConfig) (eve.Bus, func(), error) {
	fmt.Printf("Connecting to MCU on %s...\n", c.Device)
	m := mcu.New()
	err := m.ConnectWithConfig(&serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	m.SetTimeout(time.Duration(c.Timeout))
	if err := m.RetrieveDictionary(); err != nil {
		m.Close()
		return nil, nil, fmt.Errorf("failed to retrieve dictionary: %w", err)
	}
	if *verbose {
		m.Summary(os.Stdout)
	}
	b, err := klipper.New(m, klipper.Config{
		OID:          c.OID,
		CSPin:        c.CSPin,
		CSActiveHigh: c.CSActiveHigh,
		Bus:          c.Bus,
		Mode:         c.Mode,
		Rate:         c.Rate,
	})
	if err != nil {
		m.Close()
		return nil, nil, err
	}
	return b, func() { m.Close() }, nil
}

func (sh *shell) interact(r io.Reader) {
	fmt.Fprintln(sh.out, "Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			break
		}
		if err := sh.exec(scanner.Text()); err != nil {
			if err == errQuit {
				fmt.Fprintln(sh.out, "Goodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
	}
}
