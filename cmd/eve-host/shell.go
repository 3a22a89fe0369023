package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"goeve/config"
	"goeve/eve"
	"goeve/media"
)

var errQuit = errors.New("quit")

// shell runs one command line at a time against a booted session.
type shell struct {
	s   *eve.Session
	cfg *config.Config
	out io.Writer

	handlers map[string]handler
}

type handler struct {
	usage string
	help  string
	run   func(args []string) error
}

func newShell(s *eve.Session, cfg *config.Config, out io.Writer) *shell {
	sh := &shell{s: s, cfg: cfg, out: out}
	sh.handlers = map[string]handler{
		"help":      {"", "Show this help message", sh.help},
		"id":        {"", "Read the chip id, frame counter and clock", sh.id},
		"boot":      {"", "Reboot the chip and bring the panel up", sh.boot},
		"testcard":  {"", "Show the test card", sh.simple((*eve.Session).Testcard)},
		"logo":      {"", "Play the boot logo animation", sh.simple((*eve.Session).Logo)},
		"calibrate": {"", "Run touch calibration", sh.calibrate},
		"text":      {"x y font \"text\"", "Draw centered text on a cleared screen", sh.text},
		"touch":     {"", "Print a touch snapshot", sh.touch},
		"play":      {"file", "Stream a video file through the media FIFO", sh.play},
		"cmd":       {"name args... [\"string\"]", "Send any catalog command", sh.cmd},
		"commands":  {"", "List catalog commands", sh.commands},
		"quit":      {"", "Exit the program", func([]string) error { return errQuit }},
	}
	return sh
}

// exec tokenizes line with shell quoting rules and runs it.
func (sh *shell) exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	switch name {
	case "exit", "q":
		name = "quit"
	case "?":
		name = "help"
	}
	h, ok := sh.handlers[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", args[0])
	}
	return h.run(args[1:])
}

func (sh *shell) help([]string) error {
	fmt.Fprintln(sh.out, "\nAvailable commands:")
	names := make([]string, 0, len(sh.handlers))
	for n := range sh.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		h := sh.handlers[n]
		fmt.Fprintf(sh.out, "  %-28s - %s\n", strings.TrimSpace(n+" "+h.usage), h.help)
	}
	fmt.Fprintln(sh.out)
	return nil
}

func (sh *shell) simple(f func(*eve.Session) error) func([]string) error {
	return func([]string) error {
		if err := f(sh.s); err != nil {
			return err
		}
		return sh.s.Finish()
	}
}

func (sh *shell) id([]string) error {
	id, err := sh.s.Read32(eve.RegID)
	if err != nil {
		return err
	}
	frames, err := sh.s.Frames()
	if err != nil {
		return err
	}
	ticks, err := sh.s.Ticks()
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "id 0x%02x frames %d clock %d state %s\n", id, frames, ticks, sh.s.State())
	return nil
}

func (sh *shell) boot([]string) error {
	if err := sh.s.Boot(); err != nil {
		return err
	}
	return sh.s.ApplyPanel(sh.cfg.PanelTable())
}

func (sh *shell) calibrate([]string) error {
	if err := sh.s.Calibrate(); err != nil {
		return err
	}
	return sh.s.Finish()
}

func (sh *shell) text(args []string) error {
	if len(args) != 4 {
		return errors.New("usage: text x y font \"text\"")
	}
	n, err := ints(args[:3])
	if err != nil {
		return err
	}
	s := sh.s
	steps := []func() error{
		s.DLStart,
		func() error { return s.ClearColorRGB(0, 0, 0) },
		func() error { return s.Clear(true, true, true) },
		func() error { return s.Text(int(n[0]), int(n[1]), int(n[2]), eve.OptCenter, args[3]) },
		s.Swap,
		s.Finish,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (sh *shell) touch([]string) error {
	in, err := sh.s.GetInputs()
	if err != nil {
		return err
	}
	t := in.Touch
	fmt.Fprintf(sh.out, "touching=%v press=%v release=%v x=%d y=%d tag=%d tracker=%d/%d raw=%d,%d rz=%d\n",
		in.State.Touching, in.State.Press, in.State.Release, t.X, t.Y, t.Tag,
		in.Tracker.Tag, in.Tracker.Value, t.RawX, t.RawY, t.Resistance)
	return nil
}

func (sh *shell) play(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: play file")
	}
	src, err := media.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()
	m, err := eve.NewMediaStream(sh.s, src, sh.cfg.MediaOptions()...)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Playing %s...\n", args[0])
	if err := m.Play(); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "Done")
	return nil
}

func (sh *shell) cmd(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cmd name args...")
	}
	e, ok := eve.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", eve.ErrUnknownCommand, args[0])
	}
	rest := args[1:]
	var opts []eve.CmdOption
	if len(rest) == len(e.Schema)+1 {
		opts = append(opts, eve.WithString(rest[len(rest)-1]))
		rest = rest[:len(rest)-1]
	}
	vals, err := ints(rest)
	if err != nil {
		return err
	}
	if err := sh.s.Command(e.Name, vals, opts...); err != nil {
		return err
	}
	return sh.s.Flush()
}

func (sh *shell) commands([]string) error {
	for _, n := range eve.Commands() {
		e, _ := eve.Lookup(n)
		fmt.Fprintf(sh.out, "  %-16s 0x%08x %s\n", n, e.Opcode(), e.Schema)
	}
	return nil
}

// ints parses decimal or 0x-prefixed arguments.
func ints(args []string) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
