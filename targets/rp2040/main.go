//go:build rp2040 || rp2350

// Command rp2040 runs a display session on the microcontroller itself: it
// boots the chip over SPI0, brings up an 800x480 panel and draws a dot
// under the finger.
package main

import (
	"machine"
	"time"

	"goeve/eve"
)

const (
	displayBus = "spi0c"
	displayHz  = 10000000
	csPin      = machine.GPIO17
	pdPin      = machine.GPIO15
)

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	pdPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pdPin.Low()
	time.Sleep(20 * time.Millisecond)
	pdPin.High()
	time.Sleep(20 * time.Millisecond)

	bus, err := openDisplayBus(displayBus, displayHz, csPin)
	if err != nil {
		halt(led, "spi: "+err.Error())
	}

	s := eve.New(bus)
	if err := restart(s); err != nil {
		halt(led, "boot: "+err.Error())
	}
	led.High()

	for {
		if err := frame(s); err != nil {
			println("frame:", err.Error())
			led.Low()
			if err := restart(s); err != nil {
				println("restart:", err.Error())
				continue
			}
			led.High()
		}
	}
}

// restart reboots the chip and brings the panel back up.
func restart(s *eve.Session) error {
	if err := s.Boot(); err != nil {
		return err
	}
	return s.ApplyPanel(eve.Panel800x480)
}

// frame draws one frame: a dot at the touch point, or a prompt.
func frame(s *eve.Session) error {
	in, err := s.GetInputs()
	if err != nil {
		return err
	}
	w, h := s.Size()

	steps := []func() error{
		s.DLStart,
		func() error { return s.ClearColorRGB(0, 0, 32) },
		func() error { return s.Clear(true, true, true) },
	}
	if in.State.Touching {
		steps = append(steps,
			func() error { return s.ColorRGB(255, 160, 0) },
			func() error { return s.PointSize(24) },
			func() error { return s.Begin(eve.Points) },
			func() error { return s.Vertex2f(float64(in.Touch.X), float64(in.Touch.Y)) },
			s.End,
		)
	} else {
		steps = append(steps, func() error {
			return s.Text(w/2, h/2, 30, eve.OptCenter, "Touch the screen")
		})
	}
	steps = append(steps, s.Swap, s.Finish)
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// halt blinks the LED forever after a fatal error.
func halt(led machine.Pin, msg string) {
	for {
		println(msg)
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(400 * time.Millisecond)
	}
}
