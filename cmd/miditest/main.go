package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"oslo-surface/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	match := "faderfox"
	if len(os.Args) > 2 {
		match = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect(match)
	case "monitor":
		monitor(match)
	case "leds":
		testLEDs(match)
	case "poll":
		pollDevices(match)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Usage: miditest <command> [port match]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - List all MIDI ports")
	fmt.Println("  detect  - Find the controller")
	fmt.Println("  monitor - Print incoming messages and whether the layout maps them")
	fmt.Println("  leds    - Sweep mute LEDs and fader feedback")
	fmt.Println("  poll    - Watch for the controller connecting and disconnecting")
}

func listPorts() {
	fmt.Println("=== MIDI Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ch := make(chan []midi.PortInfo, 1)
	go func() {
		ch <- midi.ListPorts()
	}()

	select {
	case ports := <-ch:
		for i, p := range ports {
			fmt.Printf("  %d: %-40s %s\n", i, p.Name, direction(p))
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func direction(p midi.PortInfo) string {
	var dirs []string
	if p.Input {
		dirs = append(dirs, "in")
	}
	if p.Output {
		dirs = append(dirs, "out")
	}
	return strings.Join(dirs, "/")
}

func detect(match string) {
	fmt.Printf("Looking for %q...\n", match)

	found := false
	for _, p := range midi.ListPorts() {
		if midi.Matches(p.Name, match) {
			fmt.Printf("Found: %s (%s)\n", p.Name, direction(p))
			found = true
		}
	}

	if found {
		fmt.Println("\nController detected!")
	} else {
		fmt.Println("\nController not found")
	}
}

func open(match string) *midi.Port {
	port, err := midi.OpenPort(match)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Using: %s\n", port.Name())
	return port
}

func monitor(match string) {
	port := open(match)
	defer port.Close()

	controls, err := midi.NewControls(midi.DefaultLayout(), midi.DefaultStrips, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	msgs := make(chan gomidi.Message, 64)
	err = port.Listen(func(msg gomidi.Message) {
		select {
		case msgs <- msg:
		default:
		}
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Move controls on the device. Ctrl+C to exit.")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgs:
			state := "unmapped"
			if controls.Dispatch(msg) {
				state = "mapped"
			}
			fmt.Printf("[%s] %-40s %s\n", time.Now().Format("15:04:05.000"), msg.String(), state)
		}
	}
}

func testLEDs(match string) {
	fmt.Println("Testing LED feedback...")

	port := open(match)
	defer port.Close()

	layout := midi.DefaultLayout()
	mutes := midi.Numbers(layout.Mute, layout.TrackChannel, midi.DefaultStrips)
	volumes := midi.Numbers(layout.Volume, layout.TrackChannel, midi.DefaultStrips)

	fmt.Println("Lighting mute buttons...")
	for _, a := range mutes {
		port.Send(gomidi.NoteOn(a.Channel, a.ID, 127))
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("Ramping volume feedback...")
	for v := 0; v <= 127; v += 8 {
		for _, a := range volumes {
			port.Send(gomidi.ControlChange(a.Channel, a.ID, uint8(v)))
		}
		time.Sleep(30 * time.Millisecond)
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()

	for _, a := range mutes {
		port.Send(gomidi.NoteOn(a.Channel, a.ID, 0))
	}
	for _, a := range volumes {
		port.Send(gomidi.ControlChange(a.Channel, a.ID, 0))
	}

	fmt.Println("Done!")
}

func pollDevices(match string) {
	fmt.Printf("Watching for %q...\n", match)
	fmt.Println("Connect/disconnect the controller to test. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dm := midi.NewDeviceManager(match, 2*time.Second)
	go dm.Run(ctx)

	for ev := range dm.Events() {
		fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), ev.Type, ev.ID)
	}
}
