// emuctl is an interactive shell for poking at an EMU device.
package main

import (
	"flag"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/emu"
	"github.com/NotCoffee418/emu_power/pkg/logging"
	"github.com/abiosoft/ishell/v2"
)

func main() {
	port := flag.String("port", "/dev/ttyACM0", "serial port")
	simulate := flag.Bool("simulate", false, "talk to a simulated device")
	async := flag.Bool("async", false, "do not wait for responses")
	timeout := flag.Duration("timeout", emu.DefaultTimeout, "response timeout")
	debug := flag.Bool("debug", false, "log frame diagnostics")
	flag.Parse()

	logger := logging.InitLogger("emuctl", *debug)
	opts := emu.Options{
		Synchronous: !*async,
		Timeout:     *timeout,
		Debug:       *debug,
		Logger:      &logger,
	}
	if *simulate {
		sim := newSimulatedDevice()
		sim.ReadTimeout = 100 * time.Millisecond
		opts.Opener = sim.Opener()
	}

	session := emu.NewSession(opts)
	defer session.Stop()

	shell := ishell.New()
	shell.Println("EMU shell. Type 'start' to connect, 'help' for commands.")
	addCommands(shell, session, *port)
	shell.Run()
}
