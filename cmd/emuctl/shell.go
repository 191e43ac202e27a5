package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NotCoffee418/emu_power/pkg/emu"
	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/store"
	"github.com/NotCoffee418/emu_power/pkg/wire"
	"github.com/abiosoft/ishell/v2"
)

const expectArg = "expect"

// parseRawArgs reads "<name> [key=value ...]". expect=<Kind> selects the awaited response.
func parseRawArgs(args []string) (wire.Command, entities.Kind, error) {
	if len(args) == 0 {
		return wire.Command{}, "", fmt.Errorf("usage: raw <name> [key=value ...] [expect=Kind]")
	}
	cmd := wire.NewCommand(args[0])
	var expected entities.Kind
	for _, arg := range args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return wire.Command{}, "", fmt.Errorf("bad parameter %q, want key=value", arg)
		}
		if key == expectArg {
			desc, known := entities.Classify(value)
			if !known {
				return wire.Command{}, "", fmt.Errorf("unknown kind %q", value)
			}
			expected = desc.Kind
			continue
		}
		cmd.Params = append(cmd.Params, wire.Set(key, value))
	}
	return cmd, expected, nil
}

func formatEntity(e store.Entity) string {
	record, err := json.MarshalIndent(e.Record, "", "  ")
	if err != nil {
		return err.Error()
	}
	fresh := "stale"
	if e.Fresh {
		fresh = "fresh"
	}
	return fmt.Sprintf("%s (%s, received %s)\n%s", e.Kind, fresh, e.ReceivedAt.Format("15:04:05"), record)
}

func printResult(c *ishell.Context, e *store.Entity, err error) {
	switch {
	case err != nil:
		c.Println("Error:", err)
	case e == nil:
		c.Println("Sent")
	default:
		c.Println(formatEntity(*e))
	}
}

func addCommands(shell *ishell.Shell, session *emu.Session, defaultPort string) {
	ctx := context.Background()

	shell.AddCmd(&ishell.Cmd{
		Name: "start",
		Help: "start [port]",
		Func: func(c *ishell.Context) {
			port := defaultPort
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := session.Start(port); err != nil {
				c.Println("Error:", err)
				return
			}
			c.Println("Connected to", port)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "close the serial port",
		Func: func(c *ishell.Context) {
			if err := session.Stop(); err != nil {
				c.Println("Error:", err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "demand",
		Help: "request instantaneous demand",
		Func: func(c *ishell.Context) {
			e, err := session.GetInstantaneousDemand(ctx, nil, true)
			printResult(c, e, err)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "summation",
		Help: "request current summation delivered",
		Func: func(c *ishell.Context) {
			e, err := session.GetCurrentSummationDelivered(ctx, nil, true)
			printResult(c, e, err)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "price",
		Help: "price [cents] - request the current price, or set it",
		Func: func(c *ishell.Context) {
			if len(c.Args) > 0 {
				printResult(c, nil, session.SetCurrentPrice(ctx, nil, c.Args[0]))
				return
			}
			e, err := session.GetCurrentPrice(ctx, nil, true)
			printResult(c, e, err)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "request connection status",
		Func: func(c *ishell.Context) {
			e, err := session.GetConnectionStatus(ctx)
			printResult(c, e, err)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "info",
		Help: "request device info",
		Func: func(c *ishell.Context) {
			e, err := session.GetDeviceInfo(ctx)
			printResult(c, e, err)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "raw <name> [key=value ...] [expect=Kind]",
		Func: func(c *ishell.Context) {
			cmd, expected, err := parseRawArgs(c.Args)
			if err != nil {
				c.Println(err)
				return
			}
			e, err := session.IssueCommand(ctx, cmd, expected)
			printResult(c, e, err)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "get",
		Help: "get <Kind> - show the stored entity without contacting the device",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("usage: get <Kind>")
				return
			}
			desc, ok := entities.Classify(c.Args[0])
			if !ok {
				c.Println("Unknown kind", c.Args[0])
				return
			}
			e, ok := session.GetData(desc.Kind)
			if !ok {
				c.Println("Nothing stored for", desc.Kind)
				return
			}
			c.Println(formatEntity(e))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "kinds",
		Help: "list stored kinds",
		Func: func(c *ishell.Context) {
			for _, kind := range session.Store().Kinds() {
				c.Println(kind)
			}
		},
	})
}
