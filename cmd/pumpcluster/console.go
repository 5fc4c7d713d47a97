// cmd/pumpcluster/console.go
package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tamzrod/pumpcluster/internal/cluster"
	"github.com/tamzrod/pumpcluster/internal/device"
)

// Console is the interactive operator surface over the registry.
type Console struct {
	reg *cluster.Registry
	out io.Writer
}

func NewConsole(reg *cluster.Registry, out io.Writer) *Console {
	return &Console{reg: reg, out: out}
}

// Run reads commands until quit, EOF or ctx cancellation.
func (c *Console) Run(ctx context.Context, rl *readline.Instance, cancel context.CancelFunc) {
	defer rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if c.Execute(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. Returns true when the console should exit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "quit", "exit", "q":
		return true

	case "status", "s":
		c.cmdStatus(args)

	case "stats":
		c.cmdStats()

	case "start":
		c.press(args, "start", c.reg.PressStart)
	case "stop":
		c.press(args, "stop", c.reg.PressStop)
	case "mode":
		c.press(args, "mode", c.reg.ToggleMode)
	case "heat":
		c.press(args, "heat", c.reg.ToggleHeat)
	case "reset":
		c.press(args, "reset", c.reg.PressReset)

	case "overload":
		c.input(args, "overload", c.reg.InjectOverload)
	case "lowpressure", "lp":
		c.input(args, "lowpressure", c.reg.InjectLowPressure)
	case "feedback", "fb":
		c.input(args, "feedback", c.reg.SetRunFeedback)

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) press(args []string, name string, fn func(id int) bool) {
	if len(args) != 1 {
		fmt.Fprintf(c.out, "Usage: %s <device-id>\n", name)
		return
	}
	id, ok := c.deviceID(args[0])
	if !ok {
		return
	}
	if !fn(id) {
		fmt.Fprintf(c.out, "Device %d not registered\n", id)
		return
	}
	c.printDevice(id)
}

func (c *Console) input(args []string, name string, fn func(id int, on bool) bool) {
	if len(args) != 2 {
		fmt.Fprintf(c.out, "Usage: %s <device-id> on|off\n", name)
		return
	}
	id, ok := c.deviceID(args[0])
	if !ok {
		return
	}

	var on bool
	switch strings.ToLower(args[1]) {
	case "on", "1", "true":
		on = true
	case "off", "0", "false":
	default:
		fmt.Fprintf(c.out, "Expected on|off, got %q\n", args[1])
		return
	}

	if !fn(id, on) {
		fmt.Fprintf(c.out, "Device %d not registered\n", id)
		return
	}
	c.printDevice(id)
}

func (c *Console) deviceID(arg string) (int, bool) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid device id %q\n", arg)
		return 0, false
	}
	return id, true
}

func (c *Console) cmdStatus(args []string) {
	if len(args) == 1 {
		id, ok := c.deviceID(args[0])
		if !ok {
			return
		}
		if _, found := c.reg.Snapshot(id); !found {
			fmt.Fprintf(c.out, "Device %d not registered\n", id)
			return
		}
		c.printDevice(id)
		return
	}

	ids := c.reg.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(c.out, "No devices registered")
		return
	}
	for _, id := range ids {
		c.printDevice(id)
	}
}

func (c *Console) cmdStats() {
	for _, info := range c.reg.Overview() {
		fmt.Fprintf(c.out, "device %d  passes=%d received=%d rejected=%d dropped=%d sent=%d session=%s\n",
			info.State.ID, info.Stats.Passes, info.Stats.Received, info.Stats.Rejected,
			info.Stats.Dropped, info.Sent, info.Session)
	}
}

func (c *Console) printDevice(id int) {
	s, ok := c.reg.Snapshot(id)
	if !ok {
		return
	}
	fmt.Fprintln(c.out, formatState(s))
}

func formatState(s device.State) string {
	var b strings.Builder

	mode := "manual"
	if s.Mode {
		mode = "standby"
	}
	fmt.Fprintf(&b, "device %d %-10s %-8s %-7s status=%s", s.ID, s.Model, mode, lamp(s), s.Status)

	var flags []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.Run, "run"},
		{s.StandbyStart, "standby-start"},
		{s.Overload, "overload"},
		{s.LowPressureTx, "low-pressure"},
		{s.RunRequest, "run-request"},
		{s.Heat, "heat"},
		{s.HeaterOn, "heater-on"},
		{s.ResetButton, "reset"},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, " "))
	}

	for _, p := range s.Peers {
		state := "ok"
		switch {
		case p.Lost:
			state = "lost"
		case p.Manual:
			state = "manual"
		}
		fmt.Fprintf(&b, " peer%d=%s", p.ID, state)
	}
	return b.String()
}

func lamp(s device.State) string {
	switch {
	case s.RunLamp:
		return "RUN"
	case s.StandbyLamp:
		return "STANDBY"
	case s.StopLamp:
		return "STOP"
	}
	return "-"
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Pump Cluster Commands:
  Buttons:
    start <id>               - Press start
    stop <id>                - Press stop
    mode <id>                - Toggle manual / standby
    heat <id>                - Toggle heater request
    reset <id>               - Press reset (acknowledges standby start)

  Inputs:
    overload <id> on|off     - Set the overload input
    lowpressure <id> on|off  - Set the low pressure input
    feedback <id> on|off     - Set the run feedback input

  Inspection:
    status [id]              - Show device state
    stats                    - Show per-device counters

  General:
    help                     - Show this help
    quit                     - Exit`)
}
