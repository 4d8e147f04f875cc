package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/testutil/mocks"
)

// Binary describes how the code under test starts uhubctl: the command line
// prefix and whether -N is expected on status and power calls.
type Binary struct {
	Argv   []string
	NoDesc bool
}

// UHubCtl is the default binary, with or without -N.
func UHubCtl(nodesc bool) Binary {
	return Binary{Argv: []string{"uhubctl"}, NoDesc: nodesc}
}

func (b Binary) command(nodesc bool, args ...string) (string, []string) {
	full := append([]string(nil), b.Argv[1:]...)
	if nodesc {
		full = append(full, "-N")
	}
	return b.Argv[0], append(full, args...)
}

// RegisterVersion makes `uhubctl -v` print version.
func (b Binary) RegisterVersion(r *mocks.CommandRunner, version string) {
	cmd, args := b.command(false, "-v")
	r.AddResult(cmd, args, ports.CommandResult{Stdout: version + "\n"})
}

// RegisterNoDevices makes the unfiltered listing fail the way uhubctl does
// when it finds nothing to switch.
func (b Binary) RegisterNoDevices(r *mocks.CommandRunner) {
	cmd, args := b.command(b.NoDesc)
	r.AddResult(cmd, args, ports.CommandResult{
		ExitCode: 1,
		Stderr:   "No compatible devices detected!\nRun with -h to get usage info.\n",
	})
}

// FakePort is the simulated state of one port.
type FakePort struct {
	Powered bool
	Device  string // "vvvv:pppp Description", empty when nothing is attached
}

// FakeHub simulates a hub's uhubctl output and reacts to power actions.
type FakeHub struct {
	Path        string
	VendorID    string
	ProductID   string
	Description string
	USBVersion  string

	mu    sync.Mutex
	ports []FakePort
}

// NewFakeHub creates a hub with n powered, empty ports.
func NewFakeHub(path string, n int) *FakeHub {
	h := &FakeHub{
		Path:        path,
		VendorID:    "0424",
		ProductID:   "9512",
		Description: "Standard Microsystems Corp. SMC9512/9514 USB Hub",
		USBVersion:  "2.00",
		ports:       make([]FakePort, n),
	}
	for i := range h.ports {
		h.ports[i].Powered = true
	}
	return h
}

// WithDevice attaches a device to port n (1-based).
func (h *FakeHub) WithDevice(n int, device string) *FakeHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ports[n-1].Device = device
	return h
}

// SetPowered changes the simulated power state of port n.
func (h *FakeHub) SetPowered(n int, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ports[n-1].Powered = on
}

// Powered reports the simulated power state of port n.
func (h *FakeHub) Powered(n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ports[n-1].Powered
}

// NumPorts returns the number of simulated ports.
func (h *FakeHub) NumPorts() int {
	return len(h.ports)
}

// Output renders a status block. prefix is "Current" or "New"; filter
// limits the block to one port when non-zero; nodesc drops descriptions.
func (h *FakeHub) Output(prefix string, filter int, nodesc bool) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s status for hub %s [%s:%s %s, USB %s, %d ports, ppps]\n",
		prefix, h.Path, h.VendorID, h.ProductID, h.Description, h.USBVersion, len(h.ports))
	for i, p := range h.ports {
		if filter != 0 && filter != i+1 {
			continue
		}
		b.WriteString(portLine(i+1, p, nodesc))
		b.WriteByte('\n')
	}
	return b.String()
}

func portLine(n int, p FakePort, nodesc bool) string {
	switch {
	case !p.Powered:
		return fmt.Sprintf("  Port %d: 0000 off", n)
	case p.Device == "":
		return fmt.Sprintf("  Port %d: 0100 power", n)
	}
	dev := p.Device
	if nodesc {
		dev = strings.Fields(dev)[0]
	}
	return fmt.Sprintf("  Port %d: 0503 power highspeed enable connect [%s]", n, dev)
}

// Register wires the hub's listing, per-port status, device and power
// commands into r.
func (h *FakeHub) Register(r *mocks.CommandRunner, b Binary) {
	cmd, args := b.command(b.NoDesc, "-l", h.Path)
	r.AddHandler(cmd, args, func(context.Context) (ports.CommandResult, error) {
		return ports.CommandResult{Stdout: h.Output("Current", 0, b.NoDesc)}, nil
	})

	for i := range h.ports {
		n := i + 1
		p := strconv.Itoa(n)

		cmd, args := b.command(b.NoDesc, "-l", h.Path, "-p", p)
		r.AddHandler(cmd, args, func(context.Context) (ports.CommandResult, error) {
			return ports.CommandResult{Stdout: h.Output("Current", n, b.NoDesc)}, nil
		})

		cmd, args = b.command(false, "-l", h.Path, "-p", p)
		r.AddHandler(cmd, args, func(context.Context) (ports.CommandResult, error) {
			return ports.CommandResult{Stdout: h.Output("Current", n, false)}, nil
		})

		for _, action := range []string{"on", "off", "cycle"} {
			action := action
			cmd, args = b.command(b.NoDesc, "-l", h.Path, "-p", p, "-a", action)
			r.AddHandler(cmd, args, func(context.Context) (ports.CommandResult, error) {
				return h.act(n, action, b.NoDesc), nil
			})
		}
	}
}

func (h *FakeHub) act(n int, action string, nodesc bool) ports.CommandResult {
	before := h.Output("Current", n, nodesc)
	switch action {
	case "on", "cycle":
		h.SetPowered(n, true)
	case "off":
		h.SetPowered(n, false)
	}
	verb := action
	if action == "cycle" {
		verb = "off"
	}
	return ports.CommandResult{
		Stdout: before + fmt.Sprintf("Sent power %s request\n", verb) + h.Output("New", n, nodesc),
	}
}

// RegisterDiscovery makes the unfiltered listing print every hub's block.
func RegisterDiscovery(r *mocks.CommandRunner, b Binary, hubs ...*FakeHub) {
	cmd, args := b.command(b.NoDesc)
	r.AddHandler(cmd, args, func(context.Context) (ports.CommandResult, error) {
		var out strings.Builder
		for _, h := range hubs {
			out.WriteString(h.Output("Current", 0, b.NoDesc))
		}
		return ports.CommandResult{Stdout: out.String()}, nil
	})
	for _, h := range hubs {
		h.Register(r, b)
	}
}
