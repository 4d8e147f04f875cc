package uhubctl

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/ports"
)

// Power actions understood by `uhubctl -a`.
const (
	actionOn    = "on"
	actionOff   = "off"
	actionCycle = "cycle"
)

// Port is one power-switchable port on a hub. Its power status is never
// stored: every read runs uhubctl. The attached device's identity is cached
// after the first successful read until the port is switched or refreshed.
type Port struct {
	hub    *Hub
	number int

	mu     sync.Mutex
	device *Device
}

// Hub returns the hub owning the port.
func (p *Port) Hub() *Hub {
	return p.hub
}

// Number returns the port number within its hub.
func (p *Port) Number() int {
	return p.number
}

// Path returns "HUB.PORT", the form accepted by ParseTarget.
func (p *Port) Path() string {
	return p.hub.path + "." + strconv.Itoa(p.number)
}

// Info runs `uhubctl -l HUB -p N` and returns the line for this port.
func (p *Port) Info(ctx context.Context) (PortInfo, error) {
	lines, err := p.hub.client.query(ctx, portArgs(p.hub.path, p.number)...)
	if err != nil {
		return PortInfo{}, err
	}
	return p.line(lines)
}

// line picks this port's line from the hub's own block.
func (p *Port) line(lines []string) (PortInfo, error) {
	_, infos, _ := hubPorts(lines, p.hub.path)
	return findPort(infos, p.hub.path, p.number)
}

// Status reports whether the port is powered.
func (p *Port) Status(ctx context.Context) (bool, error) {
	info, err := p.Info(ctx)
	if err != nil {
		return false, err
	}
	return info.Powered, nil
}

// SetStatus powers the port on or off. uhubctl's output is discarded.
func (p *Port) SetStatus(ctx context.Context, on bool) error {
	action := actionOff
	if on {
		action = actionOn
	}
	return p.act(ctx, action)
}

// Cycle switches the port off and back on. A positive delay is passed to
// uhubctl as the off time; otherwise uhubctl's default applies.
func (p *Port) Cycle(ctx context.Context, delay time.Duration) error {
	args := []string{actionCycle}
	if delay > 0 {
		args = append(args, "-d", strconv.FormatFloat(delay.Seconds(), 'f', -1, 64))
	}
	return p.act(ctx, args...)
}

func (p *Port) act(ctx context.Context, action ...string) error {
	args := append(portArgs(p.hub.path, p.number), "-a")
	args = append(args, action...)
	if _, err := p.hub.client.query(ctx, args...); err != nil {
		return err
	}
	p.InvalidateCache()
	p.hub.client.logger.Info(ctx, "port switched",
		ports.F("port", p.Path()),
		ports.F("action", action[0]))
	return nil
}

// Device returns the attached device's vendor id, product id and
// description, reading them from uhubctl on first use. The query is run
// without -N because -N suppresses the description. A port with nothing
// attached yields ErrNoDevice.
func (p *Port) Device(ctx context.Context) (Device, error) {
	p.mu.Lock()
	cached := p.device
	p.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	return p.Refresh(ctx)
}

// Refresh re-reads the attached device, replacing any cached value.
func (p *Port) Refresh(ctx context.Context) (Device, error) {
	lines, err := p.hub.client.Exec(ctx, portArgs(p.hub.path, p.number)...)
	if err != nil {
		return Device{}, err
	}
	info, err := p.line(lines)
	if err != nil {
		return Device{}, err
	}
	if info.Device == nil {
		p.InvalidateCache()
		return Device{}, fmt.Errorf("%w: %s", ErrNoDevice, p.Path())
	}

	dev := *info.Device
	p.mu.Lock()
	p.device = &dev
	p.mu.Unlock()
	return dev, nil
}

// InvalidateCache drops the cached device.
func (p *Port) InvalidateCache() {
	p.mu.Lock()
	p.device = nil
	p.mu.Unlock()
}

// VendorID returns the attached device's vendor id.
func (p *Port) VendorID(ctx context.Context) (string, error) {
	d, err := p.Device(ctx)
	return d.VendorID, err
}

// ProductID returns the attached device's product id.
func (p *Port) ProductID(ctx context.Context) (string, error) {
	d, err := p.Device(ctx)
	return d.ProductID, err
}

// Description returns the attached device's description, which may be
// empty when the device does not report one.
func (p *Port) Description(ctx context.Context) (string, error) {
	d, err := p.Device(ctx)
	return d.Description, err
}

func (p *Port) String() string {
	return "USB Port " + p.Path()
}
