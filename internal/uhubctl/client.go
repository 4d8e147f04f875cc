// Package uhubctl drives the uhubctl binary: it builds argument lists, runs
// the binary, and parses its status output into hubs and ports whose power
// state can be read and switched.
package uhubctl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/adapters/logging"
	"github.com/felixgeelhaar/hubctl/internal/ports"
)

// DefaultBinary is the command used when none is configured.
const DefaultBinary = "uhubctl"

// NoDescMode controls whether -N is passed on status and power calls.
type NoDescMode string

// NoDesc modes.
const (
	NoDescAuto   NoDescMode = "auto"
	NoDescAlways NoDescMode = "always"
	NoDescNever  NoDescMode = "never"
)

// ParseNoDescMode validates a mode name. Empty means auto.
func ParseNoDescMode(s string) (NoDescMode, error) {
	switch NoDescMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", NoDescAuto:
		return NoDescAuto, nil
	case NoDescAlways:
		return NoDescAlways, nil
	case NoDescNever:
		return NoDescNever, nil
	default:
		return NoDescAuto, fmt.Errorf("unknown nodesc mode %q (want auto, always or never)", s)
	}
}

// Client runs uhubctl. It is safe for concurrent use.
type Client struct {
	argv    []string
	runner  ports.CommandRunner
	logger  ports.Logger
	timeout time.Duration
	nodesc  NoDescMode

	mu      sync.Mutex
	version *Version
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the command line used to start uhubctl. It is split on
// whitespace, so "sudo uhubctl" works.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if argv := strings.Fields(binary); len(argv) > 0 {
			c.argv = argv
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds every uhubctl invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithNoDesc sets the -N compatibility mode.
func WithNoDesc(mode NoDescMode) Option {
	return func(c *Client) {
		c.nodesc = mode
	}
}

// New creates a Client that runs uhubctl through runner.
func New(runner ports.CommandRunner, opts ...Option) *Client {
	c := &Client{
		argv:   []string{DefaultBinary},
		runner: runner,
		logger: logging.NewNopLogger(),
		nodesc: NoDescAuto,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the configured command line.
func (c *Client) Binary() string {
	return strings.Join(c.argv, " ")
}

// Exec runs uhubctl with exactly args and returns its stdout lines.
//
// A non-zero exit whose stderr starts with "No compatible devices detected"
// is an empty result. Any other non-zero exit is a *CommandError.
func (c *Client) Exec(ctx context.Context, args ...string) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	argv := append(append([]string(nil), c.argv[1:]...), args...)
	result, err := c.runner.Run(ctx, c.argv[0], argv...)
	if err != nil {
		if binaryMissing(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, c.argv[0], err)
		}
		return nil, fmt.Errorf("running %s: %w", c.argv[0], err)
	}

	if !result.Success() {
		if strings.HasPrefix(strings.TrimSpace(result.Stderr), noDevicesPrefix) {
			c.logger.Debug(ctx, "no compatible devices", ports.F("args", strings.Join(args, " ")))
			return nil, nil
		}
		return nil, &CommandError{Args: args, ExitCode: result.ExitCode, Stderr: result.Stderr}
	}

	return result.Lines(), nil
}

// Version runs `uhubctl -v` once and caches the answer. An unparseable
// answer is not an error; it yields an unknown Version.
func (c *Client) Version(ctx context.Context) (Version, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != nil {
		return *c.version, nil
	}

	lines, err := c.Exec(ctx, "-v")
	if err != nil && !errors.Is(err, ErrCommandFailed) {
		return Version{}, err
	}

	v := ParseVersion(strings.Join(lines, " "))
	if !v.Known() {
		c.logger.Debug(ctx, "uhubctl version not recognised, assuming legacy", ports.F("output", v.String()))
	}
	c.version = &v
	return v, nil
}

// compatFlags returns the flags placed before every status and power call.
func (c *Client) compatFlags(ctx context.Context) ([]string, error) {
	switch c.nodesc {
	case NoDescAlways:
		return []string{"-N"}, nil
	case NoDescNever:
		return nil, nil
	}
	v, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	if v.SupportsNoDesc() {
		return []string{"-N"}, nil
	}
	return nil, nil
}

// query runs a status or power call, prefixed with the compatibility flags.
func (c *Client) query(ctx context.Context, args ...string) ([]string, error) {
	flags, err := c.compatFlags(ctx)
	if err != nil {
		return nil, err
	}
	return c.Exec(ctx, append(flags, args...)...)
}

// Status runs uhubctl once without a location filter and returns every hub
// block it printed.
func (c *Client) Status(ctx context.Context) ([]HubStatus, error) {
	lines, err := c.query(ctx)
	if err != nil {
		return nil, err
	}
	return ParseStatus(lines), nil
}

// DiscoverHubs lists every hub uhubctl can switch and enumerates the ports
// of each one.
func (c *Client) DiscoverHubs(ctx context.Context) ([]*Hub, error) {
	lines, err := c.query(ctx)
	if err != nil {
		return nil, err
	}

	infos := ParseHubs(lines)
	hubs := make([]*Hub, 0, len(infos))
	for _, info := range infos {
		hub, err := c.NewHub(info.Path)
		if err != nil {
			return nil, err
		}
		hub.setInfo(info)
		if err := hub.DiscoverPorts(ctx); err != nil {
			return nil, err
		}
		hubs = append(hubs, hub)
	}

	c.logger.Debug(ctx, "discovered hubs", ports.F("count", len(hubs)))
	return hubs, nil
}

func portArgs(hub string, port int) []string {
	return []string{"-l", hub, "-p", strconv.Itoa(port)}
}

// binaryMissing reports whether the runner could not start the binary
// because it does not exist: a failed PATH lookup, or ENOENT for an
// explicit path such as /usr/sbin/uhubctl.
func binaryMissing(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
