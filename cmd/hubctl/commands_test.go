package main

import (
	"encoding/json"
	"errors"
	"os/exec"
	"testing"

	"github.com/felixgeelhaar/hubctl/internal/app"
	"github.com/felixgeelhaar/hubctl/internal/config"
	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/testutil"
	"github.com/felixgeelhaar/hubctl/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSetup registers two hubs behind uhubctl 2.4.0 (no -N).
func fakeSetup() (*mocks.CommandRunner, []*testutil.FakeHub) {
	runner := mocks.NewCommandRunner()
	hubs := []*testutil.FakeHub{
		testutil.NewFakeHub("1-1", 3).WithDevice(2, "0bda:8153 Realtek USB LAN"),
		testutil.NewFakeHub("1-1.3", 2),
	}
	hubs[1].SetPowered(2, false)

	bin := testutil.UHubCtl(false)
	bin.RegisterVersion(runner, "2.4.0")
	testutil.RegisterDiscovery(runner, bin, hubs...)
	return runner, hubs
}

func TestList_Text(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "list")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Hub 1-1 [0424:9512] Standard Microsystems Corp. SMC9512/9514 USB Hub, USB 2.00, 3 ports, ppps")
	assert.Contains(t, res.stdout, "PORT")
	assert.Regexp(t, `1-1\.2\s+on\s+0503\s+0bda:8153 Realtek USB LAN`, res.stdout)
	assert.Regexp(t, `1-1\.3\.2\s+off\s+0000\s+-`, res.stdout)
}

func TestList_JSON(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "list", "--json")
	require.NoError(t, res.err)

	var hubs []app.HubReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &hubs))
	require.Len(t, hubs, 2)
	assert.Equal(t, "1-1.3", hubs[1].Path)
	assert.False(t, hubs[1].Ports[1].Powered)
}

func TestList_NoHubs(t *testing.T) {
	runner := mocks.NewCommandRunner()
	testutil.UHubCtl(false).RegisterNoDevices(runner)

	res := runCLI(t, runner, "list", "--nodesc", "never")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No hubs with per-port power switching found.")
}

func TestStatus(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "status", "1-1.2")
	require.NoError(t, res.err)
	assert.Equal(t, "1-1.2: on (0503 power highspeed enable connect) [0bda:8153 Realtek USB LAN]\n", res.stdout)

	res = runCLI(t, runner, "status", "1-1.3.2", "--json")
	require.NoError(t, res.err)
	var r app.PortReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &r))
	assert.Equal(t, "1-1.3", r.Hub)
	assert.False(t, r.Powered)
}

func TestStatus_InvalidTarget(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "status", "1-1")
	require.Error(t, res.err)
	assert.True(t, config.IsUserError(res.err, config.ErrCodeInvalidTarget))
	assert.Contains(t, res.stderr, `Error: invalid port "1-1"`)
	assert.Contains(t, res.stderr, "Suggestion: Name a port as HUB.PORT")
}

func TestOnOff(t *testing.T) {
	runner, hubs := fakeSetup()

	res := runCLI(t, runner, "off", "1-1.1")
	require.NoError(t, res.err)
	assert.Equal(t, "1-1.1: off (0000 off)\n", res.stdout)
	assert.False(t, hubs[0].Powered(1))

	res = runCLI(t, runner, "status", "1-1.1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "1-1.1: off")

	res = runCLI(t, runner, "on", "1-1.3.2")
	require.NoError(t, res.err)
	assert.Equal(t, "1-1.3.2: on (0100 power)\n", res.stdout)
	assert.True(t, hubs[1].Powered(2))
}

func TestCycle_Delay(t *testing.T) {
	runner, _ := fakeSetup()
	runner.AddResult("uhubctl", []string{"-l", "1-1", "-p", "2", "-a", "cycle", "-d", "5"}, ports.CommandResult{})

	res := runCLI(t, runner, "cycle", "1-1.2", "--delay", "5s")
	require.NoError(t, res.err)
	assert.Equal(t, 1, runner.CallCount("uhubctl", "-l", "1-1", "-p", "2", "-a", "cycle", "-d", "5"))
	assert.Contains(t, res.stdout, "1-1.2: on")
}

func TestBinaryFlag(t *testing.T) {
	runner := mocks.NewCommandRunner()
	bin := testutil.Binary{Argv: []string{"sudo", "uhubctl"}}
	testutil.NewFakeHub("2", 4).Register(runner, bin)

	res := runCLI(t, runner, "--binary", "sudo uhubctl", "--nodesc", "never", "off", "2.4")
	require.NoError(t, res.err)
	assert.Equal(t, 1, runner.CallCount("sudo", "uhubctl", "-l", "2", "-p", "4", "-a", "off"))
}

func TestConfigFile(t *testing.T) {
	runner := mocks.NewCommandRunner()
	bin := testutil.Binary{Argv: []string{"/opt/bin/uhubctl"}, NoDesc: true}
	testutil.NewFakeHub("1-1", 2).Register(runner, bin)

	path := testutil.WriteTempFile(t, "hubctl.toml", "binary = \"/opt/bin/uhubctl\"\nnodesc = \"always\"\n")

	res := runCLI(t, runner, "--config", path, "status", "1-1.1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "1-1.1: on")
	assert.Equal(t, 1, runner.CallCount("/opt/bin/uhubctl", "-N", "-l", "1-1", "-p", "1"))
}

func TestConfigFile_Missing(t *testing.T) {
	res := runCLI(t, mocks.NewCommandRunner(), "--config", "/nonexistent/hubctl.yaml", "list")
	require.Error(t, res.err)
	assert.True(t, config.IsUserError(res.err, config.ErrCodeConfigNotFound))
}

func TestInvalidFlags(t *testing.T) {
	res := runCLI(t, mocks.NewCommandRunner(), "--nodesc", "sometimes", "--log-format", "xml", "list")
	require.Error(t, res.err)

	var list *config.ErrorList
	require.ErrorAs(t, res.err, &list)
	assert.Equal(t, 2, list.Len())
	assert.Contains(t, res.stderr, "2 errors occurred")
}

func TestBinaryNotFound(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddError("uhubctl", []string{"-v"}, &exec.Error{Name: "uhubctl", Err: exec.ErrNotFound})

	res := runCLI(t, runner, "list")
	require.Error(t, res.err)
	assert.True(t, config.IsUserError(res.err, config.ErrCodeBinaryNotFound))
	assert.Contains(t, res.stderr, "Suggestion: Install uhubctl")
	assert.NotContains(t, res.stderr, "Technical details")
}

func TestPermissionDenied_Verbose(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("uhubctl", []string{"-l", "1-1", "-p", "1", "-a", "off"}, ports.CommandResult{
		ExitCode: 1,
		Stderr:   "Can't open hub 1-1: Permission denied\n",
	})

	res := runCLI(t, runner, "-v", "--nodesc", "never", "off", "1-1.1")
	require.Error(t, res.err)
	assert.True(t, config.IsUserError(res.err, config.ErrCodePermission))
	assert.Contains(t, res.stderr, "Suggestion: Run with sudo")
	assert.Contains(t, res.stderr, "Technical details: ")
	assert.Contains(t, res.stderr, "[DEBUG] configured")
}

func TestJSONLogs(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "--log-format", "json", "-v", "status", "1-1.1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `"level":"debug"`)
	assert.Contains(t, res.stderr, `"msg":"configured"`)
}

func TestVersion(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "hubctl dev")
	assert.Contains(t, res.stdout, "uhubctl: 2.4.0")

	res = runCLI(t, runner, "version", "--json")
	require.NoError(t, res.err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "2.4.0", out["uhubctl"])
	assert.Equal(t, false, out["nodesc_supported"])
}

func TestVersion_NoBinary(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddError("uhubctl", []string{"-v"}, errors.New("exec: \"uhubctl\": executable file not found in $PATH"))

	res := runCLI(t, runner, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "uhubctl: unavailable")
}

func TestVersion_ConfigError(t *testing.T) {
	runner, _ := fakeSetup()

	res := runCLI(t, runner, "version", "--nodesc", "sometimes")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "hubctl dev")
	assert.Contains(t, res.stdout, "uhubctl: unavailable")
	assert.Contains(t, res.stderr, "Warning: ")
	assert.Contains(t, res.stderr, "nodesc")
	assert.Zero(t, runner.CallCount("uhubctl", "-v"))
}
