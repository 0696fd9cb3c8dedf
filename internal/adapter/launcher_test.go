package adapter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCmd struct {
	name string
	args []string
}

func fakeLauncher(command string, args []string, flag string) (*Launcher, *[]recordedCmd) {
	var cmds []recordedCmd
	l := NewLauncher(command, args, flag, NullLogger())
	l.start = func(name string, args ...string) error {
		cmds = append(cmds, recordedCmd{name: name, args: args})
		return nil
	}
	return l, &cmds
}

func TestLauncherDetectsStartFlag(t *testing.T) {
	l, cmds := fakeLauncher("/usr/bin/mpv", []string{"--no-video"}, "")
	require.NoError(t, l.Launch("https://example.com/ep.mp3", 95*time.Second))

	require.Len(t, *cmds, 1)
	assert.Equal(t, "/usr/bin/mpv", (*cmds)[0].name)
	assert.Equal(t, []string{"--no-video", "--start=95", "https://example.com/ep.mp3"}, (*cmds)[0].args)
}

func TestLauncherSeparateValueFlag(t *testing.T) {
	l, _ := fakeLauncher("ffplay", nil, "")
	assert.Equal(t, []string{"-ss", "12", "/tmp/a.mp3"}, l.Argv("/tmp/a.mp3", 12*time.Second))
}

func TestLauncherNoOffset(t *testing.T) {
	l, _ := fakeLauncher("mpv", nil, "")
	assert.Equal(t, []string{"/tmp/a.mp3"}, l.Argv("/tmp/a.mp3", 0))
}

func TestLauncherUnknownPlayerSkipsOffset(t *testing.T) {
	l, cmds := fakeLauncher("myplayer", nil, "")
	require.NoError(t, l.Launch("a.mp3", time.Minute))
	assert.Equal(t, []string{"a.mp3"}, (*cmds)[0].args)
}

func TestLauncherDetectsCandidate(t *testing.T) {
	l, cmds := fakeLauncher("", nil, "")
	l.lookPath = func(name string) (string, error) {
		if name == "vlc" {
			return "/opt/vlc", nil
		}
		return "", errors.New("not found")
	}
	require.NoError(t, l.Launch("a.mp3", 30*time.Second))
	require.Len(t, *cmds, 1)
	assert.Equal(t, "/opt/vlc", (*cmds)[0].name)
	assert.Equal(t, []string{"--start-time=30", "a.mp3"}, (*cmds)[0].args)
}

func TestLauncherFallsBackToSystemDefault(t *testing.T) {
	l, cmds := fakeLauncher("", nil, "")
	l.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	require.NoError(t, l.Launch("a.mp3", 0))
	require.Len(t, *cmds, 1)
	assert.Contains(t, []string{"open", "cmd", "xdg-open"}, (*cmds)[0].name)
}
