package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Launcher hands an episode's audio (remote URL or saved local file) to an
// external player, starting at the resume offset when the player supports it.
type Launcher struct {
	command   string   // configured player command, empty to auto-detect
	args      []string // additional arguments for the player
	startFlag string   // offset flag prefix, e.g., "--start=" or "-ss "
	logger    *slog.Logger

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// audioPlayers maps known players to their offset flag. A trailing space
// means the value is a separate argument.
var audioPlayers = map[string]string{
	"mpv":       "--start=",
	"vlc":       "--start-time=",
	"cvlc":      "--start-time=",
	"ffplay":    "-ss ",
	"celluloid": "--mpv-start=",
	"haruna":    "--mpv-start=",
	"iina":      "--mpv-start=",
}

// candidateOrder is tried when no command is configured
var candidateOrder = map[string][]string{
	"darwin":  {"mpv", "iina", "vlc"},
	"linux":   {"mpv", "cvlc", "vlc", "ffplay", "celluloid"},
	"windows": {"mpv", "vlc"},
}

// NewLauncher creates a Launcher. When startFlag is empty it is detected
// from the command name.
func NewLauncher(command string, args []string, startFlag string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	if startFlag == "" && command != "" {
		if flag, ok := audioPlayers[playerName(command)]; ok {
			startFlag = flag
			logger.Debug("auto-detected player offset flag", "player", command, "flag", startFlag)
		}
	}

	return &Launcher{
		command:   command,
		args:      args,
		startFlag: startFlag,
		logger:    logger,
		lookPath:  exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

func playerName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// offsetArgs renders the start offset for a flag, whole seconds.
func offsetArgs(flag string, offset time.Duration) []string {
	if offset <= 0 || flag == "" {
		return nil
	}
	secs := fmt.Sprintf("%.0f", offset.Seconds())
	if strings.HasSuffix(flag, " ") {
		return []string{strings.TrimSuffix(flag, " "), secs}
	}
	return []string{flag + secs}
}

// Argv returns the configured player's argument list for target.
func (l *Launcher) Argv(target string, offset time.Duration) []string {
	args := append([]string{}, l.args...)
	args = append(args, offsetArgs(l.startFlag, offset)...)
	return append(args, target)
}

// Launch opens target in the configured player, a detected player, or the
// system default handler, in that order.
func (l *Launcher) Launch(target string, offset time.Duration) error {
	if l.command != "" {
		if offset > 0 && l.startFlag == "" {
			l.logger.Warn("cannot set start offset - unknown player, configure start_flag in config",
				"command", l.command, "offset", offset)
		}
		args := l.Argv(target, offset)
		l.logger.Info("launching player", "command", l.command, "args", args)
		return l.start(l.command, args...)
	}

	if name, err := l.detectAndLaunch(target, offset); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	l.logger.Info("no candidate players found, using system default")
	return l.launchDefault(target)
}

func (l *Launcher) detectAndLaunch(target string, offset time.Duration) (string, error) {
	candidates, ok := candidateOrder[runtime.GOOS]
	if !ok {
		candidates = candidateOrder["linux"]
	}

	for _, name := range candidates {
		path, err := l.lookPath(name)
		if err != nil {
			l.logger.Debug("player not in PATH", "player", name)
			continue
		}
		args := append(offsetArgs(audioPlayers[name], offset), target)
		if err := l.start(path, args...); err != nil {
			l.logger.Debug("player failed to start", "player", name, "error", err)
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("no candidate players found")
}

// launchDefault opens target using the system default handler
func (l *Launcher) launchDefault(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return l.start("open", target)
	case "windows":
		return l.start("cmd", "/c", "start", "", target)
	default:
		return l.start("xdg-open", target)
	}
}
