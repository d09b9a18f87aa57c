package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nhle/citas-notify/internal/logging"
	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/theme"
)

const usage = `Usage: citas-notify [flags] [command]

Commands:
  run      open the notification panel (default)
  proxy    serve the notifications REST routes, forwarding to the backend
  status   show the stored session and cached snapshot
  logout   forget the stored session token and cached notifications

Flags:
`

// flagKeys binds command-line flags to config keys.
var flagKeys = map[string]string{
	"base-url":  "api.base_url",
	"ws-url":    "api.ws_url",
	"user-id":   "session.user_id",
	"listen":    "proxy.listen",
	"log-file":  "log.file",
	"log-level": "log.level",
	"theme":     "display.theme",
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "citas-notify:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("citas-notify", pflag.ContinueOnError)
	configPath := flags.String("config", model.DefaultConfigPath(), "path to the config file")
	flags.String("base-url", "", "backend base URL (e.g. http://localhost:8000)")
	flags.String("ws-url", "", "websocket base URL, derived from --base-url when empty")
	flags.Int64("user-id", 0, "user whose notifications are shown")
	flags.String("listen", "", "address for the proxy command")
	flags.String("log-file", "", "log file path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("theme", "", "color theme (default, mono)")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v := model.NewViper(*configPath)
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}

	cfg, err := model.LoadConfigFrom(v)
	if err != nil {
		return err
	}
	if err := theme.Apply(cfg.Display.Theme); err != nil {
		return err
	}

	command := strings.ToLower(flags.Arg(0))
	if command == "" {
		command = "run"
	}

	log, err := logging.New(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"command": command,
		"config":  *configPath,
	}).Debug("starting")

	switch command {
	case "run":
		return runPanel(cfg, *configPath, log)
	case "proxy":
		return runProxy(cfg, log)
	case "status":
		return runStatus(cfg, log)
	case "logout":
		return runLogout(cfg, log)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
