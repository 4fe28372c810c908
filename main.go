package main

import (
	"os"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"monocle-remote/internal/logging"
)

const defaultConfigFile = "monocle-remote.yaml"

// version is set at link time
var version = "dev"

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("monocle-remote"),
		kong.Description("Analog joystick remote for PTZ cameras"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		// Flags and env override values from the config file.
		kong.Configuration(kongyaml.Loader, defaultConfigFile),
	)

	logger := logging.New(cli.LogLevel, os.Stderr)
	ctx.Bind(logger)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
