package main

import (
	"flag"
	"os"

	"go.uber.org/fx"

	"github.com/momocall/shopchat/internal/config"
	"github.com/momocall/shopchat/internal/daemon"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default ~/.shopchat/config.toml if present)")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		if _, err := os.Stat(config.ConfigPath()); err == nil {
			configPath = config.ConfigPath()
		}
	}

	app := fx.New(
		daemon.Module(daemon.Params{ConfigPath: configPath}),
	)

	app.Run()
}
