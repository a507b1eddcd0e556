package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/dataplanectl/internal/config"
	"github.com/danmuck/dataplanectl/internal/dataplane"
	"github.com/danmuck/dataplanectl/internal/logging"
	"github.com/danmuck/dataplanectl/internal/registration"
)

func main() {
	configPath := flag.String("config", "cmd/dataplanectl/ex.config.toml", "path to dataplane config")
	initKind := flag.String("init", "", "write a starter config of this kind (dataplane|dataplane-consul) to -config and exit")
	force := flag.Bool("force", false, "overwrite an existing config with -init")
	flag.Parse()

	if *initKind != "" {
		if err := config.WriteTemplate(*configPath, *initKind, *force); err != nil {
			fmt.Fprintf(os.Stderr, "dataplanectl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logging.ConfigureRuntime()

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dataplanectl: %v\n", err)
		os.Exit(1)
	}
	svc, err := dataplane.NewServiceWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dataplanectl: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		if registration.IsFatal(err) {
			fmt.Fprintf(os.Stderr, "dataplanectl: startup aborted: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "dataplanectl: %v\n", err)
		}
		os.Exit(1)
	}
}
