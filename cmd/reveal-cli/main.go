package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"scoreboard/internal/cli/command"
	"scoreboard/internal/cli/config"
	"scoreboard/internal/cli/repl"
	"scoreboard/internal/scoreboard/site"
)

const defaultConfigPath = "configs/reveal.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override server base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	source := flag.String("source", "", "Archive to load on start (file://, http(s)://)")
	sitesPath := flag.String("sites", "", "Override site config path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *source != "" {
		cfg.Source = *source
	}
	if *sitesPath != "" {
		cfg.Sites = *sitesPath
	}

	var sites *site.Config
	if cfg.Sites != "" {
		sites, err = site.LoadConfig(cfg.Sites)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load sites failed: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	env := &command.Env{
		Sites:     sites,
		Out:       os.Stdout,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		StatePath: cfg.SessionStatePath,
	}
	session := repl.New(env, command.Registry(), cfg.Prompt, cfg.HistoryFile)
	if cfg.Source != "" {
		session.Execute(ctx, "load "+quote(cfg.Source))
	}
	if err := session.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func quote(s string) string {
	return "'" + s + "'"
}
