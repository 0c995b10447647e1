package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"lifeboard/internal/cli"
	"lifeboard/internal/client"
)

var CLI struct {
	Version kong.VersionFlag
	Server  string        `help:"Base URL of the lifeboard API." env:"LIFEBOARD_URL" default:"http://localhost:8080"`
	Token   string        `help:"Bearer token issued by the identity provider." env:"LIFEBOARD_TOKEN"`
	Timeout time.Duration `help:"Per-request timeout." default:"10s"`

	Habits    cli.HabitCmd     `cmd:"" help:"Track habits."`
	Tasks     cli.TaskCmd      `cmd:"" help:"Browse tasks."`
	Dashboard cli.DashboardCmd `cmd:"" help:"Show the dashboard summary."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("lifectl"),
		kong.Description("Command-line client for the lifeboard API"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Ctx:    ctx,
		Client: client.New(CLI.Server, CLI.Token, client.WithHTTPClient(&http.Client{Timeout: CLI.Timeout})),
		Out:    os.Stdout,
	}

	if err := kctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
