// Command pgdrift analyzes JSONB columns in PostgreSQL for schema drift and
// recommends indexes for them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// Version is set at build time via ldflags
var Version = "dev"

// CLI defines the command-line interface for pgdrift.
type CLI struct {
	Globals

	Discover DiscoverCmd `cmd:"" help:"List JSONB columns with estimated row counts"`
	Analyze  AnalyzeCmd  `cmd:"" help:"Sample a JSONB column and report schema drift"`
	Index    IndexCmd    `cmd:"" help:"Recommend indexes for a JSONB column"`
	ScanAll  ScanAllCmd  `cmd:"" name:"scan-all" help:"Run drift detection on every JSONB column"`
	Ping     PingCmd     `cmd:"" help:"Verify database connectivity and credentials"`
	MCP      MCPCmd      `cmd:"" name:"mcp" help:"Serve the analysis tools over MCP on stdio"`
	Fixtures FixturesCmd `cmd:"" help:"Manage the bundled drift fixture tables"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("pgdrift"),
		kong.Description("JSONB schema drift analysis for PostgreSQL"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&cli.Globals),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	parser, err := newParser(&cli, kong.BindTo(ctx, (*context.Context)(nil)))
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = kctx.Run()
	stop()
	kctx.FatalIfErrorf(err)
}
