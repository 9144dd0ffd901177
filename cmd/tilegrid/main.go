package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/mark3labs/tilegrid/internal/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	logoText1 = "▀█▀ █ █   █▀▀ █▀█ █ █▀▄"
	logoText2 = " █  █ █▄▄ ██▄ █▄█ █ █▄▀"
)

// Version set via ldflags during build
var version = "dev"

// v carries the persistent flag bindings into config loading.
var v = viper.New()

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tilegrid",
	Short: "Terminal query dashboards with auto-sizing widgets",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	// Set Long description with logo
	rootCmd.Long = renderLogo() + `

tilegrid keeps dashboards of SQL query widgets on a column grid. Widgets
grow and shrink with their results until someone resizes them by hand;
from then on the chosen height sticks. Dashboards live in an embedded NATS
JetStream log, so the TUI and the CLI can work on the same dashboard at
the same time.`

	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", "", "Data directory (default: .tilegrid)")
	flags.String("database", "", "SQLite database queries run against")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Int("columns", 0, "Grid columns for new dashboards")
	_ = v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("database", flags.Lookup("database"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("columns", flags.Lookup("columns"))

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
}
