// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/grid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for tilegrid.
type Config struct {
	DataDir            string         `mapstructure:"data_dir" yaml:"data_dir"`
	Database           string         `mapstructure:"database" yaml:"database"`
	LogLevel           string         `mapstructure:"log_level" yaml:"log_level"`
	LogFile            string         `mapstructure:"log_file" yaml:"log_file"`
	Columns            int            `mapstructure:"columns" yaml:"columns"`
	RefreshConcurrency int            `mapstructure:"refresh_concurrency" yaml:"refresh_concurrency"`
	Geometry           GeometryConfig `mapstructure:"geometry" yaml:"geometry"`
	Terminal           TerminalConfig `mapstructure:"terminal" yaml:"terminal"`
	Table              TableConfig    `mapstructure:"table" yaml:"table"`
	Chart              ChartConfig    `mapstructure:"chart" yaml:"chart"`
}

// GeometryConfig is the dashboard pixel scale.
type GeometryConfig struct {
	ChromePx int `mapstructure:"chrome_px" yaml:"chrome_px"`
	RowPx    int `mapstructure:"row_px" yaml:"row_px"`
	MinRows  int `mapstructure:"min_rows" yaml:"min_rows"`
	MaxRows  int `mapstructure:"max_rows" yaml:"max_rows"`
}

// TerminalConfig is the line scale used to draw the grid in a terminal.
type TerminalConfig struct {
	ChromeLines int `mapstructure:"chrome_lines" yaml:"chrome_lines"`
	RowLines    int `mapstructure:"row_lines" yaml:"row_lines"`
}

// TableConfig calibrates the table height estimator.
type TableConfig struct {
	HeaderPx      int `mapstructure:"header_px" yaml:"header_px"`
	RowPx         int `mapstructure:"row_px" yaml:"row_px"`
	ParameterRows int `mapstructure:"parameter_rows" yaml:"parameter_rows"`
	MaxRows       int `mapstructure:"max_rows" yaml:"max_rows"`
}

// ChartConfig sets the fixed height of non-tabular visualizations.
type ChartConfig struct {
	Rows int `mapstructure:"rows" yaml:"rows"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:            ".tilegrid",
		Database:           ".tilegrid/data.db",
		LogLevel:           "info",
		Columns:            6,
		RefreshConcurrency: 4,
		Geometry: GeometryConfig{
			ChromePx: grid.DefaultChromePx,
			RowPx:    grid.DefaultRowPx,
			MinRows:  grid.DefaultMinRows,
		},
		Terminal: TerminalConfig{
			ChromeLines: 3,
			RowLines:    2,
		},
		Table: TableConfig{
			HeaderPx:      estimate.DefaultHeaderPx,
			RowPx:         estimate.DefaultTableRowPx,
			ParameterRows: estimate.DefaultParameterRows,
			MaxRows:       estimate.DefaultTableLimit,
		},
		Chart: ChartConfig{
			Rows: estimate.DefaultChartRows,
		},
	}
}

// envKeys lists every key with an explicit ENV binding.
var envKeys = []string{
	"data_dir",
	"database",
	"log_level",
	"log_file",
	"columns",
	"refresh_concurrency",
	"geometry.chrome_px",
	"geometry.row_px",
	"geometry.min_rows",
	"geometry.max_rows",
	"terminal.chrome_lines",
	"terminal.row_lines",
	"table.header_px",
	"table.row_px",
	"table.parameter_rows",
	"table.max_rows",
	"chart.rows",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads configuration into v. Callers bind CLI flags on v before
// calling it.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigType("yaml")
	v.SetConfigName("tilegrid")

	d := Default()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("database", d.Database)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("columns", d.Columns)
	v.SetDefault("refresh_concurrency", d.RefreshConcurrency)
	v.SetDefault("geometry.chrome_px", d.Geometry.ChromePx)
	v.SetDefault("geometry.row_px", d.Geometry.RowPx)
	v.SetDefault("geometry.min_rows", d.Geometry.MinRows)
	v.SetDefault("geometry.max_rows", d.Geometry.MaxRows)
	v.SetDefault("terminal.chrome_lines", d.Terminal.ChromeLines)
	v.SetDefault("terminal.row_lines", d.Terminal.RowLines)
	v.SetDefault("table.header_px", d.Table.HeaderPx)
	v.SetDefault("table.row_px", d.Table.RowPx)
	v.SetDefault("table.parameter_rows", d.Table.ParameterRows)
	v.SetDefault("table.max_rows", d.Table.MaxRows)
	v.SetDefault("chart.rows", d.Chart.Rows)

	// Setup ENV binding with TILEGRID_ prefix
	v.SetEnvPrefix("TILEGRID")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better int parsing of nested keys
	for _, key := range envKeys {
		env := "TILEGRID_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the layout engine cannot work with.
func (c *Config) Validate() error {
	if c.Geometry.RowPx <= 0 {
		return fmt.Errorf("geometry.row_px must be positive, got %d", c.Geometry.RowPx)
	}
	if c.Geometry.ChromePx < 0 {
		return fmt.Errorf("geometry.chrome_px must not be negative, got %d", c.Geometry.ChromePx)
	}
	if c.Geometry.MinRows < 1 {
		return fmt.Errorf("geometry.min_rows must be at least 1, got %d", c.Geometry.MinRows)
	}
	if c.Geometry.MaxRows < 0 || (c.Geometry.MaxRows > 0 && c.Geometry.MaxRows < c.Geometry.MinRows) {
		return fmt.Errorf("geometry.max_rows %d is below min_rows %d", c.Geometry.MaxRows, c.Geometry.MinRows)
	}
	if c.Terminal.RowLines <= 0 {
		return fmt.Errorf("terminal.row_lines must be positive, got %d", c.Terminal.RowLines)
	}
	if c.Table.RowPx <= 0 {
		return fmt.Errorf("table.row_px must be positive, got %d", c.Table.RowPx)
	}
	if c.Columns <= 0 {
		return fmt.Errorf("columns must be positive, got %d", c.Columns)
	}
	if c.RefreshConcurrency <= 0 {
		return fmt.Errorf("refresh_concurrency must be positive, got %d", c.RefreshConcurrency)
	}
	return nil
}

// PixelGeometry returns the dashboard pixel scale.
func (c *Config) PixelGeometry() grid.Geometry {
	return grid.Geometry{
		ChromeUnits: c.Geometry.ChromePx,
		RowUnits:    c.Geometry.RowPx,
		MinRows:     c.Geometry.MinRows,
		MaxRows:     c.Geometry.MaxRows,
	}
}

// TerminalGeometry returns the line scale used by the TUI. Manual resize
// limits are shared with the pixel scale.
func (c *Config) TerminalGeometry() grid.Geometry {
	return grid.Geometry{
		ChromeUnits: c.Terminal.ChromeLines,
		RowUnits:    c.Terminal.RowLines,
		MinRows:     c.Geometry.MinRows,
		MaxRows:     c.Geometry.MaxRows,
	}
}

// EstimateOptions returns the estimator calibration.
func (c *Config) EstimateOptions() estimate.Options {
	return estimate.Options{
		HeaderPx:      c.Table.HeaderPx,
		RowPx:         c.Table.RowPx,
		QuantumPx:     c.Geometry.RowPx,
		ParameterRows: c.Table.ParameterRows,
		TableLimit:    c.Table.MaxRows,
		ChartRows:     c.Chart.Rows,
	}
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/tilegrid/tilegrid.yml or $XDG_CONFIG_HOME/tilegrid/tilegrid.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tilegrid", "tilegrid.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tilegrid", "tilegrid.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "tilegrid.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return writeFile(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return writeFile(ProjectPath(), cfg)
}

func writeFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
