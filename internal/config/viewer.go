package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

// Surfaces a viewer can render into.
const (
	SurfacePNG  = "png"
	SurfaceHTML = "html"
)

// ViewerConfig is the on-disk configuration shared by every nuview command.
// Omitted fields fall back to the defaults returned by the Get* methods, so
// partial configs are safe.
type ViewerConfig struct {
	// Dataset
	Dataroot *string `json:"dataroot,omitempty"`
	Version  *string `json:"version,omitempty"`

	// Output and processes
	OutputDir     *string   `json:"output_dir,omitempty"`
	JournalPath   *string   `json:"journal_path,omitempty"`
	WorkerBinary  *string   `json:"worker_binary,omitempty"`
	ViewerCommand *[]string `json:"viewer_command,omitempty"` // argv with {file} {geometry} {title} placeholders
	ScreenWidth   *int      `json:"screen_width,omitempty"`
	ScreenHeight  *int      `json:"screen_height,omitempty"`

	// Rendering
	Surface        *string  `json:"surface,omitempty"`
	BoxVisibility  *string  `json:"box_visibility,omitempty"`
	NSweeps        *int     `json:"nsweeps,omitempty"`
	AxesLimit      *float64 `json:"axes_limit,omitempty"`
	FigureWidthIn  *float64 `json:"figure_width_in,omitempty"`
	RowHeightIn    *float64 `json:"row_height_in,omitempty"`
	DPI            *int     `json:"dpi,omitempty"`
	PlayInterval   *string  `json:"play_interval,omitempty"` // duration string like "500ms"
	ShowLidarseg   *bool    `json:"show_lidarseg,omitempty"`
	LidarsegFilter *[]int   `json:"lidarseg_filter,omitempty"`
}

func ptrString(v string) *string { return &v }

// LoadViewerConfig loads a ViewerConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ViewerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load resolves the config a command should run with: the named file when
// path is set, otherwise DefaultConfigPath if it exists, otherwise built-in
// defaults.
func Load(path string) (*ViewerConfig, error) {
	if path != "" {
		return LoadViewerConfig(path)
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return LoadViewerConfig(DefaultConfigPath)
	}
	return &ViewerConfig{}, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory or
// a parent. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ViewerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/render/raster/
	}
	for _, path := range candidates {
		if cfg, err := LoadViewerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ViewerConfig) Validate() error {
	if c.Surface != nil {
		switch *c.Surface {
		case SurfacePNG, SurfaceHTML:
		default:
			return fmt.Errorf("surface must be %q or %q, got %q", SurfacePNG, SurfaceHTML, *c.Surface)
		}
	}
	if c.BoxVisibility != nil {
		switch *c.BoxVisibility {
		case "any", "all", "none":
		default:
			return fmt.Errorf("box_visibility must be any, all or none, got %q", *c.BoxVisibility)
		}
	}
	if c.NSweeps != nil && *c.NSweeps < 1 {
		return fmt.Errorf("nsweeps must be at least 1, got %d", *c.NSweeps)
	}
	if c.AxesLimit != nil && *c.AxesLimit <= 0 {
		return fmt.Errorf("axes_limit must be positive, got %f", *c.AxesLimit)
	}
	if c.FigureWidthIn != nil && *c.FigureWidthIn <= 0 {
		return fmt.Errorf("figure_width_in must be positive, got %f", *c.FigureWidthIn)
	}
	if c.RowHeightIn != nil && *c.RowHeightIn <= 0 {
		return fmt.Errorf("row_height_in must be positive, got %f", *c.RowHeightIn)
	}
	if c.DPI != nil && (*c.DPI < 10 || *c.DPI > 600) {
		return fmt.Errorf("dpi must be between 10 and 600, got %d", *c.DPI)
	}
	if c.ScreenWidth != nil && *c.ScreenWidth <= 0 {
		return fmt.Errorf("screen_width must be positive, got %d", *c.ScreenWidth)
	}
	if c.ScreenHeight != nil && *c.ScreenHeight <= 0 {
		return fmt.Errorf("screen_height must be positive, got %d", *c.ScreenHeight)
	}
	if c.PlayInterval != nil && *c.PlayInterval != "" {
		if _, err := time.ParseDuration(*c.PlayInterval); err != nil {
			return fmt.Errorf("invalid play_interval '%s': %w", *c.PlayInterval, err)
		}
	}
	return nil
}

// GetDataroot returns the dataset root directory.
func (c *ViewerConfig) GetDataroot() string {
	if c.Dataroot == nil || *c.Dataroot == "" {
		return "data/sets/nuscenes"
	}
	return *c.Dataroot
}

// GetVersion returns the dataset version subdirectory.
func (c *ViewerConfig) GetVersion() string {
	if c.Version == nil || *c.Version == "" {
		return "v1.0-mini"
	}
	return *c.Version
}

// GetOutputDir returns where rendered files and logs are written.
func (c *ViewerConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return filepath.Join(os.TempDir(), "nuview")
	}
	return *c.OutputDir
}

// GetJournalPath returns the sqlite journal location, defaulting into the output dir.
func (c *ViewerConfig) GetJournalPath() string {
	if c.JournalPath == nil || *c.JournalPath == "" {
		return filepath.Join(c.GetOutputDir(), "journal.db")
	}
	return *c.JournalPath
}

// GetWorkerBinary returns the configured worker binary, or "" to search for one.
func (c *ViewerConfig) GetWorkerBinary() string {
	if c.WorkerBinary == nil {
		return ""
	}
	return *c.WorkerBinary
}

// GetViewerCommand returns a copy of the external image viewer argv.
// An explicitly empty list disables the viewer.
func (c *ViewerConfig) GetViewerCommand() []string {
	if c.ViewerCommand == nil {
		return []string{"feh", "--reload", "1", "--geometry", "{geometry}", "--title", "{title}", "{file}"}
	}
	return append([]string(nil), (*c.ViewerCommand)...)
}

// GetScreenWidth returns the screen width in pixels.
func (c *ViewerConfig) GetScreenWidth() int {
	if c.ScreenWidth == nil {
		return 1920
	}
	return *c.ScreenWidth
}

// GetScreenHeight returns the screen height in pixels.
func (c *ViewerConfig) GetScreenHeight() int {
	if c.ScreenHeight == nil {
		return 1080
	}
	return *c.ScreenHeight
}

// GetSurface returns the rendering surface kind.
func (c *ViewerConfig) GetSurface() string {
	if c.Surface == nil {
		return SurfacePNG
	}
	return *c.Surface
}

// GetBoxVisibility returns which annotation boxes are drawn on camera images.
func (c *ViewerConfig) GetBoxVisibility() string {
	if c.BoxVisibility == nil {
		return "any"
	}
	return *c.BoxVisibility
}

// GetNSweeps returns how many lidar/radar sweeps are aggregated per cell.
func (c *ViewerConfig) GetNSweeps() int {
	if c.NSweeps == nil {
		return 1
	}
	return *c.NSweeps
}

// GetAxesLimit returns the half-width in metres of top-down point cells.
func (c *ViewerConfig) GetAxesLimit() float64 {
	if c.AxesLimit == nil {
		return 40
	}
	return *c.AxesLimit
}

// GetFigureWidthIn returns the figure width in inches.
func (c *ViewerConfig) GetFigureWidthIn() float64 {
	if c.FigureWidthIn == nil {
		return 16
	}
	return *c.FigureWidthIn
}

// GetRowHeightIn returns the height of one layout row in inches.
func (c *ViewerConfig) GetRowHeightIn() float64 {
	if c.RowHeightIn == nil {
		return 6
	}
	return *c.RowHeightIn
}

// GetDPI returns the raster resolution.
func (c *ViewerConfig) GetDPI() int {
	if c.DPI == nil {
		return 72
	}
	return *c.DPI
}

// GetPlayInterval parses and returns the delay between frames in play mode.
func (c *ViewerConfig) GetPlayInterval() time.Duration {
	if c.PlayInterval == nil || *c.PlayInterval == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.PlayInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetShowLidarseg reports whether lidar cells are coloured by lidarseg labels.
func (c *ViewerConfig) GetShowLidarseg() bool {
	if c.ShowLidarseg == nil {
		return false
	}
	return *c.ShowLidarseg
}

// GetLidarsegFilter returns the label indices to keep, or nil for all labels.
func (c *ViewerConfig) GetLidarsegFilter() []int {
	if c.LidarsegFilter == nil {
		return nil
	}
	return append([]int(nil), (*c.LidarsegFilter)...)
}
