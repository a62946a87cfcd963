package commands

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/tabletop-tools/campvault/internal/config"
	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/logging"
	"github.com/tabletop-tools/campvault/internal/manifest"
)

// testRoot points the live root at a fresh temp dir for one test and
// resets the config to built-in defaults.
func testRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	origRoot := liveRootFlag
	origArchive := archiveRootFlag
	origCfgFile := cfgFile
	origCfg := cfg
	origLoadErr := configLoadErr

	liveRootFlag = root
	archiveRootFlag = ""
	cfgFile = ""
	cfg = nil
	configLoadErr = nil

	t.Cleanup(func() {
		liveRootFlag = origRoot
		archiveRootFlag = origArchive
		cfgFile = origCfgFile
		cfg = origCfg
		configLoadErr = origLoadErr
	})
	return root
}

func TestSetupLogging_VerbosityFlags(t *testing.T) {
	// Save/Restore original state
	origVerbosity := verbosity
	defer func() { verbosity = origVerbosity }()

	tests := []struct {
		name      string
		verbosity int
		wantLevel slog.Level
	}{
		{"default (0)", 0, slog.LevelWarn},
		{"verbose (1)", 1, slog.LevelInfo},
		{"debug (2)", 2, slog.LevelDebug},
		{"trace (3)", 3, logging.LevelTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbosity = tt.verbosity
			if err := setupLogging(rootCmd); err != nil {
				t.Fatalf("setupLogging failed: %v", err)
			}

			logger := slog.Default()
			if !logger.Enabled(t.Context(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > logging.LevelTrace {
				shouldBeDisabled := tt.wantLevel - 4
				if logger.Enabled(t.Context(), shouldBeDisabled) {
					t.Errorf("expected level %v to be disabled", shouldBeDisabled)
				}
			}
		})
	}
}

func TestSetupLogging_EnvVar(t *testing.T) {
	origVerbosity := verbosity
	defer func() { verbosity = origVerbosity }()

	tests := []struct {
		name      string
		envVal    string
		wantLevel slog.Level
	}{
		{"CAMPVAULT_DEBUG=1", "1", slog.LevelDebug},
		{"CAMPVAULT_DEBUG=true", "true", slog.LevelDebug},
		{"CAMPVAULT_DEBUG=2", "2", logging.LevelTrace},
		{"CAMPVAULT_DEBUG=0", "0", slog.LevelWarn},
		{"CAMPVAULT_DEBUG=unknown", "foo", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbosity = 0
			t.Setenv("CAMPVAULT_DEBUG", tt.envVal)

			if err := setupLogging(rootCmd); err != nil {
				t.Fatalf("setupLogging failed: %v", err)
			}

			logger := slog.Default()
			if !logger.Enabled(t.Context(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
		})
	}
}

func TestSetupLogging_FlagPrecedence(t *testing.T) {
	origVerbosity := verbosity
	defer func() { verbosity = origVerbosity }()

	t.Setenv("CAMPVAULT_DEBUG", "2")
	verbosity = 1

	if err := setupLogging(rootCmd); err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}

	logger := slog.Default()
	if !logger.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("expected Info level to be enabled")
	}
	if logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected Debug level to be disabled (flag should override env var)")
	}
}

func TestSetupLogging_Quiet(t *testing.T) {
	origQuiet := quiet
	origVerbosity := verbosity
	defer func() {
		quiet = origQuiet
		verbosity = origVerbosity
	}()

	quiet = true
	verbosity = 0

	if err := setupLogging(rootCmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger := slog.Default()
	if !logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("expected Error level to be enabled")
	}
	if logger.Enabled(t.Context(), slog.LevelWarn) {
		t.Error("expected Warn level to be disabled")
	}
}

func TestSetupLogging_QuietMutualExclusion(t *testing.T) {
	origVerbosity := verbosity
	origQuiet := quiet
	defer func() {
		verbosity = origVerbosity
		quiet = origQuiet
	}()

	verbosity = 1
	quiet = true

	if err := setupLogging(rootCmd); err == nil {
		t.Error("expected error when both quiet and verbose are set")
	}
}

func TestResolveLayout_FlagsWinOverConfig(t *testing.T) {
	flagRoot := testRoot(t)

	origCfg := cfg
	defer func() { cfg = origCfg }()
	cfg = config.Default()
	cfg.LiveRoot = filepath.Join(flagRoot, "ignored")

	layout, err := resolveLayout()
	if err != nil {
		t.Fatalf("resolveLayout failed: %v", err)
	}
	if layout.LiveRoot != flagRoot {
		t.Errorf("LiveRoot = %q, want flag value %q", layout.LiveRoot, flagRoot)
	}
	if want := filepath.Join(flagRoot, "saves", "archives"); layout.ArchiveRoot != want {
		t.Errorf("ArchiveRoot = %q, want %q", layout.ArchiveRoot, want)
	}
}

func TestResolveLayout_ConfigFallback(t *testing.T) {
	root := testRoot(t)

	origCfg := cfg
	defer func() { cfg = origCfg }()

	cfgRoot := filepath.Join(root, "campaign")
	liveRootFlag = ""
	cfg = config.Default()
	cfg.LiveRoot = cfgRoot

	layout, err := resolveLayout()
	if err != nil {
		t.Fatalf("resolveLayout failed: %v", err)
	}
	if layout.LiveRoot != cfgRoot {
		t.Errorf("LiveRoot = %q, want config value %q", layout.LiveRoot, cfgRoot)
	}
}

func TestActiveConfig_DefaultsWhenUnloaded(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()
	cfg = nil

	c := activeConfig()
	if c == nil {
		t.Fatal("activeConfig returned nil")
	}
	if c.DefaultMode != config.ModeMove {
		t.Errorf("DefaultMode = %q, want %q", c.DefaultMode, config.ModeMove)
	}
	if c.Retention != config.RetentionKeepAll {
		t.Errorf("Retention = %q, want %q", c.Retention, config.RetentionKeepAll)
	}
}

func TestResolveMode(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()
	cfg = config.Default()

	tests := []struct {
		name    string
		flag    string
		cfgMode string
		want    manifest.Mode
		wantErr bool
	}{
		{"flag move", "move", config.ModeCopy, manifest.ModeMove, false},
		{"flag copy", "copy", config.ModeMove, manifest.ModeCopy, false},
		{"empty falls to config", "", config.ModeCopy, manifest.ModeCopy, false},
		{"empty config falls to move", "", "", manifest.ModeMove, false},
		{"unknown mode", "weird", config.ModeMove, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.DefaultMode = tt.cfgMode

			got, err := resolveMode(tt.flag)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveMode(%q) failed: %v", tt.flag, err)
			}
			if got != tt.want {
				t.Errorf("resolveMode(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestCheckConfig_SkipsExemptCommands(t *testing.T) {
	origLoadErr := configLoadErr
	defer func() { configLoadErr = origLoadErr }()

	configLoadErr = errTestConfig

	if err := checkConfig(initCmd, nil); err != nil {
		t.Errorf("init should run despite a broken config, got %v", err)
	}
	if err := checkConfig(versionCmd, nil); err != nil {
		t.Errorf("version should run despite a broken config, got %v", err)
	}
	if err := checkConfig(listCmd, nil); err == nil {
		t.Error("list should refuse to run with a broken config")
	}
}

var errTestConfig = errors.New("config load failed")
