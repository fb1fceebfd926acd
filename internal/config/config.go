// Package config provides configuration for the coder agent.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (CODER_AGENT_*)
// 3. Config file (CODER_AGENT_CONFIG, or .coder-agent/config.yaml in cwd)
// 4. Home config (~/.coder-agent/config.yaml)
// 5. Defaults
package config

// #region imports
import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/coder-agent/internal/agent"
	"github.com/danielpatrickdp/coder-agent/internal/pipeline"
	"github.com/danielpatrickdp/coder-agent/internal/toolchain"
)

// #endregion

// #region types

// Config holds all coder-agent configuration.
type Config struct {
	// Backend settings for the model the agent roles talk to.
	Backend BackendConfig `yaml:"backend"`

	// Budgets for the two feedback loops.
	Budgets BudgetConfig `yaml:"budgets"`

	// Toolchain locates the Python tooling and the workspace.
	Toolchain ToolchainConfig `yaml:"toolchain"`

	// JournalPath is the sqlite run journal ("" disables journaling).
	JournalPath string `yaml:"journal_path"`
}

// BackendConfig selects and tunes the chat-completion backend.
type BackendConfig struct {
	// Kind is the backend provider: "openai" or "groq".
	Kind string `yaml:"kind"`
	// Model overrides the provider's default model when non-empty.
	Model string `yaml:"model"`
	// Temperature for both agent roles.
	Temperature float32 `yaml:"temperature"`
	// MaxTokens caps each completion.
	MaxTokens int `yaml:"max_tokens"`
}

// BudgetConfig bounds the retry loops.
type BudgetConfig struct {
	TypeCheck int `yaml:"type_check"`
	TestRun   int `yaml:"test_run"`
}

// ToolchainConfig locates the Python tools and the snapshot workspace.
type ToolchainConfig struct {
	PythonBin      string `yaml:"python_bin"`
	MypyBin        string `yaml:"mypy_bin"`
	StubgenBin     string `yaml:"stubgen_bin"`
	WorkspaceDir   string `yaml:"workspace_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// #endregion

// #region defaults

const defaultBackendKind = "groq"

// Default returns the default configuration.
func Default() *Config {
	params := agent.DefaultParams()
	pcfg := pipeline.DefaultConfig()
	tcfg := toolchain.DefaultConfig()
	return &Config{
		Backend: BackendConfig{
			Kind:        defaultBackendKind,
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
		},
		Budgets: BudgetConfig{
			TypeCheck: pcfg.TypeCheckBudget,
			TestRun:   pcfg.TestRunBudget,
		},
		Toolchain: ToolchainConfig{
			PythonBin:      tcfg.PythonBin,
			MypyBin:        tcfg.MypyBin,
			StubgenBin:     tcfg.StubgenBin,
			WorkspaceDir:   tcfg.Dir,
			TimeoutSeconds: int(tcfg.Timeout / time.Second),
		},
		JournalPath: filepath.Join("target", "coder_agent.db"),
	}
}

// #endregion

// #region load

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults. Flag overrides are
// merged by the caller; Load handles the rest.
func Load() (*Config, error) {
	cfg := Default()

	homeConfig, err := loadFromPath(homeConfigPath())
	if err != nil {
		return nil, err
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(projectConfigPath())
	if err != nil {
		return nil, err
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)
	return cfg, nil
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".coder-agent", "config.yaml")
}

func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("CODER_AGENT_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".coder-agent", "config.yaml")
}

// loadFromPath loads config from a YAML file. A missing file is not an
// error; a present but unparseable one is.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// #endregion

// #region env

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("CODER_AGENT_BACKEND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("CODER_AGENT_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("CODER_AGENT_TYPE_CHECK_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Budgets.TypeCheck = n
		}
	}
	if v := os.Getenv("CODER_AGENT_TEST_RUN_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Budgets.TestRun = n
		}
	}
	if v := os.Getenv("CODER_AGENT_WORKSPACE"); v != "" {
		cfg.Toolchain.WorkspaceDir = v
	}
	if v := os.Getenv("CODER_AGENT_JOURNAL"); v != "" {
		cfg.JournalPath = v
	}
	return cfg
}

// #endregion

// #region merge

func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Backend.Kind, src.Backend.Kind)
	mergeStr(&dst.Backend.Model, src.Backend.Model)
	if src.Backend.Temperature != 0 {
		dst.Backend.Temperature = src.Backend.Temperature
	}
	mergeInt(&dst.Backend.MaxTokens, src.Backend.MaxTokens)

	mergeInt(&dst.Budgets.TypeCheck, src.Budgets.TypeCheck)
	mergeInt(&dst.Budgets.TestRun, src.Budgets.TestRun)

	mergeStr(&dst.Toolchain.PythonBin, src.Toolchain.PythonBin)
	mergeStr(&dst.Toolchain.MypyBin, src.Toolchain.MypyBin)
	mergeStr(&dst.Toolchain.StubgenBin, src.Toolchain.StubgenBin)
	mergeStr(&dst.Toolchain.WorkspaceDir, src.Toolchain.WorkspaceDir)
	mergeInt(&dst.Toolchain.TimeoutSeconds, src.Toolchain.TimeoutSeconds)

	mergeStr(&dst.JournalPath, src.JournalPath)
	return dst
}

// #endregion

// #region conversions

// AgentParams converts the backend section to agent parameters.
func (c *Config) AgentParams() agent.Params {
	return agent.Params{
		Model:       c.Backend.Model,
		Temperature: c.Backend.Temperature,
		MaxTokens:   c.Backend.MaxTokens,
	}
}

// PipelineConfig converts the budget section to a pipeline config.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		TypeCheckBudget: c.Budgets.TypeCheck,
		TestRunBudget:   c.Budgets.TestRun,
	}
}

// ToolchainConfig converts the toolchain section to a toolchain config.
func (c *Config) ToolchainConfig() toolchain.Config {
	return toolchain.Config{
		PythonBin:  c.Toolchain.PythonBin,
		MypyBin:    c.Toolchain.MypyBin,
		StubgenBin: c.Toolchain.StubgenBin,
		Dir:        c.Toolchain.WorkspaceDir,
		Timeout:    time.Duration(c.Toolchain.TimeoutSeconds) * time.Second,
	}
}

// #endregion
