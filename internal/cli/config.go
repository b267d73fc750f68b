package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/slate/internal/analysis"
	"github.com/mesh-intelligence/slate/internal/paths"
	"github.com/mesh-intelligence/slate/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "SLATE"
)

// Config keys.
const (
	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeySyncStrategy   = "sync_strategy"
	cfgKeyBatchSize      = "batch_size"
	cfgKeyBatchInterval  = "batch_interval"
	cfgKeyProject        = "project"
	cfgKeyLLMAPIKey      = "llm.api_key"
	cfgKeyLLMBaseURL     = "llm.base_url"
	cfgKeyLLMModel       = "llm.model"
	cfgKeyLLMTimeout     = "llm.timeout_seconds"
	cfgKeyMaxChars       = "analysis.max_chars"
	cfgKeyLogLevel       = "log.level"
	cfgKeyLogFormat      = "log.format"
	cfgKeyServeAddr      = "serve.addr"
	defaultServeAddr     = "127.0.0.1:8420"
	defaultLogLevel      = "warn"
	defaultLLMTimeoutSec = 60
)

// envBindings lists the keys that SLATE_* variables override. data_dir is
// resolved by the paths package so that config.yaml outranks the
// environment.
var envBindings = map[string][]string{
	cfgKeyProject:      {"SLATE_PROJECT"},
	cfgKeySyncStrategy: {"SLATE_SYNC_STRATEGY"},
	cfgKeyLLMAPIKey:    {"SLATE_LLM_API_KEY", "OPENROUTER_API_KEY"},
	cfgKeyLLMBaseURL:   {"SLATE_LLM_BASE_URL"},
	cfgKeyLLMModel:     {"SLATE_LLM_MODEL"},
	cfgKeyMaxChars:     {"SLATE_ANALYSIS_MAX_CHARS"},
	cfgKeyLogLevel:     {"SLATE_LOG_LEVEL"},
	cfgKeyLogFormat:    {"SLATE_LOG_FORMAT"},
	cfgKeyServeAddr:    {"SLATE_SERVE_ADDR"},
}

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	Project      string `yaml:"project"`
	LLM          struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Analysis struct {
		MaxChars int `yaml:"max_chars"`
	} `yaml:"analysis"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Serve struct {
		Addr string `yaml:"addr"`
	} `yaml:"serve"`
}

func defaultConfigFile(dataDir string) configFile {
	var cfg configFile
	cfg.Backend = types.BackendSQLite
	cfg.DataDir = dataDir
	cfg.SyncStrategy = types.SyncImmediate
	cfg.Project = DefaultProject
	cfg.LLM.BaseURL = analysis.DefaultBaseURL
	cfg.LLM.Model = analysis.DefaultModel
	cfg.LLM.TimeoutSeconds = defaultLLMTimeoutSec
	cfg.Analysis.MaxChars = analysis.DefaultMaxChars
	cfg.Log.Level = defaultLogLevel
	cfg.Log.Format = "text"
	cfg.Serve.Addr = defaultServeAddr
	return cfg
}

// settings is the resolved configuration for one command run.
type settings struct {
	ConfigDir string
	Store     types.Config
	Project   string
	LLM       analysis.Config
	MaxChars  int
	LogLevel  string
	LogFormat string
	ServeAddr string
}

// loadSettings resolves directories, loads .env files and config.yaml, and
// applies flag overrides. A missing config.yaml is not an error.
func loadSettings(flags *rootFlags) (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := loadDotEnv(configDir); err != nil {
		return settings{}, err
	}

	v, err := readConfig(configDir)
	if err != nil {
		return settings{}, err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	s := settings{
		ConfigDir: configDir,
		Store: types.Config{
			Backend:       v.GetString(cfgKeyBackend),
			DataDir:       dataDir,
			SyncStrategy:  v.GetString(cfgKeySyncStrategy),
			BatchSize:     v.GetInt(cfgKeyBatchSize),
			BatchInterval: v.GetDuration(cfgKeyBatchInterval),
		},
		Project: v.GetString(cfgKeyProject),
		LLM: analysis.Config{
			APIKey:         v.GetString(cfgKeyLLMAPIKey),
			BaseURL:        v.GetString(cfgKeyLLMBaseURL),
			Model:          v.GetString(cfgKeyLLMModel),
			TimeoutSeconds: v.GetInt(cfgKeyLLMTimeout),
		},
		MaxChars:  v.GetInt(cfgKeyMaxChars),
		LogLevel:  v.GetString(cfgKeyLogLevel),
		LogFormat: v.GetString(cfgKeyLogFormat),
		ServeAddr: v.GetString(cfgKeyServeAddr),
	}
	if flags.project != "" {
		s.Project = flags.project
	}
	if strings.TrimSpace(s.Project) == "" {
		s.Project = DefaultProject
	}
	if flags.logLevel != "" {
		s.LogLevel = flags.logLevel
	}
	return s, nil
}

func readConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyProject, DefaultProject)
	v.SetDefault(cfgKeyLLMBaseURL, analysis.DefaultBaseURL)
	v.SetDefault(cfgKeyLLMModel, analysis.DefaultModel)
	v.SetDefault(cfgKeyLLMTimeout, defaultLLMTimeoutSec)
	v.SetDefault(cfgKeyMaxChars, analysis.DefaultMaxChars)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetDefault(cfgKeyServeAddr, defaultServeAddr)
	v.SetDefault(cfgKeyBatchSize, 50)
	v.SetDefault(cfgKeyBatchInterval, 5*time.Second)

	v.SetEnvPrefix(envPrefix)
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// loadDotEnv loads .env from the working directory, the config directory
// and the per-user slate directory, in that order. Variables already set
// are never overwritten, so the first file to define a key wins.
func loadDotEnv(configDir string) error {
	files := []string{envFileName, filepath.Join(configDir, envFileName)}
	if dir, err := paths.UserDir(); err == nil {
		files = append(files, filepath.Join(dir, envFileName))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// writeConfigIfMissing creates config.yaml with default values. An
// existing file is left untouched.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	data, err := yaml.Marshal(defaultConfigFile(dataDir))
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# slate configuration. SLATE_* environment variables and flags override these values.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
