package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/lifescope/logger"
)

// FileSystem abstracts file access for the loader (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the real file system.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv loads a .env file without overriding variables already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Explicit config file path (optional)
	EnvFile    string // Explicit .env file path (optional)
	EnvPrefix  string // Prefix for environment overrides (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix requires environment overrides to carry prefix, e.g.
// APP_CONTAINER_DISPOSE_ORDER for prefix "APP".
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// ResolvedFiles contains the config and env file paths chosen for a service.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles picks the config and .env files for serviceName. Explicit
// paths win; otherwise the first existing candidate is used.
func ResolveFiles(serviceName string, lc LoaderConfig) ResolvedFiles {
	fs := lc.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(serviceName))
	}
	return files
}

func configCandidates(serviceName string) []string {
	var paths []string
	for _, dir := range []string{".", "..", "../.."} {
		paths = append(paths, fmt.Sprintf("%s/cmd/%s/config.yml", dir, serviceName))
	}
	return append(paths, "./config/config.yml", "./config.yml")
}

func envCandidates(serviceName string) []string {
	var paths []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range []string{"./cmd/" + serviceName, ".", ".."} {
			paths = append(paths, dir+"/"+name)
		}
	}
	return paths
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig loads configuration for a service into cfg, which must be a
// pointer to a struct. Precedence, lowest first: config file, .env file,
// process environment. A missing config file is not an error.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: target for %s must be a pointer to a struct, got %T", serviceName, cfg)
	}

	files := ResolveFiles(serviceName, lc)
	log := logger.Get("config")
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", files.ConfigFile, err)
		}
		log.Debug("Config file loaded", logger.Fields("file", files.ConfigFile))
	}

	// .env values land in the process environment, so they are picked up
	// by the bindings below.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("Failed to load .env file", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	if err := bindEnv(v, lc.EnvPrefix, rv.Elem().Type()); err != nil {
		return fmt.Errorf("config: binding environment for %s: %w", serviceName, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv binds every key reachable through mapstructure tags of t to its
// environment variable, so Unmarshal sees overrides even for keys that are
// absent from the config file.
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) error {
	for _, key := range configKeys(t, "") {
		if err := v.BindEnv(key, EnvName(prefix, key)); err != nil {
			return err
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
//
//	EnvName("", "container.dispose_order")    // CONTAINER_DISPOSE_ORDER
//	EnvName("APP", "telemetry.sample_rate")   // APP_TELEMETRY_SAMPLE_RATE
func EnvName(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}

// configKeys lists dotted keys for the leaf fields of t. Squashed embedded
// structs contribute their keys at the parent level.
func configKeys(t reflect.Type, parent string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		nested := ft.Kind() == reflect.Struct && ft.PkgPath() != "time"

		if nested && strings.Contains(opts, "squash") {
			keys = append(keys, configKeys(ft, parent)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if parent != "" {
			key = parent + "." + name
		}
		if nested {
			keys = append(keys, configKeys(ft, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
