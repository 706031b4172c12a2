package config

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:9000"
	DefaultFrontURL   = "http://localhost:3000"
	DefaultLogLevel   = "info"
	DefaultDBDirName  = "db"
	DefaultDBFileName = "mercari.sqlite3"
	DefaultImagesDir  = "images"
	ConfigFileName    = ".mercari.toml"
	DotEnvFileName    = ".env"
	AllowRemoteEnvKey = "MERCARI_ALLOW_REMOTE"

	DefaultImageMaxSize         int64 = 10 * 1024 * 1024
	DefaultImageMultipartMemory int64 = 8 * 1024 * 1024

	configDirEnvKey          = "MERCARI_CONFIG_DIR"
	trustProjectConfigEnvKey = "MERCARI_TRUST_PROJECT_CONFIG"

	apiURLEnvKey            = "MERCARI_API_URL"
	dbPathEnvKey            = "MERCARI_DB"
	imagesDirEnvKey         = "MERCARI_IMAGES_DIR"
	frontURLEnvKey          = "FRONT_URL"
	allowedMediaTypesEnvKey = "MERCARI_ALLOWED_MEDIA_TYPES"
)

// ImageConfig holds upload limits for POST /items.
type ImageConfig struct {
	MaxUploadBytes     int64    `toml:"max_upload_bytes"`
	MultipartMaxMemory int64    `toml:"multipart_max_memory"`
	AllowedMediaTypes  []string `toml:"allowed_media_types"`
}

// Config is the effective mercari configuration.
type Config struct {
	APIURL    string      `toml:"api_url"`
	DBPath    string      `toml:"db_path"`
	ImagesDir string      `toml:"images_dir"`
	FrontURL  string      `toml:"front_url"`
	LogLevel  string      `toml:"log_level"`
	Images    ImageConfig `toml:"images"`

	// TrustedProjectConfigPath is set when ./.mercari.toml was applied.
	TrustedProjectConfigPath string `toml:"-"`
}

// Default returns the built-in configuration. DBPath and ImagesDir stay empty
// until Load resolves them against the working directory.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		FrontURL: DefaultFrontURL,
		LogLevel: DefaultLogLevel,
		Images: ImageConfig{
			MaxUploadBytes:     DefaultImageMaxSize,
			MultipartMaxMemory: DefaultImageMultipartMemory,
		},
	}
}

// keySpec describes one settable key: how to read it, how to apply an
// environment override, and what SetKey writes to the TOML file.
type keySpec struct {
	name   string
	env    string
	get    func(*Config) string
	set    func(*Config, string) error
	encode func(string) (any, error)
}

func stringKey(name, env string, field func(*Config) *string) keySpec {
	return keySpec{
		name: name,
		env:  env,
		get:  func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
		encode: func(v string) (any, error) { return v, nil },
	}
}

func sizeKey(name string, field func(*Config) *int64) keySpec {
	return keySpec{
		name: name,
		get:  func(c *Config) string { return strconv.FormatInt(*field(c), 10) },
		set: func(c *Config, v string) error {
			n, err := parseSize(name, v)
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
		encode: func(v string) (any, error) { return parseSize(name, v) },
	}
}

var keySpecs = []keySpec{
	stringKey("api_url", apiURLEnvKey, func(c *Config) *string { return &c.APIURL }),
	stringKey("db_path", dbPathEnvKey, func(c *Config) *string { return &c.DBPath }),
	stringKey("images_dir", imagesDirEnvKey, func(c *Config) *string { return &c.ImagesDir }),
	stringKey("front_url", frontURLEnvKey, func(c *Config) *string { return &c.FrontURL }),
	stringKey("log_level", "", func(c *Config) *string { return &c.LogLevel }),
	sizeKey("images.max_upload_bytes", func(c *Config) *int64 { return &c.Images.MaxUploadBytes }),
	sizeKey("images.multipart_max_memory", func(c *Config) *int64 { return &c.Images.MultipartMaxMemory }),
	{
		name: "images.allowed_media_types",
		env:  allowedMediaTypesEnvKey,
		get:  func(c *Config) string { return strings.Join(c.Images.AllowedMediaTypes, ",") },
		set: func(c *Config, v string) error {
			c.Images.AllowedMediaTypes = splitCSV(v)
			return nil
		},
		encode: func(v string) (any, error) { return splitCSV(v), nil },
	},
}

func lookupKey(key string) (keySpec, bool) {
	i := slices.IndexFunc(keySpecs, func(s keySpec) bool { return s.name == key })
	if i < 0 {
		return keySpec{}, false
	}
	return keySpecs[i], true
}

// AllowedKeys returns the keys accepted by Get and SetKey.
func AllowedKeys() []string {
	names := make([]string, len(keySpecs))
	for i, spec := range keySpecs {
		names[i] = spec.name
	}
	return names
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	_, ok := lookupKey(key)
	return ok
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	spec, ok := lookupKey(key)
	if !ok {
		return "", fmt.Errorf("unknown key: %s", key)
	}
	return spec.get(c), nil
}

// SetKey sets key=value in the TOML file at path, creating it if needed and
// keeping every other key.
func SetKey(path, key, value string) error {
	spec, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	encoded, err := spec.encode(strings.TrimSpace(value))
	if err != nil {
		return err
	}

	doc := map[string]any{}
	if _, err := toml.DecodeFile(path, &doc); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := setPath(doc, key, encoded); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if dir, ok := configDirOverride(); ok {
		return filepath.Join(dir, ConfigFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if dir, ok := configDirOverride(); ok {
		return filepath.Join(dir, ConfigFileName), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigFileName), nil
}

// Load builds the effective configuration. Later sources win: defaults, the
// global file, the project file (only with MERCARI_TRUST_PROJECT_CONFIG=true),
// then environment variables. A .env file in the working directory fills in
// variables the real environment leaves unset, including MERCARI_CONFIG_DIR
// and MERCARI_TRUST_PROJECT_CONFIG.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(filepath.Join(cwd, DotEnvFileName)); err != nil {
		return nil, err
	}

	cfg := Default()
	if global, err := GlobalPath(); err == nil {
		if _, err := decodeFile(global, &cfg); err != nil {
			return nil, err
		}
	}
	if _, overridden := configDirOverride(); !overridden && envBool(trustProjectConfigEnvKey) {
		project := filepath.Join(cwd, ConfigFileName)
		found, err := decodeFile(project, &cfg)
		if err != nil {
			return nil, err
		}
		if found {
			cfg.TrustedProjectConfigPath = project
		}
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cwd, DefaultDBDirName, DefaultDBFileName)
	}
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = filepath.Join(cwd, DefaultImagesDir)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

// AllowRemote reports whether the server may listen on a non-loopback host.
func AllowRemote() bool {
	return envBool(AllowRemoteEnvKey)
}

// decodeFile merges the TOML file at path into cfg. A missing file or a
// directory is skipped.
func decodeFile(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

// loadDotEnv populates the process environment from path. Variables that are
// already set keep their value.
func loadDotEnv(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	for _, spec := range keySpecs {
		if spec.env == "" {
			continue
		}
		value := strings.TrimSpace(os.Getenv(spec.env))
		if value == "" {
			continue
		}
		if err := spec.set(c, value); err != nil {
			return fmt.Errorf("%s: %w", spec.env, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.FrontURL) == "" {
		c.FrontURL = DefaultFrontURL
	}
	if c.Images.MaxUploadBytes <= 0 {
		c.Images.MaxUploadBytes = DefaultImageMaxSize
	}
	if c.Images.MultipartMaxMemory <= 0 {
		c.Images.MultipartMaxMemory = DefaultImageMultipartMemory
	}
	c.Images.AllowedMediaTypes = NormalizeMediaTypes(c.Images.AllowedMediaTypes)
}

// NormalizeMediaTypes lowercases, sorts and dedupes media types, dropping
// parameters and entries that do not parse. It returns nil when nothing is
// left, which means "accept any type".
func NormalizeMediaTypes(raw []string) []string {
	var out []string
	for _, value := range raw {
		parsed, _, err := mime.ParseMediaType(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func configDirOverride() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	return dir, dir != ""
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && value
}

func parseSize(key, value string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

// setPath stores value under a dotted key, creating intermediate tables.
func setPath(doc map[string]any, key string, value any) error {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := doc[part]
		if !ok {
			table := map[string]any{}
			doc[part] = table
			doc = table
			continue
		}
		table, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %q: %q is not a table", key, part)
		}
		doc = table
	}
	doc[parts[len(parts)-1]] = value
	return nil
}

func splitCSV(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
