package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/bigtcze/znsd/zns"
	"gopkg.in/yaml.v3"
)

// Config holds the daemon's configuration: the namespace geometry the
// core is constructed from, plus the HTTP server it's served behind.
type Config struct {
	Namespace NamespaceConfig `yaml:"namespace"`
	Server    ServerConfig    `yaml:"server"`
}

// NamespaceConfig is the YAML-facing mirror of zns.Config, per spec.md
// §4.1's configuration inputs.
type NamespaceConfig struct {
	ZoneSizeBytes        uint64 `yaml:"zone_size_bytes"`
	ZoneCapacityBytes    uint64 `yaml:"zone_capacity_bytes"`
	LBASizeBytes         uint32 `yaml:"lba_size_bytes"`
	NamespaceSizeBytes   uint64 `yaml:"namespace_size_bytes"`
	MaxActiveZones       uint32 `yaml:"max_active_zones"`
	MaxOpenZones         uint32 `yaml:"max_open_zones"`
	CrossZoneRead        bool   `yaml:"cross_zone_read"`
	ZDExtensionSizeBytes uint32 `yaml:"zd_extension_size_bytes"`
	PageSizeBytes        uint32 `yaml:"page_size_bytes"`
	ZASL                 uint8  `yaml:"zasl"`
	MDTSLog2             uint8  `yaml:"mdts_log2"`
}

// ToZNSConfig converts the YAML-facing config into the core's zns.Config.
func (n NamespaceConfig) ToZNSConfig() zns.Config {
	return zns.Config{
		ZoneSizeBytes:        n.ZoneSizeBytes,
		ZoneCapacityBytes:    n.ZoneCapacityBytes,
		LBASizeBytes:         n.LBASizeBytes,
		NamespaceSizeBytes:   n.NamespaceSizeBytes,
		MaxActiveZones:       n.MaxActiveZones,
		MaxOpenZones:         n.MaxOpenZones,
		CrossZoneRead:        n.CrossZoneRead,
		ZDExtensionSizeBytes: n.ZDExtensionSizeBytes,
		PageSizeBytes:        n.PageSizeBytes,
		ZASL:                 n.ZASL,
		MDTSLog2:             n.MDTSLog2,
	}
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
	MetricsPath   string `yaml:"metrics_path"`
	CommandPath   string `yaml:"command_path"`
}

// Load loads configuration from environment variables and an optional
// file (named by the -config flag): env overrides default, file overrides
// env.
func Load() (*Config, error) {
	var configFile string
	flag.StringVar(&configFile, "config", "", "Path to configuration file")
	flag.Parse()
	return LoadFromFile(configFile)
}

// LoadFromFile builds a Config from environment variables, then
// optionally overlays a YAML file (empty path skips the overlay). Split
// out from Load so callers (and tests) can build a Config without
// touching the process's flag set.
func LoadFromFile(configFile string) (*Config, error) {
	cfg := &Config{
		Namespace: NamespaceConfig{
			ZoneSizeBytes:        getEnvUint64("ZNS_ZONE_SIZE_BYTES", zns.DefaultZoneSizeBytes),
			ZoneCapacityBytes:    getEnvUint64("ZNS_ZONE_CAPACITY_BYTES", zns.DefaultZoneSizeBytes),
			LBASizeBytes:         uint32(getEnvUint64("ZNS_LBA_SIZE_BYTES", 4096)),
			NamespaceSizeBytes:   getEnvUint64("ZNS_NAMESPACE_SIZE_BYTES", 4*zns.DefaultZoneSizeBytes),
			MaxActiveZones:       uint32(getEnvUint64("ZNS_MAX_ACTIVE_ZONES", 0)),
			MaxOpenZones:         uint32(getEnvUint64("ZNS_MAX_OPEN_ZONES", 0)),
			CrossZoneRead:        getEnvBool("ZNS_CROSS_ZONE_READ", false),
			ZDExtensionSizeBytes: uint32(getEnvUint64("ZNS_ZD_EXTENSION_SIZE_BYTES", 0)),
			PageSizeBytes:        uint32(getEnvUint64("ZNS_PAGE_SIZE_BYTES", zns.DefaultPageSizeBytes)),
			ZASL:                 uint8(getEnvUint64("ZNS_ZASL", 4)),
			MDTSLog2:             uint8(getEnvUint64("ZNS_MDTS_LOG2", 6)),
		},
		Server: ServerConfig{
			ListenAddress: getEnv("LISTEN_ADDRESS", ":9221"),
			MetricsPath:   getEnv("METRICS_PATH", "/metrics"),
			CommandPath:   getEnv("COMMAND_PATH", "/v1/namespaces/{id}/command"),
		},
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields Load can't delegate to zns.NewNamespace
// (which validates geometry itself once constructed).
func (c *Config) Validate() error {
	if c.Namespace.LBASizeBytes == 0 {
		return fmt.Errorf("namespace.lba_size_bytes is required")
	}
	if c.Namespace.NamespaceSizeBytes == 0 {
		return fmt.Errorf("namespace.namespace_size_bytes is required")
	}
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
