// Package config loads the YAML configuration of the converter.
package config

import (
	"fmt"
	"os"

	"github.com/osmparquet/osm-parquet/common/constant"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/filter"
	"github.com/osmparquet/osm-parquet/storage/options"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to convert one source file.
type Config struct {
	// Source is the path of the input PBF file
	Source string `yaml:"source"`

	// Destination is a directory or a file system uri (file://, mem://, s3://)
	Destination string `yaml:"destination"`

	// EntityTypes selects which sinks to run: node, way, relation
	EntityTypes []string `yaml:"entity_types"`

	// Partitions is the number of files written per entity type
	Partitions int `yaml:"partitions"`

	// ExcludeMetadata drops version, timestamp, changeset and user columns
	ExcludeMetadata bool `yaml:"exclude_metadata"`

	// Compression is the parquet codec: snappy, gzip, zstd, brotli or none
	Compression string `yaml:"compression"`

	// BatchSize is the number of rows buffered per partition before encoding
	BatchSize int `yaml:"batch_size"`

	Filters FilterConfig `yaml:"filters"`

	Log LogConfig `yaml:"log"`
}

// FilterConfig describes exclusion rules applied to every sink.
type FilterConfig struct {
	ExcludeIDs      []int64  `yaml:"exclude_ids"`
	ExcludeUntagged bool     `yaml:"exclude_untagged"`
	ExcludeTags     []string `yaml:"exclude_tags"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		EntityTypes: []string{"node", "way", "relation"},
		Partitions:  constant.DefaultPartitions,
		Compression: constant.DefaultCompression,
		BatchSize:   constant.DefaultWriteBatchSize,
		Log:         LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if c.Partitions < 1 {
		return fmt.Errorf("partitions must be at least 1, got %d", c.Partitions)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if len(c.EntityTypes) == 0 {
		return fmt.Errorf("at least one entity type is required")
	}
	if _, err := c.Types(); err != nil {
		return err
	}
	if _, err := options.ParseCompression(c.Compression); err != nil {
		return err
	}
	return nil
}

// Types parses EntityTypes, dropping duplicates.
func (c *Config) Types() ([]entity.EntityType, error) {
	seen := make(map[entity.EntityType]bool)
	types := make([]entity.EntityType, 0, len(c.EntityTypes))
	for _, name := range c.EntityTypes {
		t, err := entity.ParseEntityType(name)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types, nil
}

func (c *Config) SinkOptions(root string, entityType entity.EntityType) *options.SinkOptions {
	opts := options.NewSinkOptions(c.Source, root, entityType)
	opts.Partitions = c.Partitions
	opts.ExcludeMetadata = c.ExcludeMetadata
	return opts
}

func (c *Config) WriteOptions() (*options.WriteOptions, error) {
	codec, err := options.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	opts := options.NewWriteOptions()
	opts.Compression = codec
	opts.BatchSize = c.BatchSize
	return opts, nil
}

// Predicates builds fresh filter instances for one sink.
func (c *Config) Predicates() []*filter.Predicate {
	var predicates []*filter.Predicate
	if len(c.Filters.ExcludeIDs) > 0 {
		predicates = append(predicates, filter.IDIn(c.Filters.ExcludeIDs...))
	}
	if c.Filters.ExcludeUntagged {
		predicates = append(predicates, filter.Untagged())
	}
	for _, key := range c.Filters.ExcludeTags {
		predicates = append(predicates, filter.HasTag(key))
	}
	return predicates
}
