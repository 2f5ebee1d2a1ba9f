// osm-parquet converts OSM PBF extracts into partitioned parquet files, one
// directory per entity type.
//
// Usage:
//
//	osm-parquet convert <file.osm.pbf> --destination <dir|uri> [--partitions N] [--entity-types node,way]
//	osm-parquet count <dir|uri>
package main

import (
	"fmt"
	"os"

	"github.com/osmparquet/osm-parquet/common/log"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config   string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "osm-parquet",
	Short: "Convert OSM PBF extracts into partitioned parquet files",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if rootFlags.logLevel == "" {
			return nil
		}
		return log.SetLevel(rootFlags.logLevel)
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.config, "config", "", "YAML config file")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.Version = version
}

func main() {
	defer func() { _ = log.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
