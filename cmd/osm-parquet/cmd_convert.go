package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/osmparquet/osm-parquet/common/log"
	"github.com/osmparquet/osm-parquet/config"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/format/parquet"
	"github.com/osmparquet/osm-parquet/io/fs"
	"github.com/osmparquet/osm-parquet/storage"
	"github.com/paulmach/osm/osmpbf"
	"github.com/spf13/cobra"
)

var convertFlags struct {
	destination     string
	entityTypes     string
	partitions      int
	excludeMetadata bool
	compression     string
	batchSize       int
	procs           int
}

var convertCmd = &cobra.Command{
	Use:   "convert <file.osm.pbf>",
	Short: "Write the entities of a PBF extract into partitioned parquet files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertFlags.destination, "destination", "d", "", "output directory or uri (file://, mem://, s3://)")
	f.StringVar(&convertFlags.entityTypes, "entity-types", "", "comma separated entity types (default node,way,relation)")
	f.IntVarP(&convertFlags.partitions, "partitions", "p", 0, "files per entity type")
	f.BoolVar(&convertFlags.excludeMetadata, "exclude-metadata", false, "drop version, timestamp, changeset and user columns")
	f.StringVar(&convertFlags.compression, "compression", "", "snappy, gzip, zstd, brotli or none")
	f.IntVar(&convertFlags.batchSize, "batch-size", 0, "rows per encoded record and per fan-out batch")
	f.IntVar(&convertFlags.procs, "procs", runtime.GOMAXPROCS(0), "pbf decoding goroutines")
}

// loadConfig reads --config when given and lets explicit flags override it.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if rootFlags.config != "" {
		var err error
		if cfg, err = config.Load(rootFlags.config); err != nil {
			return nil, err
		}
	}
	if len(args) == 1 {
		cfg.Source = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("destination") {
		cfg.Destination = convertFlags.destination
	}
	if flags.Changed("entity-types") {
		cfg.EntityTypes = strings.Split(convertFlags.entityTypes, ",")
	}
	if flags.Changed("partitions") {
		cfg.Partitions = convertFlags.partitions
	}
	if flags.Changed("exclude-metadata") {
		cfg.ExcludeMetadata = convertFlags.excludeMetadata
	}
	if flags.Changed("compression") {
		cfg.Compression = convertFlags.compression
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = convertFlags.batchSize
	}
	if rootFlags.logLevel == "" && cfg.Log.Level != "" {
		if err := log.SetLevel(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	f, root, err := fs.BuildFileSystem(cfg.Destination)
	if err != nil {
		return err
	}
	sinks, err := openSinks(cfg, f, root)
	for _, sink := range sinks {
		defer sink.Close()
	}
	if err != nil {
		return err
	}

	in, err := os.Open(cfg.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	scanner := osmpbf.New(ctx, in, convertFlags.procs)
	defer scanner.Close()
	wanted := make(map[entity.EntityType]bool)
	for _, sink := range sinks {
		wanted[sink.EntityType()] = true
	}
	scanner.SkipNodes = !wanted[entity.NodeType]
	scanner.SkipWays = !wanted[entity.WayType]
	scanner.SkipRelations = !wanted[entity.RelationType]

	p := &pipeline{sinks: sinks, batchSize: cfg.BatchSize}
	if err := p.run(ctx, scanner); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sink := range sinks {
		if err := sink.Complete(); err != nil {
			return err
		}
		stats := sink.Stats()
		fmt.Fprintf(out, "%-9s written=%d filtered=%d files=%d\n",
			sink.EntityType().Name(), stats.Written, stats.Filtered, len(sink.Paths()))
	}
	return nil
}

// openSinks builds and initializes one sink per configured entity type. The
// sinks created so far are returned alongside any error so they can be closed.
func openSinks(cfg *config.Config, f fs.Fs, root string) ([]*storage.Sink, error) {
	types, err := cfg.Types()
	if err != nil {
		return nil, err
	}
	writeOpts, err := cfg.WriteOptions()
	if err != nil {
		return nil, err
	}
	opener := parquet.NewOpener(f, writeOpts)

	sinks := make([]*storage.Sink, 0, len(types))
	for _, t := range types {
		sink, err := storage.NewSink(f, opener, nil, cfg.SinkOptions(root, t))
		if err != nil {
			return sinks, err
		}
		for _, p := range cfg.Predicates() {
			sink.AddFilter(p)
		}
		sinks = append(sinks, sink)
		if err := sink.Initialize(map[string]any{"source": cfg.Source}); err != nil {
			return sinks, err
		}
	}
	return sinks, nil
}
