package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/osmparquet/osm-parquet/common/arrow_util"
	"github.com/osmparquet/osm-parquet/common/constant"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/fs"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count <dir|uri>",
	Short: "Print the row count of every partition file under a destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, root, err := fs.BuildFileSystem(args[0])
		if err != nil {
			return err
		}
		return countRows(cmd, f, root)
	},
}

func countRows(cmd *cobra.Command, f fs.Fs, root string) error {
	entries, err := f.List(root)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	totals := make(map[entity.EntityType]int64)
	for _, e := range entries {
		if !strings.HasSuffix(e.Path, constant.ParquetDataFileSuffix) {
			continue
		}
		entityType, err := entity.ParseEntityType(path.Base(path.Dir(e.Path)))
		if err != nil {
			continue
		}
		rows, err := arrow_util.CountRows(f, e.Path)
		if err != nil {
			return err
		}
		totals[entityType] += rows
		fmt.Fprintf(out, "%-9s %-40s %d\n", entityType.Name(), path.Base(e.Path), rows)
	}
	for _, t := range entity.EntityTypes() {
		if n, ok := totals[t]; ok {
			fmt.Fprintf(out, "%-9s total %d\n", t.Name(), n)
		}
	}
	return nil
}
