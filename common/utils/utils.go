package utils

import (
	"path/filepath"
	"strconv"

	"github.com/osmparquet/osm-parquet/common/constant"
	"github.com/osmparquet/osm-parquet/entity"
)

func GetEntityDir(root string, entityType entity.EntityType) string {
	return filepath.Join(root, entityType.Name())
}

// GetPartitionFilePath builds {root}/{entity}/{source}-part{i}.parquet.
func GetPartitionFilePath(root string, entityType entity.EntityType, sourceBaseName string, partition int) string {
	name := sourceBaseName + constant.PartFileInfix + strconv.Itoa(partition) + constant.ParquetDataFileSuffix
	return filepath.Join(GetEntityDir(root, entityType), name)
}

func GetPartitionFilePaths(root string, entityType entity.EntityType, sourceBaseName string, partitions int) []string {
	paths := make([]string, 0, partitions)
	for i := 0; i < partitions; i++ {
		paths = append(paths, GetPartitionFilePath(root, entityType, sourceBaseName, i))
	}
	return paths
}
