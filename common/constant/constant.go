package constant

const (
	ParquetDataFileSuffix = ".parquet"
	PartFileInfix         = "-part"
	EndpointOverride      = "endpoint_override"
	DefaultWriteBatchSize = 1024
	DefaultPartitions     = 1
	DefaultCompression    = "snappy"

	EntityTypeMetadataKey      = "osm.entity_type"
	ExcludeMetadataMetadataKey = "osm.exclude_metadata"
)
