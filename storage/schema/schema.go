package schema

import (
	"strconv"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/osmparquet/osm-parquet/common/constant"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/entity"
	perrors "github.com/pkg/errors"
)

const (
	IDColumn        = "id"
	VersionColumn   = "version"
	TimestampColumn = "timestamp"
	ChangesetColumn = "changeset"
	UIDColumn       = "uid"
	UserColumn      = "user"
	TagsColumn      = "tags"
	LatitudeColumn  = "latitude"
	LongitudeColumn = "longitude"
	NodesColumn     = "nodes"
	MembersColumn   = "members"
)

var (
	TagType = arrow.ListOf(arrow.StructOf(
		arrow.Field{Name: "key", Type: arrow.BinaryTypes.String},
		arrow.Field{Name: "value", Type: arrow.BinaryTypes.String, Nullable: true},
	))
	WayNodeType = arrow.ListOf(arrow.StructOf(
		arrow.Field{Name: "index", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "node_id", Type: arrow.PrimitiveTypes.Int64},
	))
	MemberType = arrow.ListOf(arrow.StructOf(
		arrow.Field{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "role", Type: arrow.BinaryTypes.String, Nullable: true},
		arrow.Field{Name: "type", Type: arrow.BinaryTypes.String},
	))
)

var metadataFields = []arrow.Field{
	{Name: VersionColumn, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: TimestampColumn, Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: true},
	{Name: ChangesetColumn, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: UIDColumn, Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: UserColumn, Type: arrow.BinaryTypes.String, Nullable: true},
}

// Schema is a wrapper of the arrow schema written for one entity type.
// Column order is id, the metadata columns unless excluded, tags, then the
// type specific columns.
type Schema struct {
	schema          *arrow.Schema
	entityType      entity.EntityType
	excludeMetadata bool
}

func NewSchema(entityType entity.EntityType, excludeMetadata bool) (*Schema, error) {
	if !entityType.Valid() {
		return nil, perrors.Wrapf(errors.ErrUnknownEntityType, "%d", entityType)
	}
	fields := []arrow.Field{{Name: IDColumn, Type: arrow.PrimitiveTypes.Int64}}
	if !excludeMetadata {
		fields = append(fields, metadataFields...)
	}
	fields = append(fields, arrow.Field{Name: TagsColumn, Type: TagType, Nullable: true})

	switch entityType {
	case entity.NodeType:
		fields = append(fields,
			arrow.Field{Name: LatitudeColumn, Type: arrow.PrimitiveTypes.Float64},
			arrow.Field{Name: LongitudeColumn, Type: arrow.PrimitiveTypes.Float64},
		)
	case entity.WayType:
		fields = append(fields, arrow.Field{Name: NodesColumn, Type: WayNodeType, Nullable: true})
	case entity.RelationType:
		fields = append(fields, arrow.Field{Name: MembersColumn, Type: MemberType, Nullable: true})
	}

	md := arrow.NewMetadata(
		[]string{constant.EntityTypeMetadataKey, constant.ExcludeMetadataMetadataKey},
		[]string{entityType.Name(), strconv.FormatBool(excludeMetadata)},
	)
	return &Schema{
		schema:          arrow.NewSchema(fields, &md),
		entityType:      entityType,
		excludeMetadata: excludeMetadata,
	}, nil
}

func (s *Schema) Schema() *arrow.Schema {
	return s.schema
}

func (s *Schema) EntityType() entity.EntityType {
	return s.entityType
}

func (s *Schema) ExcludeMetadata() bool {
	return s.excludeMetadata
}
