package parquet

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/storage/schema"
	perrors "github.com/pkg/errors"
)

// rowEncoder appends entities as rows of a record builder laid out by
// schema.NewSchema. Empty list columns are encoded as null.
type rowEncoder struct {
	builder *array.RecordBuilder
	schema  *schema.Schema
	col     int
}

func (r *rowEncoder) next() array.Builder {
	b := r.builder.Field(r.col)
	r.col++
	return b
}

func (r *rowEncoder) encode(e entity.Entity) error {
	entityType, ok := entity.TypeOf(e)
	if !ok || entityType != r.schema.EntityType() {
		return perrors.Wrapf(errors.ErrSchemaNotMatch, "cannot encode %T as %s", e, r.schema.EntityType())
	}
	r.col = 0
	r.next().(*array.Int64Builder).Append(e.GetID())
	if !r.schema.ExcludeMetadata() {
		r.appendMetadata(e.GetMetadata())
	}
	r.appendTags(e.GetTags())

	switch v := e.(type) {
	case *entity.Node:
		r.next().(*array.Float64Builder).Append(v.Lat)
		r.next().(*array.Float64Builder).Append(v.Lon)
	case *entity.Way:
		r.appendWayNodes(v.NodeIDs)
	case *entity.Relation:
		r.appendMembers(v.Members)
	}
	return nil
}

func (r *rowEncoder) appendMetadata(md *entity.Metadata) {
	version := r.next().(*array.Int32Builder)
	timestamp := r.next().(*array.TimestampBuilder)
	changeset := r.next().(*array.Int64Builder)
	uid := r.next().(*array.Int32Builder)
	user := r.next().(*array.StringBuilder)
	if md == nil {
		version.AppendNull()
		timestamp.AppendNull()
		changeset.AppendNull()
		uid.AppendNull()
		user.AppendNull()
		return
	}
	version.Append(md.Version)
	if md.Timestamp.IsZero() {
		timestamp.AppendNull()
	} else {
		timestamp.Append(arrow.Timestamp(md.Timestamp.UnixMilli()))
	}
	changeset.Append(md.Changeset)
	uid.Append(md.UserID)
	user.Append(md.User)
}

func (r *rowEncoder) appendTags(tags []entity.Tag) {
	lb := r.next().(*array.ListBuilder)
	if len(tags) == 0 {
		lb.AppendNull()
		return
	}
	sb := lb.ValueBuilder().(*array.StructBuilder)
	keys := sb.FieldBuilder(0).(*array.StringBuilder)
	values := sb.FieldBuilder(1).(*array.StringBuilder)
	lb.Append(true)
	for _, tag := range tags {
		sb.Append(true)
		keys.Append(tag.Key)
		values.Append(tag.Value)
	}
}

func (r *rowEncoder) appendWayNodes(nodeIDs []int64) {
	lb := r.next().(*array.ListBuilder)
	if len(nodeIDs) == 0 {
		lb.AppendNull()
		return
	}
	sb := lb.ValueBuilder().(*array.StructBuilder)
	index := sb.FieldBuilder(0).(*array.Int32Builder)
	ids := sb.FieldBuilder(1).(*array.Int64Builder)
	lb.Append(true)
	for i, id := range nodeIDs {
		sb.Append(true)
		index.Append(int32(i))
		ids.Append(id)
	}
}

func (r *rowEncoder) appendMembers(members []entity.Member) {
	lb := r.next().(*array.ListBuilder)
	if len(members) == 0 {
		lb.AppendNull()
		return
	}
	sb := lb.ValueBuilder().(*array.StructBuilder)
	ids := sb.FieldBuilder(0).(*array.Int64Builder)
	roles := sb.FieldBuilder(1).(*array.StringBuilder)
	types := sb.FieldBuilder(2).(*array.StringBuilder)
	lb.Append(true)
	for _, m := range members {
		sb.Append(true)
		ids.Append(m.ID)
		roles.Append(m.Role)
		types.Append(m.Type.Name())
	}
}
