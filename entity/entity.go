// Package entity holds the OpenStreetMap records consumed by the sink.
package entity

import (
	"strings"
	"time"

	"github.com/osmparquet/osm-parquet/common/errors"
	perrors "github.com/pkg/errors"
)

// EntityType identifies one variant of Entity.
type EntityType int8

const (
	NodeType EntityType = iota
	WayType
	RelationType
)

var entityTypeNames = [...]string{"NODE", "WAY", "RELATION"}

func (t EntityType) String() string {
	if t < 0 || int(t) >= len(entityTypeNames) {
		return "UNKNOWN"
	}
	return entityTypeNames[t]
}

// Name is the lower-case name used for output directories.
func (t EntityType) Name() string {
	return strings.ToLower(t.String())
}

func (t EntityType) Valid() bool {
	return t >= NodeType && t <= RelationType
}

// EntityTypes lists every variant in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{NodeType, WayType, RelationType}
}

func ParseEntityType(s string) (EntityType, error) {
	for i, name := range entityTypeNames {
		if strings.EqualFold(s, name) {
			return EntityType(i), nil
		}
	}
	return 0, perrors.Wrapf(errors.ErrUnknownEntityType, "%q", s)
}

// Metadata is the bookkeeping part of an entity. It is dropped from the
// output when a sink excludes metadata.
type Metadata struct {
	Version   int32
	Timestamp time.Time
	Changeset int64
	UserID    int32
	User      string
}

type Tag struct {
	Key   string
	Value string
}

// Entity is implemented by *Node, *Way and *Relation only.
type Entity interface {
	Type() EntityType
	GetID() int64
	GetTags() []Tag
	GetMetadata() *Metadata
	entity()
}

type Node struct {
	ID       int64
	Tags     []Tag
	Metadata *Metadata
	Lat      float64
	Lon      float64
}

type Way struct {
	ID       int64
	Tags     []Tag
	Metadata *Metadata
	NodeIDs  []int64
}

// Member is one element referenced by a relation.
type Member struct {
	ID   int64
	Type EntityType
	Role string
}

type Relation struct {
	ID       int64
	Tags     []Tag
	Metadata *Metadata
	Members  []Member
}

func (n *Node) Type() EntityType       { return NodeType }
func (n *Node) GetID() int64           { return n.ID }
func (n *Node) GetTags() []Tag         { return n.Tags }
func (n *Node) GetMetadata() *Metadata { return n.Metadata }
func (n *Node) entity()                {}

func (w *Way) Type() EntityType       { return WayType }
func (w *Way) GetID() int64           { return w.ID }
func (w *Way) GetTags() []Tag         { return w.Tags }
func (w *Way) GetMetadata() *Metadata { return w.Metadata }
func (w *Way) entity()                {}

func (r *Relation) Type() EntityType       { return RelationType }
func (r *Relation) GetID() int64           { return r.ID }
func (r *Relation) GetTags() []Tag         { return r.Tags }
func (r *Relation) GetMetadata() *Metadata { return r.Metadata }
func (r *Relation) entity()                {}

// TypeOf resolves the variant from the concrete type. Nil entities and nil
// pointers report false.
func TypeOf(e Entity) (EntityType, bool) {
	switch v := e.(type) {
	case *Node:
		return NodeType, v != nil
	case *Way:
		return WayType, v != nil
	case *Relation:
		return RelationType, v != nil
	default:
		return 0, false
	}
}

// TagValue returns the value of the first tag with the given key.
func TagValue(e Entity, key string) (string, bool) {
	for _, tag := range e.GetTags() {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}
