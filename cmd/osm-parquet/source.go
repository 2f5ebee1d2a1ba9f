package main

import (
	"time"

	"github.com/osmparquet/osm-parquet/entity"
	"github.com/paulmach/osm"
)

// objectScanner is the part of osmpbf.Scanner the converter reads from.
type objectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
}

// toEntity converts a decoded OSM object. Objects that are not nodes, ways
// or relations yield nil.
func toEntity(o osm.Object) entity.Entity {
	switch v := o.(type) {
	case *osm.Node:
		return &entity.Node{
			ID:       int64(v.ID),
			Tags:     toTags(v.Tags),
			Metadata: toMetadata(v.Version, v.ChangesetID, v.UserID, v.User, v.Timestamp),
			Lat:      v.Lat,
			Lon:      v.Lon,
		}
	case *osm.Way:
		nodeIDs := make([]int64, len(v.Nodes))
		for i, n := range v.Nodes {
			nodeIDs[i] = int64(n.ID)
		}
		return &entity.Way{
			ID:       int64(v.ID),
			Tags:     toTags(v.Tags),
			Metadata: toMetadata(v.Version, v.ChangesetID, v.UserID, v.User, v.Timestamp),
			NodeIDs:  nodeIDs,
		}
	case *osm.Relation:
		members := make([]entity.Member, 0, len(v.Members))
		for _, m := range v.Members {
			memberType, err := entity.ParseEntityType(string(m.Type))
			if err != nil {
				continue
			}
			members = append(members, entity.Member{ID: m.Ref, Type: memberType, Role: m.Role})
		}
		return &entity.Relation{
			ID:       int64(v.ID),
			Tags:     toTags(v.Tags),
			Metadata: toMetadata(v.Version, v.ChangesetID, v.UserID, v.User, v.Timestamp),
			Members:  members,
		}
	default:
		return nil
	}
}

func toTags(tags osm.Tags) []entity.Tag {
	if len(tags) == 0 {
		return nil
	}
	ret := make([]entity.Tag, len(tags))
	for i, t := range tags {
		ret[i] = entity.Tag{Key: t.Key, Value: t.Value}
	}
	return ret
}

// toMetadata returns nil for extracts written without metadata.
func toMetadata(version int, changeset osm.ChangesetID, uid osm.UserID, user string, ts time.Time) *entity.Metadata {
	if version == 0 && changeset == 0 && uid == 0 && user == "" && ts.IsZero() {
		return nil
	}
	return &entity.Metadata{
		Version:   int32(version),
		Timestamp: ts,
		Changeset: int64(changeset),
		UserID:    int32(uid),
		User:      user,
	}
}
