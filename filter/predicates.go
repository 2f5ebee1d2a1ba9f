package filter

import (
	"fmt"

	"github.com/osmparquet/osm-parquet/entity"
)

// IDIn rejects entities whose id is one of ids.
func IDIn(ids ...int64) *Predicate {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return NewPredicate(fmt.Sprintf("id-in[%d]", len(ids)), func(e entity.Entity) bool {
		_, ok := set[e.GetID()]
		return ok
	})
}

// HasTag rejects entities carrying the key, whatever its value.
func HasTag(key string) *Predicate {
	return NewPredicate("has-tag:"+key, func(e entity.Entity) bool {
		_, ok := entity.TagValue(e, key)
		return ok
	})
}

func TagEquals(key, value string) *Predicate {
	return NewPredicate("tag:"+key+"="+value, func(e entity.Entity) bool {
		v, ok := entity.TagValue(e, key)
		return ok && v == value
	})
}

// Untagged rejects entities without any tag.
func Untagged() *Predicate {
	return NewPredicate("untagged", func(e entity.Entity) bool {
		return len(e.GetTags()) == 0
	})
}
