package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/cleared-dev/tally/internal/query"
)

// where applies every predicate of f to db. Column names come from the
// query allow-list only; values are always bound as parameters.
func where(db *gorm.DB, f query.Filter) (*gorm.DB, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	for _, p := range f {
		db = apply(db, p)
	}
	return db, nil
}

// apply adds a single predicate that has already passed validation.
func apply(db *gorm.DB, p query.Predicate) *gorm.DB {
	col, _ := p.Field.Column()
	switch p.Op {
	case query.OpIsNull, query.OpNotNull:
		return db.Where(col + " " + string(p.Op))
	case query.OpIn:
		return db.Where(col+" IN ?", p.Value)
	default:
		return db.Where(col+" "+string(p.Op)+" ?", bindValue(p.Value))
	}
}

// bindValue moves times to UTC. sqlite stores times as text, so a bound in
// another zone would compare against the stored UTC text as a string.
func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

// visible restricts a query to rows that have not been soft deleted.
func visible(db *gorm.DB) *gorm.DB {
	return apply(db, query.IsNull(query.FieldDeletedAt))
}
