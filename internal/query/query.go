// Package query describes datastore filters as typed predicate trees instead
// of raw SQL. Fields and summable attributes are closed sets so that no caller
// can inject an arbitrary column name.
package query

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownAttribute is returned for an attribute outside the allow-list.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrUnknownField is returned for a predicate on a field outside the allow-list.
	ErrUnknownField = errors.New("unknown field")
)

// Field is a filterable column.
type Field string

const (
	FieldType        Field = "type"
	FieldUserID      Field = "user_id"
	FieldGroupID     Field = "group_id"
	FieldCurrency    Field = "currency"
	FieldCreatedAt   Field = "created_at"
	FieldTierID      Field = "tier_id"
	FieldConfirmedAt Field = "confirmed_at"
	FieldEventID     Field = "event_id"
	FieldDeletedAt   Field = "deleted_at"
)

var knownFields = map[Field]bool{
	FieldType:        true,
	FieldUserID:      true,
	FieldGroupID:     true,
	FieldCurrency:    true,
	FieldCreatedAt:   true,
	FieldTierID:      true,
	FieldConfirmedAt: true,
	FieldEventID:     true,
	FieldDeletedAt:   true,
}

// Column returns the column name for f, or ErrUnknownField.
func (f Field) Column() (string, error) {
	if !knownFields[f] {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	return string(f), nil
}

// Attribute is a summable transaction column.
type Attribute string

const (
	AttrNetAmount Attribute = "net_amount_in_group_currency"
	AttrHostFee   Attribute = "host_fee_in_txn_currency"
)

// Column returns the column name for a, or ErrUnknownAttribute.
func (a Attribute) Column() (string, error) {
	switch a {
	case AttrNetAmount, AttrHostFee:
		return string(a), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, string(a))
	}
}

// Op is a comparison operator.
type Op string

const (
	OpEq      Op = "="
	OpIn      Op = "IN"
	OpGte     Op = ">="
	OpLt      Op = "<"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Predicate is a single field comparison. Value is ignored for the null checks.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

// Filter is a conjunction of predicates.
type Filter []Predicate

// Eq matches rows where field equals v.
func Eq(field Field, v any) Predicate { return Predicate{Field: field, Op: OpEq, Value: v} }

// In matches rows where field is one of vs.
func In[T any](field Field, vs []T) Predicate { return Predicate{Field: field, Op: OpIn, Value: vs} }

// Gte matches rows where field >= v.
func Gte(field Field, v any) Predicate { return Predicate{Field: field, Op: OpGte, Value: v} }

// Lt matches rows where field < v.
func Lt(field Field, v any) Predicate { return Predicate{Field: field, Op: OpLt, Value: v} }

// IsNull matches rows where field is NULL.
func IsNull(field Field) Predicate { return Predicate{Field: field, Op: OpIsNull} }

// NotNull matches rows where field is not NULL.
func NotNull(field Field) Predicate { return Predicate{Field: field, Op: OpNotNull} }

// Between returns the half-open range [from, to) on field.
func Between(field Field, from, to time.Time) Filter {
	return Filter{Gte(field, from), Lt(field, to)}
}

// And returns a new filter holding the predicates of f followed by ps.
func (f Filter) And(ps ...Predicate) Filter {
	out := make(Filter, 0, len(f)+len(ps))
	out = append(out, f...)
	return append(out, ps...)
}

// DateBounds returns the explicit lower (>=) and upper (<) time bounds set on
// field. A nil pointer means the bound is absent.
func (f Filter) DateBounds(field Field) (from, to *time.Time) {
	for _, p := range f {
		if p.Field != field {
			continue
		}
		t, ok := p.Value.(time.Time)
		if !ok {
			continue
		}
		switch p.Op {
		case OpGte:
			from = &t
		case OpLt:
			to = &t
		}
	}
	return from, to
}

// Validate checks every predicate against the field and operator allow-lists.
func (f Filter) Validate() error {
	for _, p := range f {
		if _, err := p.Field.Column(); err != nil {
			return err
		}
		switch p.Op {
		case OpEq, OpIn, OpGte, OpLt, OpIsNull, OpNotNull:
		default:
			return fmt.Errorf("unknown operator %q on %s", string(p.Op), p.Field)
		}
	}
	return nil
}
