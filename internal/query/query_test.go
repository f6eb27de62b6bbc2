package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeColumn(t *testing.T) {
	col, err := AttrHostFee.Column()
	require.NoError(t, err)
	assert.Equal(t, "host_fee_in_txn_currency", col)

	col, err = AttrNetAmount.Column()
	require.NoError(t, err)
	assert.Equal(t, "net_amount_in_group_currency", col)

	_, err = Attribute("amount; DROP TABLE transactions").Column()
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestDateBounds(t *testing.T) {
	from := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   Filter
		wantFrom *time.Time
		wantTo   *time.Time
	}{
		{"both bounds", Between(FieldCreatedAt, from, to), &from, &to},
		{"lower only", Filter{Gte(FieldCreatedAt, from)}, &from, nil},
		{"upper only", Filter{Lt(FieldCreatedAt, to)}, nil, &to},
		{"other field", Filter{Gte(FieldConfirmedAt, from)}, nil, nil},
		{"empty", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFrom, gotTo := tt.filter.DateBounds(FieldCreatedAt)
			assert.Equal(t, tt.wantFrom, gotFrom)
			assert.Equal(t, tt.wantTo, gotTo)
		})
	}
}

func TestFilterAndDoesNotAlias(t *testing.T) {
	base := make(Filter, 1, 4)
	base[0] = Eq(FieldType, "DONATION")

	a := base.And(Eq(FieldGroupID, 1))
	b := base.And(Eq(FieldGroupID, 2))

	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, 1, a[1].Value)
	assert.Equal(t, 2, b[1].Value)
}

func TestValidate(t *testing.T) {
	ok := Filter{In(FieldGroupID, []uint{1, 2}), NotNull(FieldConfirmedAt)}
	assert.NoError(t, ok.Validate())

	live := Filter{IsNull(FieldDeletedAt), Eq(FieldEventID, uint(3))}
	assert.NoError(t, live.Validate())

	retired := Filter{{Field: FieldType, Op: Op("<>"), Value: "DONATION"}}
	assert.Error(t, retired.Validate())

	bad := Filter{Eq(Field("password"), "x")}
	assert.ErrorIs(t, bad.Validate(), ErrUnknownField)

	badOp := Filter{{Field: FieldType, Op: Op("LIKE"), Value: "%"}}
	assert.Error(t, badOp.Validate())
}
