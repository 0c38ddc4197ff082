package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateAssocGet(t *testing.T) {
	q := Query{Op: AssocGet, Args: AssocGetArgs{ID: 1, AType: AssocFriend, IDSet: []uint64{3, 4, 5}}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND id2 in ($3, $4, $5)", sq.Template)
	assert.Equal(t, []any{int64(1), "Friend", int64(3), int64(4), int64(5)}, sq.Params)
}

func TestTranslateAssocAdd(t *testing.T) {
	q := Query{Op: AssocAdd, Args: AssocAddArgs{ID1: 51, AType: AssocLikes, ID2: 1001, Time: 55, Data: "hello"}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO Associations(id1, atype, id2, t, data) VALUES ($1, $2, $3, $4, $5)", sq.Template)
	assert.Equal(t, []any{int64(51), "Likes", int64(1001), int64(55), "hello"}, sq.Params)
}

func TestTranslateAssocRangeGet(t *testing.T) {
	q := Query{Op: AssocRangeGet, Args: AssocRangeGetArgs{ID: 1, AType: AssocFriend, IDSet: []uint64{7, 8}, TStart: 5, TEnd: 50}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND t >= $3 AND t <= $4 AND id2 in ($5, $6)", sq.Template)
	assert.Equal(t, []any{int64(1), "Friend", int64(5), int64(50), int64(7), int64(8)}, sq.Params)
}

func TestTranslateAssocCount(t *testing.T) {
	q := Query{Op: AssocCount, Args: AssocCountArgs{ID: 123, AType: AssocAuthored}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM Associations WHERE id1 = $1 AND atype = $2", sq.Template)
	assert.Equal(t, []any{int64(123), "Authored"}, sq.Params)
}

func TestTranslateAssocRange(t *testing.T) {
	q := Query{Op: AssocRange, Args: AssocRangeArgs{ID: 1, AType: AssocCheckIn, TStart: 5, TEnd: 50, Lim: 10}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND t >= $3 AND t <= $4 ORDER BY t DESC LIMIT $5", sq.Template)
	assert.Equal(t, []any{int64(1), "CheckIn", int64(5), int64(50), int64(10)}, sq.Params)
}

func TestTranslateObjAdd(t *testing.T) {
	q := Query{Op: ObjAdd, Args: ObjAddArgs{ID: 2023, OType: ObjUser, Data: "Mark Z"}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO Objects(id, otype, data) VALUES ($1, $2, $3)", sq.Template)
	assert.Equal(t, []any{int64(2023), "User", "Mark Z"}, sq.Params)
}

func TestTranslateObjGet(t *testing.T) {
	q := Query{Op: ObjGet, Args: ObjGetArgs{ID: 1234}}

	sq, err := Translate(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM Objects WHERE id = $1", sq.Template)
	assert.Equal(t, []any{int64(1234)}, sq.Params)
}

func TestTranslateDeterministic(t *testing.T) {
	q := Query{Op: AssocGet, Args: AssocGetArgs{ID: 1, AType: AssocFriend, IDSet: []uint64{3, 4, 5}}}

	a, err := Translate(q)
	require.NoError(t, err)
	b, err := Translate(q)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTranslateInClauseOffsets(t *testing.T) {
	for n := 1; n <= 6; n++ {
		ids := make([]uint64, n)
		for i := range ids {
			ids[i] = uint64(i + 100)
		}

		get, err := Translate(Query{Op: AssocGet, Args: AssocGetArgs{ID: 1, AType: AssocFriend, IDSet: ids}})
		require.NoError(t, err)
		assert.Contains(t, get.Template, fmt.Sprintf("$%d)", 2+n), "GET placeholders end at $%d", 2+n)
		assert.Len(t, get.Params, 2+n)

		rget, err := Translate(Query{Op: AssocRangeGet, Args: AssocRangeGetArgs{ID: 1, AType: AssocFriend, IDSet: ids, TStart: 0, TEnd: 9}})
		require.NoError(t, err)
		assert.Contains(t, rget.Template, fmt.Sprintf("$%d)", 4+n), "RGET placeholders end at $%d", 4+n)
		assert.Len(t, rget.Params, 4+n)
	}
}

func TestTranslateEmptyIDSet(t *testing.T) {
	_, err := Translate(Query{Op: AssocGet, Args: AssocGetArgs{ID: 1, AType: AssocFriend}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestTranslateUnsupported(t *testing.T) {
	for _, op := range []TaoOp{AssocDelete, AssocChangeType, ObjUpdate, ObjDelete} {
		_, err := Translate(Query{Op: op})
		assert.ErrorIs(t, err, ErrUnsupported, op.String())
	}
}

func TestTranslateMismatchedArgs(t *testing.T) {
	_, err := Translate(Query{Op: AssocAdd, Args: ObjGetArgs{ID: 1}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestTranslateWireForm(t *testing.T) {
	q := Query{Op: AssocGet, Args: EncAssocGetArgs{ID: "enc1", AType: "encF", IDSet: []string{"a", "b"}}}

	sq, err := Translate(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM Associations WHERE id1 = $1 AND atype = $2 AND id2 in ($3, $4)", sq.Template)
	assert.Equal(t, []any{"enc1", "encF", "a", "b"}, sq.Params)
}
