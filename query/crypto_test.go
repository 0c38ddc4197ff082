package query

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etao-project/etao/ope"
)

func testCrypto(t *testing.T, enabled bool) *TaoCrypto {
	t.Helper()
	tc, err := NewTaoCrypto("ope-testing-key", "my-tao-testing-key", 0, enabled)
	require.NoError(t, err)
	return tc
}

func TestEncryptStringRoundTrip(t *testing.T) {
	tc := testCrypto(t, true)

	for _, msg := range []string{"", "hello", "Mark Z", "über-graph"} {
		ct, err := tc.EncryptString(msg)
		require.NoError(t, err)
		assert.NotEqual(t, msg, ct)

		pt, err := tc.DecryptString(ct)
		require.NoError(t, err)
		assert.Equal(t, msg, pt)
	}
}

func TestEncryptStringDeterministic(t *testing.T) {
	tc := testCrypto(t, true)

	a, err := tc.EncryptString("hello")
	require.NoError(t, err)
	b, err := tc.EncryptString("hello")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// A second facade over the same keys agrees bitwise.
	other := testCrypto(t, true)
	c, err := other.EncryptString("hello")
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestDecryptStringRejectsGarbage(t *testing.T) {
	tc := testCrypto(t, true)

	_, err := tc.DecryptString("%%% not base64 %%%")
	assert.ErrorIs(t, err, ErrCrypto)

	// Valid base64 that was never sealed under this key.
	_, err = tc.DecryptString("AAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestEncryptTimeOrderPreserving(t *testing.T) {
	tc := testCrypto(t, true)

	c1, err := tc.EncryptTime(13)
	require.NoError(t, err)
	c2, err := tc.EncryptTime(14)
	require.NoError(t, err)
	assert.Less(t, c1, c2)

	p, err := tc.DecryptTime(c1)
	require.NoError(t, err)
	assert.Equal(t, int64(13), p)
}

func TestEncryptTimeOutOfRange(t *testing.T) {
	tc := testCrypto(t, true)

	_, err := tc.EncryptTime(-5)
	assert.ErrorIs(t, err, ope.ErrOutOfRange)

	_, err = tc.EncryptTime(1 << 20)
	assert.ErrorIs(t, err, ope.ErrOutOfRange)
}

func TestEncryptQueryRoutesFields(t *testing.T) {
	tc := testCrypto(t, true)

	q := Query{Op: AssocRange, Args: AssocRangeArgs{ID: 9, AType: AssocFriend, TStart: 5, TEnd: 50, Lim: 10}}
	enc, err := tc.EncryptQuery(q)
	require.NoError(t, err)

	args, ok := enc.Args.(EncAssocRangeArgs)
	require.True(t, ok)

	wantID, err := tc.EncryptID(9)
	require.NoError(t, err)
	wantAType, err := tc.EncryptString("Friend")
	require.NoError(t, err)

	assert.Equal(t, wantID, args.ID)
	assert.Equal(t, wantAType, args.AType)
	assert.Equal(t, int64(10), args.Lim, "lim stays in the clear")

	lo, err := tc.DecryptTime(args.TStart)
	require.NoError(t, err)
	hi, err := tc.DecryptTime(args.TEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(5), lo)
	assert.Equal(t, int64(50), hi)
	assert.Less(t, args.TStart, args.TEnd)
}

func TestEncryptQueryIDSet(t *testing.T) {
	tc := testCrypto(t, true)

	q := Query{Op: AssocGet, Args: AssocGetArgs{ID: 1, AType: AssocFriend, IDSet: []uint64{3, 4, 5}}}
	enc, err := tc.EncryptQuery(q)
	require.NoError(t, err)

	args, ok := enc.Args.(EncAssocGetArgs)
	require.True(t, ok)
	require.Len(t, args.IDSet, 3)

	for i, id := range []uint64{3, 4, 5} {
		want, err := tc.EncryptID(id)
		require.NoError(t, err)
		assert.Equal(t, want, args.IDSet[i])
	}
}

func TestEncryptQueryPassthroughMode(t *testing.T) {
	tc := testCrypto(t, false)

	q := Query{Op: ObjAdd, Args: ObjAddArgs{ID: 2023, OType: ObjUser, Data: "Mark Z"}}
	enc, err := tc.EncryptQuery(q)
	require.NoError(t, err)

	// Wire shape with canonical plaintext values.
	assert.Equal(t, EncObjAddArgs{ID: "2023", OType: "User", Data: "Mark Z"}, enc.Args)
}

func TestDecryptRowRoundTrip(t *testing.T) {
	tc := testCrypto(t, true)

	id1, err := tc.EncryptID(51)
	require.NoError(t, err)
	atype, err := tc.EncryptString("Likes")
	require.NoError(t, err)
	id2, err := tc.EncryptID(1001)
	require.NoError(t, err)
	ts, err := tc.EncryptTime(55)
	require.NoError(t, err)
	data, err := tc.EncryptString("hello")
	require.NoError(t, err)

	row := tc.DecryptRow(AssocRow{ID1: id1, AType: atype, ID2: id2, T: ts, Data: data})
	assert.Equal(t, AssocRow{ID1: "51", AType: "Likes", ID2: "1001", T: 55, Data: "hello"}, row)
}

func TestDecryptRowDegradesToNoRes(t *testing.T) {
	tc := testCrypto(t, true)

	row := tc.DecryptRow(AssocRow{ID1: "not-a-ciphertext", AType: "x", ID2: "y", T: 55, Data: "z"})
	assert.Equal(t, NoRes{}, row)
}

func TestDecryptRowPassthroughVariants(t *testing.T) {
	tc := testCrypto(t, true)

	assert.Equal(t, Count(7), tc.DecryptRow(Count(7)))
	assert.Equal(t, NoRes{}, tc.DecryptRow(NoRes{}))
}

func TestEncryptIDMatchesString(t *testing.T) {
	tc := testCrypto(t, true)

	a, err := tc.EncryptID(42)
	require.NoError(t, err)
	b, err := tc.EncryptString(strconv.FormatUint(42, 10))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
