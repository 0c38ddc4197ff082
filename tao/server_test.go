package tao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etao-project/etao/internal/logger"
	"github.com/etao-project/etao/query"
)

// stubStore is an in-memory storage.Store good enough to exercise the
// pipeline: it understands the translated templates by operation tag.
type stubStore struct {
	mu      sync.Mutex
	objects map[string]query.ObjRow
	assocs  []query.AssocRow
	failOps map[query.TaoOp]error
}

func newStubStore() *stubStore {
	return &stubStore{
		objects: make(map[string]query.ObjRow),
		failOps: make(map[query.TaoOp]error),
	}
}

func (s *stubStore) Exec(_ context.Context, sq query.SqlQuery) ([]query.DBRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failOps[sq.Op]; err != nil {
		return nil, err
	}

	str := func(i int) string { return sq.Params[i].(string) }

	switch sq.Op {
	case query.ObjAdd:
		if _, exists := s.objects[str(0)]; exists {
			return nil, fmt.Errorf("duplicate key %q", str(0))
		}
		s.objects[str(0)] = query.ObjRow{ID: str(0), OType: str(1), Data: str(2)}
		return []query.DBRow{query.NoRes{}}, nil

	case query.ObjGet:
		var out []query.DBRow
		if row, ok := s.objects[str(0)]; ok {
			out = append(out, row)
		}
		return out, nil

	case query.AssocAdd:
		s.assocs = append(s.assocs, query.AssocRow{
			ID1: str(0), AType: str(1), ID2: str(2),
			T: sq.Params[3].(int64), Data: str(4),
		})
		return []query.DBRow{query.NoRes{}}, nil

	case query.AssocCount:
		var n int64
		for _, a := range s.assocs {
			if a.ID1 == str(0) && a.AType == str(1) {
				n++
			}
		}
		return []query.DBRow{query.Count(n)}, nil

	case query.AssocRange:
		lo := sq.Params[2].(int64)
		hi := sq.Params[3].(int64)
		var out []query.DBRow
		for _, a := range s.assocs {
			if a.ID1 == str(0) && a.AType == str(1) && a.T >= lo && a.T <= hi {
				out = append(out, a)
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("stub does not implement %s", sq.Op)
	}
}

func (s *stubStore) Ping(context.Context) error { return nil }
func (s *stubStore) Close() error               { return nil }

func testServer(t *testing.T, store *stubStore) *Server {
	t.Helper()
	crypto, err := query.NewTaoCrypto("ope-testing-key", "my-tao-testing-key", 128, true)
	require.NoError(t, err)
	log := logger.NewLogger(&strings.Builder{}, logger.ErrorLevel)
	return NewServer(store, crypto, log)
}

func TestPipelineEndToEnd(t *testing.T) {
	srv := testServer(t, newStubStore())

	resp, err := srv.Pipeline(context.Background(), `OBJ ADD 2023 USER "Mark Z";`)
	require.NoError(t, err)
	require.Len(t, resp.Response, 1)
	assert.Empty(t, resp.Errors[0])

	resp, err = srv.Pipeline(context.Background(), `OBJ GET 2023;`)
	require.NoError(t, err)
	require.Len(t, resp.Response, 1)
	assert.Empty(t, resp.Errors[0])
	require.Len(t, resp.Response[0], 1)
	assert.Equal(t, query.ObjRow{ID: "2023", OType: "User", Data: "Mark Z"}, resp.Response[0][0])
}

func TestPipelineStoresCiphertext(t *testing.T) {
	store := newStubStore()
	srv := testServer(t, store)

	_, err := srv.Pipeline(context.Background(), `OBJ ADD 7 USER "Alice";`)
	require.NoError(t, err)

	// The stored row must not contain any plaintext field.
	require.Len(t, store.objects, 1)
	for key, row := range store.objects {
		assert.NotEqual(t, "7", key)
		assert.NotEqual(t, "User", row.OType)
		assert.NotEqual(t, "Alice", row.Data)
	}
}

func TestPipelineAssocFlow(t *testing.T) {
	srv := testServer(t, newStubStore())

	script := `ASSOC ADD 1 FRIEND 2 10 "a"; ASSOC ADD 1 FRIEND 3 20 "b"; ASSOC ADD 1 LIKES 9 30 "c";`
	resp, err := srv.Pipeline(context.Background(), script)
	require.NoError(t, err)
	for i := range resp.Errors {
		require.Empty(t, resp.Errors[i], "query %d", i)
	}

	resp, err = srv.Pipeline(context.Background(), `ASSOC COUNT 1 FRIEND;`)
	require.NoError(t, err)
	require.Len(t, resp.Response[0], 1)
	assert.Equal(t, query.Count(2), resp.Response[0][0])

	resp, err = srv.Pipeline(context.Background(), `ASSOC RANGE 1 FRIEND 15 25 10;`)
	require.NoError(t, err)
	require.Len(t, resp.Response[0], 1)
	row, ok := resp.Response[0][0].(query.AssocRow)
	require.True(t, ok)
	assert.Equal(t, query.AssocRow{ID1: "1", AType: "Friend", ID2: "3", T: 20, Data: "b"}, row)
}

func TestPipelineBatchOrder(t *testing.T) {
	srv := testServer(t, newStubStore())

	var adds strings.Builder
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&adds, "OBJ ADD %d USER \"user %d\"; ", i, i)
	}
	_, err := srv.Pipeline(context.Background(), adds.String())
	require.NoError(t, err)

	var gets strings.Builder
	for i := 8; i >= 1; i-- {
		fmt.Fprintf(&gets, "OBJ GET %d; ", i)
	}
	resp, err := srv.Pipeline(context.Background(), gets.String())
	require.NoError(t, err)
	require.Len(t, resp.Response, 8)
	require.Len(t, resp.Errors, 8)

	// The response preserves statement order regardless of dispatch order.
	for i := 0; i < 8; i++ {
		wantID := fmt.Sprintf("%d", 8-i)
		require.Len(t, resp.Response[i], 1)
		row, ok := resp.Response[i][0].(query.ObjRow)
		require.True(t, ok)
		assert.Equal(t, wantID, row.ID)
	}
}

func TestPipelineParseErrorAbortsBatch(t *testing.T) {
	srv := testServer(t, newStubStore())

	_, err := srv.Pipeline(context.Background(), `OBJ GET 1; NONSENSE;`)
	require.Error(t, err)
	assert.ErrorIs(t, err, query.ErrBadRequest)
}

func TestPipelineContinuesPastQueryErrors(t *testing.T) {
	store := newStubStore()
	store.failOps[query.AssocCount] = errors.New("connection reset")
	srv := testServer(t, store)

	// Queries of one batch run concurrently, so the object read by the last
	// query is written by an earlier batch.
	_, err := srv.Pipeline(context.Background(), `OBJ ADD 1 USER "a";`)
	require.NoError(t, err)

	resp, err := srv.Pipeline(context.Background(), `OBJ ADD 2 USER "b"; ASSOC COUNT 1 FRIEND; OBJ GET 1;`)
	require.NoError(t, err)
	require.Len(t, resp.Response, 3)

	assert.Empty(t, resp.Errors[0])
	assert.Contains(t, resp.Errors[1], "connection reset")
	assert.Empty(t, resp.Response[1])
	assert.Empty(t, resp.Errors[2])
	require.Len(t, resp.Response[2], 1)
}

func TestPipelineUnsupportedOp(t *testing.T) {
	srv := testServer(t, newStubStore())

	resp, err := srv.Pipeline(context.Background(), `ASSOC DELETE 1 FRIEND 2;`)
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "unsupported")
}

func TestPipelineCryptoErrorEntry(t *testing.T) {
	srv := testServer(t, newStubStore())

	// Timestamp beyond the OPE input range fails per query, not per batch.
	resp, err := srv.Pipeline(context.Background(), `ASSOC ADD 1 FRIEND 2 999999 "x"; OBJ ADD 1 USER "a";`)
	require.NoError(t, err)
	assert.Contains(t, resp.Errors[0], "out of range")
	assert.Empty(t, resp.Errors[1])
}

func TestHandlerRoot(t *testing.T) {
	srv := testServer(t, newStubStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "TAO Server", body)
}

func TestHandlerQuery(t *testing.T) {
	srv := testServer(t, newStubStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := NewClient("127.0.0.1", strings.TrimPrefix(ts.URL, "http://127.0.0.1:"))

	// The add and the read go in separate batches: queries of one batch run
	// concurrently.
	resp, err := client.Query(context.Background(), `OBJ ADD 2023 USER "Mark Z";`)
	require.NoError(t, err)
	require.Len(t, resp.Response, 1)
	assert.Empty(t, resp.Errors[0])

	resp, err = client.Query(context.Background(), `OBJ GET 2023;`)
	require.NoError(t, err)
	require.Len(t, resp.Response, 1)
	require.Len(t, resp.Response[0], 1)
	assert.Equal(t, query.ObjRow{ID: "2023", OType: "User", Data: "Mark Z"}, resp.Response[0][0])
}

func TestHandlerQueryBadRequest(t *testing.T) {
	srv := testServer(t, newStubStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(`{"query": "GIBBERISH;"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerHealth(t *testing.T) {
	srv := testServer(t, newStubStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketQueryStream(t *testing.T) {
	srv := testServer(t, newStubStore())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`OBJ ADD 5 USER "Eve";`)))
	var qr QueryResponse
	require.NoError(t, conn.ReadJSON(&qr))
	require.Len(t, qr.Response, 1)
	assert.Empty(t, qr.Errors[0])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`OBJ GET 5;`)))
	require.NoError(t, conn.ReadJSON(&qr))
	require.Len(t, qr.Response, 1)
	require.Len(t, qr.Response[0], 1)
	assert.Equal(t, query.ObjRow{ID: "5", OType: "User", Data: "Eve"}, qr.Response[0][0])

	// A malformed script is answered with an error frame, not a close.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`GIBBERISH;`)))
	var apiErr map[string]string
	require.NoError(t, conn.ReadJSON(&apiErr))
	assert.Contains(t, apiErr["error"], "bad request")
}

func TestSeed(t *testing.T) {
	store := newStubStore()
	srv := testServer(t, store)

	require.NoError(t, srv.Seed(context.Background()))

	resp, err := srv.Pipeline(context.Background(), `OBJ GET 1; ASSOC COUNT 1 FRIEND;`)
	require.NoError(t, err)
	require.Len(t, resp.Response[0], 1)
	assert.Equal(t, query.ObjRow{ID: "1", OType: "User", Data: "Alice"}, resp.Response[0][0])
	assert.Equal(t, query.Count(1), resp.Response[1][0])
}
