package scrape

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jask/mintpick/internal/collection"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func borshString(s string, padTo int) []byte {
	b := make([]byte, 4, 4+max(len(s), padTo))
	payload := []byte(s)
	for len(payload) < padTo {
		payload = append(payload, 0)
	}
	binary.LittleEndian.PutUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

// encodeMetadata lays out a metadata account the way the chain stores it.
func encodeMetadata(mint []byte, name, symbol, uri string) []byte {
	data := []byte{4}
	data = append(data, testKey(0xAA)...)
	data = append(data, mint...)
	data = append(data, borshString(name, 32)...)
	data = append(data, borshString(symbol, 10)...)
	data = append(data, borshString(uri, 200)...)
	for len(data) < metadataAccountSize {
		data = append(data, 0)
	}
	return data
}

func TestDecodeMetadata(t *testing.T) {
	md, err := DecodeMetadata(encodeMetadata(testKey(7), "Ape #1", "APE", "https://meta.example/1.json"))
	require.NoError(t, err)
	require.Equal(t, base58.Encode(testKey(7)), md.Mint)
	require.Equal(t, base58.Encode(testKey(0xAA)), md.UpdateAuthority)
	require.Equal(t, "Ape #1", md.Name)
	require.Equal(t, "APE", md.Symbol)
	require.Equal(t, "https://meta.example/1.json", md.URI)

	_, err = DecodeMetadata(encodeMetadata(testKey(7), "Ape #1", "APE", "x")[:70])
	require.ErrorIs(t, err, ErrMetadata)

	// a length prefix running past the end of the account
	bad := append([]byte{4}, make([]byte, 64)...)
	bad = append(bad, 0xff, 0xff, 0, 0)
	_, err = DecodeMetadata(bad)
	require.ErrorIs(t, err, ErrMetadata)
}

type rpcCall struct {
	Method  string
	Program string
	Config  struct {
		Encoding string   `json:"encoding"`
		Filters  []Filter `json:"filters"`
	}
}

// rpcNode serves getProgramAccounts from accounts, keyed by the memcmp offset.
func rpcNode(t *testing.T, accounts map[int][]ProgramAccount, calls *[]rpcCall) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		var call rpcCall
		call.Method = req.Method
		if len(req.Params) == 2 {
			_ = json.Unmarshal(req.Params[0], &call.Program)
			_ = json.Unmarshal(req.Params[1], &call.Config)
		}
		mu.Lock()
		if calls != nil {
			*calls = append(*calls, call)
		}
		mu.Unlock()

		offset := -1
		for _, f := range call.Config.Filters {
			if f.Memcmp != nil {
				offset = f.Memcmp.Offset
			}
		}
		result := []map[string]any{}
		for _, acc := range accounts[offset] {
			result = append(result, map[string]any{
				"pubkey": acc.Pubkey,
				"account": map[string]any{
					"data":  []string{base64.StdEncoding.EncodeToString(acc.Data), "base64"},
					"owner": TokenMetadataProgram,
				},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRPCClientGetProgramAccounts(t *testing.T) {
	var calls []rpcCall
	srv := rpcNode(t, map[int][]ProgramAccount{
		401: {{Pubkey: "Acc1", Data: []byte{1, 2, 3}}},
	}, &calls)

	client := NewRPCClient(srv.URL)
	accs, err := client.GetProgramAccounts(context.Background(), TokenMetadataProgram,
		Filter{DataSize: metadataAccountSize},
		Filter{Memcmp: &Memcmp{Offset: 401, Bytes: "Coll"}},
	)
	require.NoError(t, err)
	require.Equal(t, []ProgramAccount{{Pubkey: "Acc1", Data: []byte{1, 2, 3}}}, accs)

	require.Len(t, calls, 1)
	require.Equal(t, "getProgramAccounts", calls[0].Method)
	require.Equal(t, TokenMetadataProgram, calls[0].Program)
	require.Equal(t, "base64", calls[0].Config.Encoding)
	require.Equal(t, []Filter{
		{DataSize: metadataAccountSize},
		{Memcmp: &Memcmp{Offset: 401, Bytes: "Coll"}},
	}, calls[0].Config.Filters)
}

func TestRPCClientRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": []any{}})
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	accs, err := client.GetProgramAccounts(context.Background(), TokenMetadataProgram)
	require.NoError(t, err)
	require.Empty(t, accs)
	require.Equal(t, int32(3), attempts.Load())

	attempts.Store(-10)
	client = NewRPCClient(srv.URL, WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	_, err = client.GetProgramAccounts(context.Background(), TokenMetadataProgram)
	require.ErrorContains(t, err, "max retries exceeded")
}

func TestRPCClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32010, "message": "excluded from account secondary indexes"},
		})
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	_, err := client.GetProgramAccounts(context.Background(), TokenMetadataProgram)
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr), "got %v", err)
	require.Equal(t, -32010, rpcErr.Code)
	require.Equal(t, int32(1), attempts.Load())
}

func TestRunScrapesCollection(t *testing.T) {
	var flaky atomic.Int32
	meta := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1.json":
			fmt.Fprint(w, `{"name":"Ape #1","image":"https://img.example/1.png","attributes":[
				{"trait_type":"Background","value":"Blue"},
				{"trait_type":"Eyes","value":"Laser"},
				{"trait_type":"Level","value":3}]}`)
		case "/2.json":
			fmt.Fprint(w, `{"name":"Ape #2","image":"https://img.example/2.png","attributes":{"trait_type":"Background","value":"Red"}}`)
		case "/4.json":
			if flaky.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `{"name":"Ape #4","image":"https://img.example/4.png","attributes":[
				{"trait_type":"Eyes","value":"Sleepy"},
				{"trait_type":"Hat","value":null},
				{"trait_type":"Mood","value":"calm"}]}`)
		case "/bad.json":
			fmt.Fprint(w, `{"name":`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer meta.Close()

	coll := testKey(9)
	member := func(b byte, uri string) ProgramAccount {
		return ProgramAccount{
			Pubkey: base58.Encode(testKey(b + 100)),
			Data:   encodeMetadata(testKey(b), fmt.Sprintf("Ape #%d", b), "APE", meta.URL+uri),
		}
	}
	a1, a2, a3, a4, a5 := member(1, "/1.json"), member(2, "/2.json"), member(3, "/missing.json"), member(4, "/4.json"), member(5, "/bad.json")
	short := ProgramAccount{Pubkey: "Short", Data: []byte{4, 1, 2}}

	var calls []rpcCall
	node := rpcNode(t, map[int][]ProgramAccount{
		mintOffset: {{Pubkey: "CollMeta", Data: encodeMetadata(coll, "Degen Apes", "DAPE", "")}},
		401:        {a1, a2, a3, short},
		402:        {a2, a4, a5},
	}, &calls)

	core, logs := observer.New(zap.WarnLevel)
	s := New(NewRPCClient(node.URL),
		WithLogger(zap.New(core)),
		WithConcurrency(2),
		WithFetchRetries(2, time.Millisecond),
	)
	ds, stats, err := s.Run(context.Background(), base58.Encode(coll))
	require.NoError(t, err)

	require.Equal(t, Stats{Accounts: 6, Parsed: 3, Skipped: 3}, stats)
	require.Equal(t, "Degen Apes", ds.Name)
	require.Equal(t, []string{"Background", "Eyes", "Level", "Mood"}, ds.TraitTypes)
	require.Equal(t, []collection.Token{
		{Image: "https://img.example/1.png", Name: "Ape #1", Mint: base58.Encode(testKey(1)),
			Traits: map[string]string{"Background": "Blue", "Eyes": "Laser", "Level": "3"}},
		{Image: "https://img.example/2.png", Name: "Ape #2", Mint: base58.Encode(testKey(2)),
			Traits: map[string]string{"Background": "Red"}},
		{Image: "https://img.example/4.png", Name: "Ape #4", Mint: base58.Encode(testKey(4)),
			Traits: map[string]string{"Eyes": "Sleepy", "Mood": "calm"}},
	}, ds.Tokens)
	require.Empty(t, ds.MintIssues())
	require.Equal(t, 3, logs.FilterMessage("token skipped").Len())

	require.Len(t, calls, 3)
	require.Equal(t, []Filter{{Memcmp: &Memcmp{Offset: mintOffset, Bytes: base58.Encode(coll)}}}, calls[0].Config.Filters)
	require.Equal(t, []Filter{
		{DataSize: metadataAccountSize},
		{Memcmp: &Memcmp{Offset: 402, Bytes: base58.Encode(coll)}},
	}, calls[2].Config.Filters)

	data, err := collection.Encode(ds)
	require.NoError(t, err)
	again, err := collection.Decode(data)
	require.NoError(t, err)
	require.Equal(t, ds.Name, again.Name)
	require.Equal(t, ds.Tokens, again.Tokens)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	meta := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		fmt.Fprint(w, `{"name":"x","image":"x.png","attributes":[]}`)
	}))
	defer meta.Close()

	var accs []ProgramAccount
	for i := byte(1); i <= 12; i++ {
		accs = append(accs, ProgramAccount{
			Pubkey: fmt.Sprintf("Acc%d", i),
			Data:   encodeMetadata(testKey(i), "x", "X", meta.URL+"/x.json"),
		})
	}
	node := rpcNode(t, map[int][]ProgramAccount{401: accs}, nil)

	ds, stats, err := New(NewRPCClient(node.URL), WithConcurrency(3)).Run(context.Background(), base58.Encode(testKey(9)))
	require.NoError(t, err)
	require.Equal(t, 12, stats.Parsed)
	require.Len(t, ds.Tokens, 12)
	require.Empty(t, ds.Name)
	require.Empty(t, ds.TraitTypes)
	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunRejectsBadAddress(t *testing.T) {
	s := New(NewRPCClient("http://127.0.0.1:0"))
	for _, addr := range []string{"", "not-base58-0OIl", base58.Encode([]byte{1, 2, 3})} {
		_, _, err := s.Run(context.Background(), addr)
		require.ErrorIs(t, err, ErrInvalidCollection, addr)
	}
}

func TestRunAbortsOnRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32600, "message": "bad request"},
		})
	}))
	defer srv.Close()

	_, _, err := New(NewRPCClient(srv.URL)).Run(context.Background(), base58.Encode(testKey(9)))
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
}
