package collection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	ds, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, ds.Source)
	require.Len(t, ds.Tokens, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleDoc))
		case "/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/garbage":
			_, _ = w.Write([]byte("<html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(WithHTTPClient(srv.Client()), WithTimeout(2*time.Second))
	ctx := context.Background()

	ds, err := loader.Load(ctx, srv.URL+"/collection.json")
	require.NoError(t, err)
	require.Equal(t, "Tok1", ds.Tokens[0].Name)

	_, err = loader.Load(ctx, srv.URL+"/broken")
	require.ErrorIs(t, err, ErrFetch)

	_, err = loader.Load(ctx, srv.URL+"/nothing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = loader.Load(ctx, srv.URL+"/garbage")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestLoadHTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := NewLoader(WithTimeout(50*time.Millisecond)).Load(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetch)
}
