package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zap.NewNop()), srv
}

func TestResolve_CachesResults(t *testing.T) {
	var hits atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"id": "base1-98", "name": "Fire Energy", "category": "Energy", "energyType": "Normal"}`))
	}))

	first, err := client.Resolve(context.Background(), "base1-98")
	require.NoError(t, err)
	second, err := client.Resolve(context.Background(), "base1-98")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load(), "repeated id should cost one lookup")
}

func TestResolve_RetriesWithPaddedID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cards/base1-004" {
			w.Write([]byte(`{"id": "base1-004", "name": "Charizard", "category": "Creature", "stage": "Stage2"}`))
			return
		}
		http.NotFound(w, r)
	}))

	data, err := client.Resolve(context.Background(), "base1-4")
	require.NoError(t, err)
	assert.Equal(t, "Charizard", data.Name)
}

func TestResolve_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	_, err := client.Resolve(context.Background(), "base1-4")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "base1-4", notFound.CatalogID)
}

func TestEvolvesFrom_SimplifiesName(t *testing.T) {
	var gotName string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.URL.Query().Get("name")
		w.Write([]byte(`[{"id": "base2-24", "name": "Charizard", "category": "Creature", "stage": "Stage2", "evolveFrom": "Charmeleon"}]`))
	}))

	from, err := client.EvolvesFrom(context.Background(), "Charizard ex")
	require.NoError(t, err)
	assert.Equal(t, "Charizard", gotName)
	assert.Equal(t, "Charmeleon", from)
}

func TestEvolutionNames_Dedupes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": "base1-5", "name": "Charmeleon", "category": "Creature", "stage": "Stage1"},
			{"id": "base2-9", "name": "Charmeleon", "category": "Creature", "stage": "Stage1"}
		]`))
	}))

	names, err := client.EvolutionNames(context.Background(), "Charmander")
	require.NoError(t, err)
	assert.Equal(t, []string{"Charmeleon"}, names)
}

func TestPadCatalogID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"base1-4", "base1-004", true},
		{"base1-42", "base1-042", true},
		{"base1-104", "", false},
		{"nodash", "", false},
		{"trailing-", "", false},
	}
	for _, tt := range tests {
		got, ok := padCatalogID(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
