package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/leakscan/internal/scan"
	"github.com/scan-io-git/leakscan/internal/store"
)

func TestWebhookPostsChangedOutcomes(t *testing.T) {
	var got Event
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := NewWebhook(resty.New(), srv.URL)
	sc := scan.NewContext("app", "", nil)
	key := store.Key{ArtifactID: "app", Ext: "txt"}

	err := hook.AfterPublish(context.Background(), sc, key, store.Result{Outcome: store.Created, Location: "/results/app.txt"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, sc.ID, got.ScanID)
	assert.Equal(t, "app", got.ArtifactID)
	assert.Equal(t, "created", got.Outcome)
	assert.Equal(t, "/results/app.txt", got.Location)

	for _, outcome := range []store.Outcome{store.Unchanged, store.DiscardedEmpty} {
		require.NoError(t, hook.AfterPublish(context.Background(), sc, key, store.Result{Outcome: outcome}))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "unchanged publishes are not announced")
}

func TestWebhookRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	hook := NewWebhook(resty.New(), srv.URL)
	err := hook.AfterPublish(context.Background(), scan.NewContext("app", "", nil), store.Key{ArtifactID: "app", Ext: "txt"}, store.Result{Outcome: store.Replaced})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
