package zotero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:            "test-key",
		LibraryID:         "12345",
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return client, server
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	_, err = NewClient(Config{LibraryID: "1", LibraryType: "teams"})
	require.Error(t, err)
}

func TestClient_ListItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/12345/collections", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"key": "COLL1", "data": map[string]any{"name": "FRASER: Federal Reserve"}},
		})
	})
	mux.HandleFunc("/users/12345/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Zotero-API-Key"))
		assert.Equal(t, "3", r.Header.Get("Zotero-API-Version"))
		assert.Equal(t, "7", r.URL.Query().Get("since"))

		json.NewEncoder(w).Encode([]map[string]any{
			{
				"key": "ITEM1", "version": 10,
				"data": map[string]any{
					"itemType":     "hearing",
					"title":        "Federal Reserve Oversight",
					"date":         "1979-10-06",
					"abstractNote": "Testimony on monetary targets.",
					"collections":  []string{"COLL1"},
					"creators": []map[string]any{
						{"creatorType": "contributor", "firstName": "Paul", "lastName": "Volcker"},
						{"creatorType": "author", "name": "Committee on Banking"},
					},
					"tags": []map[string]any{{"tag": "monetary policy"}},
				},
			},
			{
				"key": "ATT1", "version": 10,
				"data": map[string]any{
					"itemType":    "attachment",
					"parentItem":  "ITEM1",
					"contentType": "application/pdf",
					"filename":    "hearing.pdf",
				},
			},
		})
	})
	client, _ := newTestClient(t, mux)

	items, err := client.ListItems(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "ITEM1", item.Key)
	assert.Equal(t, domain.ItemTypeHearing, item.Type)
	assert.Equal(t, "Federal Reserve Oversight", item.Title)
	assert.Equal(t, []string{"Paul Volcker", "Committee on Banking"}, item.Authors)
	assert.Equal(t, []string{"FRASER: Federal Reserve"}, item.Collections)
	assert.Equal(t, []string{"monetary policy"}, item.Tags)
	assert.Equal(t, int64(10), item.Version)
	require.Len(t, item.Attachments, 1)
	assert.Equal(t, "ATT1", item.Attachments[0].Key)
	assert.Equal(t, "application/pdf", item.Attachments[0].MIMEType)
}

func TestClient_ListItems_OrphanAttachmentFetchesParent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/12345/collections", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	})
	mux.HandleFunc("/users/12345/items", func(w http.ResponseWriter, r *http.Request) {
		// Only the attachment changed since the watermark.
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"key": "ATT9", "version": 22,
				"data": map[string]any{
					"itemType":    "attachment",
					"parentItem":  "ITEM9",
					"contentType": "application/pdf",
				},
			},
		})
	})
	mux.HandleFunc("/users/12345/items/ITEM9", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"key": "ITEM9", "version": 20,
			"data": map[string]any{"itemType": "book", "title": "Secrets of the Temple"},
		})
	})
	client, _ := newTestClient(t, mux)

	items, err := client.ListItems(context.Background(), 21)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ITEM9", items[0].Key)
	assert.Equal(t, domain.ItemTypeBook, items[0].Type)
	require.Len(t, items[0].Attachments, 1)
}

func TestClient_AttachmentBytes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/12345/items/ATT1/file", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake"))
	})
	client, _ := newTestClient(t, mux)

	data, err := client.AttachmentBytes(context.Background(), "ITEM1", "ATT1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)
}

func TestClient_AttachmentBytes_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/12345/items/GONE/file", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.AttachmentBytes(context.Background(), "ITEM1", "GONE")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_CurrentVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/12345/items", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified-Version", "42")
		w.Write([]byte("[]"))
	})
	client, _ := newTestClient(t, mux)

	version, err := client.CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), version)
}

func TestMapItemType(t *testing.T) {
	assert.Equal(t, domain.ItemTypeArticle, mapItemType("journalArticle"))
	assert.Equal(t, domain.ItemTypeHearing, mapItemType("hearing"))
	// Unknown types pass through for the open type set.
	assert.Equal(t, domain.ItemType("podcast"), mapItemType("podcast"))
}
