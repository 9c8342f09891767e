package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jbeckett/shelfsync/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, "token-id", "token-secret", srv.Client())
}

func TestClient_SendsAuthHeader(t *testing.T) {
	var gotAuth, gotAccept string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(map[string]any{"data": []Collection{}})
	})

	_, err := c.ListCollections(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Token token-id:token-secret", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestListCollections(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/collections", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"data": []Collection{
			{ID: 1, Name: "Engineering", UpdatedAt: "2026-08-01T00:00:00Z"},
			{ID: 2, Name: "Marketing"},
		}})
	})

	cols, err := c.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "Engineering", cols[0].Name)
}

func TestGetCollection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/7", r.URL.Path)
		json.NewEncoder(w).Encode(CollectionDetail{
			Collection: Collection{ID: 7, Name: "Docs"},
			Contents: []ContentNode{
				{Type: NodeSubCollection, ID: 11, Name: "Guides"},
				{Type: NodeDocument, ID: 42, Name: "Intro", UpdatedAt: "2026-08-01T00:00:00Z"},
			},
		})
	})

	detail, err := c.GetCollection(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, detail.Contents, 2)
	assert.Equal(t, NodeSubCollection, detail.Contents[0].Type)
	assert.Equal(t, int64(42), detail.Contents[1].ID)
}

func TestCreateDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/documents", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateDocumentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(3), req.CollectionID)
		assert.Equal(t, "New Note", req.Name)

		json.NewEncoder(w).Encode(Document{ID: 99, CollectionID: 3, Name: req.Name})
	})

	doc, err := c.CreateDocument(context.Background(), CreateDocumentRequest{
		CollectionID: 3,
		Name:         "New Note",
		Markdown:     "body",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), doc.ID)
}

func TestUpdateDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/documents/42", r.URL.Path)
		json.NewEncoder(w).Encode(Document{ID: 42, UpdatedAt: "2026-08-02T00:00:00Z"})
	})

	doc, err := c.UpdateDocument(context.Background(), 42, UpdateDocumentRequest{Markdown: "new body"})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-02T00:00:00Z", doc.UpdatedAt)
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})

	_, err := c.GetDocument(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, IsTransient(err))
}

func TestClient_APIErrorMessageExtracted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"name already taken"}}`))
	})

	_, err := c.CreateSubCollection(context.Background(), CreateSubCollectionRequest{CollectionID: 1, Name: "dup"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAPIRequest))
	assert.Contains(t, err.Error(), "name already taken")
}

func TestClient_TransientStatuses(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		_, err := c.ListCollections(context.Background())
		require.Error(t, err)
		assert.True(t, IsTransient(err), "status %d should be transient", code)
	}
}

func TestClient_NonTransientClientError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.ListCollections(context.Background())
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "id", "secret", nil)

	_, err := c.ListCollections(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestClient_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, err := c.GetDocument(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAPIResponse))
}

func TestExportMarkdown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/5/export/markdown", r.URL.Path)
		assert.Equal(t, "Token token-id:token-secret", r.Header.Get("Authorization"))
		w.Write([]byte("# Exported\n"))
	})

	md, err := c.ExportMarkdown(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "# Exported\n", md)
}

func TestExportMarkdown_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	_, err := c.ExportMarkdown(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAPIRequest))
}

func TestSanitizeResponseBody(t *testing.T) {
	assert.Equal(t, "plain text", sanitizeResponseBody([]byte("plain text")))
	assert.Equal(t, "a?b", sanitizeResponseBody([]byte{'a', 0x01, 'b'}))
	assert.Equal(t, "line\nbreak", sanitizeResponseBody([]byte("line\nbreak")))

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}

	assert.Len(t, sanitizeResponseBody(long), 256)
}

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"boom"}}`, "boom"},
		{"flat error", `{"error":"boom"}`, "boom"},
		{"message", `{"message":"boom"}`, "boom"},
		{"unknown shape", `{"detail":"boom"}`, ""},
		{"invalid json", `<html>`, ""},
		{"error object without message", `{"error":{"code":42}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apiErrorMessage([]byte(tt.body)))
		})
	}
}

func TestSameHostRedirectPolicy(t *testing.T) {
	redirects := 0

	var c *Client

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/collections" {
			redirects++
			http.Redirect(w, r, "/api/moved", http.StatusTemporaryRedirect)
			return
		}

		assert.NotEmpty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"data": []Collection{{ID: 1}}})
	}))
	t.Cleanup(srv.Close)

	httpClient := srv.Client()
	httpClient.CheckRedirect = sameHostRedirectPolicy
	c = NewClient(srv.URL, "id", "secret", httpClient)

	cols, err := c.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, redirects)
	assert.Len(t, cols, 1)
}
