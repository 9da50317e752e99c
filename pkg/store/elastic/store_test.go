package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablesink/pkg/store"
)

type stubTransport struct {
	status   int
	requests []*http.Request
	bodies   []string
}

func (t *stubTransport) Perform(req *http.Request) (*http.Response, error) {
	t.requests = append(t.requests, req)
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	t.bodies = append(t.bodies, body)

	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func TestIndex_NameIsLowercased(t *testing.T) {
	s := NewWithTransport(&stubTransport{status: http.StatusOK})
	assert.Equal(t, "applogs", s.Table("AppLOGS").Name())
}

func TestIndex_CreateIfMissing(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"created", http.StatusOK, false},
		{"already exists", http.StatusBadRequest, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &stubTransport{status: tt.status}
			err := NewWithTransport(tr).Table("applogs").CreateIfMissing(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIndex_InsertBatchBuildsBulkBody(t *testing.T) {
	tr := &stubTransport{status: http.StatusOK}
	table := NewWithTransport(tr).Table("applogs")

	entries := []*store.Entry{
		{ID: "id-1", Message: "a"},
		{ID: "id-2", Message: "b"},
	}
	require.NoError(t, table.InsertBatch(context.Background(), entries))

	require.Len(t, tr.bodies, 1)
	lines := strings.Split(strings.TrimRight(tr.bodies[0], "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"_index":"applogs"`)
	assert.Contains(t, lines[0], `"_id":"id-1"`)
	assert.Contains(t, lines[1], `"message":"a"`)
	assert.Contains(t, lines[2], `"_id":"id-2"`)
}

func TestIndex_InsertBatchEscapesDocumentID(t *testing.T) {
	tr := &stubTransport{status: http.StatusOK}
	table := NewWithTransport(tr).Table("applogs")

	entries := []*store.Entry{
		{ID: `id"} , "extra" : "x`, Message: "a"},
	}
	require.NoError(t, table.InsertBatch(context.Background(), entries))

	// A quote inside the document id must not break out of the metadata
	// line; every line of the body stays valid JSON.
	require.Len(t, tr.bodies, 1)
	lines := strings.Split(strings.TrimRight(tr.bodies[0], "\n"), "\n")
	require.Len(t, lines, 2)
	var meta struct {
		Index struct {
			Index string `json:"_index"`
			ID    string `json:"_id"`
		} `json:"index"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, "applogs", meta.Index.Index)
	assert.Equal(t, entries[0].ID, meta.Index.ID)
}

func TestIndex_InsertBatchEmptyIsNoop(t *testing.T) {
	tr := &stubTransport{status: http.StatusOK}
	table := NewWithTransport(tr).Table("applogs")

	require.NoError(t, table.InsertBatch(context.Background(), nil))
	assert.Empty(t, tr.requests)
}
