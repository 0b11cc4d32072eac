package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"query":"hotels paris","results":[
			{"title":"A","url":"https://a.example","content":"a"},
			{"title":"B","url":"https://b.example","content":"b"},
			{"title":"C","url":"https://c.example","content":"c"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewClient("tvly-key", WithBaseURL(srv.URL))
	require.NoError(t, err)
	resp, err := c.Search(context.Background(), "hotels paris", 2)
	require.NoError(t, err)

	assert.Equal(t, searchRequest{APIKey: "tvly-key", Query: "hotels paris", MaxResults: 2}, got)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "https://a.example", resp.Results[0].URL)
}

func TestClient_SearchValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	c, err := NewClient("k", WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)
	_, err = c.Search(context.Background(), " ", 5)
	assert.Error(t, err)
	_, err = c.Search(context.Background(), "q", 0)
	assert.Error(t, err)
}
