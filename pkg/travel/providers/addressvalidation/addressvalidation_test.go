package addressvalidation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Validate(t *testing.T) {
	var got validateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1:validateAddress", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":{"verdict":{"addressComplete":true}}}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	out, err := c.Validate(context.Background(), []string{"1600 Amphitheatre Pkwy", "Mountain View, CA"}, "US")
	require.NoError(t, err)
	assert.Contains(t, out, "result")
	assert.Equal(t, "US", got.Address.RegionCode)
	assert.Len(t, got.Address.AddressLines, 2)
}

func TestClient_ValidateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad region"}}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Validate(context.Background(), nil, "US")
	assert.Error(t, err)
	_, err = c.Validate(context.Background(), []string{"x"}, "ZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad region")
}
