package gateclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T, handler func(op string, w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/op/{name}", func(w http.ResponseWriter, r *http.Request) {
		handler(r.PathValue("name"), w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func TestAuthenticateRoundTrip(t *testing.T) {
	srv := newStubServer(t, func(op string, w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "authenticate", op)

		var args map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		require.Equal(t, "a@b.com", args["email"])
		require.Equal(t, "pw", args["password"])

		writeData(w, Credential{
			AccessToken: "opaque-token-value",
			User:        User{ID: "u1", Email: "a@b.com"},
			Schema:      "Public Schema",
		})
	})

	cred, err := New(srv.URL).Authenticate(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "opaque-token-value", cred.AccessToken)
	require.Equal(t, "Public Schema", cred.Schema)
	require.Equal(t, "a@b.com", cred.User.Email)
}

func TestAuthorizationHeaderSchemes(t *testing.T) {
	var gotAuth string
	srv := newStubServer(t, func(op string, w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeData(w, User{ID: "u1"})
	})

	c := New(srv.URL).WithToken("tok123")
	_, err := c.GetUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok123", gotAuth)

	c.Scheme = SchemeJWT
	_, err = c.GetUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "JWT tok123", gotAuth)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := newStubServer(t, func(op string, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message":    "Invalid Authorization Header",
				"violations": []string{"signature is invalid"},
			},
		})
	})

	_, err := New(srv.URL).GetUser(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid Authorization Header", apiErr.Message)
	require.Equal(t, []string{"signature is invalid"}, apiErr.Violations)
}

func TestValidationErrorField(t *testing.T) {
	srv := newStubServer(t, func(op string, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "value is already taken",
				"field":   "email",
			},
		})
	})

	_, err := New(srv.URL).Register(context.Background(), "a@b.com", "pw", "", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "email", apiErr.Field)
	require.Contains(t, apiErr.Error(), "email")
}

func TestNonJSONFailureFallsBack(t *testing.T) {
	srv := newStubServer(t, func(op string, w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := New(srv.URL).GetUser(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestBooleanOperations(t *testing.T) {
	srv := newStubServer(t, func(op string, w http.ResponseWriter, r *http.Request) {
		writeData(w, true)
	})

	c := New(srv.URL).WithToken("tok")
	ok, err := c.DeleteCurrentToken(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.DeleteAllTokens(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}
