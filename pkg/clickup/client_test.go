package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type failingToken struct{ err error }

func (f failingToken) Token(context.Context) (string, error) { return "", f.err }

func TestClientSendsTokenAndDecodes(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/team":
			w.Write([]byte(`{"teams":[{"id":"1","name":"Acme"}]}`))
		case "/list/L1/task":
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{"tasks":[{"id":"T1","name":"Write","parent":null,"start_date":"1704067200000"}],"last_page":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", staticToken("pk_123"), nil, time.Second)

	teams, err := c.Teams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Team{{ID: "1", Name: "Acme"}}, teams)
	assert.Equal(t, "pk_123", gotAuth)

	page, err := c.Tasks(context.Background(), "L1", 0)
	require.NoError(t, err)
	assert.False(t, page.More())
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "include_closed=true&page=0&subtasks=true", gotQuery)
	assert.Equal(t, int64(1704067200000), page.Tasks[0].StartDate.Millis())
	assert.False(t, page.Tasks[0].DueDate.Valid())
}

func TestClientRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"err":"Token invalid","ECODE":"OAUTH_025"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("bad"), nil, time.Second)
	_, err := c.Spaces(context.Background(), "9")

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.Contains(t, remoteErr.Body, "OAUTH_025")
	assert.Equal(t, "/team/9/space", remoteErr.URL)
}

func TestClientTokenFailure(t *testing.T) {
	tokenErr := errors.New("no token")
	c := NewClient("http://127.0.0.1:1", failingToken{err: tokenErr}, nil, time.Second)
	_, err := c.Teams(context.Background())
	require.ErrorIs(t, err, tokenErr)
}

func TestEpochMillisUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		ms    int64
	}{
		{"numeric string", `"1704067200000"`, true, 1704067200000},
		{"bare number", `1704067200000`, true, 1704067200000},
		{"null", `null`, false, 0},
		{"empty string", `""`, false, 0},
		{"garbage", `"soon"`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				D EpochMillis `json:"d"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"d":`+tt.input+`}`), &v))
			assert.Equal(t, tt.valid, v.D.Valid())
			assert.Equal(t, tt.ms, v.D.Millis())
			if tt.valid {
				assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *v.D.Time())
			} else {
				assert.Nil(t, v.D.Time())
			}
		})
	}
}
