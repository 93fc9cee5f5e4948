package email

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"invoicing/internal/core"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{APIKey: "re_test", From: "Studio <billing@studio.test>", APIURL: url, Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestSend_Success(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv.URL).Send(context.Background(), "ana@client.test", "Invoice 2026-000001", `<p>"hi" & bye</p>`)
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)

	assert.Equal(t, "Studio <billing@studio.test>", gjson.GetBytes(got, "from").String())
	assert.Equal(t, "ana@client.test", gjson.GetBytes(got, "to.0").String())
	assert.Equal(t, "Invoice 2026-000001", gjson.GetBytes(got, "subject").String())
	assert.Equal(t, `<p>"hi" & bye</p>`, gjson.GetBytes(got, "html").String())
}

func TestSend_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Send(context.Background(), "bad", "s", "h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDownstreamFailure))
	assert.Contains(t, err.Error(), "Invalid to field")
	assert.Contains(t, err.Error(), "422")
}

func TestSend_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Send(context.Background(), "a@b.test", "s", "h")
	assert.ErrorIs(t, err, core.ErrDownstreamFailure)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{APIKey: "k", From: "f@x.test", APIURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "a@b.test", "s", "h")
	assert.ErrorIs(t, err, core.ErrDownstreamFailure)
}

func TestNewClient_RequiresKeyAndSender(t *testing.T) {
	_, err := NewClient(Config{From: "x@y.test"})
	assert.Error(t, err)
	_, err = NewClient(Config{APIKey: "k"})
	assert.Error(t, err)
}
