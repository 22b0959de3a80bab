package electrumrpc_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"electrumd/pkg/electrumrpc"
	"electrumd/pkg/serrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, fn rtFunc) *electrumrpc.Client {
	t.Helper()

	c, err := electrumrpc.New(&http.Client{Transport: fn}, "test", "test", "http://127.0.0.1:7000")
	require.NoError(t, err)

	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNew_EndpointAndAuth(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "127.0.0.1:7000", r.URL.Host)
		require.Equal(t, "7000", r.URL.Port())
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Basic "))
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
		require.NoError(t, err)
		require.Equal(t, "test:test", string(decoded))

		return jsonResponse(http.StatusOK, `{"jsonrpc":"2.0","id":"1","result":null}`), nil
	})

	require.NoError(t, c.Call(context.Background(), "getinfo", nil, nil))
}

func TestNew_EmptyAddress(t *testing.T) {
	_, err := electrumrpc.New(http.DefaultClient, "test", "test", "")
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestNew_UnsupportedScheme(t *testing.T) {
	_, err := electrumrpc.New(http.DefaultClient, "test", "test", "ftp://127.0.0.1:7000")
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestCall_EnvelopeShape(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var envelope struct {
			JSONRPC string   `json:"jsonrpc"`
			ID      string   `json:"id"`
			Method  string   `json:"method"`
			Params  []string `json:"params"`
		}
		require.NoError(t, json.Unmarshal(b, &envelope))
		require.Equal(t, "2.0", envelope.JSONRPC)
		require.Equal(t, "load_wallet", envelope.Method)
		require.Equal(t, []string{"w1"}, envelope.Params)

		_, err = uuid.Parse(envelope.ID)
		require.NoError(t, err, "request id should be a UUID")

		return jsonResponse(http.StatusOK, `{"jsonrpc":"2.0","id":"`+envelope.ID+`","result":true}`), nil
	})

	var loaded bool
	require.NoError(t, c.Call(context.Background(), "load_wallet", []string{"w1"}, &loaded))
	require.True(t, loaded)
}

func TestCall_NilParamsEncodeAsEmptyArray(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(b), `"params":[]`)

		return jsonResponse(http.StatusOK, `{"jsonrpc":"2.0","id":"1","result":null}`), nil
	})

	require.NoError(t, c.Call(context.Background(), "getinfo", nil, nil))
}

func TestGetBalance(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"jsonrpc":"2.0","id":"1","result":{"confirmed":"1.5","unconfirmed":"0.001"}}`), nil
	})

	balance, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.5", balance.Confirmed)
	require.Equal(t, "0.001", balance.Unconfirmed)
}

func TestGetInfo(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"jsonrpc":"2.0","id":"1","result":{"version":"4.5.8","connected":true,"blockchain_height":900123,"server_height":900123,"path":"/data","server":"electrum.example:50002","auto_connect":true}}`), nil //nolint: lll
	})

	info, err := c.GetInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "4.5.8", info.Version)
	require.True(t, info.Connected)
	require.EqualValues(t, 900123, info.BlockchainHeight)
}

func TestVersion(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"jsonrpc":"2.0","id":"1","result":"4.5.8"}`), nil
	})

	version, err := c.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "4.5.8", version)
}

func TestHelp(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"jsonrpc":"2.0","id":"1","result":["getinfo","getbalance","stop"]}`), nil
	})

	commands, err := c.Help(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"getinfo", "getbalance", "stop"}, commands)
}

func TestCall_RPCErrorObject(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"jsonrpc":"2.0","id":"1","error":{"code":-32601,"message":"method not found"}}`), nil
	})

	err := c.Call(context.Background(), "nonsense", nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrRPC)

	var rpcErr *electrumrpc.RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32601, rpcErr.Code)
	require.Equal(t, "method not found", rpcErr.Message)
}

func TestCall_NullErrorFieldIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"jsonrpc":"2.0","id":"1","result":"ok","error":null}`), nil
	})

	var reply string
	require.NoError(t, c.Call(context.Background(), "stop", nil, &reply))
	require.Equal(t, "ok", reply)
}

func TestCall_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, "Unauthorized"), nil
	})

	err := c.Call(context.Background(), "getinfo", nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrUnauthorized)
}

func TestCall_Non2xx(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "daemon offline"), nil
	})

	err := c.Call(context.Background(), "getinfo", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "daemon offline")
}
