package nitro

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statesmith/statesmith/prometheus_metrics"
)

// Registered once: the prometheus default registry rejects duplicates.
var testMetrics = prometheus_metrics.New("127.0.0.1:0")

func newTestLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	logger.Level = logrus.DebugLevel
	return logger.WithFields(logrus.Fields{})
}

type recordedRequest struct {
	method string
	path   string
	query  string
	user   string
	pass   string
	body   map[string]any
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recordedRequest) {
	t.Helper()

	recorded := &recordedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded.method = r.Method
		recorded.path = r.URL.Path
		recorded.query = r.URL.RawQuery
		recorded.user = r.Header.Get("X-NITRO-USER")
		recorded.pass = r.Header.Get("X-NITRO-PASS")

		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &recorded.body)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	client := New(Config{
		Endpoint: server.URL,
		Username: "nsroot",
		Password: "secret",
	}, newTestLogger(), testMetrics)

	return client, recorded
}

func TestAddBuildsTypedPayload(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusCreated, `{"errorcode":0,"message":"Done"}`)

	err := client.Add(context.Background(), "lbvserver", map[string]any{
		"name":        "web",
		"servicetype": "HTTP",
		"ipv46":       "10.0.0.10",
		"port":        80,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, recorded.method)
	assert.Equal(t, "/nitro/v1/config/lbvserver", recorded.path)
	assert.Equal(t, "nsroot", recorded.user)
	assert.Equal(t, "secret", recorded.pass)

	payload, ok := recorded.body["lbvserver"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "web", payload["name"])
	assert.Equal(t, "HTTP", payload["servicetype"])
}

func TestUnknownTypeAndFieldAreRejectedLocally(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusOK, `{}`)
	ctx := context.Background()

	err := client.Add(ctx, "frobnicator", map[string]any{"name": "x"})
	assert.ErrorContains(t, err, "unsupported object type")

	err = client.Add(ctx, "lbvserver", map[string]any{"name": "web", "bogus": true})
	assert.ErrorContains(t, err, `no field "bogus"`)

	err = client.Update(ctx, "lbvserver", map[string]any{"lbmethod": "LEASTCONNECTION"})
	assert.ErrorContains(t, err, `requires the key field "name"`)

	// None of the rejected calls may reach the appliance.
	assert.Empty(t, recorded.method)
}

func TestGet(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusOK,
		`{"errorcode":0,"message":"Done","vpnvserver":[{"name":"gw","servicetype":"SSL"}]}`)

	resource, err := client.Get(context.Background(), "vpnvserver", "gw")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, recorded.method)
	assert.Equal(t, "/nitro/v1/config/vpnvserver/gw", recorded.path)
	assert.Equal(t, "gw", resource["name"])
	assert.Equal(t, "SSL", resource["servicetype"])
}

func TestGetAllHandlesMissingKeyAndBareObject(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"errorcode":0,"message":"Done"}`)
	resources, err := client.GetAll(context.Background(), "service")
	require.NoError(t, err)
	assert.Empty(t, resources)

	client, _ = newTestClient(t, http.StatusOK,
		`{"errorcode":0,"message":"Done","service":{"name":"svc1"}}`)
	resources, err = client.GetAll(context.Background(), "service")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "svc1", resources[0]["name"])
}

func TestErrorEnvelopeIsDecoded(t *testing.T) {
	client, _ := newTestClient(t, http.StatusConflict,
		`{"errorcode":273,"message":"Resource already exists","severity":"ERROR"}`)

	err := client.Add(context.Background(), "server", map[string]any{"name": "dup"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, 273, apiErr.Code)
	assert.Equal(t, "Resource already exists", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "273")
}

func TestEnableDisable(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusOK, `{"errorcode":0,"message":"Done"}`)
	ctx := context.Background()

	err := client.Enable(ctx, "lbvserver", "web")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, recorded.method)
	assert.Equal(t, "/nitro/v1/config/lbvserver", recorded.path)
	assert.Equal(t, "action=enable", recorded.query)

	payload, ok := recorded.body["lbvserver"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "web", payload["name"])

	// Policies have no up/down state.
	err = client.Disable(ctx, "cspolicy", "pol1")
	assert.ErrorContains(t, err, "does not support disable")
}

func TestDeleteWithArgs(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusOK, `{"errorcode":0,"message":"Done"}`)

	err := client.Delete(context.Background(), "vpnvserver_vpnsessionpolicy_binding", "gw", map[string]string{
		"policy": "sess-pol",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, recorded.method)
	assert.Equal(t, "/nitro/v1/config/vpnvserver_vpnsessionpolicy_binding/gw", recorded.path)
	assert.Contains(t, recorded.query, "args=")
}

func TestSave(t *testing.T) {
	client, recorded := newTestClient(t, http.StatusOK, `{"errorcode":0,"message":"Done"}`)

	require.NoError(t, client.Save(context.Background()))
	assert.Equal(t, "/nitro/v1/config/nsconfig", recorded.path)
	assert.Equal(t, "action=save", recorded.query)
	assert.Contains(t, recorded.body, "nsconfig")
}

func TestObjectTypesIsSortedAndComplete(t *testing.T) {
	types := ObjectTypes()
	assert.True(t, sortedStrings(types))
	assert.Contains(t, types, "vpnvserver")
	assert.Contains(t, types, "sslcertkey")

	fields, err := Fields("vpnurl")
	require.NoError(t, err)
	assert.Equal(t, "urlname", fields[0])

	_, err = Fields("nope")
	assert.Error(t, err)
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
