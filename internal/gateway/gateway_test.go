package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/httperror"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

func newTestGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	cfg := config.Config{
		Server: config.Server{
			BaseURL:    baseURL,
			Timeout:    2 * time.Second,
			MaxRetries: 1,
		},
	}
	g, err := NewGateway(
		cfg,
		tracenoop.NewTracerProvider().Tracer("test"),
		zap.NewNop().Sugar(),
		metricnoop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)
	return g
}

func TestListUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"data":[{"id":"ABC123","name":"Producto 1",` +
			`"description":"Descripcion del producto 1","logo":"logo.png",` +
			`"date_release":"2024-01-01","date_revision":"2025-01-01"}]}`))
	}))
	defer srv.Close()

	records, err := newTestGateway(t, srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ABC123", records[0].ID)
	assert.Equal(t, "2024-01-01", records[0].DateRelease.String())
}

func TestListTranslatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestGateway(t, srv.URL).List(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error interno del servidor. Intente más tarde.", err.Error())
}

func TestCheckUniqueNotFoundMeansAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verification", r.URL.Path)
		assert.Equal(t, "ABC123", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	exists, err := newTestGateway(t, srv.URL).CheckUnique(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckUniqueExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("true"))
	}))
	defer srv.Close()

	exists, err := newTestGateway(t, srv.URL).CheckUnique(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCheckUniqueOtherFailuresTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestGateway(t, srv.URL).CheckUnique(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Código de error: 403")
}

func TestCreatePassesDraftThrough(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		_, _ = w.Write([]byte(`{"message":"ok","data":{"id":"NEW1","name":"Producto nuevo",` +
			`"description":"Descripcion del producto nuevo","logo":"logo.png",` +
			`"date_release":"2030-02-01","date_revision":"2031-02-01"}}`))
	}))
	defer srv.Close()

	release, _ := models.ParseDate("2030-02-01")
	revision, _ := models.ParseDate("2031-02-01")
	draft := models.Product{
		ID:           "NEW1",
		Name:         "Producto nuevo",
		Description:  "Descripcion del producto nuevo",
		Logo:         "logo.png",
		DateRelease:  release,
		DateRevision: revision,
	}
	resp, err := newTestGateway(t, srv.URL).Create(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, "NEW1", received["id"])
	assert.Equal(t, "2030-02-01", received["date_release"])
	assert.Equal(t, "2031-02-01", received["date_revision"])
}

func TestUpdateStripsIdentifier(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/EDIT1", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		_, _ = w.Write([]byte(`{"message":"ok","data":{"id":"EDIT1","name":"Producto editado",` +
			`"description":"Descripcion editada","logo":"logo.png",` +
			`"date_release":"2030-03-01","date_revision":"2031-03-01"}}`))
	}))
	defer srv.Close()

	release, _ := models.ParseDate("2030-03-01")
	draft := models.Product{ID: "EDIT1", Name: "Producto editado", DateRelease: release}
	_, err := newTestGateway(t, srv.URL).Update(context.Background(), "EDIT1", draft)
	require.NoError(t, err)
	assert.NotContains(t, received, "id")
	assert.Equal(t, "Producto editado", received["name"])
}

func TestDelete(t *testing.T) {
	deleted := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/ABC123", r.URL.Path)
		deleted = true
	}))
	defer srv.Close()

	require.NoError(t, newTestGateway(t, srv.URL).Delete(context.Background(), "ABC123"))
	assert.True(t, deleted)
}

func TestUnreachableBackendTranslates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reachable URL, closed port

	_, err := newTestGateway(t, srv.URL).List(context.Background())
	require.Error(t, err)
	assert.Equal(t, "No se pudo conectar con el servidor.", err.Error())

	var te *httperror.TranslatedError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.Status)
}

func TestReadsRetryOnlyNetworkFaults(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestGateway(t, srv.URL).List(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a served error response must not be retried")
}
