package maps

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geocodeRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/geocode", NewHandler(svc).Geocode)
	return r
}

func get(r http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestGeocodeProxy(t *testing.T) {
	srv, _ := fakeNominatim(t, http.StatusOK, kirkegata)
	r := geocodeRouter(newTestService(srv.URL, nil))

	rec, body := get(r, "/api/geocode?q=Kirkegata+5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cacheControl, rec.Header().Get("Cache-Control"))
	item := body["item"].(map[string]any)
	assert.Equal(t, "10.7449", item["lon"])
}

func TestGeocodeProxyNoMatch(t *testing.T) {
	srv, _ := fakeNominatim(t, http.StatusOK, `[]`)
	r := geocodeRouter(newTestService(srv.URL, nil))

	rec, body := get(r, "/api/geocode?q=ingenting")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "item")
	assert.Nil(t, body["item"])
}

func TestGeocodeProxyMissingQuery(t *testing.T) {
	srv, calls := fakeNominatim(t, http.StatusOK, kirkegata)
	r := geocodeRouter(newTestService(srv.URL, nil))

	rec, body := get(r, "/api/geocode?q=%20%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgMissingQuery, body["error"])
	assert.Zero(t, calls.Load())
}

func TestGeocodeProxyUpstreamFailure(t *testing.T) {
	srv, _ := fakeNominatim(t, http.StatusTooManyRequests, "slow down")
	r := geocodeRouter(newTestService(srv.URL, nil))

	rec, body := get(r, "/api/geocode?q=Kirkegata+5")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Nominatim 429", body["error"])
	assert.Equal(t, "slow down", body["detail"])
}
