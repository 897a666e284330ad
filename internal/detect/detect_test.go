package detect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"class":"person","score":0.91,"box":[10,20,60,180]},{"class":"car","score":0.88,"box":[0,0,50,50]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	detections, err := client.Detect(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, "person", detections[0].Class)
	assert.InDelta(t, 0.91, detections[0].Score, 1e-9)
}

func TestClient_Detect_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Detect(context.Background(), []byte("jpeg-bytes"))
	assert.Error(t, err)
}

func TestFilterPersons(t *testing.T) {
	detections := []models.Detection{
		{Class: "person", Score: 0.9, Box: []float64{0, 0, 10, 30}},
		{Class: "person", Score: 0.4, Box: []float64{0, 0, 10, 30}},
		{Class: "car", Score: 0.99, Box: []float64{0, 0, 10, 30}},
		{Class: "person", Score: 0.8, Box: []float64{1, 2, 3}}, // malformed box
	}

	persons := FilterPersons(detections, 0.5)
	require.Len(t, persons, 1)
	assert.InDelta(t, 0.9, persons[0].Score, 1e-9)
}
