package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Predict(t *testing.T) {
	var gotBody []byte
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"probabilities": [0.1, 0.5, 0.9]}`)
	}))
	defer srv.Close()

	c := NewClient()
	probs, err := c.Predict(context.Background(), srv.URL, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	want := []float64{0.1, 0.5, 0.9}
	if len(probs) != len(want) {
		t.Fatalf("len(probs) = %d, want %d", len(probs), len(want))
	}
	for i := range want {
		if probs[i] != want[i] {
			t.Errorf("probs[%d] = %v, want %v", i, probs[i], want[i])
		}
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}

	var req struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("request body %q: %v", gotBody, err)
	}
	if len(req.Lines) != 3 || req.Lines[0] != "a" || req.Lines[1] != "b" || req.Lines[2] != "c" {
		t.Errorf("request lines = %v, want [a b c]", req.Lines)
	}
}

func TestClient_PredictEmptyDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Lines []string `json:"lines"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Lines == nil {
			t.Errorf("request body %q should carry an empty lines array", body)
		}
		io.WriteString(w, `{"probabilities": []}`)
	}))
	defer srv.Close()

	c := NewClient()
	probs, err := c.Predict(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(probs) != 0 {
		t.Errorf("len(probs) = %d, want 0", len(probs))
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusNotFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			io.WriteString(w, `{"error": "boom"}`)
		}))

		c := NewClient()
		_, err := c.Predict(context.Background(), srv.URL, []string{"x"})
		if !errors.Is(err, ErrStatus) {
			t.Errorf("status %d: error = %v, want ErrStatus", status, err)
		}
		srv.Close()
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"wrong type", `{"probabilities": "high"}`},
		{"wrong field", `{"scores": [0.5]}`},
		{"not json", `nonsense{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient()
			_, err := c.Predict(context.Background(), srv.URL, []string{"x"})
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestClient_ShortResponseIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"probabilities": [0.4]}`)
	}))
	defer srv.Close()

	c := NewClient()
	probs, err := c.Predict(context.Background(), srv.URL, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(probs) != 1 {
		t.Errorf("len(probs) = %d, want 1", len(probs))
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		io.WriteString(w, `{"probabilities": [1.0]}`)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	c := NewClient()
	go func() {
		_, err := c.Predict(ctx, srv.URL, []string{"x"})
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Predict did not return after cancellation")
	}
}

func TestClient_UnreachableEndpoint(t *testing.T) {
	c := NewClient()
	_, err := c.Predict(context.Background(), "http://127.0.0.1:1/predict", []string{"x"})
	if err == nil {
		t.Fatal("Predict() error = nil, want transport error")
	}
}
