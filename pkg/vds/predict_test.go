package vds

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestEngine(addr string) Engine {
	return NewEngine().SetConfig(Config{Addr: addr})
}

func TestPredictTwoStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "i3d_two_streams" {
			t.Errorf("model field = %q", got)
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file field: %v", err)
		}
		defer f.Close()
		if fh.Filename != "clip.mp4" {
			t.Errorf("filename = %q", fh.Filename)
		}
		data, _ := io.ReadAll(f)
		if !bytes.Equal(data, []byte("fake video")) {
			t.Errorf("file content = %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"filename": "clip.mp4",
			"predictions": ["[0.0s, 5.0s] score : 0.920 Etat : Violence détectée"],
			"annotated_video_path": "/annotated_videos/clip_annotated.mp4"
		}`))
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	out, err := engine.Predict(context.Background(), bytes.NewReader([]byte("fake video")), "clip.mp4", ModelTwoStream)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if out.Model != ModelTwoStream || out.TwoStream == nil || out.SingleShot != nil {
		t.Fatalf("response = %+v", out)
	}
	if len(out.TwoStream.Predictions) != 1 {
		t.Fatalf("predictions = %v", out.TwoStream.Predictions)
	}
	if out.TwoStream.AnnotatedVideoPath != "/annotated_videos/clip_annotated.mp4" {
		t.Fatalf("annotated path = %q", out.TwoStream.AnnotatedVideoPath)
	}
}

func TestPredictSingleShot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"filename":"clip.mp4","probability":0.87,"is_violent":true}`))
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	out, err := engine.Predict(context.Background(), bytes.NewReader(nil), "clip.mp4", ModelCNNLSTM)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if out.SingleShot == nil || out.TwoStream != nil {
		t.Fatalf("response = %+v", out)
	}
	if out.SingleShot.Probability != 0.87 || !out.SingleShot.IsViolent {
		t.Fatalf("single shot = %+v", out.SingleShot)
	}
}

func TestPredictServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	_, err := engine.Predict(context.Background(), bytes.NewReader(nil), "clip.mp4", ModelI3D)

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("err = %v, want *ServiceError", err)
	}
	if svcErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", svcErr.StatusCode)
	}
}

func TestPredictNetworkError(t *testing.T) {
	// 指向已关闭的端口
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	engine := newTestEngine(srv.URL)
	_, err := engine.Predict(context.Background(), bytes.NewReader(nil), "clip.mp4", ModelI3D)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
}

func TestPredictMalformed(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		body  string
	}{
		{"not json", ModelTwoStream, `<html>oops</html>`},
		{"missing predictions", ModelTwoStream, `{"filename":"clip.mp4"}`},
		{"probability out of range", ModelI3D, `{"filename":"clip.mp4","probability":1.7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			engine := newTestEngine(srv.URL)
			_, err := engine.Predict(context.Background(), bytes.NewReader(nil), "clip.mp4", tt.model)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("err = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestPredictUnsupportedModel(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:1")
	if _, err := engine.Predict(context.Background(), bytes.NewReader(nil), "clip.mp4", Model("vgg16")); err == nil {
		t.Fatal("want error for unsupported model")
	}
}

func TestArtifactURL(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:8000")
	if got := engine.ArtifactURL("/annotated_videos/a.mp4"); got != "http://127.0.0.1:8000/annotated_videos/a.mp4" {
		t.Fatalf("ArtifactURL = %q", got)
	}
	if got := engine.ArtifactURL(""); got != "" {
		t.Fatalf("empty path should return empty, got %q", got)
	}
}

func TestGenerateAnnotated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"annotated_video_path":"/annotated_videos/latest.mp4"}`))
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	out, err := engine.GenerateAnnotated(context.Background())
	if err != nil {
		t.Fatalf("GenerateAnnotated() error = %v", err)
	}
	if out.AnnotatedVideoPath != "/annotated_videos/latest.mp4" {
		t.Fatalf("path = %q", out.AnnotatedVideoPath)
	}
}
