package service

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"pantry-api/internal/cache"
	"pantry-api/internal/detect"
	"pantry-api/internal/model"
)

type fakeDetector struct {
	calls atomic.Int32
	err   error
}

func (f *fakeDetector) RunWorkflow(_ context.Context, img detect.Image) ([]map[string]any, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []map[string]any{{
		"predictions": []any{
			map[string]any{"class": "carrot", "confidence": 0.9},
			map[string]any{"class": "carrot", "confidence": 0.8},
		},
	}}, nil
}

func TestDetectCachesURLResults(t *testing.T) {
	det := &fakeDetector{}
	mc := cache.NewMemoryCache(0)
	defer mc.Close()
	svc := NewDetectionService(DetectionConfig{Detector: det, Cache: mc})
	ctx := context.Background()
	req := model.DetectionRequest{ImageURL: "https://img.example.com/fridge.jpg"}

	first, err := svc.Detect(ctx, req, false)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if first.Cached || first.Total != 2 || first.Counts["carrot"] != 2 || first.Raw != nil {
		t.Errorf("unexpected first result %+v", first)
	}

	second, err := svc.Detect(ctx, req, true)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !second.Cached || second.Total != 2 || second.Raw == nil {
		t.Errorf("expected cached result with raw outputs, got %+v", second)
	}
	if det.calls.Load() != 1 {
		t.Errorf("expected one upstream call, got %d", det.calls.Load())
	}
}

func TestDetectUploadsBypassCache(t *testing.T) {
	det := &fakeDetector{}
	mc := cache.NewMemoryCache(0)
	defer mc.Close()
	svc := NewDetectionService(DetectionConfig{Detector: det, Cache: mc})

	for i := 0; i < 2; i++ {
		if _, err := svc.Detect(context.Background(), model.DetectionRequest{Image: []byte("jpeg")}, false); err != nil {
			t.Fatalf("Detect: %v", err)
		}
	}
	if det.calls.Load() != 2 {
		t.Errorf("expected uploads not to be cached, got %d calls", det.calls.Load())
	}
}

func TestDetectInputErrors(t *testing.T) {
	svc := NewDetectionService(DetectionConfig{Detector: &fakeDetector{}, MaxUpload: 4})
	ctx := context.Background()

	tests := []struct {
		name   string
		req    model.DetectionRequest
		status int
	}{
		{"missing", model.DetectionRequest{}, http.StatusBadRequest},
		{"both", model.DetectionRequest{ImageURL: "https://x.example.com/a.jpg", Image: []byte("a")}, http.StatusBadRequest},
		{"bad url", model.DetectionRequest{ImageURL: "not a url"}, http.StatusBadRequest},
		{"too large", model.DetectionRequest{Image: []byte("12345")}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Detect(ctx, tt.req, false)
			if got := statusOf(t, err); got != tt.status {
				t.Errorf("expected %d, got %d", tt.status, got)
			}
		})
	}
}

func TestDetectUpstreamFailure(t *testing.T) {
	svc := NewDetectionService(DetectionConfig{Detector: &fakeDetector{err: errors.New("boom")}})

	_, err := svc.Detect(context.Background(), model.DetectionRequest{ImageURL: "https://x.example.com/a.jpg"}, false)
	if got := statusOf(t, err); got != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", got)
	}

	disabled := NewDetectionService(DetectionConfig{})
	_, err = disabled.Detect(context.Background(), model.DetectionRequest{ImageURL: "https://x.example.com/a.jpg"}, false)
	if got := statusOf(t, err); got != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when not configured, got %d", got)
	}
}

func TestDetectReplacesUndecodableCacheEntry(t *testing.T) {
	det := &fakeDetector{}
	mc := cache.NewMemoryCache(0)
	defer mc.Close()
	svc := NewDetectionService(DetectionConfig{Detector: det, Cache: mc})
	ctx := context.Background()
	url := "https://img.example.com/pantry.jpg"

	if err := mc.Set(ctx, cacheKey(url), []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	res, err := svc.Detect(ctx, model.DetectionRequest{ImageURL: url}, false)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Cached || res.Total != 2 {
		t.Errorf("expected fresh result, got %+v", res)
	}

	res, _ = svc.Detect(ctx, model.DetectionRequest{ImageURL: url}, false)
	if !res.Cached {
		t.Error("expected the replaced entry to be served from cache")
	}
	if det.calls.Load() != 1 {
		t.Errorf("expected one upstream call, got %d", det.calls.Load())
	}
}

type brokenCache struct {
	cache.Cache
	readErr, writeErr error
}

func (b brokenCache) GetOrSet(_ context.Context, _ string, _ time.Duration, fn func() ([]byte, error)) ([]byte, bool, error) {
	if b.readErr != nil {
		return nil, false, b.readErr
	}
	v, err := fn()
	if err != nil {
		return nil, false, err
	}
	return v, false, b.writeErr
}

func TestDetectSurvivesCacheFailures(t *testing.T) {
	tests := []struct {
		name  string
		cache brokenCache
	}{
		{"read fails", brokenCache{readErr: errors.New("redis get: connection refused")}},
		{"write fails", brokenCache{writeErr: errors.New("redis set: connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeDetector{}
			svc := NewDetectionService(DetectionConfig{Detector: det, Cache: tt.cache})

			res, err := svc.Detect(context.Background(), model.DetectionRequest{ImageURL: "https://img.example.com/a.jpg"}, false)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if res.Cached || res.Total != 2 {
				t.Errorf("unexpected result %+v", res)
			}
			if det.calls.Load() != 1 {
				t.Errorf("expected one upstream call, got %d", det.calls.Load())
			}
		})
	}
}
