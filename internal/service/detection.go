package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pantry-api/internal/cache"
	"pantry-api/internal/detect"
	"pantry-api/internal/metrics"
	"pantry-api/internal/model"
	"pantry-api/pkg/apierror"
)

// Detector runs the hosted detection workflow.
type Detector interface {
	RunWorkflow(ctx context.Context, img detect.Image) ([]map[string]any, error)
}

// DetectionService forwards images to the detection workflow and shapes
// the reply. Results for image URLs are cached.
type DetectionService struct {
	detector  Detector
	cache     cache.Cache
	ttl       time.Duration
	maxUpload int64
	metrics   *metrics.Metrics
}

// DetectionConfig wires a DetectionService. Detector nil disables detection;
// Cache nil disables caching.
type DetectionConfig struct {
	Detector  Detector
	Cache     cache.Cache
	TTL       time.Duration
	MaxUpload int64
	Metrics   *metrics.Metrics
}

// NewDetectionService creates a detection service.
func NewDetectionService(cfg DetectionConfig) *DetectionService {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 10 << 20
	}
	return &DetectionService{
		detector:  cfg.Detector,
		cache:     cfg.Cache,
		ttl:       cfg.TTL,
		maxUpload: cfg.MaxUpload,
		metrics:   cfg.Metrics,
	}
}

// MaxUpload returns the largest accepted upload in bytes.
func (s *DetectionService) MaxUpload() int64 {
	return s.maxUpload
}

// Detect runs detection for req. Raw workflow outputs are included only
// when includeRaw is set.
func (s *DetectionService) Detect(ctx context.Context, req model.DetectionRequest, includeRaw bool) (*model.DetectionResult, error) {
	if s.detector == nil {
		return nil, apierror.ServiceUnavailable("Object detection is not configured")
	}

	req.ImageURL = strings.TrimSpace(req.ImageURL)
	switch {
	case req.ImageURL == "" && len(req.Image) == 0:
		return nil, invalid("Image URL is required")
	case req.ImageURL != "" && len(req.Image) > 0:
		return nil, invalid("Provide either image_url or an uploaded image, not both")
	case int64(len(req.Image)) > s.maxUpload:
		return nil, apierror.RequestTooLarge(fmt.Sprintf("Image exceeds %d bytes", s.maxUpload))
	}
	if err := checkStruct(req); err != nil {
		return nil, err
	}

	var (
		res *model.DetectionResult
		err error
	)
	if req.ImageURL != "" && s.cache != nil {
		res, err = s.detectCached(ctx, req.ImageURL)
	} else {
		res, err = s.run(ctx, detect.Image{URL: req.ImageURL, Data: req.Image})
	}
	if err != nil {
		s.observe("error")
		return nil, s.upstreamError(ctx, err)
	}

	if res.Cached {
		s.observe("cached")
	} else {
		s.observe("ok")
	}
	if !includeRaw {
		res.Raw = nil
	}
	return res, nil
}

func (s *DetectionService) detectCached(ctx context.Context, imageURL string) (*model.DetectionResult, error) {
	log := zerolog.Ctx(ctx)
	key := cacheKey(imageURL)

	for attempt := 0; attempt < 2; attempt++ {
		var (
			fresh  *model.DetectionResult
			runErr error
		)
		b, hit, err := s.cache.GetOrSet(ctx, key, s.ttl, func() ([]byte, error) {
			fresh, runErr = s.run(ctx, detect.Image{URL: imageURL})
			if runErr != nil {
				return nil, runErr
			}
			return json.Marshal(fresh)
		})
		switch {
		case runErr != nil:
			return nil, runErr
		case err != nil && fresh != nil:
			log.Warn().Err(err).Msg("detection cache write failed")
			return fresh, nil
		case err != nil:
			log.Warn().Err(err).Msg("detection cache read failed")
			return s.run(ctx, detect.Image{URL: imageURL})
		case !hit:
			return fresh, nil
		}

		var res model.DetectionResult
		if err := json.Unmarshal(b, &res); err == nil {
			res.Cached = true
			return &res, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cached detection")
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Msg("detection cache delete failed")
			break
		}
	}
	return s.run(ctx, detect.Image{URL: imageURL})
}

func (s *DetectionService) run(ctx context.Context, img detect.Image) (*model.DetectionResult, error) {
	outputs, err := s.detector.RunWorkflow(ctx, img)
	if err != nil {
		return nil, err
	}
	res := detect.Reshape(outputs)
	res.Raw = outputs
	return &res, nil
}

func (s *DetectionService) upstreamError(ctx context.Context, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg("object detection failed")
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apierror.ServiceUnavailable("Object detection timed out")
	}
	return apierror.BadGateway("Object detection failed")
}

func (s *DetectionService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.DetectionCalls.WithLabelValues(outcome).Inc()
	}
}

func cacheKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return hex.EncodeToString(sum[:])
}
