package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"pantry-api/internal/model"
	"pantry-api/internal/service"
	"pantry-api/pkg/apierror"
	"pantry-api/pkg/response"
)

// DetectHandler handles image detection requests.
type DetectHandler struct {
	detectionService *service.DetectionService
}

// NewDetectHandler creates a new detection handler.
func NewDetectHandler(detectionService *service.DetectionService) *DetectHandler {
	return &DetectHandler{detectionService: detectionService}
}

// Detect handles POST /api/detect. The image is either a JSON
// {"image_url": ...} body or a multipart upload in the "image" field.
// ?raw=true includes the unshaped workflow outputs.
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var (
		req model.DetectionRequest
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req.Image, err = h.readUpload(w, r)
	} else {
		err = decodeJSON(w, r, 64<<10, &req)
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	includeRaw, _ := strconv.ParseBool(r.URL.Query().Get("raw"))
	res, err := h.detectionService.Detect(r.Context(), req, includeRaw)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, res)
}

func (h *DetectHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := h.detectionService.MaxUpload()
	// Allow some room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apierror.RequestTooLarge(fmt.Sprintf("Image exceeds %d bytes", limit))
		}
		return nil, apierror.BadRequest("Invalid multipart body")
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, apierror.BadRequest("Image file is required in field 'image'")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, apierror.BadRequest("Failed to read uploaded image")
	}
	if int64(len(data)) > limit {
		return nil, apierror.RequestTooLarge(fmt.Sprintf("Image exceeds %d bytes", limit))
	}
	return data, nil
}
