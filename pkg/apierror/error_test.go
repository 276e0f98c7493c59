package apierror

import (
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		msg    string
	}{
		{"bad request", BadRequest("Invalid JSON body"), http.StatusBadRequest, "Invalid JSON body"},
		{"unauthorized default", Unauthorized(""), http.StatusUnauthorized, "Unauthorized"},
		{"not found default", NotFound(""), http.StatusNotFound, "Resource not found"},
		{"internal default", InternalError(""), http.StatusInternalServerError, "An unexpected error occurred"},
		{"too large", RequestTooLarge("Image exceeds 10 bytes"), http.StatusRequestEntityTooLarge, "Image exceeds 10 bytes"},
		{"unavailable", ServiceUnavailable("Object detection is not configured"), http.StatusServiceUnavailable, "Object detection is not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestToJSON(t *testing.T) {
	if got := string(NotFound("Item not found").ToJSON()); got != `{"error":"Item not found"}` {
		t.Errorf("unexpected body %s", got)
	}

	v := ValidationError("name is required", FieldError{Field: "name", Message: "is required"})
	want := `{"error":"name is required","details":[{"field":"name","message":"is required"}]}`
	if got := string(v.ToJSON()); got != want {
		t.Errorf("unexpected body %s", got)
	}
}
