package httpx

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without internal err",
			err:  NewAppError(http.StatusBadRequest, CodeParamMissing, "param missing", nil),
			want: "code=2001, message=param missing",
		},
		{
			name: "error with internal err",
			err:  NewAppError(http.StatusInternalServerError, CodeInternalError, "internal error", errors.New("db connection failed")),
			want: "code=5001, message=internal error, err=db connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("domain already exists for tenant", nil)
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("Expected HTTP status %d, got %d", http.StatusBadRequest, err.HTTPStatus)
	}
	if err.Code != CodeValidation {
		t.Errorf("Expected code %d, got %d", CodeValidation, err.Code)
	}
	if err.Message != "domain already exists for tenant" {
		t.Errorf("Expected custom message, got '%s'", err.Message)
	}
}

func TestErrNotFound(t *testing.T) {
	err := ErrNotFound("")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("Expected HTTP status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Code != CodeNotFound {
		t.Errorf("Expected code %d, got %d", CodeNotFound, err.Code)
	}
	if err.Message != "resource not found" {
		t.Errorf("Expected default message, got '%s'", err.Message)
	}
}

func TestErrProbeTimeout(t *testing.T) {
	err := ErrProbeTimeout("", errors.New("context deadline exceeded"))
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("Expected HTTP status %d, got %d", http.StatusGatewayTimeout, err.HTTPStatus)
	}
	if err.Code != CodeProbeTimeout {
		t.Errorf("Expected code %d, got %d", CodeProbeTimeout, err.Code)
	}
}

func TestErrStateConflict(t *testing.T) {
	err := ErrStateConflict("verification already in flight")
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("Expected HTTP status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
	if err.Code != CodeStateConflict {
		t.Errorf("Expected code %d, got %d", CodeStateConflict, err.Code)
	}
}

func TestWithData(t *testing.T) {
	err := ErrValidation("bad hostname", nil).WithData(map[string]string{"domain": "not a hostname"})
	if err.Data == nil {
		t.Error("Expected data to be attached")
	}
}
