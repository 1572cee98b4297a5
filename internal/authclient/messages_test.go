package authclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"authrelay/internal/domain"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"duplicate account", &domain.UpstreamError{Status: http.StatusConflict}, "An account with this email already exists"},
		{"validation", &domain.UpstreamError{Status: http.StatusBadRequest}, "Please check the email and password"},
		{"bad credentials", &domain.UpstreamError{Status: http.StatusUnauthorized}, "Invalid email or password"},
		{"server error", &domain.UpstreamError{Status: http.StatusBadGateway}, "The service is unavailable, try again later"},
		{"transport", fmt.Errorf("POST /x: %w", domain.ErrUpstreamUnavailable), "The service is unavailable, try again later"},
		{"other", errors.New("boom"), "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
