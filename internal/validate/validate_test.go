// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"http", "http://ads.local:8080", false},
		{"https with path", "https://ads.example/api", false},
		{"empty", "", true},
		{"no host", "http://", true},
		{"bad scheme", "ftp://ads.example", true},
		{"relative", "/ads", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("BaseURL", tt.value, []string{"http", "https"})
			assert.Equal(t, tt.wantErr, !v.IsValid())
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	for addr, ok := range map[string]bool{
		":8088":          true,
		"127.0.0.1:9000": true,
		"[::1]:443":      true,
		"localhost":      false,
		":0":             false,
		":http":          false,
		":70000":         false,
	} {
		v := New()
		v.ListenAddr("ListenAddr", addr)
		assert.Equal(t, ok, v.IsValid(), addr)
	}
}

func TestValidator_Ranges(t *testing.T) {
	v := New()
	v.Range("Queue", 0, 1, 10)
	v.FloatRange("Rate", 1.5, 0, 1)
	v.DurationRange("Tick", time.Millisecond, 10*time.Millisecond, time.Second)
	v.OneOf("Exporter", "zipkin", []string{"grpc", "http"})
	v.NotEmpty("Platform", "  ")

	err := v.Err()
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Errors()))
	for _, e := range verr.Errors() {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"Queue", "Rate", "Tick", "Exporter", "Platform"}, fields)
	assert.Contains(t, err.Error(), "validation failed for Queue")
}

func TestValidator_ValidIsNil(t *testing.T) {
	v := New()
	v.Range("Queue", 5, 1, 10)
	v.OneOf("Exporter", "GRPC", []string{"grpc", "http"})
	assert.NoError(t, v.Err())
}
