package ssrf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
)

func TestValidateRejectsPrivateTargets(t *testing.T) {
	guard := NewGuard()

	rejected := []string{
		"http://127.0.0.1/",
		"http://127.0.0.1:8080/admin",
		"http://10.1.2.3/",
		"https://172.16.0.1/",
		"https://172.31.255.255/",
		"http://192.168.0.5/",
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost/",
		"http://localhost:3000/api",
		"http://0.0.0.0/",
		"http://[::1]/",
		"http://[fe80::1]/",
		"http://[fd12:3456::1]/",
		"http://metadata.google.internal/",
		"http://foo.internal/",
		"http://printer.local/",
		"ftp://example.com/file",
		"file:///etc/passwd",
		"notaurl",
	}

	for _, raw := range rejected {
		t.Run(raw, func(t *testing.T) {
			err := guard.Validate(raw)
			require.Error(t, err)

			var apiErr *apierr.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, apierr.CodeURLBlocked, apiErr.Code)
			assert.Equal(t, 403, apiErr.Status)
		})
	}
}

func TestValidateAcceptsPublicTargets(t *testing.T) {
	guard := NewGuard()

	accepted := []string{
		"https://example.com/article",
		"http://example.com:8080/path?q=1",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://93.184.216.34/",
		"https://172.15.0.1/", // just outside 172.16.0.0/12
		"https://172.32.0.1/", // just past it
	}

	for _, raw := range accepted {
		t.Run(raw, func(t *testing.T) {
			assert.NoError(t, guard.Validate(raw))
		})
	}
}
