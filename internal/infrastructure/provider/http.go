package provider

import (
	"fmt"
	"io"
	"net/http"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

const (
	// maxResponseSize limits response bodies to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB
)

// readBody reads a size-limited response body.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}
	return body, nil
}

// classifyStatus maps a non-2xx carrier response to the error taxonomy:
// 4xx is a request/config problem the caller must not retry, 5xx is
// transient and eligible for retry.
func classifyStatus(statusCode int) error {
	switch {
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", reconciliation.ErrProviderUnavailable, statusCode)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", reconciliation.ErrAuthenticationFailed, statusCode)
	case statusCode >= 400:
		return fmt.Errorf("%w: HTTP %d", reconciliation.ErrProviderInvalidResponse, statusCode)
	default:
		return nil
	}
}
