package config

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrInvalidBaseURL = errors.New("remote base url is not a valid absolute URL")
	ErrInvalidRetries = errors.New("max row retries must be positive")
)

// validate checks the merged configuration after defaults have been
// applied. Errors here mean an explicitly supplied value is unusable,
// not a missing one.
func (c *StructuredConfig) validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Remote.BaseURL)
	}

	if c.Sync.MaxRowRetries < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRetries, c.Sync.MaxRowRetries)
	}

	return nil
}
