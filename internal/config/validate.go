package config

import (
	"fmt"
	"time"
)

func (c *GlobConfig) Validate() error {
	if c.MaxFilesPerDelete <= 0 {
		return fmt.Errorf("maxFilesPerDelete must be > 0")
	}
	if len(c.Globs) == 0 {
		return fmt.Errorf("globs is required and must not be empty")
	}
	for i, g := range c.Globs {
		if g == "" {
			return fmt.Errorf("globs[%d] is empty", i)
		}
	}
	if c.MaxDateOpened != "" {
		if _, err := time.Parse("2006-01-02", c.MaxDateOpened); err != nil {
			return fmt.Errorf("maxDateOpened %q is not a YYYY-MM-DD date: %w", c.MaxDateOpened, err)
		}
	}
	if c.Webhook != nil {
		if c.Webhook.URL == "" {
			return fmt.Errorf("webhook.url is required when webhook is configured")
		}
		for i, on := range c.Webhook.On {
			if on != "success" && on != "failure" {
				return fmt.Errorf("webhook.on[%d] must be success or failure, got %q", i, on)
			}
		}
	}
	return nil
}
