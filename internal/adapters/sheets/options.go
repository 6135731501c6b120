package sheets

import (
	"github.com/okian/aimsync/pkg/logger"
	"google.golang.org/api/option"
)

// Option configures a Client.
type Option func(*Client)

// WithCredentialsFile authenticates with a service account or OAuth
// credentials file.
func WithCredentialsFile(path string) Option {
	return func(c *Client) {
		c.credentials = path
	}
}

// WithClientOptions passes extra options to the API client, such as a custom
// endpoint or HTTP client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
