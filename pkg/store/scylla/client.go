package scylla

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"tablesink/pkg/settings"
	"tablesink/pkg/store"
)

const (
	defaultPort    = 9042
	defaultTimeout = 10
	defaultRetries = 3
)

// Client represents a wide-column store connection
type Client struct {
	session *gocql.Session
	config  *settings.Scylla
}

// New creates a connected wide-column store client
func New(cfg *settings.Scylla) (*Client, error) {
	client := &Client{config: cfg}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) connect() error {
	c.setDefaultConfig()

	cluster := gocql.NewCluster(c.config.Hosts...)
	cluster.Port = c.config.Port
	cluster.Keyspace = c.config.Keyspace
	if c.config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.config.Username,
			Password: c.config.Password,
		}
	}
	cluster.Timeout = time.Duration(c.config.Timeout) * time.Second
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: c.config.Retries}
	cluster.Consistency = gocql.Quorum

	session, err := cluster.CreateSession()
	if err != nil {
		return errors.Wrap(store.ErrConnectFailed, err.Error())
	}

	c.session = session
	return nil
}

func (c *Client) setDefaultConfig() {
	if c.config.Port == 0 {
		c.config.Port = defaultPort
	}
	if c.config.Timeout == 0 {
		c.config.Timeout = defaultTimeout
	}
	if c.config.Retries == 0 {
		c.config.Retries = defaultRetries
	}
}

// Close closes the store connection
func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
	}
}

// Session returns the underlying gocql session
func (c *Client) Session() *gocql.Session {
	return c.session
}
