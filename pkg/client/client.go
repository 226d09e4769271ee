package client

import (
	"context"
	"fmt"

	"github.com/ecstasoy/tcpecho/pkg/registry"
	"github.com/ecstasoy/tcpecho/pkg/transport"
	"github.com/ecstasoy/tcpecho/pkg/transport/tcp"
)

// Client sends payloads to an echo server, either a fixed address or one
// picked from discovery on every call.
type Client struct {
	opts *clientOptions

	address   string
	service   string
	fixedMode bool
}

func NewClient(address string, opts ...Option) *Client {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	return &Client{
		opts:      options,
		address:   address,
		fixedMode: true,
	}
}

func NewDiscoveryClient(service string, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	if options.discovery == nil {
		return nil, fmt.Errorf("discovery is required")
	}
	if service == "" {
		service = registry.DefaultService
	}

	return &Client{
		opts:    options,
		service: service,
	}, nil
}

// Echo runs one exchange and returns what the server sent back.
func (c *Client) Echo(ctx context.Context, data []byte) ([]byte, error) {
	addr, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}

	if c.opts.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.callTimeout)
		defer cancel()
	}

	conn := tcp.NewClient(addr,
		transport.WithDialTimeout(c.opts.dialTimeout),
		transport.WithRetry(c.opts.maxRetries, transport.DefaultClientOptions().RetryInterval),
	)
	resp, err := conn.EchoWithRetry(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("echo via %s: %w", addr, err)
	}
	return resp, nil
}

func (c *Client) resolve(ctx context.Context) (string, error) {
	if c.fixedMode {
		return c.address, nil
	}

	instances, err := c.opts.discovery.GetInstances(ctx, c.service)
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", c.service, err)
	}

	instance, err := c.opts.loadBalancer.Pick(ctx, instances)
	if err != nil {
		return "", fmt.Errorf("pick %s instance: %w", c.service, err)
	}
	return instance.Endpoint(), nil
}

func (c *Client) Close() error {
	if c.opts.discovery != nil {
		return c.opts.discovery.Close()
	}
	return nil
}
