package transport

import "time"

// DefaultBacklog is the pending-connection queue depth of the listener.
const DefaultBacklog = 5

// ------------------- Client Options -------------------

type ClientOptions struct {
	DialTimeout     time.Duration
	KeepAlive       bool
	KeepAlivePeriod time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRetries      int
	RetryInterval   time.Duration
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		DialTimeout:     5 * time.Second,
		KeepAlive:       true,
		KeepAlivePeriod: 30 * time.Second,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,

		MaxRetries:    0,
		RetryInterval: 100 * time.Millisecond,
	}
}

type ClientOption func(*ClientOptions)

func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.DialTimeout = timeout
	}
}

func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.ReadTimeout = timeout
	}
}

func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.WriteTimeout = timeout
	}
}

func WithKeepAlive(keepAlive bool, period time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.KeepAlive = keepAlive
		opts.KeepAlivePeriod = period
	}
}

func WithRetry(maxRetries int, interval time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.MaxRetries = maxRetries
		opts.RetryInterval = interval
	}
}

// ------------------- Server Options -------------------

// ServerOptions zero timeouts mean the exchange blocks for as long as the
// peer does.
type ServerOptions struct {
	Backlog      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		Backlog: DefaultBacklog,
	}
}

type ServerOption func(*ServerOptions)

func WithServerTimeout(read, write time.Duration) ServerOption {
	return func(opts *ServerOptions) {
		opts.ReadTimeout = read
		opts.WriteTimeout = write
	}
}

func WithBacklog(backlog int) ServerOption {
	return func(opts *ServerOptions) {
		if backlog > 0 {
			opts.Backlog = backlog
		}
	}
}
