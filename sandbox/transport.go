package sandbox

import (
	"context"
	"io"
)

// Transport starts a worker process or container and exposes its stdio
// as a line-oriented JSON channel. Start is called once per session;
// Close tears the worker down.
type Transport interface {
	Start(ctx context.Context) (stdin io.WriteCloser, stdout io.Reader, err error)
	Close() error
}
