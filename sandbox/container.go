package sandbox

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// ContainerTransport runs the worker inside a container built from an
// image that embeds the worker binary as its entrypoint, attaching to
// its stdio. It trades the subprocess transport's shared-kernel
// isolation for a full container boundary — separate filesystem and
// network namespace — at the cost of a slower cold start. The container
// is created with AutoRemove only; no resource limits are set.
type ContainerTransport struct {
	cli         *client.Client
	image       string
	containerID string
}

// NewContainerTransport connects to the local Docker daemon using the
// standard DOCKER_HOST environment variables. image must run the worker
// binary as its entrypoint; Start sets EnvVar in the container's
// environment.
func NewContainerTransport(image string) (*ContainerTransport, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("sandbox: docker client: %w", err)
	}
	return &ContainerTransport{cli: cli, image: image}, nil
}

func (t *ContainerTransport) Start(ctx context.Context) (io.WriteCloser, io.Reader, error) {
	created, err := t.cli.ContainerCreate(ctx, &container.Config{
		Image:        t.image,
		Env:          []string{EnvVar + "=1"},
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		OpenStdin:    true,
		Tty:          false,
	}, &container.HostConfig{AutoRemove: true}, nil, nil, "")
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: container create: %w", err)
	}
	t.containerID = created.ID

	hijacked, err := t.cli.ContainerAttach(ctx, created.ID, container.AttachOptions{
		Stream: true, Stdin: true, Stdout: true, Stderr: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: container attach: %w", err)
	}

	if err := t.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, nil, fmt.Errorf("sandbox: container start: %w", err)
	}

	return hijacked.Conn, hijacked.Reader, nil
}

func (t *ContainerTransport) Close() error {
	if t.containerID == "" {
		return nil
	}
	return t.cli.ContainerStop(context.Background(), t.containerID, container.StopOptions{})
}
