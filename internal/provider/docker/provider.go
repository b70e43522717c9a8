// Package docker implements a CloudProvider backed by the local Docker
// daemon, for development and testing: each "sandbox VM" is a container
// running the agent binary, with the orchestrator endpoint and sandbox id
// injected through the container environment — the same boot metadata a
// cloud provider would bake into a real VM.
//
// Cloud-specific providers plug in behind the same interface.
package docker

import (
	"context"
	"fmt"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/sandbox"
	"github.com/habbes/sandstorm/internal/types"
)

// Compile-time interface check.
var _ sandbox.CloudProvider = (*Provider)(nil)

const (
	// Environment variables the agent reads on boot. These mirror the
	// flags of cmd/agent.
	envOrchestratorEndpoint = "SANDSTORM_ORCHESTRATOR"
	envSandboxID            = "SANDSTORM_SANDBOX_ID"
	envAgentID              = "SANDSTORM_AGENT_ID"
)

// Config holds the provider's settings.
type Config struct {
	// Host is the Docker daemon address. Empty uses the environment's
	// default (DOCKER_HOST or the platform socket).
	Host string
	// DefaultImage is the image reference "built" (pulled and resolved) by
	// BuildDefaultImage. It must contain the agent binary as entrypoint.
	DefaultImage string
}

// Provider provisions sandbox containers through the Docker API.
type Provider struct {
	api    *client.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Provider and verifies the daemon is reachable.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.DefaultImage == "" {
		return nil, fmt.Errorf("docker provider: default image is required")
	}

	var opts []client.Opt
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	api, err := client.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker provider: failed to create client: %w", err)
	}

	if _, err := api.Ping(ctx, client.PingOptions{}); err != nil {
		api.Close()
		return nil, fmt.Errorf("docker provider: daemon unreachable: %w", err)
	}

	return &Provider{
		api:    api,
		cfg:    cfg,
		logger: logger.Named("docker_provider"),
	}, nil
}

// CreateSandbox pulls the configured image if needed, then creates and
// starts a container with the boot metadata in its environment. The
// container id is the VM handle; no public IP is reported.
func (p *Provider) CreateSandbox(ctx context.Context, sandboxID string, cfg types.SandboxConfiguration, orchestratorEndpoint string) (sandbox.CreateResult, error) {
	image := cfg.ImageID
	if image == "" {
		image = p.cfg.DefaultImage
	}

	if err := p.pullImage(ctx, image); err != nil {
		return sandbox.CreateResult{}, fmt.Errorf("docker provider: pull %s: %w", image, err)
	}

	name := "sandstorm-" + sandboxID
	created, err := p.api.ContainerCreate(ctx, client.ContainerCreateOptions{
		Name: name,
		Config: &container.Config{
			Image: image,
			Env: []string{
				envOrchestratorEndpoint + "=" + orchestratorEndpoint,
				envSandboxID + "=" + sandboxID,
				envAgentID + "=agent-" + sandboxID,
			},
			Labels: map[string]string{
				"sandstorm.sandbox-id": sandboxID,
			},
		},
		HostConfig: &container.HostConfig{
			AutoRemove: false,
		},
	})
	if err != nil {
		return sandbox.CreateResult{}, fmt.Errorf("docker provider: create container: %w", err)
	}

	if _, err := p.api.ContainerStart(ctx, created.ID, client.ContainerStartOptions{}); err != nil {
		// Best effort cleanup of the half-created container.
		_, _ = p.api.ContainerRemove(ctx, created.ID, client.ContainerRemoveOptions{Force: true})
		return sandbox.CreateResult{}, fmt.Errorf("docker provider: start container: %w", err)
	}

	// PublicIP stays empty: a local container has no public address, and the
	// orchestrator treats the field as optional.
	result := sandbox.CreateResult{VMHandle: created.ID}

	p.logger.Info("sandbox container started",
		zap.String("sandbox_id", sandboxID),
		zap.String("container_id", created.ID),
		zap.String("image", image),
	)

	return result, nil
}

// BuildDefaultImage resolves the default agent image. Locally, "building"
// means pulling the configured reference; the returned id is the reference
// itself so sandbox records stay human-readable.
func (p *Provider) BuildDefaultImage(ctx context.Context, orchestratorEndpoint string) (string, error) {
	if err := p.pullImage(ctx, p.cfg.DefaultImage); err != nil {
		return "", fmt.Errorf("docker provider: pull default image: %w", err)
	}
	return p.cfg.DefaultImage, nil
}

// DeleteSandbox force-removes the sandbox container.
func (p *Provider) DeleteSandbox(ctx context.Context, vmHandle string) error {
	if _, err := p.api.ContainerRemove(ctx, vmHandle, client.ContainerRemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
		return fmt.Errorf("docker provider: remove container %s: %w", vmHandle, err)
	}
	return nil
}

// Close releases the Docker client.
func (p *Provider) Close() error {
	return p.api.Close()
}

func (p *Provider) pullImage(ctx context.Context, ref string) error {
	resp, err := p.api.ImagePull(ctx, ref, client.ImagePullOptions{})
	if err != nil {
		return err
	}
	return resp.Wait(ctx)
}
