// Package agentnet provides a top-level convenience entry point for joining
// the coordination network with minimal boilerplate.
//
// Usage:
//
//	import "github.com/wisent-ai/agentnet"
//
//	n, err := agentnet.Join("agent-1", agentnet.WithName("Research Bot"))
//	n, err := agentnet.Join("agent-2", agentnet.WithDataDir("/srv/agents"))
//	n, err := agentnet.Join("agent-3", agentnet.WithConfigFile("agentnet.yaml"))
//
// This is a thin wrapper around [network.New]; use the network package
// directly when you need full control over configuration.
package agentnet

import (
	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/config"
	"github.com/wisent-ai/agentnet/network"
	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// Option configures the session created by [Join].
type Option func(*options) error

type options struct {
	identity types.AgentIdentity
	cfg      *config.Config
	logger   *zap.Logger
}

// WithName sets the human-readable agent name. Defaults to the agent id.
func WithName(name string) Option {
	return func(o *options) error {
		o.identity.Name = name
		return nil
	}
}

// WithAgentType categorizes the agent (e.g. "coder", "writer").
func WithAgentType(agentType string) Option {
	return func(o *options) error {
		o.identity.AgentType = agentType
		return nil
	}
}

// WithTicker sets the short symbol the agent trades under.
func WithTicker(ticker string) Option {
	return func(o *options) error {
		o.identity.Ticker = ticker
		return nil
	}
}

// WithSpecialty sets the free-form specialty description.
func WithSpecialty(specialty string) Option {
	return func(o *options) error {
		o.identity.Specialty = specialty
		return nil
	}
}

// WithConfig supplies a fully resolved configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		o.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from the YAML file at path.
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// WithDataDir points the session at a shared data directory, keeping the
// default file-backed store.
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if o.cfg == nil {
			o.cfg = config.DefaultConfig()
		}
		o.cfg.DataDir = dir
		o.cfg.Store.DataDir = dir
		return nil
	}
}

// WithRedis switches the session to the redis backend at the given address.
func WithRedis(host string, port int) Option {
	return func(o *options) error {
		if o.cfg == nil {
			o.cfg = config.DefaultConfig()
		}
		o.cfg.Store.Type = store.StoreTypeRedis
		o.cfg.Store.Redis.Host = host
		o.cfg.Store.Redis.Port = port
		return nil
	}
}

// WithSQLite switches the session to the sqlite backend at the given path.
func WithSQLite(path string) Option {
	return func(o *options) error {
		if o.cfg == nil {
			o.cfg = config.DefaultConfig()
		}
		o.cfg.Store.Type = store.StoreTypeSQLite
		o.cfg.Store.SQLitePath = path
		return nil
	}
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// Join creates a coordination session for the given agent id.
func Join(agentID string, opts ...Option) (*network.Network, error) {
	o := &options{
		identity: types.AgentIdentity{
			AgentID: agentID,
			Version: Version,
		},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.identity.Name == "" {
		o.identity.Name = agentID
	}
	return network.New(o.identity, o.cfg, o.logger)
}

// Version is the library version stamped into agent identities.
const Version = "0.1.0"
