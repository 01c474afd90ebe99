// Package mindspark provides the public API for embedding the relay server
// and for consuming it from Go programs.
// This is the stable API for external consumers.
package mindspark

import (
	"github.com/tjfontaine/mindspark/internal/client"
	"github.com/tjfontaine/mindspark/internal/registration"
	"github.com/tjfontaine/mindspark/internal/runtime"
)

// Gateway runs the relay server.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// NewGateway creates a new Gateway with the given options. Built-in
// providers are registered on first use.
// Example:
//
//	gw, err := mindspark.NewGateway(
//	    mindspark.WithFileConfig("config.yaml"),
//	    mindspark.WithSQLite("./data/mindspark.db"),
//	)
func NewGateway(opts ...Option) (*Gateway, error) {
	registration.RegisterBuiltins()
	return runtime.New(opts...)
}

// Configuration options
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Identity
	WithIdentityVerifier = runtime.WithIdentityVerifier

	// Storage
	WithSQLite        = runtime.WithSQLite
	WithDatabase      = runtime.WithDatabase
	WithMemoryStorage = runtime.WithMemoryStorage
	WithHistoryStore  = runtime.WithHistoryStore

	// Advanced options
	WithListener = runtime.WithListener
	WithLogger   = runtime.WithLogger
)

// Consumer streams answers from a relay server.
// See internal/client.Consumer for full documentation.
type Consumer = client.Consumer

// ConsumerOption configures a Consumer.
type ConsumerOption = client.Option

// NewConsumer creates a Consumer for the relay at baseURL.
var NewConsumer = client.NewConsumer

// Consumer options
var (
	WithToken          = client.WithToken
	WithHTTPClient     = client.WithHTTPClient
	WithRenderInterval = client.WithRenderInterval
	WithRenderHook     = client.WithRenderHook
	WithClientLogger   = client.WithLogger
)
