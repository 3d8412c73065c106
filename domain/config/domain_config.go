package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int

	// Node constraints
	MaxTitleLength    int
	MaxBodyLength     int
	DefaultNodeWidth  float64
	DefaultNodeHeight float64

	// Edge constraints
	MaxLabelLength       int
	AllowSelfConnections bool

	// Chat constraints
	MaxUtteranceLength int
	MaxPromptLength    int
	MaxQueuedTurns     int

	// Time constraints
	ConnectorTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Graph constraints
		MaxNodesPerGraph: 500,
		MaxEdgesPerGraph: 2000,

		// Node constraints
		MaxTitleLength:    200,
		MaxBodyLength:     5000,
		DefaultNodeWidth:  200,
		DefaultNodeHeight: 100,

		// Edge constraints
		MaxLabelLength:       100,
		AllowSelfConnections: false,

		// Chat constraints
		MaxUtteranceLength: 4000,
		MaxPromptLength:    4000,
		MaxQueuedTurns:     32,

		ConnectorTimeout: 30 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Keep model prompts bounded in production
	config.MaxUtteranceLength = 2000
	config.MaxPromptLength = 2000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerGraph = 5000
	config.MaxEdgesPerGraph = 20000
	config.AllowSelfConnections = true

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxNodesPerGraph <= 0 || c.MaxEdgesPerGraph <= 0 {
		return fmt.Errorf("graph limits must be positive")
	}
	if c.MaxTitleLength <= 0 {
		return fmt.Errorf("max title length must be positive")
	}
	if c.MaxQueuedTurns <= 0 {
		return fmt.Errorf("max queued turns must be positive")
	}
	if c.ConnectorTimeout <= 0 {
		return fmt.Errorf("connector timeout must be positive")
	}
	return nil
}
