package config

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// NodeGRPC is the gRPC endpoint custody balances are read from. Empty disables it.
	NodeGRPC string
	// NodeGRPCTLS forces TLS; endpoints on :443 always use it.
	NodeGRPCTLS bool

	// AMQPURL is the broker transactions are published to. Empty disables publishing.
	AMQPURL string
	// AMQPQueue is the queue committed transactions are published on.
	AMQPQueue string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	NodeGRPC = getEnvOr("NODE_GRPC", "")
	NodeGRPCTLS, err = getEnvAsBool("NODE_GRPC_TLS", strings.HasSuffix(NodeGRPC, ":443"))
	if err != nil {
		return err
	}

	AMQPURL = getEnvOr("AMQP_URL", "")
	AMQPQueue = getEnvOr("AMQP_QUEUE", "lstvault.transactions")

	log.Debug().
		Str("NodeGRPC", NodeGRPC).
		Bool("NodeGRPCTLS", NodeGRPCTLS).
		Bool("AMQP", AMQPURL != "").
		Str("AMQPQueue", AMQPQueue).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
