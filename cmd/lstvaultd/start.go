package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/elys-network/lstvault/internal/app"
	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/observability/metrics"
	"github.com/elys-network/lstvault/internal/operator"
	"github.com/elys-network/lstvault/internal/queue"
	"github.com/elys-network/lstvault/internal/state"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/web"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Deploy the contracts, serve the API and run the keeper loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return start(ctx)
		},
	}
}

func start(ctx context.Context) error {
	log.Info().Msg("lstvault daemon starting...")

	params, err := config.LoadParameters(config.ParamsFile)
	if err != nil {
		return fmt.Errorf("failed to load parameters: %w", err)
	}

	root, err := store.Open(config.DataDir)
	if err != nil {
		return err
	}
	defer root.Close()

	var (
		sinks   []engine.EventSink
		history web.History
		counter operator.CycleCounter
	)

	// --- Database (optional) ---
	if config.DB != nil {
		if err := state.InitDB(*config.DB); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			return fmt.Errorf("failed to ensure database schema: %w", err)
		}
		if _, err := state.SaveDeployment(ctx, params); err != nil {
			return fmt.Errorf("failed to record deployment: %w", err)
		}
		sinks = append(sinks, state.Sink{})
		history = state.History{}
		counter = state.CycleCounter{}
	} else {
		log.Warn().Msg("DB_HOST not set, transactions are not stored")
	}

	// --- Broker (optional) ---
	if config.AMQPURL != "" {
		publisher, err := queue.Dial(config.AMQPURL, config.AMQPQueue)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	// --- Custody balances over gRPC (optional) ---
	var custody chain.BalanceSource
	if config.NodeGRPC != "" {
		var creds grpc.DialOption
		if config.NodeGRPCTLS {
			creds = grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{}))
		} else {
			creds = grpc.WithTransportCredentials(insecure.NewCredentials())
		}
		grpcClient, err := grpc.NewClient(config.NodeGRPC, creds)
		if err != nil {
			return fmt.Errorf("gRPC connection error: %w", err)
		}
		defer grpcClient.Close()
		bank, err := chain.NewGRPCBank(grpcClient)
		if err != nil {
			return err
		}
		custody = bank
		log.Info().Str("endpoint", config.NodeGRPC).Msg("gRPC connected")
	}

	metrics.Init(config.MetricsPort)

	// --- Contracts ---
	deployment := app.New(root, params, sinks...)
	fresh, err := deployment.Genesis(ctx, now())
	if err != nil {
		return err
	}
	log.Info().Bool("fresh", fresh).Strs("contracts", deployment.Executor.Contracts()).Msg("Contracts ready")

	// --- Web API ---
	webServer := web.NewWebServer(web.Options{
		Port:    config.Port,
		Chain:   deployment.Executor,
		History: history,
		Custody: custody,
		Clock:   now,
	})
	go func() {
		log.Info().Str("port", config.Port).Str("url", "http://localhost:"+config.Port).Msg("Starting web API")
		if err := webServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- Keeper loop ---
	keeperCfg := deployment.KeeperConfig(counter)
	keeperCfg.Clock = now
	keeper, err := operator.NewKeeper(keeperCfg)
	if err != nil {
		return err
	}
	keeper.RunLoop(ctx, config.KeeperInterval)

	log.Info().Msg("lstvault daemon stopped")
	return nil
}

func now() uint64 { return uint64(time.Now().Unix()) }
