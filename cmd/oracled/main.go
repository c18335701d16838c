package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/lidofinance/dot-ksm-oracle/ethrpc"
	"github.com/lidofinance/dot-ksm-oracle/oracle"
	"github.com/lidofinance/dot-ksm-oracle/relaychain"
)

const VERSION = "v0.1"

var rootCmd = &cobra.Command{
	Use:   "oracled",
	Short: "dot-ksm-oracle - relay chain staking report daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("oracled", VERSION)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := oracle.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevelStdout}))
	slog.SetDefault(log)

	wallet, err := oracle.LoadOracleKey(cfg)
	if err != nil {
		return fmt.Errorf("loading oracle key: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, err := relaychain.NewClient(ctx, cfg.WSURLRelay, log)
	if err != nil {
		return fmt.Errorf("connecting to relay chain: %w", err)
	}
	defer relay.Close()

	provider, err := ethrpc.NewProvider(cfg.WSURLPara, ethrpc.WithLogger(log))
	if err != nil {
		return fmt.Errorf("connecting to parachain: %w", err)
	}

	contract, err := oracle.NewOracleMaster(cfg.ABIPath, common.HexToAddress(cfg.ContractAddress), provider)
	if err != nil {
		return fmt.Errorf("binding oracle master contract: %w", err)
	}

	metrics := oracle.NewMetrics(wallet.Address().Hex())
	arbiter := oracle.NewFailureArbiter(log, cfg.MaxNumberOfFailureRequests, cfg.Timeout)
	eras := oracle.NewEraTracker(log, relay, cfg)
	stashes := oracle.NewStashDiscovery(contract)
	builder := oracle.NewReportBuilder(relay)
	submitter := oracle.NewSubmitter(log, provider, wallet, contract, cfg)

	reporter := oracle.NewReporter(oracle.ReporterDeps{
		Log:       log,
		Config:    cfg,
		Relay:     relay,
		Para:      contract,
		Arbiter:   arbiter,
		Eras:      eras,
		Stashes:   stashes,
		Builder:   builder,
		Submitter: submitter,
		Metrics:   metrics,
	})

	health := oracle.NewHealthSurface(log, cfg, reporter, metrics)

	errCh := make(chan error, 2)
	go func() {
		errCh <- health.Run(ctx)
	}()
	go func() {
		errCh <- reporter.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("oracle: shutdown signal received, draining")
	case err := <-errCh:
		if err != nil {
			log.Error("oracle: fatal error, shutting down", "error", err)
			stop()
			return err
		}
	}

	select {
	case <-time.After(cfg.WaitingTimeBeforeShutdown):
	case <-errCh:
	}

	return nil
}
