// Package main runs the script pubkey tracker against a bitcoind node.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/metrics"
	observed "github.com/goodnatureofminers/blockinsight7000-spktracker/internal/pkg/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/canonical"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/service"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/transport"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type config struct {
	ClickhouseDSN   string        `long:"clickhouse-dsn" env:"SPK_TRACKER_CLICKHOUSE_DSN" description:"ClickHouse DSN" required:"true"`
	Network         model.Network `long:"network" env:"SPK_TRACKER_NETWORK" description:"network name" choice:"mainnet" choice:"testnet" choice:"regtest" choice:"signet" required:"true"`
	RPCURL          string        `long:"rpc-url" env:"SPK_TRACKER_RPC_URL" description:"Bitcoin RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser         string        `long:"rpc-user" env:"SPK_TRACKER_RPC_USER" description:"Bitcoin RPC username"`
	RPCPassword     string        `long:"rpc-password" env:"SPK_TRACKER_RPC_PASSWORD" description:"Bitcoin RPC password"`
	SecretsFile     string        `long:"secrets-file" env:"SPK_TRACKER_SECRETS_FILE" description:"file with one hex encoded 32 byte secret per line, preferred over --secret"`
	Secrets         []string      `long:"secret" env:"SPK_TRACKER_SECRETS" env-delim:"," description:"hex encoded 32 byte secret to watch, repeatable; visible in the process list"`
	AssumeCanonical []string      `long:"assume-canonical" env:"SPK_TRACKER_ASSUME_CANONICAL" env-delim:"," description:"txid treated as canonical ahead of mempool conflicts, repeatable"`
	ZMQAddr         string        `long:"zmq-addr" env:"SPK_TRACKER_ZMQ_ADDR" description:"bitcoind zmq publisher, wakes the tracker on new blocks and transactions"`
	PollInterval    time.Duration `long:"poll-interval" env:"SPK_TRACKER_POLL_INTERVAL" description:"pause between polls once caught up" default:"10s"`
	Workers         int           `long:"workers" env:"SPK_TRACKER_WORKERS" description:"concurrent mempool transaction fetches" default:"4"`
	RPS             int           `long:"rps" env:"SPK_TRACKER_RPS" description:"mempool transaction fetches per second, 0 is unlimited" default:"50"`
	GRPCAddr        string        `long:"grpc-addr" env:"SPK_TRACKER_GRPC_ADDR" description:"address for the gRPC server" default:":8000"`
	HTTPAddr        string        `long:"http-addr" env:"SPK_TRACKER_HTTP_ADDR" description:"address for the API, gateway and metrics server" default:":8001"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	grpcZap.ReplaceGrpcLoggerV2(logger)

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("spk tracker failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	secrets, err := loadSecrets(cfg.SecretsFile, cfg.Secrets, logger)
	if err != nil {
		return err
	}
	params, err := canonicalParams(cfg.AssumeCanonical)
	if err != nil {
		return err
	}

	repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("close repository", zap.Error(err))
		}
	}()

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()
	rpc := observed.NewObservedClient(rpcClient, metrics.NewRPCClient(cfg.Network))

	t, nextSeq, err := service.LoadTracker(ctx, repo, cfg.Network, secrets, logger,
		tracker.WithLogger(logger.Named("tracker")),
		tracker.WithCanonicalParams(params))
	if err != nil {
		return fmt.Errorf("load tracker: %w", err)
	}

	emitter := bitcoin.NewEmitter(rpc, t.Tip(),
		bitcoin.WithLogger(logger.Named("emitter")),
		bitcoin.WithWorkers(cfg.Workers),
		bitcoin.WithRateLimit(cfg.RPS),
	)

	wake, err := startBlockSignal(ctx, cfg.ZMQAddr, logger)
	if err != nil {
		return fmt.Errorf("start block signal: %w", err)
	}

	svc, err := service.NewTrackerService(t, nextSeq, emitter, repo,
		metrics.NewTrackerService(cfg.Network), logger,
		service.WithPollInterval(cfg.PollInterval),
		service.WithBlockSignal(wake),
	)
	if err != nil {
		return err
	}

	socket, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	serveGRPC(ctx, newGRPCServer(svc, logger), socket, logger)

	handler, err := newHTTPHandler(ctx, cfg.GRPCAddr, transport.NewTrackerHandler(svc, logger))
	if err != nil {
		return err
	}
	serveHTTP(ctx, cfg.HTTPAddr, handler, logger)
	return svc.Run(ctx)
}

// loadSecrets reads secrets from path when set and from flags otherwise.
func loadSecrets(path string, flagged []string, logger *zap.Logger) ([][]byte, error) {
	if path == "" {
		if len(flagged) > 0 {
			logger.Warn("secrets passed on the command line are visible to other users, prefer --secrets-file")
		}
		return decodeSecrets(flagged)
	}
	if len(flagged) > 0 {
		logger.Warn("ignoring --secret, secrets file is set", zap.String("path", path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	return decodeSecrets(parseSecretsFile(string(content)))
}

// parseSecretsFile returns the non-empty lines of content. Lines starting with
// # are comments.
func parseSecretsFile(content string) []string {
	var secrets []string
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		secrets = append(secrets, line)
	}
	return secrets
}

func canonicalParams(txids []string) (canonical.Params, error) {
	var params canonical.Params
	for _, txid := range txids {
		hash, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return canonical.Params{}, fmt.Errorf("assume canonical %q: %w", txid, err)
		}
		params.AssumeCanonical = append(params.AssumeCanonical, *hash)
	}
	return params, nil
}

func decodeSecrets(encoded []string) ([][]byte, error) {
	secrets := make([][]byte, 0, len(encoded))
	for i, s := range encoded {
		secret, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("secret %d is not hex: %w", i, err)
		}
		secrets = append(secrets, secret)
	}
	return secrets, nil
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
}
