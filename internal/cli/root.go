// Package cli wires the protocol engine into a command-line surface:
// read-only inspection plus the staged proposal, answer, execution and
// claim operations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vietddude/realitymod/internal/core/config"
	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/infra/eth"
	redisclient "github.com/vietddude/realitymod/internal/infra/redis"
	"github.com/vietddude/realitymod/internal/infra/rpc"
	"github.com/vietddude/realitymod/internal/infra/storage/postgres"
	"github.com/vietddude/realitymod/internal/protocol/bond"
	"github.com/vietddude/realitymod/internal/protocol/staged"
)

// signerKeyEnv names the env var holding the hex-encoded signing key for
// state-mutating commands.
const signerKeyEnv = "REALITYMOD_SIGNER_KEY"

var (
	cfgPath     string
	isDebug     bool
	networkName string
	moduleAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "realitymod",
	Short: "Reality module protocol client",
	Long: `realitymod drives the proposal lifecycle of an oracle-governed
transaction module: propose, answer, execute and claim.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "", "network name from the config file")
	rootCmd.PersistentFlags().StringVar(&moduleAddr, "module", "", "module address (defaults to the network's configured module)")
}

// env holds the per-command dependency graph resolved from config.
type env struct {
	cfg     *config.AppConfig
	network *config.NetworkConfig
	chainID *big.Int
	module  common.Address

	client *rpc.Client
	caller *eth.Caller
	prober *bond.Prober

	redis *redisclient.Client
	db    *postgres.DB
}

// newEnv loads config, sets up logging and builds the transport stack.
// Optional infrastructure (redis, postgres, metrics) is wired only when
// configured; its absence never blocks a command.
func newEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	net := cfg.Network(networkName)
	if net == nil {
		if networkName == "" && len(cfg.Networks) == 1 {
			net = &cfg.Networks[0]
		} else {
			return nil, fmt.Errorf("unknown network %q", networkName)
		}
	}

	addr := moduleAddr
	if addr == "" {
		addr = net.Module
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid module address %q", addr)
	}

	providers := make([]rpc.Provider, len(net.Providers))
	for i, p := range net.Providers {
		providers[i] = rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout)
	}
	client, err := rpc.NewClient(net.Name, providers)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:     cfg,
		network: net,
		chainID: new(big.Int).SetUint64(net.ChainID),
		module:  common.HexToAddress(addr),
		client:  client,
		caller:  eth.NewCaller(client),
	}

	var cache bond.AssetCache
	if cfg.Redis.URL != "" {
		rds, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, continuing without token cache", "error", err)
		} else {
			e.redis = rds
			cache = redisclient.NewTokenCache(rds, net.Name)
		}
	}
	e.prober = bond.NewProber(e.caller, cache, domain.Asset{
		Kind:     domain.AssetNative,
		Symbol:   net.Native.Symbol,
		Decimals: net.Native.Decimals,
	})

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database unavailable, continuing without answer archive", "error", err)
		} else {
			e.db = db
		}
	}

	if cfg.Server.MetricsPort > 0 {
		go serveMetrics(cfg.Server.MetricsPort)
	}

	return e, nil
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.client.Close()
}

// oracle resolves the module's oracle address.
func (e *env) oracle(ctx context.Context) (common.Address, error) {
	out, err := e.caller.Read(ctx, eth.Call{To: e.module, ABI: eth.ModuleABI, Method: "oracle"})
	if err != nil {
		return common.Address{}, &domain.DependencyError{Dependency: domain.DependencyModule, Err: err}
	}
	return eth.AsAddress(out[0]), nil
}

// signer builds a writer from the key in the environment.
func (e *env) signer() (*eth.Writer, error) {
	hexKey := os.Getenv(signerKeyEnv)
	if hexKey == "" {
		return nil, fmt.Errorf("%s not set; a signing key is required for this command", signerKeyEnv)
	}
	return eth.NewWriter(e.client, e.chainID, hexKey)
}

// driver builds a staged driver that logs lifecycle progress.
func (e *env) driver(writer *eth.Writer) *staged.Driver {
	return staged.NewDriver(writer, func(p staged.Progress) {
		attrs := []any{"operation", p.Operation, "stage", p.Label}
		if p.TxHash != (common.Hash{}) {
			attrs = append(attrs, "tx", p.TxHash.Hex())
		}
		switch p.Stage {
		case staged.StageCheckpoint:
			slog.Info("checkpoint", attrs...)
		case staged.StageSubmitted:
			slog.Info("submitted, awaiting confirmation", attrs...)
		case staged.StageConfirmed:
			slog.Info("confirmed", append(attrs, "block", p.Receipt.BlockNumber)...)
		case staged.StageReverted:
			slog.Error("reverted on chain", attrs...)
		}
	})
}

func setupLogging(cfg *config.AppConfig) {
	level := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		slog.Warn("metrics server stopped", "error", err)
	}
}

// loadBatch reads a proposal's transaction batch from a JSON file.
func loadBatch(path string) ([]domain.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch []domain.Transaction
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("batch file %s holds no transactions", path)
	}
	return batch, nil
}

// parseQuestionID validates a 0x-prefixed 32-byte hex question id.
// HexToHash alone would silently pad or truncate a typo into a valid
// hash that queries a different question.
func parseQuestionID(s string) (common.Hash, error) {
	b, err := domain.ParseHexBytes(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("question id: %w", err)
	}
	if len(b) != 32 {
		return common.Hash{}, fmt.Errorf("question id must be 32 bytes, got %d", len(b))
	}
	return common.BytesToHash(b), nil
}

// fail logs the error and exits. Shared by every command's Run.
func fail(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
