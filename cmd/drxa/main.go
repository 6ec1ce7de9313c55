// Command drxa is a thin demonstration CLI over pkg/wallet: it derives
// addresses for a master seed supplied via environment variable, across
// any chain in the SDK's catalog, and reads balances on EVM chains
// through the RPC URL given on the command line. It holds
// no wallet state of its own and persists nothing.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fatih/color"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/chains/aptos"
	"github.com/drxa/sdk/pkg/chains/bitcoin"
	"github.com/drxa/sdk/pkg/chains/cardano"
	"github.com/drxa/sdk/pkg/chains/evm"
	"github.com/drxa/sdk/pkg/chains/near"
	"github.com/drxa/sdk/pkg/chains/polkadot"
	"github.com/drxa/sdk/pkg/chains/solana"
	"github.com/drxa/sdk/pkg/chains/sui"
	"github.com/drxa/sdk/pkg/chains/ton"
	"github.com/drxa/sdk/pkg/chains/tron"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/entropy"
	"github.com/drxa/sdk/pkg/provider"
	"github.com/drxa/sdk/pkg/txstore"
	"github.com/drxa/sdk/pkg/wallet"
)

const version = "0.1.0"

// evmNetworkIDs gives the numeric chain ID registerChains needs to build
// each EVM-family adapter; every EVM chain uses the one rpcURL passed to
// registerChains.
var evmNetworkIDs = map[config.ChainTag]int64{
	config.ChainEthereum:  1,
	config.ChainBSC:       56,
	config.ChainPolygon:   137,
	config.ChainAvalanche: 43114,
	config.ChainArbitrum:  42161,
	config.ChainOptimism:  10,
	config.ChainCronos:    25,
	config.ChainSonic:     146,
	config.ChainBase:      8453,
}

// registerChains installs a Factory for every chain in the catalog onto
// sdk's Registry. Address derivation never touches the network, so every
// adapter builds with a usable signer regardless of rpcURL. Non-EVM
// adapters are built without an RPC client, so only derivation works for
// them; EVM adapters reach the network through rpcURL when it is non-empty.
func registerChains(sdk *wallet.SDK, rpcURL string) {
	reg := sdk.Registry()

	for tag, networkID := range evmNetworkIDs {
		tag, networkID := tag, networkID
		reg.Register(tag, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
			var rpc provider.EVMProvider
			if rpcURL != "" {
				dialed, err := provider.DialEthRPC(ctx, string(tag), rpcURL)
				if err != nil {
					return nil, err
				}
				rpc = dialed
			}
			return evm.New(tag, networkID, rpc, txstore.NewMemory()), nil
		})
	}

	reg.Register(config.ChainBitcoin, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return bitcoin.New(&chaincfg.MainNetParams, nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainSolana, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return solana.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainTron, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return tron.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainAptos, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return aptos.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainSui, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return sui.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainTON, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return ton.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainPolkadot, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return polkadot.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainCardano, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return cardano.New(nil, txstore.NewMemory()), nil
	})
	reg.Register(config.ChainNEAR, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return near.New(nil, txstore.NewMemory()), nil
	})
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "derive":
		runDerive(os.Args[2:])
	case "balance":
		runBalance(os.Args[2:])
	case "chains":
		runChains()
	case "version":
		fmt.Printf("drxa v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("drxa - multi-chain deterministic wallet SDK demo")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  drxa derive  -chain <tag> -user <id> [-scope <scope>] [-index <n>]")
	fmt.Println("  drxa balance -chain <tag> -address <addr>")
	fmt.Println("  drxa chains")
	fmt.Println("  drxa version")
	fmt.Println()
	fmt.Println("Reads the 32-byte hex master seed from the DRXA_MASTER_SEED environment variable.")
}

func loadSeed() (entropy.MasterSeed, error) {
	hexSeed := os.Getenv("DRXA_MASTER_SEED")
	if hexSeed == "" {
		return entropy.MasterSeed{}, fmt.Errorf("DRXA_MASTER_SEED is not set")
	}
	raw, err := hex.DecodeString(hexSeed)
	if err != nil {
		return entropy.MasterSeed{}, fmt.Errorf("DRXA_MASTER_SEED is not valid hex: %w", err)
	}
	return entropy.NewMasterSeed(raw)
}

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

func runDerive(args []string) {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	chain := fs.String("chain", "", "chain tag, e.g. ethereum, bitcoin, solana")
	user := fs.String("user", "", "user identifier to derive for")
	scope := fs.String("scope", "wallet", "derivation scope")
	index := fs.String("index", "0", "derivation index")
	fs.Parse(args)

	if *chain == "" || *user == "" {
		color.Red("❌ -chain and -user are required")
		os.Exit(1)
	}

	seed, err := loadSeed()
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	sdk := wallet.NewSDK(seed, wallet.Options{Logger: newLogger()})
	defer sdk.Shutdown(context.Background())
	registerChains(sdk, "")

	tag := config.ChainTag(*chain)
	if !sdk.HasChain(tag) {
		color.Red("❌ unsupported chain: %s", *chain)
		os.Exit(1)
	}

	addr, err := sdk.DeriveAddress(context.Background(), *scope, *user, tag, *index)
	if err != nil {
		color.Red("❌ derivation failed: %v", err)
		os.Exit(1)
	}

	fmt.Println(aurora.Green("✓ address derived"))
	fmt.Printf("  chain:   %s\n", tag)
	fmt.Printf("  user:    %s\n", *user)
	fmt.Printf("  index:   %s\n", *index)
	fmt.Printf("  address: %s\n", aurora.Bold(addr))
}

func runBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	chain := fs.String("chain", "", "chain tag")
	address := fs.String("address", "", "address to query")
	rpcURL := fs.String("rpc", "", "JSON-RPC endpoint (required for EVM chains)")
	fs.Parse(args)

	if *chain == "" || *address == "" {
		color.Red("❌ -chain and -address are required")
		os.Exit(1)
	}

	seed, err := loadSeed()
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	sdk := wallet.NewSDK(seed, wallet.Options{Logger: newLogger()})
	defer sdk.Shutdown(context.Background())
	registerChains(sdk, *rpcURL)

	tag := config.ChainTag(*chain)
	if !sdk.HasChain(tag) {
		color.Red("❌ unsupported chain: %s", *chain)
		os.Exit(1)
	}

	bal, err := sdk.Balance(context.Background(), tag, *address)
	if err != nil {
		color.Red("❌ balance lookup failed: %v", err)
		os.Exit(1)
	}

	fmt.Println(aurora.Green("✓ balance"))
	fmt.Printf("  chain:   %s\n", tag)
	fmt.Printf("  address: %s\n", *address)
	fmt.Printf("  amount:  %s\n", aurora.Bold(bal.String()))
}

func runChains() {
	catalog := config.NewCatalog()
	fmt.Println(aurora.Bold("Supported chains:"))
	for _, tag := range config.AllChains {
		meta, ok := catalog.Get(tag)
		if !ok {
			continue
		}
		fmt.Printf("  %-10s %-10s decimals=%d\n", meta.Tag, meta.Ticker, meta.Decimals)
	}
}
