// Package config holds the closed set of supported chain tags, the
// per-chain descriptor (ChainConfig), and the default RPC endpoint catalog
// with its three-level override precedence: per-instance > process-wide >
// built-in default.
package config

import "sync"

// ChainTag is the closed set of chain identifiers the SDK accepts anywhere
// a DeriveParams.Chain or adapter lookup is required. It is a defined
// string type rather than a bare string so the compiler flags typos at
// call sites that use the Chain* constants.
type ChainTag string

const (
	ChainEthereum  ChainTag = "ethereum"
	ChainBSC       ChainTag = "bsc"
	ChainPolygon   ChainTag = "polygon"
	ChainAvalanche ChainTag = "avalanche"
	ChainArbitrum  ChainTag = "arbitrum"
	ChainOptimism  ChainTag = "optimism"
	ChainCronos    ChainTag = "cronos"
	ChainSonic     ChainTag = "sonic"
	ChainBase      ChainTag = "base"
	ChainBitcoin   ChainTag = "bitcoin"
	ChainSolana    ChainTag = "solana"
	ChainPolkadot  ChainTag = "polkadot"
	ChainCardano   ChainTag = "cardano"
	ChainAptos     ChainTag = "aptos"
	ChainSui       ChainTag = "sui"
	ChainTron      ChainTag = "tron"
	ChainTON       ChainTag = "ton"
	ChainNEAR      ChainTag = "near"
)

// AllChains enumerates the closed supported set in the order spec.md lists
// them. Anything not in this slice is rejected by IsSupported.
var AllChains = []ChainTag{
	ChainEthereum, ChainBSC, ChainPolygon, ChainAvalanche, ChainArbitrum,
	ChainOptimism, ChainCronos, ChainSonic, ChainBase,
	ChainBitcoin, ChainSolana, ChainPolkadot, ChainCardano,
	ChainAptos, ChainSui, ChainTron, ChainTON, ChainNEAR,
}

// IsSupported reports whether tag is a member of the closed chain set.
func IsSupported(tag ChainTag) bool {
	for _, c := range AllChains {
		if c == tag {
			return true
		}
	}
	return false
}

// Category classifies a chain's transaction/account model.
type Category string

const (
	CategoryEVM     Category = "evm"
	CategoryUTXO    Category = "utxo"
	CategoryAccount Category = "account"
	CategoryOther   Category = "other"
)

// FeeModel classifies how a chain prices transactions.
type FeeModel string

const (
	FeeModelFixed   FeeModel = "fixed"
	FeeModelDynamic FeeModel = "dynamic"
	FeeModelEIP1559 FeeModel = "eip1559"
)

// Endpoints bundles one chain's RPC surface.
type Endpoints struct {
	HTTP        string
	WebSocket   string // optional
	Explorer    string // optional
	ExplorerAPI string // optional
	ChainID     int64  // optional, EVM network id
}

// ChainConfig is the per-chain descriptor: display metadata plus its
// default endpoint set and fee model.
type ChainConfig struct {
	Tag           ChainTag
	DisplayName   string
	Ticker        string
	Decimals      int32
	Category      Category
	FeeModel      FeeModel
	DefaultEndpoints Endpoints
}

// defaults is the built-in endpoint catalog. Endpoints here are the
// well-known public entry points named in spec.md §6 (JSON-RPC for EVM,
// Blockstream REST for Bitcoin, etc.); operators are expected to override
// them with their own infrastructure via SetOverride / per-instance
// overrides before using the SDK against production traffic.
var defaults = map[ChainTag]ChainConfig{
	ChainEthereum: {Tag: ChainEthereum, DisplayName: "Ethereum", Ticker: "ETH", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://eth.llamarpc.com", WebSocket: "wss://eth.llamarpc.com", Explorer: "https://etherscan.io", ChainID: 1}},
	ChainBSC: {Tag: ChainBSC, DisplayName: "BNB Smart Chain", Ticker: "BNB", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://bsc-dataseed.binance.org", Explorer: "https://bscscan.com", ChainID: 56}},
	ChainPolygon: {Tag: ChainPolygon, DisplayName: "Polygon", Ticker: "POL", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://polygon-rpc.com", Explorer: "https://polygonscan.com", ChainID: 137}},
	ChainAvalanche: {Tag: ChainAvalanche, DisplayName: "Avalanche C-Chain", Ticker: "AVAX", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://api.avax.network/ext/bc/C/rpc", Explorer: "https://snowtrace.io", ChainID: 43114}},
	ChainArbitrum: {Tag: ChainArbitrum, DisplayName: "Arbitrum One", Ticker: "ETH", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://arb1.arbitrum.io/rpc", Explorer: "https://arbiscan.io", ChainID: 42161}},
	ChainOptimism: {Tag: ChainOptimism, DisplayName: "OP Mainnet", Ticker: "ETH", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://mainnet.optimism.io", Explorer: "https://optimistic.etherscan.io", ChainID: 10}},
	ChainCronos: {Tag: ChainCronos, DisplayName: "Cronos", Ticker: "CRO", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://evm.cronos.org", Explorer: "https://cronoscan.com", ChainID: 25}},
	ChainSonic: {Tag: ChainSonic, DisplayName: "Sonic", Ticker: "S", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://rpc.soniclabs.com", Explorer: "https://sonicscan.org", ChainID: 146}},
	ChainBase: {Tag: ChainBase, DisplayName: "Base", Ticker: "ETH", Decimals: 18, Category: CategoryEVM, FeeModel: FeeModelEIP1559,
		DefaultEndpoints: Endpoints{HTTP: "https://mainnet.base.org", Explorer: "https://basescan.org", ChainID: 8453}},

	ChainBitcoin: {Tag: ChainBitcoin, DisplayName: "Bitcoin", Ticker: "BTC", Decimals: 8, Category: CategoryUTXO, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://blockstream.info/api", Explorer: "https://blockstream.info"}},

	ChainSolana: {Tag: ChainSolana, DisplayName: "Solana", Ticker: "SOL", Decimals: 9, Category: CategoryAccount, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://api.mainnet-beta.solana.com", WebSocket: "wss://api.mainnet-beta.solana.com", Explorer: "https://explorer.solana.com"}},

	ChainPolkadot: {Tag: ChainPolkadot, DisplayName: "Polkadot", Ticker: "DOT", Decimals: 10, Category: CategoryOther, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://rpc.polkadot.io", Explorer: "https://polkadot.subscan.io"}},

	ChainCardano: {Tag: ChainCardano, DisplayName: "Cardano", Ticker: "ADA", Decimals: 6, Category: CategoryOther, FeeModel: FeeModelFixed,
		DefaultEndpoints: Endpoints{HTTP: "https://cardano-mainnet.blockfrost.io/api/v0", Explorer: "https://cardanoscan.io"}},

	ChainAptos: {Tag: ChainAptos, DisplayName: "Aptos", Ticker: "APT", Decimals: 8, Category: CategoryAccount, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://fullnode.mainnet.aptoslabs.com/v1", Explorer: "https://explorer.aptoslabs.com"}},

	ChainSui: {Tag: ChainSui, DisplayName: "Sui", Ticker: "SUI", Decimals: 9, Category: CategoryAccount, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://fullnode.mainnet.sui.io:443", Explorer: "https://suiexplorer.com"}},

	ChainTron: {Tag: ChainTron, DisplayName: "Tron", Ticker: "TRX", Decimals: 6, Category: CategoryAccount, FeeModel: FeeModelFixed,
		DefaultEndpoints: Endpoints{HTTP: "https://api.trongrid.io", Explorer: "https://tronscan.org"}},

	ChainTON: {Tag: ChainTON, DisplayName: "TON", Ticker: "TON", Decimals: 9, Category: CategoryAccount, FeeModel: FeeModelDynamic,
		DefaultEndpoints: Endpoints{HTTP: "https://toncenter.com/api/v2", Explorer: "https://tonscan.org"}},

	ChainNEAR: {Tag: ChainNEAR, DisplayName: "NEAR", Ticker: "NEAR", Decimals: 24, Category: CategoryAccount, FeeModel: FeeModelFixed,
		DefaultEndpoints: Endpoints{HTTP: "https://rpc.mainnet.near.org", Explorer: "https://nearblocks.io"}},
}

// processOverrides holds process-wide endpoint replacements installed via
// SetOverride. spec.md flags this as a design smell ("recommended to scope
// overrides to the SDK instance") — it is kept for fidelity but Catalog
// always checks instance-level overrides first.
var (
	processMu        sync.RWMutex
	processOverrides = map[ChainTag]Endpoints{}
)

// SetOverride replaces the default endpoints for tag, process-wide, for the
// remainder of the process lifetime. Prefer Catalog.WithInstanceOverride
// for new code.
func SetOverride(tag ChainTag, ep Endpoints) {
	processMu.Lock()
	defer processMu.Unlock()
	processOverrides[tag] = ep
}

// ClearOverrides removes all process-wide overrides. Exposed mainly for
// test isolation between SDK instances sharing a process.
func ClearOverrides() {
	processMu.Lock()
	defer processMu.Unlock()
	processOverrides = map[ChainTag]Endpoints{}
}

// Catalog resolves ChainConfig lookups with three-level precedence:
// instance override > process-wide override > built-in default.
type Catalog struct {
	mu       sync.RWMutex
	instance map[ChainTag]Endpoints
}

// NewCatalog creates a Catalog with no instance overrides set.
func NewCatalog() *Catalog {
	return &Catalog{instance: map[ChainTag]Endpoints{}}
}

// WithInstanceOverride installs an endpoint override scoped to this
// Catalog (and therefore to one SDK instance), taking precedence over both
// process-wide overrides and defaults.
func (c *Catalog) WithInstanceOverride(tag ChainTag, ep Endpoints) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instance[tag] = ep
}

// Get resolves the effective ChainConfig for tag, or false if tag is not in
// the closed supported set.
func (c *Catalog) Get(tag ChainTag) (ChainConfig, bool) {
	base, ok := defaults[tag]
	if !ok {
		return ChainConfig{}, false
	}

	c.mu.RLock()
	instanceEP, hasInstance := c.instance[tag]
	c.mu.RUnlock()

	if hasInstance {
		base.DefaultEndpoints = instanceEP
		return base, true
	}

	processMu.RLock()
	processEP, hasProcess := processOverrides[tag]
	processMu.RUnlock()
	if hasProcess {
		base.DefaultEndpoints = processEP
	}
	return base, true
}
