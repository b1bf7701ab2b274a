package chain

import (
	"context"
	"crypto/ecdsa"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

//go:embed identity_registry.abi.json
var identityRegistryABI string

// ErrMintEventNotFound is returned when a confirmed registration carries no
// Transfer from the zero address
var ErrMintEventNotFound = errors.New("mint event not found in receipt")

// transferTopic is keccak256("Transfer(address,address,uint256)")
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Receipt describes a confirmed identity mint
type Receipt struct {
	ChainID  int64
	Contract common.Address
	TokenID  *big.Int
	TxHash   common.Hash
}

// Issuer mints identity tokens
type Issuer interface {
	Mint(ctx context.Context, tokenURI string) (*Receipt, error)
	// Account is the signer address, empty when unconfigured
	Account() string
}

// Minter registers identities on an ERC-8004 identity registry
type Minter struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// Dial connects to the RPC endpoint and prepares the registry binding
func Dial(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (*Minter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, apperr.Configuration("IDENTITY_CONTRACT_ADDRESS is not a valid address: %q", cfg.ContractAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryConfiguration, "SIGNER_PRIVATE_KEY is invalid", err)
	}

	parsed, err := abi.JSON(strings.NewReader(identityRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parse identity registry abi: %w", err)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryConfiguration, "failed to dial chain rpc", err)
	}

	address := common.HexToAddress(cfg.ContractAddress)
	m := &Minter{
		client:   client,
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		address:  address,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(cfg.ChainID),
		logger:   logger,
	}

	logger.Info("Identity issuer ready",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("contract", address.Hex()),
		zap.String("account", m.from.Hex()),
	)
	return m, nil
}

// WithMetrics attaches a metrics collector
func (m *Minter) WithMetrics(metrics *monitoring.Metrics) *Minter {
	m.metrics = metrics
	return m
}

// Account returns the signer address
func (m *Minter) Account() string {
	return m.from.Hex()
}

// Close releases the RPC connection
func (m *Minter) Close() {
	m.client.Close()
}

// Mint submits register(tokenURI), waits for the receipt and returns the id
// of the minted token. Failures are not retried.
func (m *Minter) Mint(ctx context.Context, tokenURI string) (*Receipt, error) {
	timer := monitoring.NewTimer()

	opts, err := bind.NewKeyedTransactorWithChainID(m.key, m.chainID)
	if err != nil {
		timer.ObserveMint(m.metrics, "error")
		return nil, apperr.Wrap(apperr.CategoryConfiguration, "failed to build transactor", err)
	}
	opts.Context = ctx

	tx, err := m.contract.Transact(opts, "register", tokenURI)
	if err != nil {
		timer.ObserveMint(m.metrics, "error")
		return nil, apperr.Wrap(apperr.CategorySync, "identity registration failed", err)
	}
	m.logger.Info("Identity registration submitted", zap.String("tx", tx.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, m.client, tx)
	if err != nil {
		timer.ObserveMint(m.metrics, "error")
		return nil, apperr.Wrap(apperr.CategorySync, "waiting for registration receipt", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		timer.ObserveMint(m.metrics, "reverted")
		return nil, apperr.Newf(apperr.CategorySync, "identity registration reverted: tx %s", tx.Hash().Hex())
	}

	tokenID, err := mintedTokenID(receipt.Logs, m.address)
	if err != nil {
		timer.ObserveMint(m.metrics, "no_event")
		return nil, apperr.Wrap(apperr.CategorySync, "identity registration confirmed without mint", err)
	}

	timer.ObserveMint(m.metrics, "success")
	m.logger.Info("Identity minted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("token_id", tokenID.String()),
		zap.Duration("elapsed", timer.Elapsed().Round(time.Millisecond)),
	)

	return &Receipt{
		ChainID:  m.chainID.Int64(),
		Contract: m.address,
		TokenID:  tokenID,
		TxHash:   tx.Hash(),
	}, nil
}

// mintedTokenID returns the token id of the first ERC-721 Transfer emitted
// by contract with a zero from address
func mintedTokenID(logs []*types.Log, contract common.Address) (*big.Int, error) {
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) != 4 {
			continue
		}
		if l.Topics[0] != transferTopic {
			continue
		}
		if common.BytesToAddress(l.Topics[1].Bytes()) != (common.Address{}) {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[3].Bytes()), nil
	}
	return nil, ErrMintEventNotFound
}

// Disabled is an Issuer that fails every mint with a configuration error
type Disabled struct {
	Err error
}

// Mint returns the configuration error
func (d Disabled) Mint(context.Context, string) (*Receipt, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return nil, apperr.Configuration("identity issuance is not configured")
}

// Account returns an empty address
func (d Disabled) Account() string {
	return ""
}
