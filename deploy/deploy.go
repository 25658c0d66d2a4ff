// Package deploy provides DataReg contract deployment routine.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for DataReg contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to the
	// blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// UnitTokenContractPrm groups deployment parameters of the Unit Token contract.
type UnitTokenContractPrm struct {
	Common CommonDeployPrm
}

// PacketContractPrm groups deployment parameters of the Packet contract.
type PacketContractPrm struct {
	Common CommonDeployPrm

	// Account allowed to register packets, toggle validation and assign
	// rewards.
	Administrator util.Uint160

	// Account rewards are paid from. It is expected to approve an allowance
	// for the Packet contract in the Unit Token contract before the first
	// distribution.
	RewardPool util.Uint160
}

// Prm groups all parameters of the DataReg deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	LocalAccount *wallet.Account

	UnitTokenContract UnitTokenContractPrm
	PacketContract    PacketContractPrm
}

// Contracts groups addresses of the deployed DataReg contracts.
type Contracts struct {
	UnitToken util.Uint160
	Packet    util.Uint160
}

// Deploy deploys DataReg contracts to the Neo network represented by given
// Prm.Blockchain. The Unit Token contract goes first since the Packet
// contract is initialized with its address.
//
// Deploy is idempotent: a contract already present on the chain at the
// address expected for the local account is left as is.
func Deploy(ctx context.Context, prm Prm) (Contracts, error) {
	var res Contracts

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	localActor, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return res, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	mgmt := management.New(localActor)

	prm.Logger.Info("synchronizing Unit Token contract with the chain...")

	res.UnitToken, err = syncContract(ctx, syncContractPrm{
		logger:        prm.Logger,
		blockchain:    prm.Blockchain,
		localActor:    localActor,
		mgmtContract:  mgmt,
		localNEF:      prm.UnitTokenContract.Common.NEF,
		localManifest: prm.UnitTokenContract.Common.Manifest,
		deployArgs:    nil,
	})
	if err != nil {
		return res, fmt.Errorf("sync Unit Token contract with the chain: %w", err)
	}

	prm.Logger.Info("Unit Token contract successfully synchronized", zap.Stringer("address", res.UnitToken))

	if prm.PacketContract.Administrator.Equals(util.Uint160{}) {
		return res, errors.New("missing administrator account for the Packet contract")
	}
	if prm.PacketContract.RewardPool.Equals(util.Uint160{}) {
		return res, errors.New("missing reward pool account for the Packet contract")
	}

	prm.Logger.Info("synchronizing Packet contract with the chain...")

	res.Packet, err = syncContract(ctx, syncContractPrm{
		logger:        prm.Logger,
		blockchain:    prm.Blockchain,
		localActor:    localActor,
		mgmtContract:  mgmt,
		localNEF:      prm.PacketContract.Common.NEF,
		localManifest: prm.PacketContract.Common.Manifest,
		deployArgs: []any{
			res.UnitToken,
			prm.PacketContract.RewardPool,
			prm.PacketContract.Administrator,
		},
	})
	if err != nil {
		return res, fmt.Errorf("sync Packet contract with the chain: %w", err)
	}

	prm.Logger.Info("Packet contract successfully synchronized", zap.Stringer("address", res.Packet))

	return res, nil
}

type syncContractPrm struct {
	logger        *zap.Logger
	blockchain    Blockchain
	localActor    *actor.Actor
	mgmtContract  *management.Contract
	localNEF      nef.File
	localManifest manifest.Manifest
	deployArgs    []any
}

// syncContract deploys the contract if it is not yet on the chain. The
// address is a function of the deploying account, so a repeated run against
// the same chain finds the previously deployed contract and does nothing.
func syncContract(ctx context.Context, prm syncContractPrm) (util.Uint160, error) {
	if err := ctx.Err(); err != nil {
		return util.Uint160{}, fmt.Errorf("wait for sync of contract '%s': %w", prm.localManifest.Name, err)
	}

	onChainAddress := state.CreateContractHash(prm.localActor.Sender(), prm.localNEF.Checksum, prm.localManifest.Name)

	stateOnChain, err := prm.blockchain.GetContractStateByHash(onChainAddress)
	if err == nil {
		prm.logger.Info("contract is already on the chain",
			zap.String("name", stateOnChain.Manifest.Name), zap.Stringer("address", onChainAddress))
		return onChainAddress, nil
	}
	if !strings.Contains(err.Error(), "Unknown contract") {
		return util.Uint160{}, fmt.Errorf("read on-chain state of the contract by address: %w", err)
	}

	prm.logger.Info("contract is missing on the chain, deploying...",
		zap.String("name", prm.localManifest.Name))

	var deployArgs any
	if prm.deployArgs != nil {
		deployArgs = prm.deployArgs
	}

	txID, vub, err := prm.mgmtContract.Deploy(&prm.localNEF, &prm.localManifest, deployArgs)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("send transaction deploying the contract: %w", err)
	}

	prm.logger.Info("transaction deploying the contract has been successfully sent, waiting...",
		zap.String("name", prm.localManifest.Name), zap.Stringer("tx", txID), zap.Uint32("vub", vub))

	aer, err := prm.localActor.Wait(txID, vub, nil)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("wait for deploy transaction to be accepted: %w", err)
	}
	if aer.VMState != vmstate.Halt {
		return util.Uint160{}, fmt.Errorf("deploy transaction faulted: %s", aer.FaultException)
	}

	prm.logger.Info("contract has been successfully deployed",
		zap.String("name", prm.localManifest.Name), zap.Stringer("address", onChainAddress))

	return onChainAddress, nil
}
