// Package packet contains RPC wrappers for DataReg Packet contract.
package packet

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Packet is a contract-specific packet.Packet type used by its methods.
type Packet struct {
	ID            *big.Int
	Owner         util.Uint160
	Name          string
	DataType      string
	DataHash      []byte
	CreatedAt     *big.Int
	Validated     bool
	Reward        *big.Int
	TotalRewarded *big.Int
}

// PacketAddedEvent represents "PacketAdded" event emitted by the contract.
type PacketAddedEvent struct {
	Owner    util.Uint160
	DataHash []byte
	DataType string
}

// PacketValidatedEvent represents "PacketValidated" event emitted by the contract.
type PacketValidatedEvent struct {
	ID      *big.Int
	IsValid bool
}

// RewardSetEvent represents "RewardSet" event emitted by the contract.
type RewardSetEvent struct {
	ID     *big.Int
	Reward *big.Int
}

// RewardDistributedEvent represents "RewardDistributed" event emitted by the contract.
type RewardDistributedEvent struct {
	ID     *big.Int
	Reward *big.Int
}

// AdministratorChangedEvent represents "AdministratorChanged" event emitted by the contract.
type AdministratorChangedEvent struct {
	Old util.Uint160
	New util.Uint160
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Administrator invokes `administrator` method of contract.
func (c *ContractReader) Administrator() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "administrator"))
}

// Count invokes `count` method of contract.
func (c *ContractReader) Count() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "count"))
}

// DeployedAt invokes `deployedAt` method of contract.
func (c *ContractReader) DeployedAt() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "deployedAt"))
}

// Get invokes `get` method of contract.
func (c *ContractReader) Get(id *big.Int) (*Packet, error) {
	return itemToPacket(unwrap.Item(c.invoker.Call(c.hash, "get", id)))
}

// LookupByHash invokes `lookupByHash` method of contract. A hash with no
// registered packet makes the invocation fault with the "packet not found"
// message, which surfaces here as an error.
func (c *ContractReader) LookupByHash(dataHash []byte) (*Packet, error) {
	return itemToPacket(unwrap.Item(c.invoker.Call(c.hash, "lookupByHash", dataHash)))
}

// Packets invokes `packets` method of contract.
func (c *ContractReader) Packets() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "packets"))
}

// PacketsExpanded is similar to Packets (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) PacketsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "packets", _numOfIteratorItems))
}

// RewardPool invokes `rewardPool` method of contract.
func (c *ContractReader) RewardPool() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "rewardPool"))
}

// UnitTokenAddress invokes `unitTokenAddress` method of contract.
func (c *ContractReader) UnitTokenAddress() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "unitTokenAddress"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Register creates a transaction invoking `register` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Register(owner util.Uint160, name string, dataHash []byte, dataType string) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "register", owner, name, dataHash, dataType)
}

// RegisterTransaction creates a transaction invoking `register` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) RegisterTransaction(owner util.Uint160, name string, dataHash []byte, dataType string) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "register", owner, name, dataHash, dataType)
}

// RegisterUnsigned creates a transaction invoking `register` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) RegisterUnsigned(owner util.Uint160, name string, dataHash []byte, dataType string) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "register", nil, owner, name, dataHash, dataType)
}

// SetValidated creates a transaction invoking `setValidated` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetValidated(id *big.Int, isValid bool) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setValidated", id, isValid)
}

// SetValidatedTransaction creates a transaction invoking `setValidated` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SetValidatedTransaction(id *big.Int, isValid bool) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "setValidated", id, isValid)
}

// SetValidatedUnsigned creates a transaction invoking `setValidated` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SetValidatedUnsigned(id *big.Int, isValid bool) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "setValidated", nil, id, isValid)
}

// SetReward creates a transaction invoking `setReward` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetReward(id *big.Int, amount *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setReward", id, amount)
}

// SetRewardTransaction creates a transaction invoking `setReward` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SetRewardTransaction(id *big.Int, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "setReward", id, amount)
}

// SetRewardUnsigned creates a transaction invoking `setReward` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SetRewardUnsigned(id *big.Int, amount *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "setReward", nil, id, amount)
}

// Distribute creates a transaction invoking `distribute` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Distribute(id *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "distribute", id)
}

// DistributeTransaction creates a transaction invoking `distribute` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) DistributeTransaction(id *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "distribute", id)
}

// DistributeUnsigned creates a transaction invoking `distribute` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) DistributeUnsigned(id *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "distribute", nil, id)
}

// TransferAdministration creates a transaction invoking `transferAdministration` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) TransferAdministration(newAdmin util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "transferAdministration", newAdmin)
}

// TransferAdministrationTransaction creates a transaction invoking `transferAdministration` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) TransferAdministrationTransaction(newAdmin util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "transferAdministration", newAdmin)
}

// TransferAdministrationUnsigned creates a transaction invoking `transferAdministration` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) TransferAdministrationUnsigned(newAdmin util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "transferAdministration", nil, newAdmin)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", nefFile, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(nefFile []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, nefFile, manifest, data)
}

// itemToPacket converts stack item into *Packet.
func itemToPacket(item stackitem.Item, err error) (*Packet, error) {
	if err != nil {
		return nil, err
	}
	var res = new(Packet)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of Packet from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *Packet) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 9 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	res.ID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field ID: %w", err)
	}

	index++
	res.Owner, err = uint160FromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	index++
	res.Name, err = stringFromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field Name: %w", err)
	}

	index++
	res.DataType, err = stringFromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field DataType: %w", err)
	}

	index++
	res.DataHash, err = arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field DataHash: %w", err)
	}

	index++
	res.CreatedAt, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field CreatedAt: %w", err)
	}

	index++
	res.Validated, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Validated: %w", err)
	}

	index++
	res.Reward, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Reward: %w", err)
	}

	index++
	res.TotalRewarded, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field TotalRewarded: %w", err)
	}

	return nil
}

// PacketAddedEventsFromApplicationLog retrieves a set of all emitted events
// with "PacketAdded" name from the provided [result.ApplicationLog].
func PacketAddedEventsFromApplicationLog(log *result.ApplicationLog) ([]*PacketAddedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*PacketAddedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "PacketAdded" {
				continue
			}
			event := new(PacketAddedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize PacketAddedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to PacketAddedEvent or
// returns an error if it's not possible to do to so.
func (e *PacketAddedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.Owner, err = uint160FromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	index++
	e.DataHash, err = arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field DataHash: %w", err)
	}

	index++
	e.DataType, err = stringFromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field DataType: %w", err)
	}

	return nil
}

// PacketValidatedEventsFromApplicationLog retrieves a set of all emitted events
// with "PacketValidated" name from the provided [result.ApplicationLog].
func PacketValidatedEventsFromApplicationLog(log *result.ApplicationLog) ([]*PacketValidatedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*PacketValidatedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "PacketValidated" {
				continue
			}
			event := new(PacketValidatedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize PacketValidatedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to PacketValidatedEvent or
// returns an error if it's not possible to do to so.
func (e *PacketValidatedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.ID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field ID: %w", err)
	}

	index++
	e.IsValid, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field IsValid: %w", err)
	}

	return nil
}

// RewardSetEventsFromApplicationLog retrieves a set of all emitted events
// with "RewardSet" name from the provided [result.ApplicationLog].
func RewardSetEventsFromApplicationLog(log *result.ApplicationLog) ([]*RewardSetEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*RewardSetEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "RewardSet" {
				continue
			}
			event := new(RewardSetEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize RewardSetEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to RewardSetEvent or
// returns an error if it's not possible to do to so.
func (e *RewardSetEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.ID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field ID: %w", err)
	}

	index++
	e.Reward, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Reward: %w", err)
	}

	return nil
}

// RewardDistributedEventsFromApplicationLog retrieves a set of all emitted events
// with "RewardDistributed" name from the provided [result.ApplicationLog].
func RewardDistributedEventsFromApplicationLog(log *result.ApplicationLog) ([]*RewardDistributedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*RewardDistributedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "RewardDistributed" {
				continue
			}
			event := new(RewardDistributedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize RewardDistributedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to RewardDistributedEvent or
// returns an error if it's not possible to do to so.
func (e *RewardDistributedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.ID, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field ID: %w", err)
	}

	index++
	e.Reward, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Reward: %w", err)
	}

	return nil
}

// AdministratorChangedEventsFromApplicationLog retrieves a set of all emitted events
// with "AdministratorChanged" name from the provided [result.ApplicationLog].
func AdministratorChangedEventsFromApplicationLog(log *result.ApplicationLog) ([]*AdministratorChangedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*AdministratorChangedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "AdministratorChanged" {
				continue
			}
			event := new(AdministratorChangedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize AdministratorChangedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to AdministratorChangedEvent or
// returns an error if it's not possible to do to so.
func (e *AdministratorChangedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	e.Old, err = uint160FromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field Old: %w", err)
	}

	index++
	e.New, err = uint160FromItem(arr[index])
	if err != nil {
		return fmt.Errorf("field New: %w", err)
	}

	return nil
}

func uint160FromItem(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}

func stringFromItem(item stackitem.Item) (string, error) {
	b, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("not a UTF-8 string")
	}
	return string(b), nil
}
