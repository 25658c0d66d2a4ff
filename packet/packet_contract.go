package packet

import (
	"github.com/dataregnet/datareg-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

type (
	// Packet is a registered unit of data with an owner, validation status
	// and reward accounting. Field order is the ABI of all methods
	// returning a packet.
	Packet struct {
		// Sequentially assigned identifier, starts at 1, never reused.
		ID int
		// Account the packet is registered for. Immutable.
		Owner interop.Hash160
		// Free-form descriptive name. Immutable.
		Name string
		// Free-form data type descriptor. Immutable.
		DataType string
		// Content fingerprint, unique across all packets. Immutable.
		DataHash []byte
		// Block timestamp of registration. Immutable.
		CreatedAt int
		// Validation flag, administrator-controlled.
		Validated bool
		// Pending per-distribution reward. Zeroed on invalidation.
		Reward int
		// Sum of all units ever distributed for this packet.
		TotalRewarded int
	}
)

const (
	// ErrPacketExists is thrown on registration when the data hash is
	// already indexed.
	ErrPacketExists = "packet already exists"
	// ErrPacketNotFound is thrown when the referenced packet id or data
	// hash is not registered.
	ErrPacketNotFound = "packet not found"
	// ErrPacketNotValidated is thrown on reward operations over a packet
	// that is not currently validated.
	ErrPacketNotValidated = "packet not validated"
	// ErrZeroReward is thrown when the reward amount to set is zero or a
	// distribution is attempted with no pending reward.
	ErrZeroReward = "reward must be non-zero"
	// ErrInvalidOwner is thrown when owner has invalid format.
	ErrInvalidOwner = "invalid owner"
	// ErrEmptyDataHash is thrown on registration with an empty data hash.
	ErrEmptyDataHash = "empty data hash"
)

const (
	adminKey      = 'a'
	rewardPoolKey = 'r'
	unitTokenKey  = 'l'
	counterKey    = 'c'
	deployedAtKey = 'd'

	packetPrefix = 'p'
	hashPrefix   = 'h'
)

// nolint:deadcode,unused
func _deploy(data interface{}, isUpdate bool) {
	ctx := storage.GetContext()

	if isUpdate {
		args := data.([]interface{})
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		unitToken  interop.Hash160
		rewardPool interop.Hash160
		admin      interop.Hash160
	})

	if len(args.unitToken) != interop.Hash160Len ||
		len(args.rewardPool) != interop.Hash160Len ||
		len(args.admin) != interop.Hash160Len {
		panic("incorrect length of contract script hash")
	}

	storage.Put(ctx, unitTokenKey, args.unitToken)
	storage.Put(ctx, rewardPoolKey, args.rewardPool)
	storage.Put(ctx, adminKey, args.admin)
	storage.Put(ctx, deployedAtKey, runtime.GetTime())

	runtime.Log("packet contract initialized")
}

// Update method updates contract source code and manifest. It can be
// invoked only by committee.
func Update(nefFile, manifest []byte, data interface{}) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("packet contract updated")
}

// Register creates a new packet record owned by the specified account. It
// can be invoked only by the administrator. The data hash must not be
// registered yet; there is exactly one live packet per hash, forever. The
// new packet is stored with an unset validation flag and zero reward
// accounting, and the assigned identifier is returned.
//
// It produces PacketAdded notification.
func Register(owner interop.Hash160, name string, dataHash []byte, dataType string) int {
	if len(owner) != interop.Hash160Len {
		panic(ErrInvalidOwner)
	}
	if len(dataHash) == 0 {
		panic(ErrEmptyDataHash)
	}

	ctx := storage.GetContext()
	common.CheckAdministratorWitness(administrator(ctx))

	hKey := append([]byte{hashPrefix}, dataHash...)
	if storage.Get(ctx, hKey) != nil {
		panic(ErrPacketExists)
	}

	id := common.GetIntOrZero(ctx, counterKey) + 1

	p := Packet{
		ID:            id,
		Owner:         owner,
		Name:          name,
		DataType:      dataType,
		DataHash:      dataHash,
		CreatedAt:     runtime.GetTime(),
		Validated:     false,
		Reward:        0,
		TotalRewarded: 0,
	}

	common.SetSerialized(ctx, packetKey(id), p)
	storage.Put(ctx, hKey, id)
	storage.Put(ctx, counterKey, id)

	runtime.Notify("PacketAdded", owner, dataHash, dataType)

	return id
}

// LookupByHash resolves the data hash through the dedup index and returns
// the full packet record. Open to any caller.
func LookupByHash(dataHash []byte) Packet {
	ctx := storage.GetReadOnlyContext()

	hKey := append([]byte{hashPrefix}, dataHash...)
	rawID := storage.Get(ctx, hKey)
	if rawID == nil {
		panic(ErrPacketNotFound)
	}

	return getPacket(ctx, rawID.(int))
}

// Get returns the packet record with the specified identifier.
func Get(id int) Packet {
	ctx := storage.GetReadOnlyContext()
	return getPacket(ctx, id)
}

// Count returns the number of registered packets. Packets are never
// deleted, so this equals the last assigned identifier.
func Count() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetIntOrZero(ctx, counterKey)
}

// Packets returns an iterator over all registered packet records in
// identifier order.
func Packets() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{packetPrefix}, storage.ValuesOnly|storage.DeserializeValues)
}

// SetValidated sets the validation flag of the packet. It can be invoked
// only by the administrator. Revoking validity unconditionally zeroes the
// pending reward; the total rewarded accumulator is kept as distribution
// history even after invalidation.
//
// It produces PacketValidated notification.
func SetValidated(id int, isValid bool) {
	ctx := storage.GetContext()
	common.CheckAdministratorWitness(administrator(ctx))

	p := getPacket(ctx, id)

	p.Validated = isValid
	if !isValid {
		p.Reward = 0
	}

	common.SetSerialized(ctx, packetKey(id), p)

	runtime.Notify("PacketValidated", id, isValid)
}

// SetReward overwrites the pending reward of a validated packet. It can be
// invoked only by the administrator. A repeated call replaces the pending
// value; distribution always consumes the value current at call time.
//
// It produces RewardSet notification.
func SetReward(id int, amount int) {
	ctx := storage.GetContext()
	common.CheckAdministratorWitness(administrator(ctx))

	if amount == 0 {
		panic(ErrZeroReward)
	}

	p := getPacket(ctx, id)
	if !p.Validated {
		panic(ErrPacketNotValidated)
	}

	p.Reward = amount
	common.SetSerialized(ctx, packetKey(id), p)

	runtime.Notify("RewardSet", id, amount)
}

// Distribute transfers the pending reward from the reward pool account to
// the packet owner through the Unit token contract. It can be invoked only
// by the reward pool principal. The packet must be validated and have a
// non-zero pending reward. The method is repeatable: every successful
// transfer adds the current reward to the packet's total.
//
// A declined transfer (insufficient pool balance or allowance) leaves all
// registry state untouched and emits nothing; retry policy is up to the
// caller.
//
// It produces RewardDistributed notification.
func Distribute(id int) {
	ctx := storage.GetContext()

	pool := rewardPool(ctx)
	common.CheckRewardPoolWitness(pool)

	p := getPacket(ctx, id)
	if !p.Validated {
		panic(ErrPacketNotValidated)
	}
	if p.Reward == 0 {
		panic(ErrZeroReward)
	}

	unitToken := storage.Get(ctx, unitTokenKey).(interop.Hash160)
	ok := contract.Call(unitToken, "transferAuthorized", contract.All,
		pool, p.Owner, p.Reward).(bool)
	if !ok {
		runtime.Log("distribute: unit token transfer declined")
		return
	}

	p.TotalRewarded = p.TotalRewarded + p.Reward
	common.SetSerialized(ctx, packetKey(id), p)

	runtime.Notify("RewardDistributed", id, p.Reward)
}

// TransferAdministration hands the administrator role over to another
// account. It can be invoked only by the current administrator.
//
// It produces AdministratorChanged notification.
func TransferAdministration(newAdmin interop.Hash160) {
	if len(newAdmin) != interop.Hash160Len {
		panic(ErrInvalidOwner)
	}

	ctx := storage.GetContext()
	admin := administrator(ctx)
	common.CheckAdministratorWitness(admin)

	storage.Put(ctx, adminKey, newAdmin)

	runtime.Notify("AdministratorChanged", interop.Hash160(admin), newAdmin)
}

// Administrator returns the account gating registration, validation and
// reward assignment.
func Administrator() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return administrator(ctx)
}

// RewardPool returns the account gating reward distribution and holding
// the reward funds.
func RewardPool() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return rewardPool(ctx)
}

// UnitTokenAddress returns the script hash of the Unit token contract the
// rewards are paid in.
func UnitTokenAddress() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, unitTokenKey).(interop.Hash160)
}

// DeployedAt returns the block timestamp of contract deployment. The value
// is informational, no contract behavior depends on it.
func DeployedAt() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, deployedAtKey).(int)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func administrator(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, adminKey).(interop.Hash160)
}

func rewardPool(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, rewardPoolKey).(interop.Hash160)
}

func packetKey(id int) []byte {
	var buf interface{} = id
	return append([]byte{packetPrefix}, buf.([]byte)...)
}

func getPacket(ctx storage.Context, id int) Packet {
	data := storage.Get(ctx, packetKey(id))
	if data == nil {
		panic(ErrPacketNotFound)
	}

	return std.Deserialize(data.([]byte)).(Packet)
}
