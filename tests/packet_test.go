package tests

import (
	"path"
	"testing"

	"github.com/dataregnet/datareg-contract/common"
	"github.com/dataregnet/datareg-contract/packet"
	istorage "github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const packetPath = "../packet"

type packetTestEnv struct {
	exec      *neotest.Executor
	hash      util.Uint160
	tokenHash util.Uint160

	admin neotest.Signer
	pool  neotest.Signer
	owner neotest.Signer

	adminInv *neotest.ContractInvoker
	poolInv  *neotest.ContractInvoker
	token    *neotest.ContractInvoker
}

func newPacketEnv(t *testing.T) *packetTestEnv {
	e := newExecutor(t)
	tokenHash := deployUnitTokenContract(t, e)

	admin := e.NewAccount(t)
	pool := e.NewAccount(t)
	owner := e.NewAccount(t)

	c := neotest.CompileFile(t, e.CommitteeHash, packetPath, path.Join(packetPath, "config.yml"))
	e.DeployContract(t, c, []any{tokenHash, pool.ScriptHash(), admin.ScriptHash()})

	return &packetTestEnv{
		exec:      e,
		hash:      c.Hash,
		tokenHash: tokenHash,
		admin:     admin,
		pool:      pool,
		owner:     owner,
		adminInv:  e.NewInvoker(c.Hash, admin),
		poolInv:   e.NewInvoker(c.Hash, pool),
		token:     e.CommitteeInvoker(tokenHash),
	}
}

// fundPool mints units to the reward pool account and approves the Packet
// contract to spend them.
func (env *packetTestEnv) fundPool(t *testing.T, balance, allowance int64) {
	env.token.Invoke(t, stackitem.Null{}, "mint", env.pool.ScriptHash(), balance)
	env.exec.NewInvoker(env.tokenHash, env.pool).Invoke(t, stackitem.Null{}, "approve",
		env.pool.ScriptHash(), env.hash, allowance)
}

func (env *packetTestEnv) register(t *testing.T, id int64, dataHash []byte) {
	env.adminInv.Invoke(t, id, "register", env.owner.ScriptHash(), "dataset", dataHash, "csv")
}

func (env *packetTestEnv) getPacket(t *testing.T, id int64) []stackitem.Item {
	s, err := env.adminInv.TestInvoke(t, "get", id)
	require.NoError(t, err)
	fields, ok := s.Pop().Item().Value().([]stackitem.Item)
	require.True(t, ok)
	require.Len(t, fields, 9)
	return fields
}

// packet record field indices, see packet.Packet.
const (
	fieldID = iota
	fieldOwner
	fieldName
	fieldDataType
	fieldDataHash
	fieldCreatedAt
	fieldValidated
	fieldReward
	fieldTotalRewarded
)

func TestPacket_Version(t *testing.T) {
	env := newPacketEnv(t)
	env.adminInv.Invoke(t, common.Version, "version")
}

func TestPacket_Deploy(t *testing.T) {
	env := newPacketEnv(t)

	s, err := env.adminInv.TestInvoke(t, "administrator")
	require.NoError(t, err)
	require.Equal(t, env.admin.ScriptHash().BytesBE(), s.Pop().Bytes())

	s, err = env.adminInv.TestInvoke(t, "rewardPool")
	require.NoError(t, err)
	require.Equal(t, env.pool.ScriptHash().BytesBE(), s.Pop().Bytes())

	s, err = env.adminInv.TestInvoke(t, "unitTokenAddress")
	require.NoError(t, err)
	require.Equal(t, env.tokenHash.BytesBE(), s.Pop().Bytes())

	s, err = env.adminInv.TestInvoke(t, "deployedAt")
	require.NoError(t, err)
	require.NotZero(t, s.Pop().BigInt().Int64())
}

func TestPacket_Register(t *testing.T) {
	env := newPacketEnv(t)

	h1 := randomBytes(32)
	h2 := randomBytes(32)

	env.adminInv.InvokeFail(t, packet.ErrEmptyDataHash, "register",
		env.owner.ScriptHash(), "dataset", []byte{}, "csv")

	env.poolInv.InvokeFail(t, common.ErrAdminWitnessFailed, "register",
		env.owner.ScriptHash(), "dataset", h1, "csv")
	env.adminInv.Invoke(t, 0, "count")

	txHash := env.adminInv.Invoke(t, 1, "register", env.owner.ScriptHash(), "weather-march", h1, "csv")
	env.exec.CheckTxNotificationEvent(t, txHash, 0, state.NotificationEvent{
		ScriptHash: env.hash,
		Name:       "PacketAdded",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.NewByteArray(env.owner.ScriptHash().BytesBE()),
			stackitem.NewByteArray(h1),
			stackitem.Make("csv"),
		}),
	})
	env.adminInv.Invoke(t, 1, "count")

	fields := env.getPacket(t, 1)
	require.EqualValues(t, 1, fieldInt(t, fields, fieldID))
	require.Equal(t, env.owner.ScriptHash().BytesBE(), fieldBytes(t, fields, fieldOwner))
	require.Equal(t, []byte("weather-march"), fieldBytes(t, fields, fieldName))
	require.Equal(t, []byte("csv"), fieldBytes(t, fields, fieldDataType))
	require.Equal(t, h1, fieldBytes(t, fields, fieldDataHash))
	require.NotZero(t, fieldInt(t, fields, fieldCreatedAt))
	require.False(t, fieldBool(t, fields, fieldValidated))
	require.Zero(t, fieldInt(t, fields, fieldReward))
	require.Zero(t, fieldInt(t, fields, fieldTotalRewarded))

	t.Run("identifiers are monotonic", func(t *testing.T) {
		env.adminInv.Invoke(t, 2, "register", env.owner.ScriptHash(), "weather-april", h2, "json")
		env.adminInv.Invoke(t, 2, "count")
	})

	t.Run("duplicate data hash", func(t *testing.T) {
		other := env.exec.NewAccount(t)
		env.adminInv.InvokeFail(t, packet.ErrPacketExists, "register",
			other.ScriptHash(), "weather-copy", h1, "json")

		// the first registration stays untouched
		fields := env.getPacket(t, 1)
		require.Equal(t, env.owner.ScriptHash().BytesBE(), fieldBytes(t, fields, fieldOwner))
		require.Equal(t, []byte("weather-march"), fieldBytes(t, fields, fieldName))
		env.adminInv.Invoke(t, 2, "count")
	})
}

func TestPacket_Lookup(t *testing.T) {
	env := newPacketEnv(t)

	h1 := randomBytes(32)
	env.register(t, 1, h1)

	s, err := env.adminInv.TestInvoke(t, "lookupByHash", h1)
	require.NoError(t, err)
	fields, ok := s.Pop().Item().Value().([]stackitem.Item)
	require.True(t, ok)
	require.EqualValues(t, 1, fieldInt(t, fields, fieldID))
	require.Equal(t, h1, fieldBytes(t, fields, fieldDataHash))

	env.adminInv.InvokeFail(t, packet.ErrPacketNotFound, "lookupByHash", randomBytes(32))
	env.adminInv.InvokeFail(t, packet.ErrPacketNotFound, "get", int64(42))
}

func TestPacket_Packets(t *testing.T) {
	env := newPacketEnv(t)

	env.register(t, 1, randomBytes(32))
	env.register(t, 2, randomBytes(32))

	s, err := env.adminInv.TestInvoke(t, "packets")
	require.NoError(t, err)
	iter, ok := s.Pop().Value().(*istorage.Iterator)
	require.True(t, ok)

	items := iteratorToArray(iter)
	require.Len(t, items, 2)
	for i := range items {
		fields, ok := items[i].Value().([]stackitem.Item)
		require.True(t, ok)
		require.EqualValues(t, i+1, fieldInt(t, fields, fieldID))
	}
}

func TestPacket_SetValidated(t *testing.T) {
	env := newPacketEnv(t)

	env.register(t, 1, randomBytes(32))

	env.poolInv.InvokeFail(t, common.ErrAdminWitnessFailed, "setValidated", int64(1), true)
	env.adminInv.InvokeFail(t, packet.ErrPacketNotFound, "setValidated", int64(42), true)

	txHash := env.adminInv.Invoke(t, stackitem.Null{}, "setValidated", int64(1), true)
	env.exec.CheckTxNotificationEvent(t, txHash, 0, state.NotificationEvent{
		ScriptHash: env.hash,
		Name:       "PacketValidated",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(1),
			stackitem.Make(true),
		}),
	})
	require.True(t, fieldBool(t, env.getPacket(t, 1), fieldValidated))

	t.Run("invalidation zeroes pending reward", func(t *testing.T) {
		env.adminInv.Invoke(t, stackitem.Null{}, "setReward", int64(1), int64(100))
		require.EqualValues(t, 100, fieldInt(t, env.getPacket(t, 1), fieldReward))

		env.adminInv.Invoke(t, stackitem.Null{}, "setValidated", int64(1), false)

		fields := env.getPacket(t, 1)
		require.False(t, fieldBool(t, fields, fieldValidated))
		require.Zero(t, fieldInt(t, fields, fieldReward))
	})
}

func TestPacket_SetReward(t *testing.T) {
	env := newPacketEnv(t)

	env.register(t, 1, randomBytes(32))

	env.poolInv.InvokeFail(t, common.ErrAdminWitnessFailed, "setReward", int64(1), int64(100))

	// the amount is checked before packet resolution
	env.adminInv.InvokeFail(t, packet.ErrZeroReward, "setReward", int64(42), int64(0))
	env.adminInv.InvokeFail(t, packet.ErrPacketNotFound, "setReward", int64(42), int64(100))
	env.adminInv.InvokeFail(t, packet.ErrPacketNotValidated, "setReward", int64(1), int64(100))

	env.adminInv.Invoke(t, stackitem.Null{}, "setValidated", int64(1), true)

	txHash := env.adminInv.Invoke(t, stackitem.Null{}, "setReward", int64(1), int64(100))
	env.exec.CheckTxNotificationEvent(t, txHash, 0, state.NotificationEvent{
		ScriptHash: env.hash,
		Name:       "RewardSet",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(1),
			stackitem.Make(100),
		}),
	})
	require.EqualValues(t, 100, fieldInt(t, env.getPacket(t, 1), fieldReward))

	t.Run("repeated assignment overwrites", func(t *testing.T) {
		env.adminInv.Invoke(t, stackitem.Null{}, "setReward", int64(1), int64(70))
		require.EqualValues(t, 70, fieldInt(t, env.getPacket(t, 1), fieldReward))
	})
}

func TestPacket_Distribute(t *testing.T) {
	env := newPacketEnv(t)

	env.register(t, 1, randomBytes(32))
	env.register(t, 2, randomBytes(32))

	env.adminInv.InvokeFail(t, common.ErrRewardPoolWitnessFailed, "distribute", int64(1))
	env.poolInv.InvokeFail(t, packet.ErrPacketNotFound, "distribute", int64(42))
	env.poolInv.InvokeFail(t, packet.ErrPacketNotValidated, "distribute", int64(1))

	env.adminInv.Invoke(t, stackitem.Null{}, "setValidated", int64(1), true)
	env.poolInv.InvokeFail(t, packet.ErrZeroReward, "distribute", int64(1))

	env.adminInv.Invoke(t, stackitem.Null{}, "setReward", int64(1), int64(100))
	env.fundPool(t, 1000, 1000)

	txHash := env.poolInv.Invoke(t, stackitem.Null{}, "distribute", int64(1))
	// the unit token Transfer event comes first
	env.exec.CheckTxNotificationEvent(t, txHash, 1, state.NotificationEvent{
		ScriptHash: env.hash,
		Name:       "RewardDistributed",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.Make(1),
			stackitem.Make(100),
		}),
	})

	env.token.Invoke(t, 100, "balanceOf", env.owner.ScriptHash())
	env.token.Invoke(t, 900, "balanceOf", env.pool.ScriptHash())

	fields := env.getPacket(t, 1)
	require.EqualValues(t, 100, fieldInt(t, fields, fieldReward))
	require.EqualValues(t, 100, fieldInt(t, fields, fieldTotalRewarded))

	t.Run("repeated distribution accumulates", func(t *testing.T) {
		env.poolInv.Invoke(t, stackitem.Null{}, "distribute", int64(1))

		env.token.Invoke(t, 200, "balanceOf", env.owner.ScriptHash())
		require.EqualValues(t, 200, fieldInt(t, env.getPacket(t, 1), fieldTotalRewarded))
	})

	t.Run("declined transfer leaves state untouched", func(t *testing.T) {
		// drop the allowance below the pending reward
		env.exec.NewInvoker(env.tokenHash, env.pool).Invoke(t, stackitem.Null{}, "approve",
			env.pool.ScriptHash(), env.hash, int64(0))

		txHash := env.poolInv.Invoke(t, stackitem.Null{}, "distribute", int64(1))

		aer, err := env.exec.Chain.GetAppExecResults(txHash, trigger.Application)
		require.NoError(t, err)
		require.Len(t, aer, 1)
		require.Empty(t, aer[0].Events)

		env.token.Invoke(t, 200, "balanceOf", env.owner.ScriptHash())
		require.EqualValues(t, 200, fieldInt(t, env.getPacket(t, 1), fieldTotalRewarded))
	})

	t.Run("invalidation keeps distribution history", func(t *testing.T) {
		env.adminInv.Invoke(t, stackitem.Null{}, "setValidated", int64(1), false)

		fields := env.getPacket(t, 1)
		require.Zero(t, fieldInt(t, fields, fieldReward))
		require.EqualValues(t, 200, fieldInt(t, fields, fieldTotalRewarded))
	})
}

func TestPacket_TransferAdministration(t *testing.T) {
	env := newPacketEnv(t)

	newAdmin := env.exec.NewAccount(t)

	env.poolInv.InvokeFail(t, common.ErrAdminWitnessFailed, "transferAdministration", newAdmin.ScriptHash())

	txHash := env.adminInv.Invoke(t, stackitem.Null{}, "transferAdministration", newAdmin.ScriptHash())
	env.exec.CheckTxNotificationEvent(t, txHash, 0, state.NotificationEvent{
		ScriptHash: env.hash,
		Name:       "AdministratorChanged",
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.NewByteArray(env.admin.ScriptHash().BytesBE()),
			stackitem.NewByteArray(newAdmin.ScriptHash().BytesBE()),
		}),
	})

	s, err := env.adminInv.TestInvoke(t, "administrator")
	require.NoError(t, err)
	require.Equal(t, newAdmin.ScriptHash().BytesBE(), s.Pop().Bytes())

	// the previous administrator is locked out, the new one takes over
	env.adminInv.InvokeFail(t, common.ErrAdminWitnessFailed, "register",
		env.owner.ScriptHash(), "dataset", randomBytes(32), "csv")
	env.exec.NewInvoker(env.hash, newAdmin).Invoke(t, 1, "register",
		env.owner.ScriptHash(), "dataset", randomBytes(32), "csv")
}
