package unittoken

import (
	"github.com/dataregnet/datareg-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Token holds all token info.
type Token struct {
	// Ticker symbol
	Symbol string
	// Amount of decimals
	Decimals int
	// Storage key for circulation value
	CirculationKey string
}

const (
	symbol      = "UNIT"
	decimals    = 8
	circulation = "UnitCirculation"

	accPrefix       = 'a'
	allowancePrefix = 'w'
)

var token Token

func createToken() Token {
	return Token{
		Symbol:         symbol,
		Decimals:       decimals,
		CirculationKey: circulation,
	}
}

func init() {
	token = createToken()
}

// nolint:deadcode,unused
func _deploy(data interface{}, isUpdate bool) {
	if isUpdate {
		args := data.([]interface{})
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	runtime.Log("unit token contract initialized")
}

// Update method updates contract source code and manifest. It can be
// invoked only by committee.
func Update(nefFile, manifest []byte, data interface{}) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("unit token contract updated")
}

// Symbol is a NEP-17 standard method that returns the token symbol.
func Symbol() string {
	return token.Symbol
}

// Decimals is a NEP-17 standard method that returns precision of unit
// balances.
func Decimals() int {
	return token.Decimals
}

// TotalSupply is a NEP-17 standard method that returns the total amount of
// units in circulation.
func TotalSupply() int {
	ctx := storage.GetReadOnlyContext()
	return token.getSupply(ctx)
}

// BalanceOf is a NEP-17 standard method that returns the unit balance of
// the specified account.
func BalanceOf(account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return token.balanceOf(ctx, account)
}

// Transfer is a NEP-17 standard method that transfers units from one
// account to another. It can be invoked only by the account owner.
//
// It produces Transfer notification.
func Transfer(from, to interop.Hash160, amount int, data interface{}) bool {
	ctx := storage.GetContext()
	return token.transfer(ctx, from, to, amount)
}

// Approve sets (not adds) the amount the spender account is allowed to
// take from the owner's balance with TransferAuthorized. It can be invoked
// only by the owner. The spender is usually a contract, e.g. the Packet
// contract pulling reward payouts from the reward pool account.
//
// It produces Approval notification.
func Approve(owner, spender interop.Hash160, amount int) {
	if len(spender) != interop.Hash160Len {
		panic("invalid spender")
	}
	if amount < 0 {
		panic("negative allowance")
	}

	common.CheckOwnerWitness(owner)

	ctx := storage.GetContext()
	storage.Put(ctx, allowanceKey(owner, spender), amount)

	runtime.Notify("Approval", owner, spender, amount)
}

// Allowance returns the remaining amount the spender may take from the
// owner's balance.
func Allowance(owner, spender interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return common.GetIntOrZero(ctx, allowanceKey(owner, spender))
}

// TransferAuthorized transfers units from one account to another on behalf
// of a previously approved spender. The spender is the calling contract.
// The call is all-or-nothing: it returns false without any state change
// when the allowance or the sender balance is insufficient; otherwise the
// allowance is reduced along with the sender balance.
//
// It produces Transfer notification.
func TransferAuthorized(from, to interop.Hash160, amount int) bool {
	if len(from) != interop.Hash160Len || len(to) != interop.Hash160Len || amount < 0 {
		runtime.Log("transferAuthorized: bad arguments")
		return false
	}

	spender := runtime.GetCallingScriptHash()
	ctx := storage.GetContext()

	aKey := allowanceKey(from, spender)
	allowed := common.GetIntOrZero(ctx, aKey)
	if allowed < amount {
		runtime.Log("transferAuthorized: insufficient allowance")
		return false
	}

	balance := token.balanceOf(ctx, from)
	if balance < amount {
		runtime.Log("transferAuthorized: insufficient balance")
		return false
	}

	storage.Put(ctx, aKey, allowed-amount)
	token.move(ctx, from, to, amount)

	runtime.Notify("Transfer", from, to, amount)

	return true
}

// Mint transfers units to a user account from the empty account and
// increases the total supply. It can be invoked only by committee.
//
// It produces Transfer and Mint notifications.
func Mint(to interop.Hash160, amount int) {
	if !common.HasUpdateAccess() {
		panic("only committee can mint")
	}
	if len(to) != interop.Hash160Len || amount <= 0 {
		panic("invalid mint")
	}

	ctx := storage.GetContext()
	setBalance(ctx, to, token.balanceOf(ctx, to)+amount)
	storage.Put(ctx, token.CirculationKey, token.getSupply(ctx)+amount)

	runtime.Notify("Transfer", interop.Hash160(nil), to, amount)
	runtime.Notify("Mint", to, amount)
}

// Burn transfers units from a user account to the empty account and
// decreases the total supply. It can be invoked only by committee.
//
// It produces Transfer and Burn notifications.
func Burn(from interop.Hash160, amount int) {
	if !common.HasUpdateAccess() {
		panic("only committee can burn")
	}
	if len(from) != interop.Hash160Len || amount <= 0 {
		panic("invalid burn")
	}

	ctx := storage.GetContext()

	balance := token.balanceOf(ctx, from)
	if balance < amount {
		panic("insufficient balance to burn")
	}

	supply := token.getSupply(ctx)
	if supply < amount {
		panic("negative supply after burn")
	}

	setBalance(ctx, from, balance-amount)
	storage.Put(ctx, token.CirculationKey, supply-amount)

	runtime.Notify("Transfer", from, interop.Hash160(nil), amount)
	runtime.Notify("Burn", from, amount)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// getSupply gets the token totalSupply value from VM storage.
func (t Token) getSupply(ctx storage.Context) int {
	return common.GetIntOrZero(ctx, t.CirculationKey)
}

func (t Token) balanceOf(ctx storage.Context, holder interop.Hash160) int {
	return common.GetIntOrZero(ctx, accountKey(holder))
}

func (t Token) transfer(ctx storage.Context, from, to interop.Hash160, amount int) bool {
	if len(to) != interop.Hash160Len || amount < 0 || !isUsableAddress(from) {
		runtime.Log("transfer: bad arguments")
		return false
	}

	if t.balanceOf(ctx, from) < amount {
		runtime.Log("transfer: insufficient balance")
		return false
	}

	t.move(ctx, from, to, amount)

	runtime.Notify("Transfer", from, to, amount)

	return true
}

func (t Token) move(ctx storage.Context, from, to interop.Hash160, amount int) {
	setBalance(ctx, from, t.balanceOf(ctx, from)-amount)
	setBalance(ctx, to, t.balanceOf(ctx, to)+amount)
}

// isUsableAddress checks if the sender either witnessed the transaction or
// is the calling contract itself.
func isUsableAddress(addr interop.Hash160) bool {
	if len(addr) == interop.Hash160Len {
		if runtime.CheckWitness(addr) {
			return true
		}

		if common.BytesEqual(addr, runtime.GetCallingScriptHash()) {
			return true
		}
	}

	return false
}

func setBalance(ctx storage.Context, holder interop.Hash160, amount int) {
	key := accountKey(holder)
	if amount == 0 {
		storage.Delete(ctx, key)
	} else {
		storage.Put(ctx, key, amount)
	}
}

func accountKey(holder interop.Hash160) []byte {
	return append([]byte{accPrefix}, holder...)
}

func allowanceKey(owner, spender interop.Hash160) []byte {
	key := append([]byte{allowancePrefix}, owner...)
	return append(key, spender...)
}
