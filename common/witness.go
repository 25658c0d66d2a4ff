package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

var (
	// ErrAdminWitnessFailed appears when the method must be called
	// by the registry administrator but was not.
	ErrAdminWitnessFailed = "administrator witness check failed"
	// ErrRewardPoolWitnessFailed appears when the method must be called
	// by the reward pool principal but was not.
	ErrRewardPoolWitnessFailed = "reward pool witness check failed"
	// ErrOwnerWitnessFailed appears when the method must be called
	// by an owner of some assets but was not.
	ErrOwnerWitnessFailed = "owner witness check failed"
)

// CheckAdministratorWitness checks witness of the stored administrator
// account. It panics with ErrAdminWitnessFailed message on fail.
func CheckAdministratorWitness(admin []byte) {
	checkWitnessWithPanic(admin, ErrAdminWitnessFailed)
}

// CheckRewardPoolWitness checks witness of the stored reward pool
// account. It panics with ErrRewardPoolWitnessFailed message on fail.
func CheckRewardPoolWitness(pool []byte) {
	checkWitnessWithPanic(pool, ErrRewardPoolWitnessFailed)
}

// CheckOwnerWitness checks witness of the passed caller.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(caller []byte) {
	checkWitnessWithPanic(caller, ErrOwnerWitnessFailed)
}

func checkWitnessWithPanic(caller []byte, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}
