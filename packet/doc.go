/*
Packet contract is a registry of data packets submitted by the registry
administrator.

Each packet records an owner account, descriptive name and data type, a
unique content hash, a validation flag and reward accounting. The content
hash doubles as the external lookup key: the contract keeps an index from
hash to packet identifier and rejects registration of an already indexed
hash, so there is exactly one live packet per hash. Identifiers are
assigned from a counter starting at 1 and are never reused; packets are
permanent once created.

Two independent principals gate the state-changing methods. The
administrator (established at deployment, transferable) registers packets,
flips their validation flag and assigns rewards. The reward pool principal
(fixed at deployment, expected to hold the reward funds in the Unit token
contract) triggers reward distribution. Distribution pulls the pending
reward from the pool account into the owner's account through the Unit
token's transferAuthorized method and accumulates the transferred amount
in the packet's total; a declined token transfer leaves the registry state
untouched. Reads are open to everyone.

Contract notifications

PacketAdded notification. Produced on every successful registration.

  PacketAdded:
    - name: owner
      type: Hash160
    - name: dataHash
      type: ByteArray
    - name: dataType
      type: String

PacketValidated notification. Produced when the administrator changes the
validation flag of a packet.

  PacketValidated:
    - name: id
      type: Integer
    - name: isValid
      type: Boolean

RewardSet notification. Produced when the administrator assigns a pending
reward to a validated packet.

  RewardSet:
    - name: id
      type: Integer
    - name: reward
      type: Integer

RewardDistributed notification. Produced on every successful reward
transfer from the pool to the packet owner. A declined transfer produces
nothing.

  RewardDistributed:
    - name: id
      type: Integer
    - name: reward
      type: Integer

AdministratorChanged notification. Produced when the administrator role is
handed over.

  AdministratorChanged:
    - name: old
      type: Hash160
    - name: new
      type: Hash160
*/
package packet
