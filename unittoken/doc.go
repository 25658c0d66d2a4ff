/*
Unit token contract is the fungible-unit ledger the Packet contract pays
rewards from.

It is a NEP-17 shaped token with an additional allowance table: an account
owner approves a spender (normally the Packet contract) for a fixed amount,
and the spender later pulls funds with transferAuthorized. Authorized
transfers are all-or-nothing and decline, rather than abort, when the
allowance or balance is insufficient, so the calling contract can treat a
declined payout as a soft failure. Supply management (mint and burn) is
gated by the network committee.

Contract notifications

Transfer notification. This is the NEP-17 standard notification.

  Transfer:
    - name: from
      type: Hash160
    - name: to
      type: Hash160
    - name: amount
      type: Integer

Approval notification. Produced when an owner sets a spender allowance.

  Approval:
    - name: owner
      type: Hash160
    - name: spender
      type: Hash160
    - name: amount
      type: Integer

Mint notification. Produced when the committee replenishes an account.

  Mint:
    - name: to
      type: Hash160
    - name: amount
      type: Integer

Burn notification. Produced when the committee reduces an account.

  Burn:
    - name: from
      type: Hash160
    - name: amount
      type: Integer
*/
package unittoken
