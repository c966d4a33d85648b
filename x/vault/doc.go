/*
Package vault implements a custodial token vault.

Depositors move a single fungible asset into the vault reserve and the vault
keeps track of their entitlement. Every deposit is charged a fee. Since V2
balances accrue yield using a global index and since V3 withdrawals must be
requested and wait for a configurable delay, with the emergency withdrawal
as the only immediate way out.

The vault logic is versioned. The version is the schema version of the
"vault" package and it is increased only by the administrator, one step at
a time, after the layout of all persisted models was verified to be a safe
extension of the previous one.
*/
package vault
