/*
Package x contains the extensions of the application and the pieces
they share.

Extensions implement a functionality (handlers, initializers, queries)
and are combined together by the application. Sub-packages do not depend
on each other except through interfaces declared by the consumer, so the
vault can move tokens using any AssetMover and not only the cash wallet.

Note that protobuf types in exported code will be prefixed by
the package, so follow standard go naming conventions and avoid
stutter. Use eg. `vault.DepositMsg` in place of `vault.VaultDepositMsg`.
*/
package x
