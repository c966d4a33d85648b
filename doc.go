/*
Package tokenvault defines the common interfaces that tie together the
storage, the message handlers and the extensions of the vault, as well as
implementations of some of the simpler components (when interfaces would be
too much overhead).

We pass context through context.Context between the executor and the
handlers. To do so, tokenvault defines keys to store the block height, the
block time and the logger. There should exist two functions for every XYZ
of type T that we want to support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ panics if the value was previously set to avoid lower level modules
overwriting the value.
*/
package tokenvault
