/*
Package sigs verifies the ed25519 signatures of a transaction and grants the
conditions of the verified public keys to the handlers down the stack.

Each signature carries a sequence number that must match the sequence
stored for the signing key. The sequence is incremented with every
verified signature, so a signed transaction cannot be replayed.
*/
package sigs
