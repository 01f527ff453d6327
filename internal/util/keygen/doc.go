// Package keygen generates RSA key pairs for node SSH access.
//
// The public half is rendered in OpenSSH authorized_keys format, which is
// what the AKS linux profile expects when the caller supplied no key.
package keygen
