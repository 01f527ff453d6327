// Package config resolves a cluster request into a complete configuration.
//
// The recognised options live in an embedded schema. [LoadSchemas] parses it
// once into an immutable [Schemas] value; [Schemas.Defaults] and [Merge]
// produce the resolved [Values], [Schemas.ValidateStructure] checks them
// before any cloud call, and [Decode] turns them into the typed [Cluster]
// view the provider adapters work with.
//
// Credentials, poll timeouts and CIDR arithmetic helpers live here too.
package config
