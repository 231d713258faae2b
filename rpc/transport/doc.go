// Package transport defines how RPC requests travel between client and
// server. A server transport receives serialized messages addressed to a
// shard and hands them to a ServerHandleFunc; a client transport sends them.
//
// The only implementation is the HTTP transport in the http sub package,
// which additionally implements IRouteRegistrar for health, metrics and
// snapshot download endpoints.
package transport
