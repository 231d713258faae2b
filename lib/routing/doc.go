// Package routing provides the lookup tables of the HTTP transport.
//
//   - Table maps exact request paths to handlers. It is a hashmap.Map guarded
//     by an xsync.RBMutex, so concurrent lookups never block each other.
//   - OneTimeTable hands out uuid tokens for handlers that may be served only
//     once. It is bounded: a queuedtree.Tree drops the oldest registrations
//     when it is full.
//   - MissCounter accumulates failed lookups per path together with the
//     status code they were answered with. It is bounded the same way, so
//     made up paths cannot grow it without limit.
package routing

import "github.com/lni/dragonboat/v4/logger"

var Logger = logger.GetLogger("routing")
