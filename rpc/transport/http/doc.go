// Package http implements the RPC transport over HTTP.
//
// Server endpoints:
//
//	POST /{shardId}     serialized RPC request, response in the body
//	GET  /once/{token}  one-time endpoint registered with AddOneTime
//	GET  /healthz       liveness probe
//	GET  /metrics       Prometheus text format (VictoriaMetrics/metrics)
//	GET  /debug/misses  JSON list of unknown GET paths and their counts
//	GET  /debug/routes  registered GET paths
//
// Further GET endpoints are registered with RegisterGet and looked up in a
// routing.Table. A GET of an unknown path is answered with 404, or 403 for
// paths ending in a slash, and recorded in a routing.MissCounter.
//
// The client sends requests round-robin to the configured endpoints and
// retries transport errors RetryCount times.
package http
