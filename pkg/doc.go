// Package pkg provides the core libraries of the gridroute parallel router.
//
// # Overview
//
// Gridroute routes a clustered netlist onto a routing-resource (RR) graph
// using negotiated congestion (Pathfinder), parallelizing each routing
// iteration across a spatial partition tree. The pkg directory is organized
// into these areas:
//
//  1. [geom], [rr], [net] - Domain primitives (rectangles and cutlines, the
//     RR graph and its congestion state, nets and route trees)
//  2. [partition] - The spatial partition tree that makes parallel routing
//     safe: sibling subtrees cover disjoint device regions
//  3. [route] - The router core: connection router, net decomposition,
//     partition-tree dispatch, and the outer convergence loop
//  4. [problem], [dump], [trace], [viz] - Problem file IO, per-iteration
//     route dumps, the partition trace log, and tree rendering
//  5. [metrics], [observability] - Optional instrumentation
//
// # Architecture
//
// The typical flow through a routing run:
//
//	Problem file (grid + nets)
//	         ↓
//	rr.GridGraph + net.List + route.State
//	         ↓
//	route.Router.TryParallelRoute          ← outer convergence loop
//	         ↓ per iteration
//	partition.Build → dispatch over worker pool
//	         ↓ per net
//	decompose across cutline | route within bounding box
//
// Each iteration rebuilds the partition tree (bounding boxes grow under
// congestion), routes nets node by node with nets crossing a cutline
// handled before their children run, and reduces per-node results into an
// iteration summary the convergence controller acts on.
package pkg
