// Package cpm is a Cellular Potts Model simulation core: cells are
// connected regions of a lattice, and a Metropolis-Hastings engine grows,
// shrinks, and reshapes them one vertex-copy attempt at a time, driven by
// a configurable sum of energy penalties.
//
// Under the hood, everything is organized under a handful of subpackages:
//
//	lattice/       — CellSpace: the N-dimensional grid graph, CSR adjacency
//	cellstate/     — CellTable: per-cell volume, perimeter, and centroid bookkeeping
//	penalty/       — the five built-in energy terms (adhesion, volume, perimeter, migration, chemotaxis)
//	connectivity/  — the bounded local guard that blocks copy attempts which would fragment a cell
//	engine/        — the Metropolis-Hastings step and model-step loop
//	history/       — an append-only log of accepted attempts, with lattice replay
//	config/        — the YAML scenario descriptor used by cmd/cpm
//
// This root package wires them into one entry point:
//
//	space, _ := cpm.NewCellSpace([]int{100, 100}, []bool{true, true}, cpm.VonNeumann)
//	table, _ := cpm.CellState(2, []string{"epithelial"}, []uint32{1}, []float64{50}, nil, nil)
//	adhesion, _ := cpm.NewAdhesionPenalty([][]int64{{0, 20}, {20, 0}})
//	sim, _ := cpm.CellPotts(space, table, []penalty.Penalty{adhesion, cpm.NewVolumePenalty([]int64{5})},
//		cpm.WithSeed(42), cpm.WithTemperature(20))
//	sim.Run(1000, nil)
//
// CellPotts places every requested cell onto the lattice itself (seed and
// grow, deterministic and non-overlapping) before returning a ready-to-run
// Simulation, so callers never hand-paint the initial configuration.
package cpm
