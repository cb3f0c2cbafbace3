// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package topology provides the hardware/software model of an embedded
// application targeted at multi-core microcontrollers.
//
// # Core Concepts
//
// The model is a strict ownership tree, assembled bottom-up:
//
//   - CompilerConfig: The per-process toolchain description. It knows how to
//     assemble include and option arguments, and how to be overridden by a
//     more specific hardware description.
//
//   - Port and Driver: Value objects owned by a Process. Drivers reference
//     Ports by name only.
//
//   - Process: The unit of execution. It owns its Drivers, Ports, Threads and
//     CompilerConfig, and always hosts the reserved system threads.
//
//   - Core, Processor, Board, Application: The hardware containers. Each level
//     validates its children at construction time and exposes Processes() as
//     an order-preserving flattening of everything below it.
//
// Why construct-validate-freeze?
//
// The model only describes topology for code generation. There is no runtime
// admission control to fall back on, so every invariant (core limits, memory
// sizes, name uniqueness, port capacities) is enforced by the constructors.
// A constructor either returns a fully validated entity or an error, and no
// partially built entity is ever observable.
package topology
