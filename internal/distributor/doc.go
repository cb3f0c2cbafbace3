// Package distributor places the threads of a Processor onto its Cores.
//
// A Policy only decides a core index for every thread. Distribute turns those
// indices into per-core thread sequences in input order, so every policy
// gets two guarantees for free: each input thread lands on exactly one core,
// and threads sharing a core keep their relative input order.
//
// Policies are pure functions of (threads, processor). None of them holds
// state between calls, so one value can be shared by any number of
// processors.
package distributor
