// Package loop implements Loop: the driver that periodically drains each
// bound Host's command queue, sweeps its RPCEnvironment for timed-out
// calls, and flushes each of its peers' queued sends.
//
// Grounded on original_source/include/icon7/Loop.hpp: the original polls
// its socket backend with a condition-variable wakeup per command
// enqueued; here a short fixed-interval ticker plays that role instead; a
// dynamic set of Hosts can't be select()-ed over without reflect.Select,
// and a short ticker gets within a beat of the same latency without it
// (see DESIGN.md).
package loop
