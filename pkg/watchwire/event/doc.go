// Package event provides typed dispatch of untyped wire messages.
//
// A monitoring transport (WebSocket bridge, NATS subject) delivers raw
// JSON envelopes with a string "type" tag. This package turns those
// envelopes into typed events safely:
//   - Kind: the closed set of event type tags
//   - Schema table: declarative required-field shapes, one per Kind
//   - Discriminator: total, non-panicking guards (KindOf, Matches, Known)
//   - Dispatcher: per-connection fan-out to handlers in FIFO order
//
// Guards never panic for any input, including nil, primitives, and
// malformed nesting. The "type" tag is the sole disambiguator between
// kinds; structural similarity never overrides it.
//
// Each transport connection owns its own Dispatcher instance. There is
// no package-level dispatcher, so independent connections never share
// handler registrations.
package event
