// Package ring simulates segments travelling around a closed circular
// track and resolves which of the evenly spaced positions on that track
// are lit by each segment's trailing window.
//
// Responsibilities: nearest-key speed lookup, forward-Euler distance
// integration, coverage resolution with lap wraparound, and per-tick
// color assignment for positions.
// Key types: SpeedProfile, Track, IntegrationState, Coverage, Position,
// Ring.
//
// Two drivers exist. A standalone Position owns one IntegrationState per
// attached Track and its own ticker. A Ring owns one IntegrationState per
// Track, resolves coverage once per tick and dispatches it to subscribed
// positions, which only test membership.
//
// No drawing code is allowed in this package; observers receive the
// position or frame and decide how to render it.
package ring
