// Package chat defines the provider-independent chat domain model:
// messages, tool definitions and calls, request configuration,
// responses with usage metadata, typed provider errors and the
// streaming event types.
//
// Provider adapters translate between this model and their wire
// formats; the rest of the system only sees these types.
package chat
