// Package ports declares the interfaces between the gateway
// application core and its adapters: the LLM provider client, session
// and job storage, the event bus and the metrics collector.
package ports
