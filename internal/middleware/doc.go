// Package middleware provides the gin middleware chain of the gateway:
// request IDs, access logging, panic recovery, tracing spans, request
// metrics, request body limits and optional /api rate limiting.
//
// Metrics and spans are labelled by backend endpoint (translate,
// daily-word, proverb and so on) rather than by route, since every /api
// request matches the same catch-all route.
//
// None of the middleware writes headers into relayed responses, so a
// backend response reaches the browser exactly as the proxy produced it.
package middleware
