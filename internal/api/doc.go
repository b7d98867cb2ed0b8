// Package api is the client for the dictionary backend as exposed through
// the gateway under /api.
//
// Every backend endpoint answers with the same envelope:
//
//	{"success": bool, "status": number, "message": string, "data": T|null}
//
// The client converts that envelope at the boundary. A successful envelope
// yields its payload, anything else yields an *APIError carrying the status
// and message. Transport failures, non-JSON responses and an open circuit
// breaker are reported as an *APIError with status 500 so callers only ever
// handle one error shape.
package api
