// Package proxy implements the forwarding gateway that relays browser
// calls under /api to the internal translation backend.
//
// The Forwarder rebuilds the backend URL from the inbound path segments,
// strips hop-by-hop headers in both directions, and streams the backend
// response back without interpreting it. Redirects are relayed rather
// than followed. The only locally synthesized responses are the 400
// returned for an empty path and the 502 envelope returned when the
// backend cannot be reached.
//
// # Usage
//
//	fwd, err := proxy.New("http://127.0.0.1:5001",
//	    proxy.WithLogger(logger),
//	    proxy.WithMetrics(metrics),
//	)
//	if err != nil {
//	    return err
//	}
//
//	mux.Handle("/api/", fwd)
package proxy
