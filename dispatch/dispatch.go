// Package dispatch implements the URL dispatcher (spec's scheme table):
// it maps a URL's scheme to a concrete stream.Backend, wires in the
// configured cache thresholds and timeouts via Ctrl, and returns a ready
// Stream. It imports the backend packages directly so the stream package
// itself never has to know any concrete transport exists.
package dispatch

import (
	"time"

	"gitlab.com/NebulousLabs/errors"

	"gitlab.com/streamkit/asyncio/backend/data"
	"gitlab.com/streamkit/asyncio/backend/file"
	httpbackend "gitlab.com/streamkit/asyncio/backend/http"
	"gitlab.com/streamkit/asyncio/backend/sock"
	"gitlab.com/streamkit/asyncio/config"
	"gitlab.com/streamkit/asyncio/persist"
	"gitlab.com/streamkit/asyncio/proactor"
	"gitlab.com/streamkit/asyncio/stream"
	"gitlab.com/streamkit/asyncio/streamurl"
)

// New parses rawURL, picks a back-end by scheme, and constructs a Stream
// bound to it with cfg's cache/timeout/WAL settings already delivered.
// An empty scheme — a bare path like "data.bin" — dispatches to file://,
// per the scheme table.
func New(engine *proactor.Engine, rawURL string, cfg config.Config, log *persist.Logger) (*stream.Stream, error) {
	u, err := streamurl.Parse(rawURL)
	if err != nil {
		return nil, errors.AddContext(err, "unable to parse stream url")
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "file"
	}

	var backend stream.Backend
	switch scheme {
	case "file":
		backend = file.New(cfg.WAL.Directory)
	case "sock", "socks":
		backend = sock.New()
	case "http", "https":
		backend = httpbackend.New()
	case "data":
		backend = data.New()
	default:
		return nil, errors.New("unsupported url scheme: " + scheme)
	}

	s, err := stream.New(engine, backend, u, cfg.ReadCacheBytes, cfg.WriteCacheBytes, log)
	if err != nil {
		return nil, errors.AddContext(err, "unable to construct stream")
	}

	if !backend.Ctrl(s, stream.SetURL, u) {
		// Construction failed after a URL was already handed to the
		// back-end, but the stream was never opened and never handed to a
		// caller: tear it down directly rather than through Kill, which is
		// the cancellation operator for a running stream, not a
		// constructor-failure teardown path.
		backend.Exit(s, false)
		s.Executor().Stop()
		return nil, errors.New("back-end rejected SetURL during dispatch")
	}
	if cfg.OpenTimeout > 0 {
		backend.Ctrl(s, stream.SetTimeout, timeoutFor(scheme, cfg))
	}
	backend.Ctrl(s, stream.SetCache, cfg.ReadCacheBytes, cfg.WriteCacheBytes)

	return s, nil
}

func timeoutFor(scheme string, cfg config.Config) time.Duration {
	switch scheme {
	case "sock", "socks", "http", "https":
		return cfg.IdleTimeout
	default:
		return cfg.OpenTimeout
	}
}
