package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/clems4ever/esi-stream/esi"
	"github.com/spf13/cobra"
)

var (
	serveOrigin string
	serveListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Proxy an origin server, applying ESI to its responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		origin, err := url.Parse(serveOrigin)
		if err != nil {
			return fmt.Errorf("parse --origin: %w", err)
		}

		slog.Info("esi-stream serve listening", "addr", serveListen, "origin", origin.String())
		return http.ListenAndServe(serveListen, &esiProxy{origin: origin, cfg: cfg})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOrigin, "origin", "", "origin server base URL to proxy and apply ESI to")
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "address to listen on")
	serveCmd.MarkFlagRequired("origin")
}

// esiProxy fetches a request against origin and streams the response back
// through an esi.Stream, a minimal demonstration of the host-fetch contract
// spec.md §6 describes (as opposed to a production edge proxy).
type esiProxy struct {
	origin *url.URL
	cfg    Config
}

func (p *esiProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := p.origin.ResolveReference(r.URL)

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()
	req.Host = target.Host

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	// Status and headers go out before the body is known to transform
	// cleanly: an include failure mid-stream can no longer change either,
	// matching spec.md §7's "errors discovered after bytes are already
	// flushed cannot un-flush them" propagation policy.
	for k, vs := range resp.Header {
		if k == "Content-Length" {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	headers := p.cfg.header()
	for k, vs := range r.Header {
		if _, ok := headers[k]; !ok {
			headers[http.CanonicalHeaderKey(k)] = vs
		}
	}

	stream, err := esi.NewStream(r.Context(), target, headers, esi.Options{
		EsiPrefix: p.cfg.EsiPrefix,
		Fetcher:   timeoutFetcher(p.cfg.timeout()),
	})
	if err != nil {
		slog.Error("esi stream construction failed", "err", err)
		return
	}

	go func() {
		_, _ = io.Copy(stream, resp.Body)
		_ = stream.Close()
	}()

	if _, err := io.Copy(w, stream.Reader()); err != nil {
		slog.Error("esi stream failed", "err", err)
	}
}
