package dummy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Port int
	// SucceedAfter is the /trade call number from which purchases succeed.
	SucceedAfter int
	// FlakyRate is the share of /flaky calls whose connection is dropped.
	FlakyRate float64
}

// grpcWebText frames msg as a single gRPC message followed by an OK
// trailer, each base64 encoded on its own the way grpc-web-text servers do.
func grpcWebText(msg string) string {
	frame := func(flag byte, payload string) string {
		b := make([]byte, 5+len(payload))
		b[0] = flag
		n := len(payload)
		b[1], b[2], b[3], b[4] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
		copy(b[5:], payload)
		return base64.StdEncoding.EncodeToString(b)
	}
	return frame(0x00, msg) + frame(0x80, "grpc-status:0\r\ngrpc-message:\r\n")
}

// Handler serves the fake trade endpoints.
func Handler(cfg ServerConfig, log zerolog.Logger) http.Handler {
	var calls atomic.Int64
	mux := http.NewServeMux()

	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/grpc-web-text")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}

	// 1. Trade: sold out until the configured call
	mux.HandleFunc("POST /trade", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		jitter := time.Duration(rand.IntN(40)+10) * time.Millisecond
		time.Sleep(jitter)
		if n >= int64(cfg.SucceedAfter) {
			log.Info().Int64("call", n).Msg("trade filled")
			write(w, grpcWebText(fmt.Sprintf("Bought 1000 tokens (call %d)", n)))
			return
		}
		log.Debug().Int64("call", n).Msg("trade rejected")
		write(w, grpcWebText("Launch not tradable yet"))
	})

	// 2. Never fills
	mux.HandleFunc("POST /sold-out", func(w http.ResponseWriter, r *http.Request) {
		write(w, grpcWebText("Sold out"))
	})

	// 3. Undecodable body
	mux.HandleFunc("POST /garbage", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	})

	// 4. Random dropped connections
	mux.HandleFunc("POST /flaky", func(w http.ResponseWriter, r *http.Request) {
		if rand.Float64() < cfg.FlakyRate {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		write(w, grpcWebText("Sold out"))
	})

	return mux
}

// Start serves on cfg.Port until ctx is done.
func Start(ctx context.Context, cfg ServerConfig, log zerolog.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           Handler(cfg, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("dummy trade endpoint listening")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
