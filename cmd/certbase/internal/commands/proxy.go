package commands

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elazarl/goproxy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/certbase/internal/certbase"
)

type ProxyCmd struct {
	Listen   string `help:"Address to listen on" default:"127.0.0.1:8080"`
	Insecure bool   `help:"Skip verification of upstream server certificates"`
}

func (p *ProxyCmd) Run(ctx context.Context, globals *Globals) error {
	cb, log, cleanup, err := globals.open()
	if err != nil {
		return err
	}
	defer cleanup()

	if !cb.IsCAExist() {
		return fmt.Errorf("proxy needs a CA, run `certbase ca create` first: %w", certbase.ErrCANotFound)
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if p.Insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local upstreams
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              p.Listen,
		Handler:           newProxy(cb, log, tr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", p.Listen).Msg("proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("proxy failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down proxy")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type requestInfo struct {
	id      string
	started time.Time
}

// newProxy builds an intercepting proxy whose certificates are issued by cb.
func newProxy(cb *certbase.CertBase, log zerolog.Logger, tr *http.Transport) *goproxy.ProxyHttpServer {
	proxy := goproxy.NewProxyHttpServer()
	proxy.Tr = tr
	proxy.Logger = &log

	mitm := &goproxy.ConnectAction{
		Action: goproxy.ConnectMitm,
		TLSConfig: func(host string, pctx *goproxy.ProxyCtx) (*tls.Config, error) {
			ctx := context.Background()
			if pctx != nil && pctx.Req != nil {
				ctx = pctx.Req.Context()
			}

			cert, err := cb.TLSCertificate(ctx, host)
			if err != nil {
				log.Error().Err(err).Str("host", host).Msg("failed to mint certificate")
				return nil, err
			}

			return &tls.Config{
				Certificates: []tls.Certificate{*cert},
				MinVersion:   tls.VersionTLS12,
			}, nil
		},
	}

	proxy.OnRequest().HandleConnect(goproxy.FuncHttpsHandler(func(host string, pctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
		return mitm, host
	}))

	proxy.OnRequest().DoFunc(func(r *http.Request, pctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		info := &requestInfo{id: uuid.NewString(), started: time.Now()}
		pctx.UserData = info

		r.Header.Set("X-Request-Id", info.id)

		log.Debug().Str("request_id", info.id).Str("method", r.Method).Str("url", r.URL.String()).Msg("proxy request")

		return r, nil
	})

	proxy.OnResponse().DoFunc(func(resp *http.Response, pctx *goproxy.ProxyCtx) *http.Response {
		info, ok := pctx.UserData.(*requestInfo)
		if !ok {
			return resp
		}

		ev := log.Info().Str("request_id", info.id).Dur("duration", time.Since(info.started))
		if pctx.Req != nil {
			ev = ev.Str("method", pctx.Req.Method).Str("host", pctx.Req.Host)
		}

		if resp == nil {
			ev.Err(pctx.Error).Msg("proxy request failed")
			return resp
		}

		resp.Header.Set("X-Request-Id", info.id)
		ev.Int("status", resp.StatusCode).Msg("proxy response")

		return resp
	})

	return proxy
}
