// Package handler is the serverless entry point: it serves the same Fiber
// app as cmd/server behind a net/http handler.
package handler

import (
	"net/http"
	"sync"

	"github.com/amirasaad/stealthmoney/infra/initializer"
	"github.com/amirasaad/stealthmoney/pkg/app"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	once    sync.Once
	served  http.HandlerFunc
	initErr error
)

// Handler is invoked once per request; the app is built on the first call
// and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	// Fiber routes on RequestURI.
	r.RequestURI = r.URL.String()

	once.Do(func() { served, initErr = build() })
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	served.ServeHTTP(w, r)
}

func build() (http.HandlerFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, err
	}
	fiberApp, err := webapi.SetupApp(app.New(deps, cfg))
	if err != nil {
		return nil, err
	}
	return adaptor.FiberApp(fiberApp), nil
}
