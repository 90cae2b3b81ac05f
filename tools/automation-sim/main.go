// Command automation-sim stands in for the calendar automation upstream: it
// answers the availability webhook in a chosen reply dialect and serves the
// execution API for deferred replies.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/teambook/libs/config"
	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/libs/runtime"
)

func main() {
	var (
		addr    = flag.String("addr", ":"+config.String("PORT", "5678"), "listen address")
		mode    = flag.String("mode", config.String("SIM_MODE", modeExecution), "webhook reply dialect: encoded|raw|canonical|execution|session|empty")
		running = flag.Int("running", config.Int("SIM_RUNNING_POLLS", 3), "execution polls answered with status running before success")
		apiKey  = flag.String("api-key", config.String("AUTOMATION_API_KEY", ""), "required X-N8N-API-KEY value (empty disables the check)")
		slots   = flag.Int("slots", config.Int("SIM_SLOTS", 4), "number of slots to offer")
	)
	flag.Parse()

	sim, err := newSimulator(*mode, *running, *slots, *apiKey, time.Now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := runtime.NewLogger("automation-sim")
	ctx, stop := runtime.SignalContext()
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpx.Chain(sim.routes(), httpx.WithRecover(logger), httpx.WithAccessLog(logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("simulating automation upstream", "mode", *mode, "running_polls", *running)
	runtime.Serve(ctx, srv, logger, 5*time.Second)
}
