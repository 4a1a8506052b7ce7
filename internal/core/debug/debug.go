package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// StartUtilities spins off the debug HTTP listener, which serves the
// default pprof handlers alongside the Prometheus metrics endpoint.
// See https://golang.org/pkg/net/http/pprof/
func StartUtilities(logger *logrus.Logger, pprofPort int) {
	listenerAddr := fmt.Sprintf("localhost:%d", pprofPort)
	http.Handle("/metrics", promhttp.Handler())
	logger.Infof("starting debug server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Warnf("error starting debug server: %s", err)
		}
	}()
}
