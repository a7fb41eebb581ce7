package prometheus_metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultListenPort = "9746"

type PrometheusMetrics struct {
	ReconcilesCounter         *prometheus.CounterVec
	ReconcileFailCounter      *prometheus.CounterVec
	ReconcileTimeHistogram    *prometheus.HistogramVec
	NitroRequestsCounter      *prometheus.CounterVec
	NitroRequestTimeHistogram *prometheus.HistogramVec
	listenAddr                string
	srv                       *http.Server
}

func New(promListenAddr string) *PrometheusMetrics {
	pm := PrometheusMetrics{}

	pm.listenAddr = promListenAddr

	pm.ReconcilesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statesmith_reconciles",
			Help: "count of crontab reconciliations by outcome",
		},
		[]string{"user", "outcome"},
	)
	prometheus.MustRegister(pm.ReconcilesCounter)

	pm.ReconcileFailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statesmith_reconcile_failures",
			Help: "count of crontab reconciliations that failed to install",
		},
		[]string{"user"},
	)
	prometheus.MustRegister(pm.ReconcileFailCounter)

	pm.ReconcileTimeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statesmith_reconcile_time_seconds",
			Help:    "crontab read-reconcile-install cycle times in buckets",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"user"},
	)
	prometheus.MustRegister(pm.ReconcileTimeHistogram)

	pm.NitroRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statesmith_nitro_requests",
			Help: "count of appliance API requests by object, method and status",
		},
		[]string{"object", "method", "status"},
	)
	prometheus.MustRegister(pm.NitroRequestsCounter)

	pm.NitroRequestTimeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statesmith_nitro_request_time_seconds",
			Help:    "appliance API request times in buckets",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"object", "method"},
	)
	prometheus.MustRegister(pm.NitroRequestTimeHistogram)

	return &pm
}

func (p *PrometheusMetrics) Reset() {
	p.ReconcilesCounter.Reset()
	p.ReconcileFailCounter.Reset()
	p.ReconcileTimeHistogram.Reset()
	p.NitroRequestsCounter.Reset()
	p.NitroRequestTimeHistogram.Reset()
}

func (p *PrometheusMetrics) InitHTTPServer() error {
	addr, err := getAddr(p.listenAddr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	p.srv = &http.Server{Addr: addr, Handler: mux}
	return p.srv.ListenAndServe()
}

func (p *PrometheusMetrics) ShutdownHTTPServer(c context.Context) error {
	if p.srv == nil {
		return nil
	}
	return p.srv.Shutdown(c)
}

// getAddr fills in the default port when the listen address omits one.
func getAddr(listenAddr string) (string, error) {
	if listenAddr == "" {
		return "", fmt.Errorf("empty listen address")
	}

	if _, _, err := net.SplitHostPort(listenAddr); err == nil {
		return listenAddr, nil
	}

	if _, _, err := net.SplitHostPort(listenAddr + ":" + defaultListenPort); err == nil {
		return listenAddr + ":" + defaultListenPort, nil
	}

	// Bare IPv6 literals need brackets before a port can be attached.
	if strings.Contains(listenAddr, ":") && !strings.HasPrefix(listenAddr, "[") {
		bracketed := "[" + listenAddr + "]:" + defaultListenPort
		if _, _, err := net.SplitHostPort(bracketed); err == nil {
			return bracketed, nil
		}
	}

	return "", fmt.Errorf("invalid listen address: %s", listenAddr)
}
