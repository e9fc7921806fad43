/*
Package monitoring provides Prometheus metrics for the chatgate backend.

# Overview

Metrics cover the HTTP surface, session lifecycle operations, best-effort
engine queries, detached stops triggered by logout and webhook deliveries.

All recording methods are safe on a nil *Metrics, so components can be
constructed without monitoring in tests.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "start")
	// ... perform operation ...
	timer.Stop(err)

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
