/*
Package monitoring provides Prometheus metrics for the playground server.

# Overview

Metrics covers HTTP traffic, snippet runs, output sinks, sessions and
WebSocket streams. It implements runner.Recorder and sink.Observer, so the
engine reports into it without importing Prometheus.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
