/*
Package monitoring provides Prometheus metrics for the gateway.

# Overview

Every Metrics value owns a private registry, so several collectors can live
in one process (tests build one per server). All recording methods accept a
nil receiver.

# Metrics

  - HTTP requests (count, latency, sizes) labelled by route template
  - Registry client calls by operation and status
  - Record syncs by outcome (created, already_exists, failure)
  - Identity mints and source fetches with durations
  - Minted identities still waiting for a sync

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(monitoring.Handler(metrics)))

	timer := monitoring.NewTimer()
	// ... submit the mint ...
	timer.ObserveMint(metrics, "success")
*/
package monitoring
