/*
Package tracing provides lightweight request tracing.

Each HTTP request gets a span; its trace ID is taken from the X-Trace-ID
header or generated as a request ULID, and is echoed back on the response.
Finished spans are written to the structured log by a buffered collector.

	tracer := tracing.New("gateway", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	log := tracing.Logger(ctx, logger)
	log.Info("minted identity")
*/
package tracing
