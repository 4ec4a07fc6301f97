// Package broker is the broker gateway (C4): a thin wrapper over
// amqp091-go giving the pipeline a topic exchange, durable per-role
// queues, manual ack/nack, and dead-lettering. Grounded on the
// HQESports-harvest-api manifest's amqp091-go dependency — the pack
// carries no worked amqp example, so the wiring here follows
// amqp091-go's own idiomatic connection/channel/consume shape.
package broker

// Routing keys used by this system (spec §4.4). Each queue binds to
// exactly one.
const (
	RoutingMatchDiscovered         = "match.discovered"
	RoutingMatchSummaryComplete    = "match.summary_complete"
	RoutingMatchTelemetryDownloaded = "match.telemetry_downloaded"
	RoutingMatchProcessingComplete = "match.processing_complete"
)

// Queue names, one durable queue per worker role.
const (
	QueueSummaryWorker    = "match-summary-worker"
	QueueDownloadWorker   = "telemetry-download-worker"
	QueueProcessingWorker = "telemetry-processing-worker"
	QueueAggregation      = "aggregation-worker"
)

// DeadLetterExchange is the direct exchange every per-role queue's
// dead-letter policy routes into, keyed by the queue's name so each
// role's dead letters reach only that role's dead-letter queue.
const DeadLetterExchange = "pewstats.dlx"

func deadLetterQueue(queue string) string {
	return queue + ".dlq"
}
