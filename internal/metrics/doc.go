// Package metrics provides observability hooks for prerender runs.
//
// It implements the Null Object pattern so components never nil-check their
// recorder: by default everything uses NoopRecorder, whose methods inline to
// nothing. The daemon swaps in a PrometheusRecorder and serves the registry
// over HTTP; one-shot CLI runs keep the noop.
//
// Components receive a Recorder through dependency injection:
//
//	report.RecordStageResult(stage, result, recorder)
//
// To enable metrics, construct a real implementation and pass it down:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
package metrics
