// Package services holds the pipeline: extraction, chunked ingestion with
// batch retries, budgeted retrieval, prompt assembly and the chat loop with
// auto-continue. Each service implements a driving port and talks to the
// outside world only through driven ports.
//
// Retrieval and extraction degrade to empty results instead of failing;
// ingestion and chat return errors to the caller.
package services
