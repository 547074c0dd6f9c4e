// Package metrics records provisioning step outcomes in a Prometheus
// registry and writes them in the node_exporter textfile format, so a run
// driven by cron or a configuration management agent can be scraped after it
// exits.
package metrics
