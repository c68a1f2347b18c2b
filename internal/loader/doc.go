// Package loader runs a load job: it reads the source dataset, prepares the
// target index and streams documents to the cluster in bulk batches on a
// pool of workers.
package loader
