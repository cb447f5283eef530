// Package gbx decodes and encodes Gbx track containers as a typed tree:
// the challenge parameters block, the script metadata side channel, and
// opaque passthrough chunks. The in-process encoder only emits uncompressed
// bodies; compressed output is produced by an external codec afterwards.
package gbx
