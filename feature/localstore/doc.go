// Package localstore adapts a relational database to the reconcile
// StoreAdapter contract. Records live as rows with a JSON payload plus
// dedicated cross-reference columns; update timestamps carry minute
// precision only, which is why the sync watermark is minute-truncated.
package localstore
