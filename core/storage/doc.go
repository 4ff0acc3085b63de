// Package storage provides the object storage layer backing the remote
// record store.
//
// It wraps the MinIO Go client in a small interface covering the
// operations the sync engine needs: bucket checks, uploading and fetching
// record objects, prefix listing, and deletion. The interface exists so
// storage interactions can be mocked in unit tests (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, "pim-sync")
package storage
