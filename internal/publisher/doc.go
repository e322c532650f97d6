// Package publisher uploads the derived dataset as a CSV object.
//
// ObjectStore has three backends: S3Store (AWS SDK v2, static key pair or the
// default credential chain), GCSStore (Cloud Storage JSON API) and FileStore
// (a local directory tree, for development and tests). NewObjectStore picks
// one from the publish configuration.
package publisher
