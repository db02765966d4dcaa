// Package animal defines the core types shared by the image fetch pipeline:
// the closed set of supported categories, their URL resolution strategies,
// the persisted Image record and the collaborator interfaces the service
// depends on (Fetcher, Store, Publisher, Clock, IDGenerator, Hasher).
package animal
