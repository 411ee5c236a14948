/*
Package cosmos provides an Azure Cosmos DB implementation of the
datastore.Client interface using the azcosmos SDK.

Databases and containers are provisioned with create calls; a 409 Conflict
means the resource already exists and is treated as success. Containers are
created with DefaultTimeToLive -1 so that a per-item ttl expires soft-deleted
records while other records live forever.

Documents are encoded with goccy/go-json. Conflicts on insert surface as
AlreadyExistsError and missing records as NotFoundError. Request charges are
taken from each response; query pages are drained and their charges summed.
*/
package cosmos
