/*
Package datastore defines the client contract docstore's access layer is
built on.

The main interface is Client, six primitives every backend provides:

	type Client interface {
	    EnsureDatabase(ctx context.Context, id string) (Database, error)
	    EnsureContainer(ctx context.Context, db Database, spec ContainerSpec) (Container, error)
	    ExecuteQuery(ctx context.Context, c Container, text string, params []storagemodels.Parameter, partition string) (*QueryResult, error)
	    InsertItem(ctx context.Context, c Container, doc storagemodels.Document) (*ItemResult, error)
	    ReadItem(ctx context.Context, c Container, id, partitionKey string) (*ItemResult, error)
	    ReplaceItem(ctx context.Context, c Container, id, partitionKey string, doc storagemodels.Document) (*ItemResult, error)
	}

Every result carries the request charge the store reported for the call.

Implementations:
  - cosmos: Azure Cosmos DB via azcosmos
  - ddb: DynamoDB, translating the query dialect to PartiQL
  - mock: In-memory implementation for testing

Connection management, retries and transport security belong to the
implementations and the SDKs beneath them.
*/
package datastore
