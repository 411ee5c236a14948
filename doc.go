/*
Package docstore is an access layer over partitioned, schemaless document
stores such as Azure Cosmos DB and Amazon DynamoDB.

It has three parts:
  - query: a fluent builder that renders parameterized query text, plus a
    search-by-example helper and an object flattener
  - DAO: lazy container provisioning, CRUD, soft deletion and a running
    request-unit total per instance
  - datastore: the six client primitives the DAO needs, with Cosmos,
    DynamoDB and in-memory implementations

Basic Usage:

	dao := docstore.NewWithClient(client, "production", "items",
	    docstore.WithLogger(logger))

	lit, err := query.NewQueryBuilder("User").
	    Where("type").Eq(query.TypeParameter).
	    Where("age").GtOrEq(21).
	    OrderBy("createdOn", storagemodels.Descending).
	    Build(query.Param("@Type", "User"))
	if err != nil {
	    return err
	}
	users, err := docstore.QueryAs[User](ctx, dao, lit)

	created, err := dao.Create(ctx, storagemodels.Document{
	    "type":          "User",
	    "_partitionKey": "User",
	    "name":          "Adam",
	})
	_, err = dao.Update(ctx, storagemodels.Document{"id": created["id"], "name": "Eve"}, "User")
	_, err = dao.Delete(ctx, created)

The first call on a DAO provisions its database and container. Concurrent
first calls share one provisioning attempt. Delete is a soft delete: the
record is rewritten with ttl 1 and the store reclaims it later.
*/
package docstore
