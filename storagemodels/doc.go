/*
Package storagemodels defines the data structures shared by docstore's
query builder, data-access object and backend clients.

Key Types:

Document:
A schemaless record. Reserved fields are id, _partitionKey, ttl, createdOn,
updatedOn and the store-maintained _ts:

	doc := storagemodels.Document{
	    "id":            "7b0e...",
	    "_partitionKey": "User",
	    "name":          "Ada",
	}

QueryLiteral:
A rendered query plus its bound parameters and partition values:

	lit := storagemodels.QueryLiteral{
	    Query:      "SELECT * FROM c WHERE c.age > @Age",
	    Parameters: []storagemodels.Parameter{{Name: "@Age", Value: 30}},
	    Partition:  []string{"User"},
	}

Page and Sort:
Search windows and ordering, defaulting to DefaultPage and DefaultSort.

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
