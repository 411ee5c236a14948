/*
Package ddb provides a DynamoDB implementation of the datastore.Client interface.

Layout:
  - A database is a table-name prefix; container "items" in database
    "production" is the table "production.items".
  - Tables are keyed by the partition key attribute (HASH) and id (RANGE),
    billed on demand, with TTL enabled on the "_expiresAt" attribute.
  - Writes maintain the "_ts" attribute in epoch seconds. A positive "ttl"
    (seconds, relative) is written as "_expiresAt" = _ts + ttl so that a
    soft delete with ttl 1 is reclaimed by DynamoDB expiry.

Queries:
The document query dialect is translated to PartiQL and scoped to the
requested partitions:

	SELECT * FROM c WHERE c.type = @Type AND c[@P0] = @V0 ORDER BY c._ts DESC OFFSET 0 LIMIT 10

becomes

	SELECT * FROM "production.items" WHERE "_partitionKey" = ? AND ("type" = ? AND "firstName" = ?)

ORDER BY, OFFSET/LIMIT, TOP, COUNT(1) and single-field projections are
applied after every page has been read. CONTAINS is always case-sensitive.
Constructs outside the dialect fail with an UnsupportedQueryError.

Request charges are the consumed capacity units DynamoDB reports.
*/
package ddb
