/*
Package query builds parameterized document-store queries.

Predicates:

	query.NewWhere("name").Eq("x")       // c.name = "x"
	query.NewWhere("age").GtOrEq(21)     // c.age >= 21
	query.NewWhere("email").IsDefined()  // IS_DEFINED(c.email)
	query.NewWhere("name").Contains("ab") // CONTAINS(c.name,'ab',true)

Booleans, numbers and values containing "@" render bare; everything else is
quoted. A Parameter passed to a comparison renders as its name.

Disjunctions:

	query.NewOr().Chain(
	    query.NewWhere("status").Eq("active"),
	    query.NewWhere("status").Eq("pending"),
	)

Builder:

	lit, err := query.NewQueryBuilder("User").
	    Where("type").Eq("@Type").
	    Where("age").Gt(30).
	    OrderBy("createdOn", storagemodels.Descending).
	    Paginate(0, 20).
	    Build(query.Param("@Type", "User"))

Build fails when a placeholder in the text is not bound exactly once or a
bound parameter is never referenced.

Search:

	lit, err := query.Search(query.SearchOptions{
	    Type: "User",
	    Item: map[string]any{"firstName": "Adam"},
	})
	// SELECT * FROM c WHERE c.type = @Type AND c[@P0] = @V0
	//   ORDER BY c._ts DESC OFFSET 0 LIMIT 10
*/
package query
