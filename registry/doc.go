/*
Package registry manages type registration for docstore.

Documents of many kinds share a container and are told apart by their
"type" field. The registry maps that discriminator to a Go type so that
query results can be decoded polymorphically:

	registry.RegisterType("Link", func() any {
	    return &models.Link{}
	})

	obj, err := registry.Decode(doc) // *models.Link for type "Link"

Documents whose type is not registered decode to the raw document.

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
