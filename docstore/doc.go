// Package docstore defines a small schema-flexible document store contract
// and its local backends.
//
// A Store lists, creates and updates documents of a single collection. The
// hosted Appwrite backend lives in the appwrite package; this package ships
// MemoryStore, SQLiteStore and PostgresStore.
//
// Every backend error is returned as a *StoreError whose Recoverable flag
// tells callers whether retrying later may help:
//
//	docs, err := store.ListDocuments(ctx, docstore.NewQuery(
//		docstore.OrderDesc("count"),
//		docstore.Limit(3),
//	))
//	if docstore.IsRecoverable(err) {
//		// try again later
//	}
package docstore
