// Package appwrite implements docstore.Store on top of the Appwrite
// Databases REST API.
//
// The client talks to a single collection:
//
//	client, err := appwrite.NewClient(
//		"https://cloud.appwrite.io/v1",
//		projectID, databaseID, collectionID,
//		logger,
//		appwrite.WithAPIKey(apiKey),
//	)
//
// Queries are encoded the way the Appwrite SDKs encode them, as JSON objects
// passed in repeated queries[] parameters. New documents are created with the
// id "unique()" so the server assigns one.
package appwrite
