// Package aidbox provides a native Go client for the Aidbox FHIR-style
// clinical data API. Remote resources are presented as attribute-bearing
// local objects whose field access is validated against a per-type schema
// fetched lazily from the server.
//
// # Features
//
//   - Immutable, lazily-executed search sets with filter/sort/pagination
//   - Schema-validated dynamic resources with create/update/delete
//   - Compact cross-resource references on serialization
//   - Typed errors for precise error handling
//   - Functional options for flexible configuration
//
// # Quick Start
//
//	client, err := aidbox.NewClient(ctx,
//	    aidbox.WithBaseURL("https://demo.aidbox.io"),
//	    aidbox.WithCredentials("user@example.com", "secret"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	patients := client.Resources("Patient")
//	results, err := patients.Search(aidbox.Params{"name": "john"}).Limit(10).Execute(ctx)
//
// # Resources
//
// Resources validate every field read and write against the schema of
// their type, which is fetched once per client and cached:
//
//	patient, err := client.Resource(ctx, "Patient", map[string]any{
//	    "name": "John",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := patient.Save(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Search Sets
//
// Search sets are immutable: every mutator returns a new query, so a base
// query can be derived from freely. Nothing touches the network until a
// terminal operation runs:
//
//	base := client.Resources("Patient").Search(aidbox.Params{"active": "true"})
//	page1 := base.Page(1)
//	total, err := base.Count(ctx)
//
//	for patient, err := range base.All(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(patient)
//	}
//
// # Error Handling
//
// The package uses typed errors that can be inspected with errors.As:
//
//	_, err := client.Resources("Patient").Get(ctx, "missing")
//	if err != nil {
//	    var notFound *aidbox.NotFoundError
//	    if errors.As(err, &notFound) {
//	        // Handle not found
//	    }
//	}
package aidbox
