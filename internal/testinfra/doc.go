// Package testinfra starts the containers used by integration tests.
//
// Integration tests are behind the integration build tag and need Docker:
//
//	go test -tags integration ./...
//
// StartPostgres runs a disposable PostgreSQL server, applies the embedded
// migrations and returns a pool bound to the test's lifetime:
//
//	func TestSomething(t *testing.T) {
//	    pool := testinfra.StartPostgres(t)
//	    repo := repositories.NewStockRepository(pool)
//	    // ...
//	}
package testinfra
