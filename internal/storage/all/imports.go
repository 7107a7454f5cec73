// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. Afterwards storage.Open accepts the
// kinds "mssql", "mysql", "postgres" and "sqlite".
//
// A binary that needs only a subset can import the backend packages directly
// instead.
package all

import (
	_ "tableingest/internal/storage/mssql"
	_ "tableingest/internal/storage/mysql"
	_ "tableingest/internal/storage/postgres"
	_ "tableingest/internal/storage/sqlite"
)
