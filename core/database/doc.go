// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration.
//
// # Connect
//
// The Connect function establishes a connection to the database with pooling
// and timeouts applied. The connection is optional at startup; features that
// need persistence check for it and disable themselves when it is absent.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema. Features use
// them at load time to warn about schema drift in the tables they own before
// any scan or resolution write happens.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "scan_sessions", expected)
package database
