// Package database handles the connection to the local record store's
// relational database.
//
// Connect wraps GORM to configure either a MySQL connection (production)
// or a SQLite file/in-memory database (tests and single-user setups),
// selected by the driver field of the configuration.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
