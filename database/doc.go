// Package database opens a SQLite database through GORM with pooled
// connections, a zerolog-backed query logger and retried connection setup.
//
//	db, err := database.Open(ctx, database.Config{Path: "scribe.db"}, log)
//	if err != nil { ... }
//	defer db.Close()
//	err = db.AutoMigrate(&Entry{})
//
// Component adapts a DB to the component lifecycle.
package database
