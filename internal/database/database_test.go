package database

import "testing"

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"categories", "items", "vendors", "bookings", "admins"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMongoIndexesCoverCollections(t *testing.T) {
	idx := mongoIndexes()
	for _, coll := range []string{CategoriesCollection, ItemsCollection, VendorsCollection, BookingsCollection, AdminsCollection} {
		if len(idx[coll]) == 0 {
			t.Errorf("no indexes for %s", coll)
		}
	}
	if opts := idx[AdminsCollection][0].Options; opts == nil || opts.Unique == nil || !*opts.Unique {
		t.Error("admin email index is not unique")
	}
}
