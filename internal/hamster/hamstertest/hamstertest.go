// Package hamstertest builds throwaway Hamster databases for tests.
package hamstertest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Schema is the subset of the Hamster schema gts reads. Column types match
// what Hamster itself declares.
const Schema = `
CREATE TABLE categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(500),
	search_name VARCHAR(500)
);
CREATE TABLE activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(500),
	deleted BOOL DEFAULT 0,
	category_id INTEGER REFERENCES categories(id)
);
CREATE TABLE facts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	activity_id INTEGER REFERENCES activities(id),
	start_time TIMESTAMP,
	end_time TIMESTAMP,
	description VARCHAR(500)
);
`

// Fact is one row to insert. Empty End and Note are stored as NULL.
type Fact struct {
	Label    string
	Category string
	Start    string
	End      string
	Note     string
}

// NewDB creates a Hamster database in t.TempDir() holding facts and
// returns its path.
func NewDB(t *testing.T, facts ...Fact) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hamster.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	for _, f := range facts {
		Insert(t, db, f)
	}
	return path
}

// Insert adds one fact, creating its activity and category rows.
func Insert(t *testing.T, db *sql.DB, f Fact) {
	t.Helper()

	var categoryID any
	if f.Category != "" {
		res, err := db.Exec(`INSERT INTO categories (name, search_name) VALUES (?, ?)`, f.Category, f.Category)
		if err != nil {
			t.Fatalf("inserting category: %v", err)
		}
		id, _ := res.LastInsertId()
		categoryID = id
	}

	res, err := db.Exec(`INSERT INTO activities (name, category_id) VALUES (?, ?)`, f.Label, categoryID)
	if err != nil {
		t.Fatalf("inserting activity: %v", err)
	}
	activityID, _ := res.LastInsertId()

	_, err = db.Exec(`INSERT INTO facts (activity_id, start_time, end_time, description) VALUES (?, ?, ?, ?)`,
		activityID, f.Start, nullable(f.End), nullable(f.Note))
	if err != nil {
		t.Fatalf("inserting fact: %v", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
