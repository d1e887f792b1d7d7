package storage

import (
	"context"
	"errors"
)

// The three ingestion tables. Identifiers are allocated by the Allocator
// before insertion, so none of the key columns auto-increment.
var tables = []struct {
	name    string
	columns []Column
}{
	{"restaurants", []Column{
		{"id_restaurant", "INTEGER PRIMARY KEY"},
		{"nom", "TEXT NOT NULL"},
		{"categorie", "TEXT"},
		{"tags", "TEXT"},
		{"price", "TEXT"},
		{"note_globale", "REAL"},
		{"total_comments", "INTEGER"},
		{"url", "TEXT"},
		{"summary", "TEXT"},
	}},
	{"geographie", []Column{
		{"id_localisation", "INTEGER PRIMARY KEY"},
		{"id_restaurant", "INTEGER REFERENCES restaurants(id_restaurant)"},
		{"localisation", "TEXT"},
		{"latitude", "REAL"},
		{"longitude", "REAL"},
		{"restaurant_density", "INTEGER"},
		{"transport_count", "INTEGER"},
	}},
	{"avis", []Column{
		{"id_avis", "INTEGER PRIMARY KEY"},
		{"id_restaurant", "INTEGER REFERENCES restaurants(id_restaurant)"},
		{"nom_utilisateur", "TEXT"},
		{"note_restaurant", "REAL"},
		{"date_avis", "TEXT"},
		{"titre_avis", "TEXT"},
		{"contenu_avis", "TEXT"},
		{"label", "INTEGER"},
	}},
}

// InitSchema creates any missing ingestion tables and commits the DDL.
// Tables that already exist are left untouched, so it is safe to call on
// every startup.
func (g *Gateway) InitSchema(ctx context.Context) error {
	for _, t := range tables {
		if err := g.CreateTable(ctx, t.name, t.columns); err != nil && !errors.Is(err, ErrTableExists) {
			return err
		}
	}
	return g.Commit()
}
