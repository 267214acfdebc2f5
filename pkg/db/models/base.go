package models

import "github.com/google/uuid"

// All lists every persisted model in dependency order. SQLite deployments and
// repository tests migrate with it; Postgres uses the goose migrations.
func All() []any {
	return []any{
		&User{},
		&Customer{},
		&Product{},
		&ProductPriceTier{},
		&Quote{},
		&QuoteLineItem{},
		&Order{},
		&OrderLineItem{},
		&Notification{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
