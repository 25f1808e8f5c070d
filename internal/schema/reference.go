// Package schema holds the PostgreSQL DDL for the reference population.
package schema

// ReferenceCustomersTable is the table the reference store reads from.
const ReferenceCustomersTable = "reference_customers"

// ReferenceCustomers creates the reference table. search_name is stored
// uppercased; lookups compare it and upper(name) against uppercased input.
const ReferenceCustomers = `CREATE TABLE IF NOT EXISTS reference_customers (
	uq_id           TEXT PRIMARY KEY,
	name            TEXT NOT NULL CHECK (name <> ''),
	search_name     TEXT,
	customer_id     TEXT,
	customer_number TEXT,
	source          TEXT NOT NULL DEFAULT ''
)`

// Indexes back the exact-key and exact-name lookups.
var Indexes = []string{
	`CREATE INDEX IF NOT EXISTS reference_customers_customer_number_idx ON reference_customers (customer_number)`,
	`CREATE INDEX IF NOT EXISTS reference_customers_customer_id_idx ON reference_customers (customer_id)`,
	`CREATE INDEX IF NOT EXISTS reference_customers_upper_name_idx ON reference_customers (upper(name))`,
	`CREATE INDEX IF NOT EXISTS reference_customers_search_name_idx ON reference_customers (search_name)`,
}

// Statements returns the DDL in execution order.
func Statements() []string {
	return append([]string{ReferenceCustomers}, Indexes...)
}

// Columns is the column order used when bulk loading records.
var Columns = []string{"uq_id", "name", "search_name", "customer_id", "customer_number", "source"}
