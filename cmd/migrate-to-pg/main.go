package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Copies the catalog out of a single-node sqlite file into postgres for
// multi-instance deployments. IDs are preserved so episode foreign keys
// survive the move.
func main() {
	sqlitePath := flag.String("sqlite-path", "", "Path to SQLite database file")
	pgURL := flag.String("pg-url", "", "PostgreSQL connection URL")
	flag.Parse()

	if *sqlitePath == "" || *pgURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: migrate-to-pg --sqlite-path /path/to/reelgrid.db --pg-url postgres://...\n")
		os.Exit(1)
	}

	sqliteDB, err := sql.Open("sqlite", *sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteDB.Close()

	if err := sqliteDB.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite: %v", err)
	}
	log.Println("Connected to SQLite")

	pgDB, err := sql.Open("pgx", *pgURL)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL: %v", err)
	}
	defer pgDB.Close()

	if err := pgDB.Ping(); err != nil {
		log.Fatalf("Failed to ping PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	tx, err := pgDB.Begin()
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}
	defer tx.Rollback()

	// Truncate target tables for idempotent re-runs (reverse FK order)
	for _, table := range []string{"episodes", "catalog_records"} {
		if _, err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}
	log.Println("Truncated all target tables")

	// Migrate tables in FK-dependency order
	tables := []struct {
		name    string
		columns string
	}{
		{"catalog_records", "id, slug, title, description, year, category, genres, languages, is_dual_audio, director, cast_list, tags, images, download_links, streaming_links, is_series, total_episodes, visibility, is_ai_generated, approved_at, views, downloads, created_at, updated_at"},
		{"episodes", "id, record_id, season_number, episode_number, title, description, duration, thumbnail, air_date, download_links, streaming_links, views, downloads, created_at"},
	}

	boolColumns := map[string]bool{
		"is_dual_audio":   true,
		"is_series":       true,
		"is_ai_generated": true,
	}

	for _, table := range tables {
		count, err := migrateTable(sqliteDB, tx, table.name, table.columns, boolColumns)
		if err != nil {
			log.Fatalf("Failed to migrate table %s: %v", table.name, err)
		}
		log.Printf("Migrated %s: %d rows", table.name, count)
	}

	// Reset sequences so new inserts continue past the copied IDs
	for _, table := range []string{"catalog_records", "episodes"} {
		_, err := tx.Exec(fmt.Sprintf(
			"SELECT setval('%s_id_seq', COALESCE((SELECT MAX(id) FROM %s), 1), (SELECT COUNT(*) > 0 FROM %s))",
			table, table, table,
		))
		if err != nil {
			log.Fatalf("Failed to reset sequence for %s: %v", table, err)
		}
		log.Printf("Reset sequence for %s", table)
	}

	// Verify row counts
	log.Println("Verifying row counts...")
	for _, table := range tables {
		var sqliteCount, pgCount int64

		err := sqliteDB.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table.name)).Scan(&sqliteCount)
		if err != nil {
			log.Fatalf("Failed to count SQLite rows for %s: %v", table.name, err)
		}

		err = tx.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table.name)).Scan(&pgCount)
		if err != nil {
			log.Fatalf("Failed to count PG rows for %s: %v", table.name, err)
		}

		if sqliteCount != pgCount {
			log.Fatalf("Row count mismatch for %s: SQLite=%d, PG=%d", table.name, sqliteCount, pgCount)
		}
		log.Printf("Verified %s: %d rows match", table.name, sqliteCount)
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}

	log.Println("Migration completed successfully!")
}

func migrateTable(sqliteDB *sql.DB, tx *sql.Tx, tableName, columns string, boolColumns map[string]bool) (int64, error) {
	rows, err := sqliteDB.Query(fmt.Sprintf("SELECT %s FROM %s", columns, tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to query SQLite: %w", err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to get columns: %w", err)
	}

	placeholders := make([]string, len(colNames))
	for i := range colNames {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	// Preserve IDs from the source database
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) OVERRIDING SYSTEM VALUE VALUES (%s)",
		tableName, columns, strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var count int64
	for rows.Next() {
		values := make([]interface{}, len(colNames))
		valuePtrs := make([]interface{}, len(colNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return 0, fmt.Errorf("failed to scan row: %w", err)
		}

		// Convert SQLite booleans (0/1) to PostgreSQL booleans
		for i, colName := range colNames {
			if boolColumns[colName] {
				if v, ok := values[i].(int64); ok {
					values[i] = v != 0
				}
			}
		}

		if _, err := stmt.Exec(values...); err != nil {
			return 0, fmt.Errorf("failed to insert row: %w", err)
		}
		count++
	}

	return count, rows.Err()
}
