// SPDX-License-Identifier: Apache-2.0

// Package testutils is the redact pipeline's integration-test harness: a
// shared testcontainers-postgres instance, a per-test scratch database,
// and a DumpRedactRestore helper that exercises the full plain-format
// pg_dump → redact → psql round trip a unit test can't reach. Adapted from
// pgroll's own testcontainers-postgres harness (same container/shared
// connection-string pattern), retargeted from "apply a migration" to
// "dump, anonymize, and restore".
package testutils

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pgredact/pgredact/internal/config"
	"github.com/pgredact/pgredact/internal/logging"
	"github.com/pgredact/pgredact/internal/redact"
)

// The version of postgres against which the tests are run
// if the POSTGRES_VERSION environment variable is not set.
const defaultPostgresVersion = "15.3"

// tConnStr holds the connection string to the test container created in TestMain.
var tConnStr string

// SharedTestMain starts a postgres container to be used by all tests in a package.
// Each test then connects to the container and creates a new database.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate container: %v", err)
	}

	os.Exit(exitCode)
}

// WithConnectionToContainer hands fn a connection to a fresh database
// inside the shared container, and its connection string.
func WithConnectionToContainer(t *testing.T, fn func(*sql.DB, string)) {
	t.Helper()

	db, connStr, _ := setupTestDatabase(t)

	fn(db, connStr)
}

// DumpRedactRestore pg_dumps srcConnStr in plain format, streams the dump
// through redact.Run using cfg, and loads the result with psql into a
// fresh scratch database, returning a connection to it so the caller can
// assert on the anonymized data with ordinary SQL.
func DumpRedactRestore(t *testing.T, srcConnStr string, cfg config.Config) *sql.DB {
	t.Helper()

	dumped := runPgDump(t, srcConnStr)

	var redacted bytes.Buffer
	if err := redact.Run(bytes.NewReader(dumped), &redacted, cfg, logging.NewNoop()); err != nil {
		t.Fatalf("redact.Run: %v", err)
	}

	dstDB, dstConnStr, _ := setupTestDatabase(t)
	runPsql(t, dstConnStr, redacted.Bytes())

	return dstDB
}

func runPgDump(t *testing.T, connStr string) []byte {
	t.Helper()

	cmd := exec.Command("pg_dump", "--format=plain", connStr)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("pg_dump: %v", err)
	}
	return out
}

func runPsql(t *testing.T, connStr string, input []byte) {
	t.Helper()

	cmd := exec.Command("psql", connStr)
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("psql: %v: %s", err, stderr.String())
	}
}

// setupTestDatabase creates a new database in the test container and returns:
// - a connection to the new database
// - the connection string to the new database
// - the name of the new database
func setupTestDatabase(t *testing.T) (*sql.DB, string, string) {
	t.Helper()
	ctx := context.Background()

	tDB, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := tDB.Close(); err != nil {
			t.Fatalf("Failed to close database connection: %v", err)
		}
	})

	dbName := randomDBName()

	_, err = tDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}

	u.Path = "/" + dbName
	connStr := u.String()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("Failed to close database connection: %v", err)
		}
	})

	return db, connStr, dbName
}
