package migrations

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrations_ParseInVersionOrder(t *testing.T) {
	src, err := iofs.New(files, ".")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != 1 {
		t.Fatalf("first version = %d, want 1", first)
	}

	count := 1
	version := first
	for {
		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
		count++
	}
	if count != 9 {
		t.Fatalf("expected 9 migrations, got %d", count)
	}
}

func TestEmbeddedMigrations_EachVersionHasUpMigrationOnly(t *testing.T) {
	src, err := iofs.New(files, ".")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	for {
		r, _, err := src.ReadUp(version)
		if err != nil {
			t.Fatalf("ReadUp(%d): %v", version, err)
		}
		r.Close()

		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
}
