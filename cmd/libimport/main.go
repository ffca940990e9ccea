package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"github.com/fitcal/fitcal/internal/db"
	"github.com/fitcal/fitcal/internal/library"

	log "github.com/sirupsen/logrus"
)

// imports exercise catalog entries from a semicolon separated CSV file
// into the exercise_library table; safe to re-run, existing entries are
// updated in place
func main() {
	fmt.Println("starting exercise library import ...")

	csvPath := flag.String("csv", "./assets/exercise_library.csv", "path of the exercise library CSV file")
	dbHost := flag.String("db-host", "localhost", "postgres host")
	dbPort := flag.String("db-port", "5432", "postgres port")
	dbName := flag.String("db-name", "fitcal_db", "postgres database name")
	flag.Parse()

	ctx := context.Background()

	csvFile, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv file: %s", err)
	}
	defer func() {
		if err := csvFile.Close(); err != nil {
			log.Warnf("close csv file: %s", err)
		}
	}()

	exercises, err := library.ReadExercisesCSV(csv.NewReader(csvFile))
	if err != nil {
		log.Fatalf("read exercises csv: %s", err)
	}
	if len(exercises) == 0 {
		log.Warnln("no exercises found in the csv, nothing to do")
		return
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: *dbHost,
		DBPort: *dbPort,
		DBName: *dbName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	libraryService := library.NewService(library.NewRepo(dbPool))
	imported, err := libraryService.Import(ctx, exercises)
	if err != nil {
		log.Fatalf("import failed after %d entries: %s", imported, err)
	}

	fmt.Printf("done, %d entries imported\n", imported)
}
