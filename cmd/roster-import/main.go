// Command roster-import loads members from a roster CSV export.
//
// Usage:
//
//	roster-import path/to/roster.csv
//
// Rows with a call sign or email already on file are skipped; rows with bad
// data are reported and the import continues.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	attendancestore "clubroster/internal/attendance/store"
	"clubroster/internal/audit"
	auditpostgres "clubroster/internal/audit/store/postgres"
	"clubroster/internal/credential"
	duesstore "clubroster/internal/dues/store"
	"clubroster/internal/importer"
	memberservice "clubroster/internal/member/service"
	memberstore "clubroster/internal/member/store"
	"clubroster/internal/platform/config"
	"clubroster/internal/platform/database"
	"clubroster/internal/platform/logger"
	rolesstore "clubroster/internal/roles/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	if flag.NArg() != 1 {
		return fmt.Errorf("usage: %s <roster.csv>", os.Args[0])
	}
	path := flag.Arg(0)

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	members := memberstore.NewPostgres(db)
	txRunner := database.NewTx(db, 10*time.Second)
	recorder := audit.NewRecorder(auditpostgres.New(db))
	memberSvc := memberservice.New(
		members,
		duesstore.NewPostgres(db),
		attendancestore.NewPostgres(db),
		rolesstore.NewPostgres(db),
		txRunner,
		recorder,
		credential.NewBcryptHasher(),
		memberservice.WithLogger(log),
	)

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	imp := importer.New(memberSvc, members, importer.WithLogger(log))
	summary, err := imp.Run(ctx, file)
	if err != nil {
		return err
	}

	for _, row := range summary.Rows {
		if row.Status == importer.RowImported {
			continue
		}
		fmt.Printf("row %d (%s): %s: %s\n", row.Row, row.CallSign, row.Status, row.Reason)
	}
	fmt.Printf("imported %d, skipped %d, errors %d\n", summary.Imported, summary.Skipped, summary.Errors)
	return nil
}
