package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/proteomehub/sdrftable/bulkio"
	_ "github.com/proteomehub/sdrftable/compileinfoprint"
	"github.com/proteomehub/sdrftable/store"
	"github.com/proteomehub/sdrftable/template"
)

// Bulk exports every table in a SQLite catalog to a zip archive, or bulk
// imports a zip of SDRF files and Excel templates into the catalog.
func main() {
	var dbPath string
	var mode string
	var zipPath string
	var format string
	var templatePath string

	flag.StringVar(&dbPath, "db", "", "Path to the SQLite table catalog.")
	flag.StringVar(&mode, "mode", "export", "Either 'export' (default) or 'import'.")
	flag.StringVar(&zipPath, "zip", "", "Path to the zip archive to write (export) or read (import).")
	flag.StringVar(&format, "format", "sdrf", "Export format: 'sdrf' (default) or 'excel'.")
	flag.StringVar(&templatePath, "templates", "", "Optional tab-delimited column template library for imports.")
	flag.Parse()

	if dbPath == "" || zipPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	ctx := context.Background()

	switch mode {
	case "export":
		err = runExport(ctx, db, zipPath, format)
	case "import":
		err = runImport(ctx, db, zipPath, templatePath)
	default:
		log.Println("Mode", mode, "not recognized")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func runExport(ctx context.Context, db *store.SQL, zipPath, format string) error {
	exportFormat := bulkio.FormatSDRF
	if format == "excel" {
		exportFormat = bulkio.FormatWorkbook
	}

	tables, err := db.ListTables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("catalog has no tables to export")
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer out.Close()

	entries, err := bulkio.ExportZip(ctx, out, tables, bulkio.ExportOptions{Format: exportFormat, IncludePools: true})
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Error != "" {
			log.Printf("Skipped %s: %s\n", entry.TableName, entry.Error)
			continue
		}
		log.Printf("Exported %s (%d samples, %d columns)\n", entry.Filename, entry.SampleCount, entry.ColumnCount)
	}

	return nil
}

func runImport(ctx context.Context, db *store.SQL, zipPath, templatePath string) error {
	var reg *template.Registry
	if templatePath != "" {
		f, err := os.Open(templatePath)
		if err != nil {
			return err
		}
		reg, err = template.LoadTSV(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	in, err := os.Open(zipPath)
	if err != nil {
		return err
	}
	defer in.Close()

	entries, err := bulkio.ImportZip(ctx, in, bulkio.ImportOptions{Registry: reg})
	if err != nil {
		return err
	}

	// All-or-nothing: one bad archive entry should not leave a half
	// imported catalog behind.
	err = db.WithinTx(ctx, func(s store.Store) error {
		for _, entry := range entries {
			if entry.Error != "" {
				return fmt.Errorf("%s: %s", entry.Filename, entry.Error)
			}
			if err := s.CreateTable(ctx, entry.Table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, entry := range entries {
		for _, warning := range entry.Warnings {
			log.Printf("%s: %s\n", entry.Filename, warning)
		}
		log.Printf("Imported %s as table %d\n", entry.Filename, entry.Table.ID)
	}

	return nil
}
