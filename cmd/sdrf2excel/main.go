package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/proteomehub/sdrftable/compileinfoprint"
	"github.com/proteomehub/sdrftable/metatable"
	"github.com/proteomehub/sdrftable/sdrfio"
	"github.com/proteomehub/sdrftable/template"
	"github.com/proteomehub/sdrftable/workbook"
)

// Reads an SDRF tab-separated file and emits an Excel collection template
// with the same columns, pools, and dropdown hints.
func main() {
	var sdrfPath string
	var outPath string
	var name string
	var templatePath string
	var noPools bool

	flag.StringVar(&sdrfPath, "sdrf", "", "Path to the .sdrf.tsv file to convert.")
	flag.StringVar(&outPath, "out", "", "Output .xlsx path. Defaults to the input name with a _template.xlsx suffix.")
	flag.StringVar(&name, "name", "", "Table name. Defaults to the input filename.")
	flag.StringVar(&templatePath, "templates", "", "Optional tab-delimited column template library.")
	flag.BoolVar(&noPools, "nopools", false, "Skip the pool sheets even when the SDRF declares pooled samples.")
	flag.Parse()

	if sdrfPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(sdrfPath), ".sdrf.tsv")
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(sdrfPath, ".sdrf.tsv") + "_template.xlsx"
	}

	reg, err := loadRegistry(templatePath)
	if err != nil {
		log.Fatalln(err)
	}

	in, err := os.Open(sdrfPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer in.Close()

	t := metatable.New(name, 0)
	res, err := sdrfio.Import(in, t, sdrfio.ImportOptions{Registry: reg})
	if err != nil {
		log.Fatalln(err)
	}
	for _, warning := range res.Warnings {
		log.Println("Warning:", warning)
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer out.Close()

	if err := workbook.Export(out, t, workbook.Options{IncludePools: !noPools}); err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("Wrote %s: %d samples, %d columns, %d pools\n", outPath, t.SampleCount, len(t.Columns), len(t.Pools))
}

func loadRegistry(path string) (*template.Registry, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return template.LoadTSV(f)
}
