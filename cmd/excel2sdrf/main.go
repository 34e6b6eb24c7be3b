package main

import (
	"bufio"
	"flag"
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

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

// Converts a filled-in Excel collection template back to SDRF.
// Emits to stdout unless -out is given. Legacy .xls workbooks are
// handled with the binary reader.
func main() {
	defer STDOUT.Flush()

	var excelPath string
	var outPath string
	var templatePath string
	var noPools bool

	flag.StringVar(&excelPath, "excel", "", "Path to the .xlsx (or legacy .xls) template to convert.")
	flag.StringVar(&outPath, "out", "", "Output .sdrf.tsv path. Defaults to stdout.")
	flag.StringVar(&templatePath, "templates", "", "Optional tab-delimited column template library.")
	flag.BoolVar(&noPools, "nopools", false, "Skip pool rows in the SDRF output.")
	flag.Parse()

	if excelPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	reg, err := loadRegistry(templatePath)
	if err != nil {
		log.Fatalln(err)
	}

	in, err := os.Open(excelPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer in.Close()

	name := strings.TrimSuffix(filepath.Base(excelPath), filepath.Ext(excelPath))
	t := metatable.New(name, 0)

	opts := workbook.Options{Registry: reg}
	var res *workbook.Result
	if strings.EqualFold(filepath.Ext(excelPath), ".xls") {
		res, err = workbook.ImportLegacy(in, t, opts)
	} else {
		res, err = workbook.Import(in, t, opts)
	}
	if err != nil {
		log.Fatalln(err)
	}
	for _, warning := range res.Warnings {
		log.Println("Warning:", warning)
	}

	out := STDOUT
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		out = bufio.NewWriterSize(f, BufferSize)
		defer out.Flush()
	}

	if err := sdrfio.Export(out, t, sdrfio.ExportOptions{IncludePools: !noPools}); err != nil {
		log.Fatalln(err)
	}
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
