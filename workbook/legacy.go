package workbook

import (
	"io"

	"github.com/carbocation/pfx"
	"github.com/extrame/xls"

	"github.com/proteomehub/sdrftable/metatable"
)

// ImportLegacy reads a pre-2007 BIFF .xls workbook into the table. The
// sheet complement and semantics match Import; only the container format
// differs.
func ImportLegacy(r io.ReadSeeker, t *metatable.Table, opts Options) (*Result, error) {
	book, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, pfx.Err(err)
	}

	sheets := make(map[string][][]string)
	for sheetID := 0; sheetID < book.NumSheets(); sheetID++ {
		sheet := book.GetSheet(sheetID)
		if sheet == nil {
			continue
		}

		var rows [][]string
		for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
			row := sheet.Row(rowID)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for colID := 0; colID <= row.LastCol(); colID++ {
				cells = append(cells, row.Col(colID))
			}
			rows = append(rows, cells)
		}
		sheets[sheet.Name] = rows
	}

	return importSheets(sheets, t, opts)
}
