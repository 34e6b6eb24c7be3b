// Package compileinfoprint is blank-imported for its side effect of
// printing the build banner to stderr at startup.
package compileinfoprint

import "github.com/proteomehub/sdrftable/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
