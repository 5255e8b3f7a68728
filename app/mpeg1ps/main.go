// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/logic"
	"github.com/q191201771/naza/pkg/bininfo"
)

func main() {
	defaultConfigFiles := []string{
		"mpeg1ps.conf.json",
		"./conf/mpeg1ps.conf.json",
		"../mpeg1ps.conf.json",
		"../conf/mpeg1ps.conf.json",
	}
	rawContent := base.WrapReadConfigFile(parseFlag(), defaultConfigFiles)
	if err := logic.Entry(rawContent); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "mpeg1ps failed. err=%+v\n", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
}

func parseFlag() string {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	cf := flag.String("c", "", "specify conf file")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/mpeg1ps -c ./conf/mpeg1ps.conf.json
`)
	}
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.FullInfo)
		os.Exit(0)
	}
	return *cf
}
