// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
)

// OsExitAndWaitPressIfWindows 双击运行的windows程序，退出前等待回车，方便看到错误信息
//
func OsExitAndWaitPressIfWindows(code int) {
	if runtime.GOOS == "windows" {
		_, _ = fmt.Fprintf(os.Stderr, "Press Enter to exit...")
		_, _ = bufio.NewReader(os.Stdin).ReadByte()
	}
	os.Exit(code)
}
