// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package base 提供被其他多个package依赖的基础内容: 错误定义、日志、缓存、版本信息
package base

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/q191201771/naza/pkg/bininfo"
)

var startTime string

var readableTimeLayout = "2006-01-02 15:04:05.999 Z0700 MST"

// ReadableNowTime 当前时间，可读字符串形式
func ReadableNowTime() string {
	return time.Now().Format(readableTimeLayout)
}

func GetWd() string {
	dir, _ := os.Getwd()
	return dir
}

func LogoutStartInfo() {
	Log.Infof("     start: %s", startTime)
	Log.Infof("        wd: %s", GetWd())
	Log.Infof("      args: %s", strings.Join(os.Args, " "))
	Log.Infof("   bininfo: %s", bininfo.StringifySingleLine())
	Log.Infof("   version: %s", FullInfo)
}

// WrapReadConfigFile 读取配置文件
//
// theConfigFile 为空时，依次尝试 defaultConfigFiles 中的文件。都读取失败时退出进程。
//
func WrapReadConfigFile(theConfigFile string, defaultConfigFiles []string) []byte {
	if theConfigFile == "" {
		Log.Warnf("config file did not specify in the command line, try to load it in the usual path.")
		for _, dcf := range defaultConfigFiles {
			fi, err := os.Stat(dcf)
			if err == nil && fi.Size() > 0 && !fi.IsDir() {
				Log.Warnf("%s exist. using it as config file.", dcf)
				theConfigFile = dcf
				break
			}
			Log.Warnf("%s not exist.", dcf)
		}

		if theConfigFile == "" {
			flag.Usage()
			OsExitAndWaitPressIfWindows(1)
		}
	}

	rawContent, err := os.ReadFile(theConfigFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "read conf file failed. file=%s err=%+v\n", theConfigFile, err)
		OsExitAndWaitPressIfWindows(1)
	}
	return rawContent
}

// RunSignalHandler 收到SIGINT或SIGTERM时回调 cb，ctx 结束时直接返回
//
func RunSignalHandler(ctx context.Context, cb func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case s := <-c:
		Log.Infof("recv signal. s=%+v", s)
		cb()
	case <-ctx.Done():
	}
}

func init() {
	startTime = ReadableNowTime()
}
