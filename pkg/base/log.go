// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"encoding/hex"
	"fmt"

	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

// LogDump 出错时打印输入数据的十六进制内容
//
// trace级别每次都打印；debug级别最多打印 limit 次，避免坏流刷屏；更高级别不打印。
//
type LogDump struct {
	log   nazalog.Logger
	limit int
	count int
}

func NewLogDump(log nazalog.Logger, limit int) LogDump {
	return LogDump{
		log:   log,
		limit: limit,
	}
}

// ShouldDump 返回true时计数加1
func (ld *LogDump) ShouldDump() bool {
	switch ld.log.GetOption().Level {
	case nazalog.LevelTrace:
		ld.count++
		return true
	case nazalog.LevelDebug:
		if ld.count >= ld.limit {
			return false
		}
		ld.count++
		return true
	}
	return false
}

// DumpWindow 打印解析出错时的窗口，只打印前 DumpWindowPrefix 字节
//
// @param offset: window首字节在缓冲中的位置
//
// @return: 是否打印了
//
func (ld *LogDump) DumpWindow(err error, window []byte, offset int) bool {
	if !ld.ShouldDump() {
		return false
	}
	ld.log.Out(ld.log.GetOption().Level, 2, fmt.Sprintf("%+v. offset=%d, len=%d\n%s",
		err, offset, len(window), hex.Dump(nazabytes.Prefix(window, DumpWindowPrefix))))
	return true
}

// Count 已经打印的次数
func (ld *LogDump) Count() int {
	return ld.count
}

const DumpWindowPrefix = 32
