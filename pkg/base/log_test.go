// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"strings"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazalog"
)

func newHookLogger(t *testing.T, level nazalog.Level, lines *[]string) nazalog.Logger {
	l, err := nazalog.New(func(option *nazalog.Option) {
		option.Level = level
		option.IsToStdout = false
		option.HookBackendOutFn = func(level nazalog.Level, line []byte) {
			*lines = append(*lines, string(line))
		}
	})
	assert.Equal(t, nil, err)
	return l
}

func TestLogDump_DumpWindow(t *testing.T) {
	window := make([]byte, 100)
	for i := range window {
		window[i] = 0xA0 + uint8(i%16)
	}

	// debug级别，最多打印2次
	var lines []string
	ld := NewLogDump(newHookLogger(t, nazalog.LevelDebug, &lines), 2)
	for i := 0; i < 5; i++ {
		ok := ld.DumpWindow(ErrFormat, window, 7)
		assert.Equal(t, i < 2, ok)
	}
	assert.Equal(t, 2, ld.Count())
	assert.Equal(t, 2, len(lines))
	assert.Equal(t, true, strings.Contains(lines[0], ErrFormat.Error()))
	assert.Equal(t, true, strings.Contains(lines[0], "offset=7, len=100"))
	// 只打印前32字节
	assert.Equal(t, true, strings.Contains(lines[0], "a0 a1 a2 a3"))
	assert.Equal(t, true, strings.Contains(lines[0], "00000010"))
	assert.Equal(t, false, strings.Contains(lines[0], "00000020"))

	// trace级别不限次数
	lines = nil
	ld = NewLogDump(newHookLogger(t, nazalog.LevelTrace, &lines), 2)
	for i := 0; i < 5; i++ {
		assert.Equal(t, true, ld.DumpWindow(ErrFormat, nil, 0))
	}
	assert.Equal(t, 5, len(lines))

	// info级别不打印
	lines = nil
	ld = NewLogDump(newHookLogger(t, nazalog.LevelInfo, &lines), 2)
	assert.Equal(t, false, ld.DumpWindow(ErrFormat, window, 0))
	assert.Equal(t, 0, ld.Count())
	assert.Equal(t, 0, len(lines))
}
