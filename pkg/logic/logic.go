// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package logic 把 mpegps 和 mpeg1video 串起来
//
// Pipeline 负责: 写入PS或TS流 -> 取出PES -> 视频PES的payload写入解码器 -> 取出解码后的帧。
// Entry 是命令行程序的入口，读取配置文件中指定的文件，走一遍 Pipeline。
//
package logic

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

const (
	FormatPs = "ps"
	FormatTs = "ts"
)

// 输入结束时写入解码器，让最后一个picture也能被解码
// sequence_end_code + picture_start_code
var flushTrailer = []byte{0, 0, 1, 0xB7, 0, 0, 1, 0}
