// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package mpeg1video MPEG-1视频（ISO/IEC 11172-2）解码，只支持I帧和P帧
//
package mpeg1video

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// 起始码的第4个字节
const (
	startCodePicture     = 0x00
	startCodeSliceFirst  = 0x01
	startCodeSliceLast   = 0xAF
	startCodeUserData    = 0xB2
	startCodeSequence    = 0xB3
	startCodeExtension   = 0xB5
	startCodeSequenceEnd = 0xB7
	startCodeGop         = 0xB8
)

const (
	pictureTypeIntra      = 1
	pictureTypePredictive = 2
	pictureTypeB          = 3
	pictureTypeD          = 4
)

// 宏块类型中的标志位
const (
	mbTypeIntra         = 0x01
	mbTypePattern       = 0x02
	mbTypeMotionForward = 0x08
	mbTypeQuant         = 0x10
)

// 宏块地址增量中的特殊值
const (
	mbaStuffing = 34
	mbaEscape   = 35
)

const (
	defaultRingCapacity = 4 * 1024 * 1024

	maxPtsMarks = 64

	// sequence header 中两个量化矩阵之前的部分，包含 load_intra_quantiser_matrix 标志位
	sequenceHeaderFixedBits = 12 + 12 + 4 + 4 + 18 + 1 + 10 + 1 + 1
	quantMatrixBits         = 64 * 8
)

type Result int

const (
	ResultNeedMoreData Result = iota
	ResultGotOneFrame
)

func (r Result) String() string {
	switch r {
	case ResultNeedMoreData:
		return "NeedMoreData"
	case ResultGotOneFrame:
		return "GotOneFrame"
	}
	return "Unknown"
}

func isSliceStartCode(code int) bool {
	return code >= startCodeSliceFirst && code <= startCodeSliceLast
}
