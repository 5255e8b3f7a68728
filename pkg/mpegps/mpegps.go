// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package mpegps 增量式解析PS(Program Stream)流，输出PES
//
// 两种输入方式:
//   - PsDemuxer.Push 直接写入PS流
//   - TsReassembler.PushTs 写入TS流，视频PID的payload拼接后写入同一个 PsDemuxer
//
package mpegps

import (
	"fmt"

	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

// ISO/IEC 11172-1 2.4.3 / ISO/IEC 13818-1 2.5.3
const (
	psStartCodeEnd          = 0xb9 // ISO_11172_end_code / MPEG_program_end_code
	psStartCodePackHeader   = 0xba
	psStartCodeSystemHeader = 0xbb
	psStartCodeStreamMap    = 0xbc // program_stream_map
	psStartCodePrivate1     = 0xbd // private_stream_1
	psStartCodePadding      = 0xbe // padding_stream
	psStartCodePrivate2     = 0xbf // private_stream_2
	psStartCodeAudioMin     = 0xc0
	psStartCodeAudioMax     = 0xdf
	psStartCodeVideoMin     = 0xe0
	psStartCodeVideoMax     = 0xef

	packHeaderLen   = 12 // MPEG-1
	pesPrefixLen    = 6  // start code + PES_packet_length
	maxStuffingLen  = 16
	startCodeLength = 4
)

// 默认缓存大小
const defaultCapacity = 4 * 1024 * 1024

type PesType int

const (
	PesTypeUnknown PesType = iota
	PesTypePackHeader
	PesTypeSystemHeader
	PesTypeAudio
	PesTypeVideo
	PesTypeSkip
)

func (t PesType) String() string {
	switch t {
	case PesTypePackHeader:
		return "PackHeader"
	case PesTypeSystemHeader:
		return "SystemHeader"
	case PesTypeAudio:
		return "Audio"
	case PesTypeVideo:
		return "Video"
	case PesTypeSkip:
		return "Skip"
	}
	return "Unknown"
}

// PesPacketInfo Get 的解析结果
//
// Offset 为相对于 PsDemuxer 内部缓存读窗口的位置，只在下一次 Push 或失败的 Get 之前有效，
// 所以需要在这之前调用 PsDemuxer.Payload 取出数据。
//
type PesPacketInfo struct {
	Type     PesType
	StreamId uint8

	Pts uint64 // 90kHz，没有时为0
	Dts uint64 // 没有DTS时和Pts相同

	Offset        int // 整个包（从起始码开始）在缓存中的位置
	TotalLen      int // 整个包的长度，包含起始码和长度字段
	PayloadOffset int // payload相对于 Offset 的位置
}

func (p PesPacketInfo) PayloadLen() int {
	return p.TotalLen - p.PayloadOffset
}

func (p PesPacketInfo) String() string {
	return fmt.Sprintf("type=%s, sid=0x%02x, pts=%d, dts=%d, offset=%d, len=%d, payload=%d",
		p.Type, p.StreamId, p.Pts, p.Dts, p.Offset, p.TotalLen, p.PayloadOffset)
}

// classify 起始码第4字节对应的类型，ok为false表示不是PS层的起始码（比如视频ES内部的起始码）
//
func classify(id uint8) (t PesType, ok bool) {
	switch {
	case id >= psStartCodeAudioMin && id <= psStartCodeAudioMax:
		return PesTypeAudio, true
	case id >= psStartCodeVideoMin && id <= psStartCodeVideoMax:
		return PesTypeVideo, true
	case id == psStartCodePackHeader:
		return PesTypePackHeader, true
	case id == psStartCodeSystemHeader:
		return PesTypeSystemHeader, true
	case id == psStartCodePrivate1 || id == psStartCodePadding || id == psStartCodePrivate2 || id == psStartCodeEnd:
		return PesTypeSkip, true
	case id == psStartCodeStreamMap || id >= 0xf0:
		return PesTypeUnknown, true
	}
	return PesTypeUnknown, false
}
