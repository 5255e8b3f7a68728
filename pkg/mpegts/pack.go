// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"bytes"

	"github.com/q191201771/naza/pkg/bele"
)

// Frame 一个PES的数据，打包成若干个TS packet
//
// 只带PTS，不带DTS。目前只用于生成测试用的TS流。
//
type Frame struct {
	Pts uint64 // 90kHz
	Cc  uint8  // continuity_counter，Pack 之后为下一个packet使用的值
	Pid uint16
	Sid uint8 // stream_id of PES Header, 比如 StreamIdVideo

	// 为true时，首个packet带PCR（取值为Pts）
	Key bool

	// 不包含PES头的elementary stream数据
	Raw []byte
}

// Pack
//
// @return: 内存块为独立申请
//
func (frame *Frame) Pack() []byte {
	pes := frame.packPes()
	out := make([]byte, 0, (len(pes)/(TsPacketSize-TsPacketHeaderSize-8)+1)*TsPacketSize)

	for first := true; first || len(pes) > 0; first = false {
		// adaptation field，不包含 adaptation_field_length
		var af []byte
		if first && frame.Key {
			af = make([]byte, 7)
			af[0] = 0x50 // random_access_indicator + PCR_flag
			packPcr(af[1:], frame.Pts)
		}

		room := TsPacketSize - TsPacketHeaderSize
		if af != nil {
			room -= 1 + len(af)
		}
		n := len(pes)
		if n > room {
			n = room
		}

		// 最后一个packet用adaptation field填满
		if stuff := room - n; stuff > 0 {
			if af == nil {
				// adaptation_field_length 自身占1字节，只差1字节时长度为0
				af = make([]byte, stuff-1)
				for i := 1; i < len(af); i++ {
					af[i] = 0xFF
				}
			} else {
				af = append(af, bytes.Repeat([]byte{0xFF}, stuff)...)
			}
		}

		flags := uint8(0)
		if first {
			flags = 0x40 // payload_unit_start_indicator
		}
		control := AdaptationFieldControlNo
		if af != nil {
			control = AdaptationFieldControlFollowed
		}
		out = append(out,
			syncByte,
			flags|uint8(frame.Pid>>8)&0x1F,
			uint8(frame.Pid),
			control<<4|frame.Cc&0x0F)
		frame.Cc++

		if af != nil {
			out = append(out, uint8(len(af)))
			out = append(out, af...)
		}
		out = append(out, pes[:n]...)
		pes = pes[n:]
	}
	return out
}

// ----- private -------------------------------------------------------------------------------------------------------

// packPes MPEG-2格式的PES头，只带PTS
//
// 长度超过16bit时 PES_packet_length 为0
//
func (frame *Frame) packPes() []byte {
	const headerLen = 14

	pes := make([]byte, headerLen, headerLen+len(frame.Raw))
	pes[2] = 0x01
	pes[3] = frame.Sid
	if length := headerLen - 6 + len(frame.Raw); length <= 0xFFFF {
		bele.BePutUint16(pes[4:], uint16(length))
	}
	pes[6] = 0x80 // '10'
	pes[7] = 0x80 // PTS_DTS_flags '10'
	pes[8] = 5    // PES_header_data_length
	packPts(pes[9:], 0x2, frame.Pts)
	return append(pes, frame.Raw...)
}

// packPcr program_clock_reference_base 33bit + reserved 6bit + extension 9bit(为0)
func packPcr(out []byte, pcr uint64) {
	out[0] = uint8(pcr >> 25)
	out[1] = uint8(pcr >> 17)
	out[2] = uint8(pcr >> 9)
	out[3] = uint8(pcr >> 1)
	out[4] = uint8(pcr<<7) | 0x7e
	out[5] = 0
}

// packPts 4bit前缀 + 33bit按 3/15/15 切分，每段之后一个marker bit
func packPts(out []byte, prefix uint8, pts uint64) {
	out[0] = prefix<<4 | uint8(pts>>29)&0x0E | 1
	bele.BePutUint16(out[1:], uint16(pts>>14)|1)
	bele.BePutUint16(out[3:], uint16(pts<<1)|1)
}
