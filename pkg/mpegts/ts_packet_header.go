// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"fmt"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/nazabits"
)

// ------------------------------------------------
// <iso13818-1.pdf> <2.4.3.2> <page 36/174>
// sync_byte                    [8b]  * always 0x47
// transport_error_indicator    [1b]
// payload_unit_start_indicator [1b]
// transport_priority           [1b]
// PID                          [13b] **
// transport_scrambling_control [2b]
// adaptation_field_control     [2b]
// continuity_counter           [4b]  *
// ------------------------------------------------
type TsPacketHeader struct {
	Sync             uint8
	Err              uint8
	PayloadUnitStart uint8
	Prio             uint8
	Pid              uint16
	Scra             uint8
	Adaptation       uint8
	Cc               uint8
}

// HasPayload adaptation_field_control 为 01 或 11
//
func (h TsPacketHeader) HasPayload() bool {
	return h.Adaptation&0x1 != 0
}

func (h TsPacketHeader) HasAdaptation() bool {
	return h.Adaptation&0x2 != 0
}

// ----------------------------------------------------------
// <iso13818-1.pdf> <Table 2-6> <page 40/174>
// adaptation_field_length              [8b] * 不包括自己这1字节
// discontinuity_indicator              [1b]
// random_access_indicator              [1b]
// elementary_stream_priority_indicator [1b]
// PCR_flag                             [1b]
// OPCR_flag                            [1b]
// splicing_point_flag                  [1b]
// transport_private_data_flag          [1b]
// adaptation_field_extension_flag      [1b] *
// -----if PCR_flag == 1-----
// program_clock_reference_base         [33b]
// reserved                             [6b]
// program_clock_reference_extension    [9b] ******
// ----------------------------------------------------------
type TsPacketAdaptation struct {
	Length        uint8
	Discontinuity uint8
	RandomAccess  uint8
	PcrFlag       uint8
	Pcr           uint64 // program_clock_reference_base, 90kHz
}

// ParseTsPacketHeader 解析4字节TS Packet header
//
func ParseTsPacketHeader(b []byte) (h TsPacketHeader, err error) {
	if len(b) < TsPacketHeaderSize {
		return h, fmt.Errorf("%w. len=%d", base.ErrTsShortBuffer, len(b))
	}
	br := nazabits.NewBitReader(b)
	h.Sync, _ = br.ReadBits8(8)
	h.Err, _ = br.ReadBits8(1)
	h.PayloadUnitStart, _ = br.ReadBits8(1)
	h.Prio, _ = br.ReadBits8(1)
	h.Pid, _ = br.ReadBits16(13)
	h.Scra, _ = br.ReadBits8(2)
	h.Adaptation, _ = br.ReadBits8(2)
	h.Cc, _ = br.ReadBits8(4)
	if h.Sync != syncByte {
		return h, fmt.Errorf("%w. sync=0x%02x", base.ErrTsSync, h.Sync)
	}
	return
}

// ParseTsPacketAdaptation
//
// @param b: 从 adaptation_field_length 开始
//
func ParseTsPacketAdaptation(b []byte) (f TsPacketAdaptation, err error) {
	if len(b) < 1 {
		return f, base.ErrTsShortBuffer
	}
	f.Length = b[0]
	if int(f.Length) > TsPacketSize-TsPacketHeaderSize-1 {
		return f, fmt.Errorf("%w. length=%d", base.ErrTsAdaptation, f.Length)
	}
	if f.Length == 0 {
		return
	}
	if len(b) < 1+int(f.Length) {
		return f, fmt.Errorf("%w. len=%d, adaptation length=%d", base.ErrTsShortBuffer, len(b), f.Length)
	}

	br := nazabits.NewBitReader(b[1:])
	f.Discontinuity, _ = br.ReadBits8(1)
	f.RandomAccess, _ = br.ReadBits8(1)
	_, _ = br.ReadBits8(1)
	f.PcrFlag, _ = br.ReadBits8(1)
	_, _ = br.ReadBits8(4)
	if f.PcrFlag == 1 && f.Length >= 7 {
		hi, _ := br.ReadBits8(1)
		lo, _ := br.ReadBits32(32)
		f.Pcr = uint64(hi)<<32 | uint64(lo)
	}
	return
}

// ParseTsPacket 解析一个完整的188字节TS Packet，返回header和payload
//
// 没有payload时，payload为nil
//
func ParseTsPacket(b []byte) (h TsPacketHeader, payload []byte, err error) {
	if len(b) < TsPacketSize {
		return h, nil, fmt.Errorf("%w. len=%d", base.ErrTsShortBuffer, len(b))
	}
	if h, err = ParseTsPacketHeader(b); err != nil {
		return
	}
	pos := TsPacketHeaderSize
	if h.HasAdaptation() {
		var af TsPacketAdaptation
		if af, err = ParseTsPacketAdaptation(b[pos:TsPacketSize]); err != nil {
			return
		}
		pos += 1 + int(af.Length)
	}
	if !h.HasPayload() || pos >= TsPacketSize {
		return h, nil, nil
	}
	return h, b[pos:TsPacketSize], nil
}
