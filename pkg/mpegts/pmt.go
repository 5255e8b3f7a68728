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

// Pmt
//
// ----------------------------------------
// Program Map Table
// <iso13818-1.pdf> <2.4.4.8> <page 64/174>
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// 0                        [1b]
// reserved                 [2b]
// section_length           [12b] **
// program_number           [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// reserved                 [3b]
// PCR_PID                  [13b] **
// reserved                 [4b]
// program_info_length      [12b] **
// -----loop-----
// stream_type              [8b]  *
// reserved                 [3b]
// elementary_PID           [13b] **
// reserved                 [4b]
// ES_info_length_length    [12b] **
// --------------
// CRC32                    [32b] ****
// ----------------------------------------
//
type Pmt struct {
	tid             uint8
	ssi             uint8
	sl              uint16
	pn              uint16
	vn              uint8
	cni             uint8
	sn              uint8
	lsn             uint8
	pp              uint16
	pil             uint16
	ProgramElements []PmtProgramElement
	crc32           uint32
}

type PmtProgramElement struct {
	StreamType uint8
	Pid        uint16
	Length     uint16
}

// ParsePmt
//
// @param b: 从 table_id 开始
//
func ParsePmt(b []byte) (pmt Pmt, err error) {
	if len(b) < 12 {
		return pmt, fmt.Errorf("%w. pmt len=%d", base.ErrTsPsi, len(b))
	}
	br := nazabits.NewBitReader(b)
	pmt.tid, _ = br.ReadBits8(8)
	pmt.ssi, _ = br.ReadBits8(1)
	_, _ = br.ReadBits8(3)
	pmt.sl, _ = br.ReadBits16(12)
	if pmt.tid != TsPsiIdPms || pmt.sl < 13 || int(pmt.sl)+3 > len(b) {
		return pmt, fmt.Errorf("%w. pmt table id=%d, section length=%d, len=%d", base.ErrTsPsi, pmt.tid, pmt.sl, len(b))
	}
	pmt.pn, _ = br.ReadBits16(16)
	_, _ = br.ReadBits8(2)
	pmt.vn, _ = br.ReadBits8(5)
	pmt.cni, _ = br.ReadBits8(1)
	pmt.sn, _ = br.ReadBits8(8)
	pmt.lsn, _ = br.ReadBits8(8)
	_, _ = br.ReadBits8(3)
	pmt.pp, _ = br.ReadBits16(13)
	_, _ = br.ReadBits8(4)
	pmt.pil, _ = br.ReadBits16(12)

	// 除去固定字段和CRC32后，剩余的是program info和ES循环
	length := int(pmt.sl) - 13 - int(pmt.pil)
	if length < 0 {
		return pmt, fmt.Errorf("%w. program info length=%d, section length=%d", base.ErrTsPsi, pmt.pil, pmt.sl)
	}
	if pmt.pil != 0 {
		_, _ = br.ReadBytes(uint(pmt.pil))
	}

	for length >= 5 {
		var ppe PmtProgramElement
		ppe.StreamType, _ = br.ReadBits8(8)
		_, _ = br.ReadBits8(3)
		ppe.Pid, _ = br.ReadBits16(13)
		_, _ = br.ReadBits8(4)
		ppe.Length, _ = br.ReadBits16(12)
		length -= 5 + int(ppe.Length)
		if length < 0 {
			return pmt, fmt.Errorf("%w. es info length=%d", base.ErrTsPsi, ppe.Length)
		}
		if ppe.Length != 0 {
			_, _ = br.ReadBytes(uint(ppe.Length))
		}
		pmt.ProgramElements = append(pmt.ProgramElements, ppe)
	}
	pmt.crc32, _ = br.ReadBits32(32)

	return
}

func (pmt *Pmt) SearchPid(pid uint16) *PmtProgramElement {
	for i := range pmt.ProgramElements {
		if pmt.ProgramElements[i].Pid == pid {
			return &pmt.ProgramElements[i]
		}
	}
	return nil
}

// VideoPid 第一个MPEG-1/2视频流的PID
//
func (pmt *Pmt) VideoPid() (uint16, bool) {
	for _, ppe := range pmt.ProgramElements {
		if IsVideoStreamType(ppe.StreamType) {
			return ppe.Pid, true
		}
	}
	return 0, false
}
