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
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
)

// PsiId
const (
	TsPsiIdPas       = 0x00 // program_association_section
	TsPsiIdCas       = 0x01 // conditional_access_section (CA_section)
	TsPsiIdPms       = 0x02 // TS_program_map_section
	TsPsiIdDs        = 0x03 // TS_description_section
	TsPsiIdForbidden = 0xFF // forbidden
)

type PsiSection struct {
	pointerFileld uint8
	sectionData   PsiSectionData
}

type PsiSectionData struct {
	header  PsiTableHeader
	section PsiTableSyntaxSection
	patData PatSpecificData
	pmtData PmtSpecificData
}

type PsiTableHeader struct {
	tableId                uint8
	sectionSyntaxIndicator uint8
	sectionLength          uint16
}

type PsiTableSyntaxSection struct {
	tableIdExtension     uint16
	versionNumber        uint8
	currentNextIndicator uint8
	sectionNumber        uint8
	lastSectionNumber    uint8
}

type PatSpecificData struct {
	pes []PatProgramElement
}

type PmtSpecificData struct {
	pcrPid uint16
	pes    []PmtProgramElement
}

// NewPatSection 生成只有一个节目的PAT
//
func NewPatSection(programNumber uint16, pmtPid uint16) *PsiSection {
	psi := newPsi(TsPsiIdPas, 1)
	psi.sectionData.patData.pes = []PatProgramElement{{pn: programNumber, pmpid: pmtPid}}
	return psi
}

// NewPmtSection
//
// @param elements: 注意，只使用 StreamType 和 Pid，不写ES info
//
func NewPmtSection(programNumber uint16, pcrPid uint16, elements []PmtProgramElement) *PsiSection {
	psi := newPsi(TsPsiIdPms, programNumber)
	psi.sectionData.pmtData.pcrPid = pcrPid
	psi.sectionData.pmtData.pes = elements
	return psi
}

func newPsi(tableId uint8, tableIdExtension uint16) *PsiSection {
	psi := &PsiSection{
		pointerFileld: 0x00,
	}
	psi.sectionData.header.tableId = tableId
	psi.sectionData.header.sectionSyntaxIndicator = 1
	psi.sectionData.section.tableIdExtension = tableIdExtension
	psi.sectionData.section.currentNextIndicator = 1
	return psi
}

// Pack 序列化，包含开头1字节的 pointer_field 以及末尾的CRC32
//
func (psi *PsiSection) Pack() (int, []byte) {
	length := int(1 + 3 + psi.calcPsiSectionLength())
	psiSection := make([]byte, length)
	bw := nazabits.NewBitWriter(psiSection)

	bw.WriteBits8(8, psi.pointerFileld)
	psi.writePsiTableHeader(&bw)
	psi.writePsiTableSyntaxSection(&bw)

	crc := CalcCrc32(0xffffffff, psiSection[1:length-4])
	bele.BePutUint32(psiSection[length-4:], crc)

	return length, psiSection
}

// PackTsPacket 把PSI放入一个TS Packet，剩余部分用0xFF填充
//
func (psi *PsiSection) PackTsPacket(pid uint16, cc uint8) []byte {
	_, section := psi.Pack()
	packet := make([]byte, TsPacketSize)
	packet[0] = syncByte
	packet[1] = 0x40 | uint8((pid>>8)&0x1F) // payload_unit_start_indicator
	packet[2] = uint8(pid & 0xFF)
	packet[3] = 0x10 | (cc & 0x0F)
	n := copy(packet[TsPacketHeaderSize:], section)
	for i := TsPacketHeaderSize + n; i < TsPacketSize; i++ {
		packet[i] = 0xFF
	}
	return packet
}

// SkipPointerField 跳过PSI payload开头的 pointer_field
//
func SkipPointerField(payload []byte) ([]byte, error) {
	if len(payload) < 1 || int(payload[0])+1 > len(payload) {
		return nil, fmt.Errorf("%w. pointer field. len=%d", base.ErrTsPsi, len(payload))
	}
	return payload[1+int(payload[0]):], nil
}

// ----- private -------------------------------------------------------------------------------------------------------

func (psi *PsiSection) writePsiTableHeader(bw *nazabits.BitWriter) {
	bw.WriteBits8(8, psi.sectionData.header.tableId)
	bw.WriteBit(psi.sectionData.header.sectionSyntaxIndicator)
	bw.WriteBit(0)
	bw.WriteBits8(2, 0xff)

	psi.sectionData.header.sectionLength = psi.calcPsiSectionLength()
	bw.WriteBits16(12, psi.sectionData.header.sectionLength)
}

func (psi *PsiSection) writePsiTableSyntaxSection(bw *nazabits.BitWriter) {
	bw.WriteBits16(16, psi.sectionData.section.tableIdExtension)
	bw.WriteBits8(2, 0xff)
	bw.WriteBits8(5, psi.sectionData.section.versionNumber)
	bw.WriteBit(psi.sectionData.section.currentNextIndicator)
	bw.WriteBits8(8, psi.sectionData.section.sectionNumber)
	bw.WriteBits8(8, psi.sectionData.section.lastSectionNumber)

	switch psi.sectionData.header.tableId {
	case TsPsiIdPas:
		psi.writePatSection(bw)
	case TsPsiIdPms:
		psi.writePmtSection(bw)
	}
}

// calcPsiSectionLength section_length 字段的值，也即该字段之后到CRC32结尾的长度
//
func (psi *PsiSection) calcPsiSectionLength() (length uint16) {
	// Table ID extension(16 bits)+Reserved bits(2 bits)+Version number(5 bits)+Current next Indicator(1 bit)+Section number(8 bits)+Last section number(8 bits)
	length += 5

	switch psi.sectionData.header.tableId {
	case TsPsiIdPas:
		length += uint16(4 * len(psi.sectionData.patData.pes))
	case TsPsiIdPms:
		// Reserved bits(3 bits)+PCR PID(13 bits)+Reserved bits(4 bits)+Program info length(12 bits)
		length += 4 + uint16(5*len(psi.sectionData.pmtData.pes))
	}

	length += 4 // crc32
	return
}

func (psi *PsiSection) writePatSection(bw *nazabits.BitWriter) {
	for _, pe := range psi.sectionData.patData.pes {
		bw.WriteBits16(16, pe.pn)
		bw.WriteBits8(3, 0xff)
		bw.WriteBits16(13, pe.pmpid)
	}
}

func (psi *PsiSection) writePmtSection(bw *nazabits.BitWriter) {
	bw.WriteBits8(3, 0xff)
	bw.WriteBits16(13, psi.sectionData.pmtData.pcrPid)
	bw.WriteBits8(4, 0xff)
	bw.WriteBits16(12, 0) // program_info_length

	for _, pe := range psi.sectionData.pmtData.pes {
		bw.WriteBits8(8, pe.StreamType)
		bw.WriteBits8(3, 0xff)
		bw.WriteBits16(13, pe.Pid)
		bw.WriteBits8(4, 0xff)
		bw.WriteBits16(12, 0) // ES_info_length
	}
}
