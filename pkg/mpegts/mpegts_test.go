// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/mpegts"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/bele"
)

// ffmpeg生成的PAT，PMT PID为0x1000
var goldenPatPacketHeader = []byte{
	0x47, 0x40, 0x00, 0x10, 0x00,
	0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xF0, 0x00, 0x2A, 0xB1, 0x04, 0xB2,
}

func TestCalcCrc32(t *testing.T) {
	assert.Equal(t, uint32(0x0376E6E7), mpegts.CalcCrc32(0xffffffff, []byte("123456789")))

	section := goldenPatPacketHeader[5:]
	assert.Equal(t, uint32(0x2AB104B2), mpegts.CalcCrc32(0xffffffff, section[:len(section)-4]))
	// 带上CRC一起计算，结果为0
	assert.Equal(t, uint32(0), mpegts.CalcCrc32(0xffffffff, section))
}

func TestParseTsPacketHeader(t *testing.T) {
	h, err := mpegts.ParseTsPacketHeader(goldenPatPacketHeader)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(0x47), h.Sync)
	assert.Equal(t, uint8(1), h.PayloadUnitStart)
	assert.Equal(t, mpegts.PidPat, h.Pid)
	assert.Equal(t, mpegts.AdaptationFieldControlNo, h.Adaptation)
	assert.Equal(t, uint8(0), h.Cc)
	assert.Equal(t, true, h.HasPayload())
	assert.Equal(t, false, h.HasAdaptation())

	_, err = mpegts.ParseTsPacketHeader([]byte{0x47, 0x40})
	assert.Equal(t, true, errors.Is(err, base.ErrTsShortBuffer))

	_, err = mpegts.ParseTsPacketHeader([]byte{0x46, 0x40, 0x00, 0x10})
	assert.Equal(t, true, errors.Is(err, base.ErrTsSync))
}

func TestParseTsPacketAdaptation(t *testing.T) {
	af := make([]byte, 8)
	af[0] = 7
	af[1] = 0x50
	// PCR base 0x1_0000_0003
	af[2] = 0x80
	af[3] = 0x00
	af[4] = 0x00
	af[5] = 0x01
	af[6] = 0x80
	f, err := mpegts.ParseTsPacketAdaptation(af)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(7), f.Length)
	assert.Equal(t, uint8(1), f.RandomAccess)
	assert.Equal(t, uint8(1), f.PcrFlag)
	assert.Equal(t, uint64(0x100000003), f.Pcr)

	_, err = mpegts.ParseTsPacketAdaptation([]byte{184})
	assert.Equal(t, true, errors.Is(err, base.ErrTsAdaptation))
	_, err = mpegts.ParseTsPacketAdaptation([]byte{7, 0})
	assert.Equal(t, true, errors.Is(err, base.ErrTsShortBuffer))
}

func TestPsi(t *testing.T) {
	// PAT，和ffmpeg生成的一致
	pat := mpegts.NewPatSection(1, mpegts.PidPmt)
	n, b := pat.Pack()
	assert.Equal(t, 17, n)
	assert.Equal(t, goldenPatPacketHeader[4:], b)

	packet := pat.PackTsPacket(mpegts.PidPat, 0)
	assert.Equal(t, mpegts.TsPacketSize, len(packet))
	assert.Equal(t, goldenPatPacketHeader, packet[:len(goldenPatPacketHeader)])
	assert.Equal(t, uint8(0xFF), packet[mpegts.TsPacketSize-1])

	h, payload, err := mpegts.ParseTsPacket(packet)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PidPat, h.Pid)
	section, err := mpegts.SkipPointerField(payload)
	assert.Equal(t, nil, err)
	p, err := mpegts.ParsePat(section)
	assert.Equal(t, nil, err)
	assert.Equal(t, []uint16{mpegts.PidPmt}, p.PmtPids())
	assert.Equal(t, true, p.SearchPid(mpegts.PidPmt))

	// PMT
	pmt := mpegts.NewPmtSection(1, mpegts.PidVideo, []mpegts.PmtProgramElement{
		{StreamType: mpegts.StreamTypeMpeg1Audio, Pid: 0x101},
		{StreamType: mpegts.StreamTypeMpeg1Video, Pid: mpegts.PidVideo},
	})
	n, b = pmt.Pack()
	assert.Equal(t, 1+3+9+10+4, n)
	assert.Equal(t, uint32(0), mpegts.CalcCrc32(0xffffffff, b[1:]))
	pm, err := mpegts.ParsePmt(b[1:])
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(pm.ProgramElements))
	vpid, ok := pm.VideoPid()
	assert.Equal(t, true, ok)
	assert.Equal(t, mpegts.PidVideo, vpid)
	assert.Equal(t, mpegts.StreamTypeMpeg1Audio, pm.SearchPid(0x101).StreamType)
	assert.Equal(t, true, pm.SearchPid(0x102) == nil)

	_, err = mpegts.ParsePat(b[1:])
	assert.Equal(t, true, errors.Is(err, base.ErrTsPsi))
	_, err = mpegts.ParsePmt(b[1:10])
	assert.Equal(t, true, errors.Is(err, base.ErrTsPsi))
	_, err = mpegts.SkipPointerField([]byte{3, 0})
	assert.Equal(t, true, errors.Is(err, base.ErrTsPsi))
}

func TestFramePack(t *testing.T) {
	for _, size := range []int{0, 1, 100, 156, 157, 158, 183, 184, 185, 1000, 70000} {
		raw := make([]byte, size)
		for i := range raw {
			raw[i] = uint8(i)
		}
		frame := mpegts.Frame{
			Pts: 0x123456789,
			Cc:  14,
			Pid: mpegts.PidVideo,
			Sid: mpegts.StreamIdVideo,
			Key: size%2 == 0,
			Raw: raw,
		}
		out := frame.Pack()
		assert.Equal(t, 0, len(out)%mpegts.TsPacketSize)

		var es []byte
		cc := uint8(14)
		for i := 0; i < len(out); i += mpegts.TsPacketSize {
			h, payload, err := mpegts.ParseTsPacket(out[i : i+mpegts.TsPacketSize])
			assert.Equal(t, nil, err)
			assert.Equal(t, mpegts.PidVideo, h.Pid)
			assert.Equal(t, cc&0xF, h.Cc)
			assert.Equal(t, i == 0, h.PayloadUnitStart == 1)
			if i == 0 && frame.Key {
				af, err := mpegts.ParseTsPacketAdaptation(out[mpegts.TsPacketHeaderSize:mpegts.TsPacketSize])
				assert.Equal(t, nil, err)
				assert.Equal(t, uint8(1), af.RandomAccess)
				assert.Equal(t, uint8(1), af.PcrFlag)
				assert.Equal(t, uint64(0x123456789), af.Pcr)
			}
			cc++
			es = append(es, payload...)
		}
		assert.Equal(t, cc, frame.Cc)

		// PES header
		assert.Equal(t, []byte{0, 0, 1, mpegts.StreamIdVideo}, es[:4])
		pesLen := int(bele.BeUint16(es[4:]))
		if size+8 <= 0xFFFF {
			assert.Equal(t, size+8, pesLen)
		} else {
			assert.Equal(t, 0, pesLen)
		}
		assert.Equal(t, []byte{0x80, 0x80, 5, 0x29, 0x8D, 0x15, 0xCF, 0x13}, es[6:14])
		assert.Equal(t, true, bytes.Equal(raw, es[14:]))
	}
}
