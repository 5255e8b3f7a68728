// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegps

import (
	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/bitbuf"
	"github.com/q191201771/naza/pkg/bele"
)

// ----------------------------------------------------------------------
// <ISO/IEC 11172-1> <2.4.3.2 Pack layer>
// pack_start_code          [32b] 0x000001BA
// '0010'                   [4b]
// system_clock_reference   [3b]
// marker_bit               [1b]
// system_clock_reference   [15b]
// marker_bit               [1b]
// system_clock_reference   [15b]
// marker_bit               [1b]
// marker_bit               [1b]
// mux_rate                 [22b]
// marker_bit               [1b]
// ----------------------------------------------------------------------

type packHeader struct {
	scr     uint64
	muxRate uint32
}

// parsePackHeader
//
// @param b: 从起始码开始，至少 packHeaderLen 字节
//
func parsePackHeader(b []byte) (h packHeader, err error) {
	bc := bitbuf.NewBitCursor(b[:packHeaderLen])
	bc.Skip(32)
	if v := bc.Read(4); v != 0x2 {
		return h, base.NewErrFormat("pack header marker nibble. v=0x%x", v)
	}
	if h.scr, err = readTimestampBits(&bc); err != nil {
		return
	}
	if bc.Read(1) != 1 {
		return h, base.NewErrFormat("pack header marker before mux rate")
	}
	h.muxRate = bc.Read(22)
	if bc.Read(1) != 1 {
		return h, base.NewErrFormat("pack header marker after mux rate")
	}
	return
}

// ----------------------------------------------------------------------
// <ISO/IEC 11172-1> <2.4.3.2 System header>
// system_header_start_code [32b] 0x000001BB
// header_length            [16b]
// marker_bit               [1b]
// rate_bound               [22b]
// marker_bit               [1b]
// audio_bound              [6b]
// fixed_flag               [1b]
// CSPS_flag                [1b]
// system_audio_lock_flag   [1b]
// system_video_lock_flag   [1b]
// marker_bit               [1b]
// video_bound              [5b]
// ...                      剩余部分跳过
// ----------------------------------------------------------------------

type systemHeader struct {
	audioBound uint8
	videoBound uint8
}

// parseSystemHeader
//
// @param b: 从 header_length 之后开始，长度为 header_length
//
func parseSystemHeader(b []byte) (h systemHeader, err error) {
	bc := bitbuf.NewBitCursor(b)
	if !bc.Has(24 + 6 + 5 + 5) {
		return h, base.NewErrFormat("system header too short. len=%d", len(b))
	}
	bc.Skip(24)
	h.audioBound = uint8(bc.Read(6))
	bc.Skip(5)
	h.videoBound = uint8(bc.Read(5))
	return
}

// parsePesHeader 解析PES头中 PES_packet_length 之后的部分
//
// 同时支持MPEG-1和MPEG-2两种格式。
//
// @param h: PES_packet_length 之后的数据
//
// @return headerLen: payload相对于 h 的位置
//
func parsePesHeader(h []byte) (pts, dts uint64, headerLen int, err error) {
	i := 0
	for i < len(h) && i < maxStuffingLen && h[i] == 0xFF {
		i++
	}
	if i >= len(h) {
		return 0, 0, 0, base.NewErrFormat("pes header stuffing. len=%d", len(h))
	}

	// STD_buffer_scale STD_buffer_size
	if h[i]&0xC0 == 0x40 {
		i += 2
		if i >= len(h) {
			return 0, 0, 0, base.NewErrFormat("pes header std buffer. len=%d", len(h))
		}
	}

	if h[i]&0xC0 == 0x80 {
		return parseMpeg2PesHeader(h, i)
	}

	switch h[i] >> 4 {
	case 0x2:
		if i+5 > len(h) {
			return 0, 0, 0, base.NewErrFormat("pes header pts. len=%d", len(h))
		}
		if pts, err = readTimestamp(h[i:]); err != nil {
			return
		}
		return pts, pts, i + 5, nil
	case 0x3:
		if i+10 > len(h) {
			return 0, 0, 0, base.NewErrFormat("pes header pts dts. len=%d", len(h))
		}
		if pts, err = readTimestamp(h[i:]); err != nil {
			return
		}
		if dts, err = readTimestamp(h[i+5:]); err != nil {
			return
		}
		return pts, dts, i + 10, nil
	case 0x0:
		if h[i] == 0x0F {
			return 0, 0, i + 1, nil
		}
	}
	return 0, 0, 0, base.NewErrFormat("pes header pts dts flag. v=0x%02x", h[i])
}

// -----------------------------------------------------------
// <iso13818-1.pdf> <2.4.3.6 PES packet>
// '10'                      [2b]
// PES_scrambling_control    [2b]
// PES_priority              [1b]
// data_alignment_indicator  [1b]
// copyright                 [1b]
// original_or_copy          [1b]  *
// PTS_DTS_flags             [2b]
// ...                       [6b]  *
// PES_header_data_length    [8b]  *
// -----------------------------------------------------------
func parseMpeg2PesHeader(h []byte, i int) (pts, dts uint64, headerLen int, err error) {
	if i+3 > len(h) {
		return 0, 0, 0, base.NewErrFormat("mpeg2 pes header. len=%d", len(h))
	}
	flags := h[i+1] >> 6
	phdl := int(h[i+2])
	headerLen = i + 3 + phdl
	if headerLen > len(h) {
		return 0, 0, 0, base.NewErrFormat("mpeg2 pes header data length. phdl=%d, len=%d", phdl, len(h))
	}
	opt := h[i+3 : headerLen]

	switch flags {
	case 0x0:
		return 0, 0, headerLen, nil
	case 0x2:
		if len(opt) < 5 {
			return 0, 0, 0, base.NewErrFormat("mpeg2 pes header pts. phdl=%d", phdl)
		}
		if pts, err = readTimestamp(opt); err != nil {
			return
		}
		return pts, pts, headerLen, nil
	case 0x3:
		if len(opt) < 10 {
			return 0, 0, 0, base.NewErrFormat("mpeg2 pes header pts dts. phdl=%d", phdl)
		}
		if pts, err = readTimestamp(opt); err != nil {
			return
		}
		if dts, err = readTimestamp(opt[5:]); err != nil {
			return
		}
		return pts, dts, headerLen, nil
	}
	return 0, 0, 0, base.NewErrFormat("mpeg2 pes header pts dts flags. v=%d", flags)
}

// readTimestamp 读取5字节的PTS或DTS
//
// 4bit前缀 + 3bit + marker + 15bit + marker + 15bit + marker
//
func readTimestamp(b []byte) (uint64, error) {
	if b[0]&0x1 == 0 || b[2]&0x1 == 0 || b[4]&0x1 == 0 {
		return 0, base.NewErrFormat("timestamp marker bit. %02x %02x %02x %02x %02x", b[0], b[1], b[2], b[3], b[4])
	}
	var ts uint64
	ts |= uint64((b[0]>>1)&0x07) << 30
	ts |= uint64(bele.BeUint16(b[1:])>>1) << 15
	ts |= uint64(bele.BeUint16(b[3:]) >> 1)
	return ts, nil
}

// readTimestampBits 从bit流中读取 3bit + marker + 15bit + marker + 15bit + marker
//
func readTimestampBits(bc *bitbuf.BitCursor) (uint64, error) {
	var ts uint64
	ts = uint64(bc.Read(3)) << 30
	if bc.Read(1) != 1 {
		return 0, base.NewErrFormat("timestamp marker bit 0")
	}
	ts |= uint64(bc.Read(15)) << 15
	if bc.Read(1) != 1 {
		return 0, base.NewErrFormat("timestamp marker bit 1")
	}
	ts |= uint64(bc.Read(15))
	if bc.Read(1) != 1 {
		return 0, base.NewErrFormat("timestamp marker bit 2")
	}
	return ts, nil
}
