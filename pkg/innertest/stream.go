// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package innertest

import (
	"github.com/q191201771/mpeg1ps/pkg/mpegts"
	"github.com/q191201771/naza/pkg/nazabits"
)

// 构造测试用的MPEG-1视频es，以及承载它的PS流和TS流
//
// 图像内容:
//   - 第0帧为I帧，每个宏块行的第c个宏块（从0开始）亮度为 129+c
//   - 之后都是P帧，每行第0个宏块为帧内编码，亮度为 128+i%4，其他宏块从参考帧原样复制
//   - 色度都是128
//
// 所以第i帧的亮度见 ExpectedLuma。

const (
	startCodePicture  = 0x00
	startCodeUserData = 0xB2
	startCodeSequence = 0xB3
	startCodeSeqEnd   = 0xB7
	startCodeGop      = 0xB8

	pictureTypeIntra      = 1
	pictureTypePredictive = 2

	psEndCode = 0xB9

	// 每个picture后面附带的user data长度，让PES可以跨多个TS包
	userDataLen = 300

	FirstPts uint64 = 90000
	PtsStep  uint64 = 3600 // 25fps
)

type VideoEs struct {
	MbWidth  int
	MbHeight int

	SequenceHeader []byte
	Pictures       [][]byte // 第0个以GOP header开始，其他的以 picture_start_code 开始
}

func (es VideoEs) Width() int {
	return es.MbWidth * 16
}

func (es VideoEs) Height() int {
	return es.MbHeight * 16
}

// Bytes 完整的es流，以 sequence_end_code 结尾
//
func (es VideoEs) Bytes() []byte {
	var out []byte
	for i := range es.Pictures {
		out = append(out, es.Unit(i)...)
	}
	return append(out, 0, 0, 1, startCodeSeqEnd)
}

// Unit 第i个PES承载的数据，第0个包含 sequence header
//
func (es VideoEs) Unit(i int) []byte {
	if i == 0 {
		return append(append([]byte(nil), es.SequenceHeader...), es.Pictures[0]...)
	}
	return es.Pictures[i]
}

func (es VideoEs) Pts(i int) uint64 {
	return FirstPts + uint64(i)*PtsStep
}

// ExpectedLuma 第 pictureIndex 帧中，第 mbCol 列宏块的亮度
//
func ExpectedLuma(mbCol, pictureIndex int) uint8 {
	if mbCol == 0 && pictureIndex > 0 {
		return uint8(128 + pictureIndex%4)
	}
	return uint8(129 + mbCol)
}

func MakeVideoEs(mbWidth, mbHeight, count int) VideoEs {
	es := VideoEs{
		MbWidth:        mbWidth,
		MbHeight:       mbHeight,
		SequenceHeader: makeSequenceHeader(mbWidth*16, mbHeight*16),
	}
	for i := 0; i < count; i++ {
		es.Pictures = append(es.Pictures, makePicture(mbWidth, mbHeight, i))
	}
	return es
}

// ----- PS ------------------------------------------------------------------------------------------------------------

// PackPs 每个picture一个MPEG-1格式的PES，中间穿插音频PES和padding
//
func PackPs(es VideoEs) []byte {
	var out []byte
	for i := range es.Pictures {
		out = append(out, packPackHeader(es.Pts(i), 0x3FFFF)...)
		if i == 0 {
			out = append(out, packSystemHeader(1, 1)...)
		}
		out = append(out, packMpeg1Pes(mpegts.StreamIdAudio, es.Pts(i), makeNoise(100+i, uint8(i)))...)
		if i%3 == 1 {
			out = append(out, packRawPes(0xBE, bytesOf(0xFF, 20))...)
		}
		out = append(out, packMpeg1Pes(mpegts.StreamIdVideo, es.Pts(i), es.Unit(i))...)
	}
	out = append(out, packRawPes(mpegts.StreamIdVideo, []byte{0, 0, 1, startCodeSeqEnd})...)
	return append(out, 0, 0, 1, psEndCode)
}

func packPackHeader(scr uint64, muxRate uint32) []byte {
	b := make([]byte, 12)
	bw := nazabits.NewBitWriter(b)
	bw.WriteBits16(16, 0)
	bw.WriteBits8(8, 1)
	bw.WriteBits8(8, 0xBA)
	bw.WriteBits8(4, 0x2)
	bw.WriteBits8(3, uint8(scr>>30)&0x7)
	bw.WriteBit(1)
	bw.WriteBits16(15, uint16(scr>>15)&0x7FFF)
	bw.WriteBit(1)
	bw.WriteBits16(15, uint16(scr)&0x7FFF)
	bw.WriteBit(1)
	bw.WriteBit(1)
	bw.WriteBits8(6, uint8(muxRate>>16)&0x3F)
	bw.WriteBits16(16, uint16(muxRate))
	bw.WriteBit(1)
	return b
}

func packSystemHeader(audioBound, videoBound uint8) []byte {
	b := make([]byte, 12)
	bw := nazabits.NewBitWriter(b)
	bw.WriteBits16(16, 0)
	bw.WriteBits8(8, 1)
	bw.WriteBits8(8, 0xBB)
	bw.WriteBits16(16, 6)
	bw.WriteBit(1)
	bw.WriteBits8(6, 0)
	bw.WriteBits16(16, 0x1234)
	bw.WriteBit(1)
	bw.WriteBits8(6, audioBound)
	bw.WriteBits8(2, 0)
	bw.WriteBits8(3, 0x7)
	bw.WriteBits8(5, videoBound)
	bw.WriteBits8(8, 0xFF)
	return b
}

func packMpeg1Pes(sid uint8, pts uint64, payload []byte) []byte {
	out := []byte{0, 0, 1, sid, 0, 0}
	out = append(out,
		0x20|uint8(pts>>29)&0x0E|1,
		uint8(pts>>22),
		uint8(pts>>14)|1,
		uint8(pts>>7),
		uint8(pts<<1)|1)
	out = append(out, payload...)
	setPesLength(out)
	return out
}

// packRawPes 没有PTS，只有一个 0x0F 标记字节
//
func packRawPes(sid uint8, payload []byte) []byte {
	out := []byte{0, 0, 1, sid, 0, 0, 0x0F}
	if sid == 0xBE {
		// padding_stream 没有PES头
		out = out[:6]
	}
	out = append(out, payload...)
	setPesLength(out)
	return out
}

func setPesLength(out []byte) {
	l := len(out) - 6
	out[4] = uint8(l >> 8)
	out[5] = uint8(l)
}

// ----- TS ------------------------------------------------------------------------------------------------------------

// PackTs 一个节目，视频PID为 videoPid，音频PID为 videoPid+1
//
// @param withPsi: 为false时不带PAT和PMT
//
func PackTs(es VideoEs, videoPid uint16, withPsi bool) []byte {
	var out []byte
	if withPsi {
		out = append(out, mpegts.NewPatSection(1, mpegts.PidPmt).PackTsPacket(mpegts.PidPat, 0)...)
		pmt := mpegts.NewPmtSection(1, videoPid, []mpegts.PmtProgramElement{
			{StreamType: mpegts.StreamTypeMpeg1Audio, Pid: videoPid + 1},
			{StreamType: mpegts.StreamTypeMpeg1Video, Pid: videoPid},
		})
		out = append(out, pmt.PackTsPacket(mpegts.PidPmt, 0)...)
	}

	var videoCc, audioCc uint8
	for i := range es.Pictures {
		audio := mpegts.Frame{
			Pts: es.Pts(i),
			Cc:  audioCc,
			Pid: videoPid + 1,
			Sid: mpegts.StreamIdAudio,
			Raw: makeNoise(100+i, uint8(i)),
		}
		out = append(out, audio.Pack()...)
		audioCc = audio.Cc

		video := mpegts.Frame{
			Pts: es.Pts(i),
			Cc:  videoCc,
			Pid: videoPid,
			Sid: mpegts.StreamIdVideo,
			Key: i == 0,
			Raw: es.Unit(i),
		}
		out = append(out, video.Pack()...)
		videoCc = video.Cc
	}
	return out
}

// ----- es ------------------------------------------------------------------------------------------------------------

type bitWriter struct {
	buf []byte
	bw  nazabits.BitWriter
	n   int
}

func newBitWriter(size int) *bitWriter {
	w := &bitWriter{buf: make([]byte, size)}
	w.bw = nazabits.NewBitWriter(w.buf)
	return w
}

func (w *bitWriter) u(n int, v uint32) *bitWriter {
	for n > 16 {
		w.bw.WriteBits16(16, uint16(v>>uint(n-16)))
		w.n += 16
		n -= 16
	}
	w.bw.WriteBits16(uint(n), uint16(v&(1<<uint(n)-1)))
	w.n += n
	return w
}

// code 由'0'和'1'组成，忽略其他字符
func (w *bitWriter) code(bits string) *bitWriter {
	for _, c := range bits {
		switch c {
		case '0':
			w.bw.WriteBit(0)
			w.n++
		case '1':
			w.bw.WriteBit(1)
			w.n++
		}
	}
	return w
}

func (w *bitWriter) startCode(c uint8) *bitWriter {
	for w.n%8 != 0 {
		w.code("0")
	}
	return w.u(24, 1).u(8, uint32(c))
}

func (w *bitWriter) raw(b []byte) *bitWriter {
	for _, v := range b {
		w.u(8, uint32(v))
	}
	return w
}

func (w *bitWriter) bytes() []byte {
	return append([]byte(nil), w.buf[:(w.n+7)/8]...)
}

func makeSequenceHeader(width, height int) []byte {
	w := newBitWriter(16)
	w.startCode(startCodeSequence)
	w.u(12, uint32(width)).u(12, uint32(height))
	w.u(4, 1).u(4, 3)          // aspect ratio 1.0, 25fps
	w.u(18, 0x3FFFF).code("1") // bit rate, marker
	w.u(10, 20).code("0")      // vbv buffer size, constrained
	w.code("0 0")              // 使用默认量化矩阵
	return w.bytes()
}

func makePicture(mbWidth, mbHeight, index int) []byte {
	w := newBitWriter(64 + userDataLen + mbWidth*mbHeight*8 + mbHeight*8)
	if index == 0 {
		// group of pictures，解码器会跳过
		w.startCode(startCodeGop).u(25, 0).code("1 0").u(5, 0)
	}

	w.startCode(startCodePicture)
	w.u(10, uint32(index)&0x3FF)
	if index == 0 {
		w.u(3, pictureTypeIntra).u(16, 0xFFFF)
	} else {
		// full_pel_forward_vector 0, forward_f_code 1
		w.u(3, pictureTypePredictive).u(16, 0xFFFF).code("0").u(3, 1)
	}
	w.code("0") // extra_bit_picture
	w.startCode(startCodeUserData).raw(makeNoise(userDataLen, uint8(index)))

	for row := 0; row < mbHeight; row++ {
		w.startCode(uint8(row + 1)).u(5, 8).code("0")
		for col := 0; col < mbWidth; col++ {
			w.code("1") // mb_address_increment 1
			switch {
			case index == 0:
				w.code("1")             // intra
				w.code("00 1 10")       // Y0: size 1, +1
				w.code("100 10 100 10") // Y1 Y2: size 0
				w.code("100 10")        // Y3
				w.code("00 10 00 10")   // Cb Cr: size 0
			case col == 0:
				w.code("00011") // intra
				w.code(lumaDcDiff(index % 4)).code("10")
				w.code("100 10 100 10 100 10")
				w.code("00 10 00 10")
			default:
				w.code("001") // 只有前向运动矢量
				w.code("1 1") // (0, 0)
			}
		}
	}
	return w.bytes()
}

// lumaDcDiff 亮度直流差值 0~3 的编码: dct_dc_size_luminance + dct_dc_differential
//
func lumaDcDiff(d int) string {
	switch d {
	case 1:
		return "00 1"
	case 2:
		return "01 10"
	case 3:
		return "01 11"
	}
	return "100"
}

// makeNoise 不会出现 00 00 01
//
func makeNoise(n int, seed uint8) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + uint8(i%100) + 2
	}
	return b
}

func bytesOf(v uint8, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}
