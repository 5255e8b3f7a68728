// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazabits"
)

// ----- 构造测试用的es流 -----------------------------------------------------------------------------------------------

type bitStream struct {
	buf []byte
	bw  nazabits.BitWriter
	n   int
}

func newBitStream() *bitStream {
	s := &bitStream{buf: make([]byte, 1024)}
	s.bw = nazabits.NewBitWriter(s.buf)
	return s
}

// u 写入 v 的低 n bit
func (s *bitStream) u(n int, v uint32) *bitStream {
	for n > 16 {
		s.bw.WriteBits16(16, uint16(v>>uint(n-16)))
		s.n += 16
		n -= 16
	}
	s.bw.WriteBits16(uint(n), uint16(v&(1<<uint(n)-1)))
	s.n += n
	return s
}

// code 写入由'0'和'1'组成的码字，忽略空格
func (s *bitStream) code(bits string) *bitStream {
	for _, c := range bits {
		switch c {
		case '0':
			s.bw.WriteBit(0)
			s.n++
		case '1':
			s.bw.WriteBit(1)
			s.n++
		}
	}
	return s
}

func (s *bitStream) align() *bitStream {
	for s.n%8 != 0 {
		s.code("0")
	}
	return s
}

func (s *bitStream) startCode(c uint8) *bitStream {
	return s.align().u(24, 1).u(8, uint32(c))
}

func (s *bitStream) bytes() []byte {
	return append([]byte(nil), s.buf[:(s.n+7)/8]...)
}

func sequenceHeader16x16() []byte {
	return sequenceHeader(16, 16)
}

func sequenceHeader(width, height uint32) []byte {
	s := newBitStream().startCode(startCodeSequence)
	s.u(12, width).u(12, height).u(4, 1).u(4, 3).u(18, 0x3FFFF)
	s.code("1").u(10, 20).code("0")
	s.code("0").code("0")
	return s.align().bytes()
}

// intraPicture16x16 一个宏块，各块的直流值: Y0 Y1 133，Y2 Y3 131，Cb 128，Cr 129
func intraPicture16x16() []byte {
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 0).u(3, pictureTypeIntra).u(16, 0xFFFF).code("0")
	s.startCode(0x01).u(5, 8).code("0")
	s.code("1")          // mb_address_increment 1
	s.code("1")          // mb_type intra
	s.code("101 101 10") // Y0: size 3, +5, EOB
	s.code("100 10")     // Y1: size 0
	s.code("01 01 10")   // Y2: size 2, -2
	s.code("100 10")     // Y3
	s.code("00 10")      // Cb: size 0
	s.code("01 1 10")    // Cr: size 1, +1
	return s.align().bytes()
}

// predictivePicture16x16 一个只有运动补偿没有残差的宏块
func predictivePicture16x16(pictureType uint32, fCode uint32, mh, mv string) []byte {
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 1).u(3, pictureType).u(16, 0xFFFF)
	s.code("0").u(3, fCode).code("0")
	s.startCode(0x01).u(5, 8).code("0")
	s.code("1")   // mb_address_increment 1
	s.code("001") // mb_type 0x08，只有前向运动矢量
	s.code(mh).code(mv)
	return s.align().bytes()
}

var pictureTerminator = []byte{0, 0, 1, startCodePicture}

func concat(bs ...[]byte) []byte {
	var out []byte
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}

// decodeAll 分块写入，每次写入后解码出所有能解码的帧
func decodeAll(t *testing.T, d *Decoder, stream []byte, chunk int) (frames []*Frame, err error) {
	for pos := 0; pos < len(stream); {
		end := pos + chunk
		if end > len(stream) {
			end = len(stream)
		}
		pos += d.Push(stream[pos:end])
		for {
			result, frame, err := d.Decode()
			if err != nil {
				return frames, err
			}
			if result == ResultNeedMoreData {
				break
			}
			frames = append(frames, frame.Clone())
		}
	}
	return frames, nil
}

func checkIntraFrame(t *testing.T, f *Frame) {
	assert.Equal(t, 16, f.Width)
	assert.Equal(t, 16, f.Height)
	assert.Equal(t, Plane{Offset: f.Y.Offset, Width: 16, Height: 16}, f.Y)
	assert.Equal(t, 8, f.Cb.Width)
	assert.Equal(t, 8, f.Cr.Height)

	y := f.YBytes()
	for row := 0; row < 16; row++ {
		for col := 0; col < 16; col++ {
			expected := uint8(133)
			if row >= 8 {
				expected = 131
			}
			assert.Equal(t, expected, y[row*16+col])
		}
	}
	assert.Equal(t, bytes.Repeat([]byte{128}, 64), f.CbBytes())
	assert.Equal(t, bytes.Repeat([]byte{129}, 64), f.CrBytes())
}

// ----- 测试 ----------------------------------------------------------------------------------------------------------

func TestDecoder_Intra(t *testing.T) {
	stream := concat(sequenceHeader16x16(), intraPicture16x16(), pictureTerminator)

	d := NewDecoder()
	assert.Equal(t, len(stream), d.Push(stream))

	result, frame, err := d.Decode()
	assert.Equal(t, nil, err)
	assert.Equal(t, ResultGotOneFrame, result)
	assert.Equal(t, 0, frame.Index)
	checkIntraFrame(t, frame)

	info := d.CodecInfo()
	assert.Equal(t, true, d.HasSequenceHeader())
	assert.Equal(t, 16, info.Width)
	assert.Equal(t, 1, info.MbSize)
	assert.Equal(t, 25.0, info.FrameRate)
	assert.Equal(t, uint8(1), info.AspectRatio)
	assert.Equal(t, uint32(0x3FFFF), info.BitRate)
	assert.Equal(t, defaultIntraQuantMatrix, info.IntraQuantMatrix)
	assert.Equal(t, defaultNonIntraQuantMatrix, info.NonIntraQuantMatrix)

	// 结束的起始码留在缓冲中，后面没有第二个起始码
	result, frame, err = d.Decode()
	assert.Equal(t, nil, err)
	assert.Equal(t, ResultNeedMoreData, result)
	assert.Equal(t, true, frame == nil)
	assert.Equal(t, 1, d.FramesDecoded())
}

func TestDecoder_Predictive(t *testing.T) {
	stream := concat(sequenceHeader16x16(), intraPicture16x16(),
		predictivePicture16x16(pictureTypePredictive, 1, "1", "1"),
		pictureTerminator)

	var golden []*Frame
	for _, chunk := range []int{1, 3, 16, len(stream)} {
		for _, capacity := range []int{40, defaultRingCapacity} {
			d := NewDecoder(WithRingCapacity(capacity))
			frames, err := decodeAll(t, d, stream, chunk)
			assert.Equal(t, nil, err)
			assert.Equal(t, 2, len(frames))
			checkIntraFrame(t, frames[0])
			checkIntraFrame(t, frames[1])
			assert.Equal(t, 1, frames[1].Index)
			if golden == nil {
				golden = frames
			}
			assert.Equal(t, golden[1].Arena(), frames[1].Arena())
		}
	}
}

func TestDecoder_Pts(t *testing.T) {
	first := concat(sequenceHeader16x16(), intraPicture16x16())
	second := predictivePicture16x16(pictureTypePredictive, 1, "1", "1")

	d := NewDecoder()
	d.PushWithPts(first, 9000)
	result, _, err := d.Decode()
	assert.Equal(t, nil, err)
	assert.Equal(t, ResultNeedMoreData, result)

	d.PushWithPts(second, 12600)
	result, frame, err := d.Decode()
	assert.Equal(t, nil, err)
	assert.Equal(t, ResultGotOneFrame, result)
	assert.Equal(t, uint64(9000), frame.Pts)

	d.Push(pictureTerminator)
	result, frame, err = d.Decode()
	assert.Equal(t, nil, err)
	assert.Equal(t, ResultGotOneFrame, result)
	assert.Equal(t, uint64(12600), frame.Pts)

	// 没有PTS的picture，上一次的结束起始码就是它的起始码
	d.Push(concat(predictivePicture16x16(pictureTypePredictive, 1, "1", "1")[4:], pictureTerminator))
	_, frame, err = d.Decode()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(0), frame.Pts)
	assert.Equal(t, 2, frame.Index)
}

func TestDecoder_MotionOutOfPlane(t *testing.T) {
	// 水平方向半像素，需要读取第17列
	stream := concat(sequenceHeader16x16(), intraPicture16x16(),
		predictivePicture16x16(pictureTypePredictive, 1, "010", "1"),
		pictureTerminator)
	d := NewDecoder()
	frames, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, true, errors.Is(err, base.ErrInternal))
	assert.Equal(t, false, base.IsRetryable(err))

	// 向上偏移一个像素
	stream = concat(sequenceHeader16x16(), intraPicture16x16(),
		predictivePicture16x16(pictureTypePredictive, 1, "1", "0011"),
		pictureTerminator)
	d = NewDecoder()
	_, err = decodeAll(t, d, stream, len(stream))
	assert.Equal(t, true, errors.Is(err, base.ErrInternal))
}

func TestDecoder_Unsupported(t *testing.T) {
	stream := concat(sequenceHeader16x16(),
		predictivePicture16x16(pictureTypeB, 1, "1", "1"),
		pictureTerminator)
	d := NewDecoder()
	_, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, true, errors.Is(err, base.ErrUnsupported))

	stream = concat(sequenceHeader16x16(),
		predictivePicture16x16(pictureTypePredictive, 0, "1", "1"),
		pictureTerminator)
	d = NewDecoder()
	_, err = decodeAll(t, d, stream, len(stream))
	assert.Equal(t, true, errors.Is(err, base.ErrVideoFormat))
}

func TestDecoder_SkipBeforeSequenceHeader(t *testing.T) {
	// 没有sequence header的picture被跳过
	stream := concat([]byte{0xAA, 0xBB}, intraPicture16x16(), sequenceHeader16x16(), intraPicture16x16(), pictureTerminator)
	d := NewDecoder()
	frames, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(frames))
	checkIntraFrame(t, frames[0])
}

func TestDecoder_SequenceHeaderDeferred(t *testing.T) {
	// 自定义的intra量化矩阵
	s := newBitStream().startCode(startCodeSequence)
	s.u(12, 32).u(12, 48).u(4, 1).u(4, 5).u(18, 1000)
	s.code("1").u(10, 20).code("0")
	s.code("1")
	for i := 0; i < 64; i++ {
		s.u(8, uint32(i+1))
	}
	s.code("0")
	header := s.align().bytes()

	d := NewDecoder()
	d.Push(header[:40])
	assert.Equal(t, startCodeSequence, d.ring.FindStart())
	ok, err := d.decodeSequenceHeader()
	assert.Equal(t, nil, err)
	assert.Equal(t, false, ok)
	assert.Equal(t, false, d.HasSequenceHeader())

	// 读位置回到起始码之前
	d.Push(header[40:])
	assert.Equal(t, startCodeSequence, d.ring.FindStart())
	ok, err = d.decodeSequenceHeader()
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ok)

	info := d.CodecInfo()
	assert.Equal(t, 32, info.Width)
	assert.Equal(t, 48, info.Height)
	assert.Equal(t, 30.0, info.FrameRate)
	assert.Equal(t, 2, info.MbWidth)
	assert.Equal(t, 3, info.MbHeight)
	assert.Equal(t, 16, info.ChromaWidth)
	assert.Equal(t, 24, info.ChromaHeight)
	for i := 0; i < 64; i++ {
		assert.Equal(t, uint8(i+1), info.IntraQuantMatrix[zigZag[i]])
	}
	assert.Equal(t, defaultNonIntraQuantMatrix, info.NonIntraQuantMatrix)
	assert.Equal(t, 2*(32*48+2*16*24), len(d.arena))
}

func TestDecoder_Reset(t *testing.T) {
	stream := concat(sequenceHeader16x16(), intraPicture16x16(), pictureTerminator)
	d := NewDecoder(WithRingCapacity(128))
	_, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, nil, err)

	d.Reset()
	assert.Equal(t, false, d.HasSequenceHeader())
	assert.Equal(t, 0, d.FramesDecoded())
	assert.Equal(t, 127, d.Free())

	frames, err := decodeAll(t, d, stream, 5)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(frames))
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "GotOneFrame", ResultGotOneFrame.String())
	assert.Equal(t, "NeedMoreData", ResultNeedMoreData.String())
}

// ----- 交流系数、跳过的宏块、帧间残差 ------------------------------------------------------------------------------

// 只有水平方向第一个交流系数（zigzag位置1）时，8行都相同，下面是直流为128时每一行的像素值
var (
	rowAc15    = []uint8{131, 130, 129, 129, 127, 127, 126, 125}
	rowAc31    = []uint8{133, 133, 131, 129, 127, 125, 123, 123}
	rowAcNeg31 = []uint8{123, 123, 125, 127, 129, 131, 133, 133}
	rowAc63    = []uint8{139, 137, 134, 130, 126, 122, 119, 117}
	rowAc2047  = []uint8{255, 255, 255, 198, 58, 0, 0, 0}
)

// escape 写入 run 和 8bit 或 16bit 的 level
func (s *bitStream) escape(run uint32, levels ...uint32) *bitStream {
	s.code("000001").u(6, run)
	for _, l := range levels {
		s.u(8, l)
	}
	return s
}

// dcOnlyBlocks 4个亮度块和2个色度块，直流差值都为0
func (s *bitStream) dcOnlyBlocks() *bitStream {
	return s.code("100 10 100 10 100 10 100 10").code("00 10 00 10")
}

// intraPicture96x16 一行6个宏块
//
// MB0: Y0 交流 +1；Y1 escape +2；Y2 escape 0xFE；Y3 escape 0x80 0xFE；Cb escape 0x00 0x80
// MB1: quantizer_scale 改为16，Y0 交流 +2
// MB2 ~ MB5: 全部为128
//
func intraPicture96x16() []byte {
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 0).u(3, pictureTypeIntra).u(16, 0xFFFF).code("0")
	s.startCode(0x01).u(5, 8).code("0")

	s.code("1 1")
	s.code("100").code("11 0").code("10")
	s.code("100").escape(0, 0x02).code("10")
	s.code("100").escape(0, 0xFE).code("10")
	s.code("100").escape(0, 0x80, 0xFE).code("10")
	s.code("00").escape(0, 0x00, 0x80).code("10")
	s.code("00 10")

	s.code("1 01").u(5, 16)
	s.code("100").code("0100 0").code("10")
	s.code("100 10 100 10 100 10").code("00 10 00 10")

	for i := 0; i < 4; i++ {
		s.code("1 1").dcOnlyBlocks()
	}
	return s.align().bytes()
}

// predictivePicture96x16
//
// MB0: 只有运动补偿，水平 +2 半像素
// MB1: 跳过
// MB2: 帧内，亮度直流差值 +2
// MB3: 跳过
// MB4: 帧内，直流差值都为0
// MB5: 帧间残差，cbp 为Y0和Y1，Y0 +1，Y1 escape -255
//
func predictivePicture96x16() []byte {
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 1).u(3, pictureTypePredictive).u(16, 0xFFFF)
	s.code("0").u(3, 1).code("0")
	s.startCode(0x01).u(5, 8).code("0")

	s.code("1 001").code("0010 1")
	s.code("011 00011")
	s.code("01 10 10").code("100 10 100 10 100 10").code("00 10 00 10")
	s.code("011 00011").dcOnlyBlocks()
	s.code("1 1").code("1 1").code("10010")
	s.code("1 0").code("10")
	s.escape(0, 0x80, 0x01).code("10")
	return s.align().bytes()
}

// fullPelPicture96x16 full_pel_forward_vector 为1，forward_f_code 为2，只有MB0
//
// 水平 motion_code +1，motion_r 1，矢量为2个整像素
//
func fullPelPicture96x16() []byte {
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 1).u(3, pictureTypePredictive).u(16, 0xFFFF)
	s.code("1").u(3, 2).code("0")
	s.startCode(0x01).u(5, 8).code("0")
	s.code("1 001").code("010 1").code("1")
	return s.align().bytes()
}

func checkRows(t *testing.T, plane []byte, stride, x, y, height int, row []uint8) {
	for r := y; r < y+height; r++ {
		assert.Equal(t, row, plane[r*stride+x:r*stride+x+len(row)], strconv.Itoa(r))
	}
}

func checkFill(t *testing.T, plane []byte, stride, x, y, size int, value uint8) {
	checkRows(t, plane, stride, x, y, size, bytes.Repeat([]byte{value}, size))
}

func checkIntraFrame96x16(t *testing.T, f *Frame) {
	y := f.YBytes()
	checkRows(t, y, 96, 0, 0, 8, concat(rowAc15, rowAc31, rowAc63))
	checkRows(t, y, 96, 0, 8, 8, concat(rowAcNeg31, rowAcNeg31))
	checkFill(t, y, 96, 24, 0, 8, 128)
	checkFill(t, y, 96, 16, 8, 8, 128)
	checkFill(t, y, 96, 24, 8, 8, 128)
	for mb := 2; mb < 6; mb++ {
		checkFill(t, y, 96, mb*16, 0, 16, 128)
	}

	cb := f.CbBytes()
	checkRows(t, cb, 48, 0, 0, 8, rowAc2047)
	checkFill(t, cb, 48, 8, 0, 8, 128)
	assert.Equal(t, bytes.Repeat([]byte{128}, 48*8), f.CrBytes())
}

func TestDecoder_IntraAcAndEscape(t *testing.T) {
	stream := concat(sequenceHeader(96, 16), intraPicture96x16(), pictureTerminator)
	for _, chunk := range []int{1, 7, len(stream)} {
		d := NewDecoder()
		frames, err := decodeAll(t, d, stream, chunk)
		assert.Equal(t, nil, err)
		assert.Equal(t, 1, len(frames))
		assert.Equal(t, 96, frames[0].Y.Width)
		assert.Equal(t, 48, frames[0].Cb.Width)
		checkIntraFrame96x16(t, frames[0])
	}
}

func TestDecoder_PredictiveMacroblocks(t *testing.T) {
	stream := concat(sequenceHeader(96, 16), intraPicture96x16(), predictivePicture96x16(), pictureTerminator)
	d := NewDecoder()
	frames, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(frames))
	checkIntraFrame96x16(t, frames[0])

	ref := frames[0].YBytes()
	y := frames[1].YBytes()

	// MB0 向左取一个像素
	for r := 0; r < 16; r++ {
		assert.Equal(t, ref[r*96+1:r*96+17], y[r*96:r*96+16], strconv.Itoa(r))
	}
	checkRows(t, y, 96, 0, 0, 1, []uint8{130, 129, 129, 127, 127, 126, 125, 133, 133, 131, 129, 127, 125, 123, 123, 139})
	checkRows(t, y, 96, 0, 8, 1, []uint8{123, 125, 127, 129, 131, 133, 133, 123, 123, 125, 127, 129, 131, 133, 133, 128})
	// 色度矢量为1个半像素
	checkRows(t, frames[1].CbBytes(), 48, 0, 0, 8, []uint8{255, 255, 227, 128, 29, 0, 0, 64})

	// MB1 跳过，运动矢量重置为0，直接拷贝参考帧
	for r := 0; r < 16; r++ {
		assert.Equal(t, ref[r*96+16:r*96+32], y[r*96+16:r*96+32], strconv.Itoa(r))
	}
	checkRows(t, y, 96, 16, 0, 8, rowAc63)

	// MB2 帧内，DC预测值在跳过之后重置为128
	checkFill(t, y, 96, 32, 0, 16, 130)

	// MB3 跳过
	checkFill(t, y, 96, 48, 0, 16, 128)

	// MB4 帧内，直流差值为0，预测值在跳过之后重置
	checkFill(t, y, 96, 64, 0, 16, 128)

	// MB5 残差叠加在预测值上，Y1 截断到0
	checkFill(t, y, 96, 80, 0, 8, 131)
	checkFill(t, y, 96, 88, 0, 8, 0)
	checkFill(t, y, 96, 80, 8, 8, 128)
	checkFill(t, y, 96, 88, 8, 8, 128)

	assert.Equal(t, bytes.Repeat([]byte{128}, 48*8), frames[1].CrBytes())
}

func TestDecoder_FullPelVector(t *testing.T) {
	stream := concat(sequenceHeader(96, 16), intraPicture96x16(), fullPelPicture96x16(), pictureTerminator)
	d := NewDecoder()
	frames, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(frames))

	ref := frames[0].YBytes()
	y := frames[1].YBytes()
	for r := 0; r < 16; r++ {
		assert.Equal(t, ref[r*96+2:r*96+18], y[r*96:r*96+16], strconv.Itoa(r))
	}
	checkRows(t, y, 96, 0, 0, 1, []uint8{129, 129, 127, 127, 126, 125, 133, 133, 131, 129, 127, 125, 123, 123, 139, 137})
	checkRows(t, frames[1].CbBytes(), 48, 0, 0, 8, []uint8{255, 255, 198, 58, 0, 0, 0, 128})
}

func TestDecoder_MotionVectorWrap(t *testing.T) {
	golden := []struct {
		rSize    int
		prev     int
		code     string
		expected int
	}{
		{0, 3, "0010", 5},
		{0, 15, "010", -16},
		{0, -16, "011", 15},
		{1, 30, "010 1", -32},  // 30 + 2，超过31
		{1, -31, "0011 0", 30}, // -31 - 3，小于-32
		{1, 4, "0011 1", 0},    // 4 - 4
		{2, 60, "1", 60},
	}
	for _, g := range golden {
		d := NewDecoder()
		s := newBitStream().code(g.code).align()
		d.Push(concat(s.bytes(), []byte{0xFF, 0xFF}))
		assert.Equal(t, g.expected, d.decodeMotionVector(g.rSize, g.prev), g.code)
		assert.Equal(t, nil, d.err)
	}
}

func TestDecoder_SliceOutOfPicture(t *testing.T) {
	// 16x16只有一行宏块，slice的垂直位置为2
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 0).u(3, pictureTypeIntra).u(16, 0xFFFF).code("0")
	s.startCode(0x02).u(5, 8).code("0")
	s.code("1 1").dcOnlyBlocks()

	stream := concat(sequenceHeader16x16(), s.align().bytes(), pictureTerminator)
	d := NewDecoder()
	frames, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, 0, len(frames))
	assert.Equal(t, true, errors.Is(err, base.ErrInternal))
	assert.Equal(t, false, base.IsRetryable(err))
}

func TestDecoder_CoefficientIndexOverflow(t *testing.T) {
	// 和 intraPicture16x16 相同，只是Cr块在直流之后是一个run为63的escape
	s := newBitStream().startCode(startCodePicture)
	s.u(10, 2).u(3, pictureTypeIntra).u(16, 0xFFFF).code("0")
	s.startCode(0x01).u(5, 8).code("0")
	s.code("1 1")
	s.code("101 101 10 100 10 01 01 10 100 10")
	s.code("00 10")
	s.code("00").escape(63, 0x01).code("10")
	bad := s.align().bytes()

	// 第3帧和第1帧使用同一块内存，Cr块被丢弃后保留第1帧的值129，而不是直流的128
	stream := concat(sequenceHeader16x16(), intraPicture16x16(), intraPicture16x16(), bad, pictureTerminator)
	d := NewDecoder()
	frames, err := decodeAll(t, d, stream, len(stream))
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(frames))
	checkIntraFrame(t, frames[2])
	assert.Equal(t, 2, frames[2].Index)
}
