// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

import (
	"fmt"

	"github.com/q191201771/mpeg1ps/pkg/base"
)

// CodecInfo sequence header 中的参数，以及由此推导出的宏块和平面大小
//
type CodecInfo struct {
	Width         int
	Height        int
	AspectRatio   uint8 // pel_aspect_ratio，4bit的编号
	FrameRateCode uint8
	FrameRate     float64 // 由 FrameRateCode 查表，保留值为0
	BitRate       uint32  // 单位400bit/s

	MbWidth  int
	MbHeight int
	MbSize   int

	LumaWidth    int
	LumaHeight   int
	ChromaWidth  int
	ChromaHeight int

	IntraQuantMatrix    [64]uint8 // 自然顺序，不是zig-zag顺序
	NonIntraQuantMatrix [64]uint8
}

func (info CodecInfo) String() string {
	return fmt.Sprintf("%dx%d, aspect=%d, fps=%.3f, bitrate=%d, mb=%dx%d",
		info.Width, info.Height, info.AspectRatio, info.FrameRate, info.BitRate, info.MbWidth, info.MbHeight)
}

// ----------------------------------------------------------------------
// <ISO/IEC 11172-2> <2.4.2.3 Sequence header>
// sequence_header_code        [32b] 0x000001B3
// horizontal_size             [12b]
// vertical_size               [12b]
// pel_aspect_ratio            [4b]
// picture_rate                [4b]
// bit_rate                    [18b]
// marker_bit                  [1b]
// vbv_buffer_size             [10b]
// constrained_parameter_flag  [1b]
// load_intra_quantizer_matrix [1b]
// intra_quantizer_matrix      [8b * 64]  *
// load_non_intra_quantizer_matrix [1b]
// non_intra_quantizer_matrix  [8b * 64]  *
// ----------------------------------------------------------------------

// decodeSequenceHeader 读位置位于起始码之后
//
// 数据不完整时回退到起始码之前，返回false，不修改任何状态
//
func (d *Decoder) decodeSequenceHeader() (bool, error) {
	r := d.ring
	if !r.Has(sequenceHeaderFixedBits) {
		r.Back(32)
		return false, nil
	}

	var info CodecInfo
	info.Width = int(r.Read(12))
	info.Height = int(r.Read(12))
	info.AspectRatio = uint8(r.Read(4))
	info.FrameRateCode = uint8(r.Read(4))
	info.FrameRate = frameRateTable[info.FrameRateCode]
	info.BitRate = r.Read(18)
	r.Skip(1 + 10 + 1)
	consumed := sequenceHeaderFixedBits

	wait := func() (bool, error) {
		r.Back(consumed + 32)
		return false, nil
	}

	if r.Read(1) == 1 {
		if !r.Has(quantMatrixBits) {
			return wait()
		}
		readQuantMatrix(d, &info.IntraQuantMatrix)
		consumed += quantMatrixBits
	} else {
		info.IntraQuantMatrix = defaultIntraQuantMatrix
	}

	if !r.Has(1) {
		return wait()
	}
	consumed++
	if r.Read(1) == 1 {
		if !r.Has(quantMatrixBits) {
			return wait()
		}
		readQuantMatrix(d, &info.NonIntraQuantMatrix)
		consumed += quantMatrixBits
	} else {
		info.NonIntraQuantMatrix = defaultNonIntraQuantMatrix
	}

	if info.Width == 0 || info.Height == 0 {
		return false, fmt.Errorf("%w. sequence header size. width=%d, height=%d", base.ErrVideoFormat, info.Width, info.Height)
	}

	info.MbWidth = (info.Width + 15) >> 4
	info.MbHeight = (info.Height + 15) >> 4
	info.MbSize = info.MbWidth * info.MbHeight
	info.LumaWidth = info.MbWidth << 4
	info.LumaHeight = info.MbHeight << 4
	info.ChromaWidth = info.MbWidth << 3
	info.ChromaHeight = info.MbHeight << 3

	if !d.hasSequenceHeader || info.Width != d.info.Width || info.Height != d.info.Height {
		Log.Infof("sequence header. %s", info.String())
		d.arena, d.frames = allocFrames(&info)
		d.cur, d.fwd = 0, 1
		d.hasReference = false
	}
	d.info = info
	d.hasSequenceHeader = true
	return true, nil
}

// readQuantMatrix 码流中为zig-zag顺序
//
func readQuantMatrix(d *Decoder, m *[64]uint8) {
	for i := 0; i < 64; i++ {
		m[zigZag[i]] = uint8(d.ring.Read(8))
	}
}
