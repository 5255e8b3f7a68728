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

// ----------------------------------------------------------------------
// <ISO/IEC 11172-2> <2.4.2.5 Picture layer>
// picture_start_code          [32b] 0x00000100
// temporal_reference          [10b]
// picture_coding_type         [3b]
// vbv_delay                   [16b]
// full_pel_forward_vector     [1b]  * P,B
// forward_f_code              [3b]  * P,B
// ...                         B帧的后向参数，extra_information_picture
// ----------------------------------------------------------------------

// decodePicture 读位置位于picture起始码之后
//
func (d *Decoder) decodePicture() (*Frame, error) {
	d.err = nil
	picPos := d.readPos() - 4

	d.skip(10)
	d.pictureType = d.read(3)
	d.skip(16)
	if d.err != nil {
		return nil, d.err
	}

	switch d.pictureType {
	case pictureTypeIntra:
	case pictureTypePredictive:
		d.forward.fullPel = d.read(1) == 1
		fCode := d.read(3)
		if d.err != nil {
			return nil, d.err
		}
		if fCode == 0 {
			return nil, fmt.Errorf("%w. forward_f_code is 0", base.ErrVideoFormat)
		}
		d.forward.rSize = fCode - 1
		if !d.hasReference {
			Log.Warnf("predictive picture without reference picture.")
		}
	default:
		return nil, fmt.Errorf("%w. picture coding type. type=%d", base.ErrUnsupported, d.pictureType)
	}

	// 跳过 extension 和 user data，直到第一个slice
	code := d.ring.FindStart()
	for code == startCodeExtension || code == startCodeUserData {
		code = d.ring.FindStart()
	}

	for isSliceStartCode(code) {
		if err := d.decodeSlice(code); err != nil {
			return nil, err
		}
		code = d.ring.FindStart()
	}

	// 结束的起始码留给下一次解析
	if code >= 0 {
		d.ring.Back(32)
	}

	frame := &d.frames[d.cur]
	frame.Pts = d.ptsOf(picPos)
	frame.Index = d.framesDecoded
	d.framesDecoded++

	// 刚解码完的帧成为参考帧，原参考帧的内存用来解码下一帧
	d.cur, d.fwd = d.fwd, d.cur
	d.hasReference = true
	return frame, nil
}

// ----------------------------------------------------------------------
// <ISO/IEC 11172-2> <2.4.2.6 Slice layer>
// slice_start_code            [32b] 0x00000101 ~ 0x000001AF
// quantizer_scale             [5b]
// extra_bit_slice             [1b]  为1时跟随8bit extra_information_slice，循环
// macroblock                  ...
// ----------------------------------------------------------------------

// decodeSlice
//
// @param slice: 起始码的第4个字节，也即slice所在的宏块行号加1
//
func (d *Decoder) decodeSlice(slice int) error {
	d.sliceBegin = true
	d.mbAddress = (slice-1)*d.info.MbWidth - 1

	d.forward.resetVector()
	d.resetDcPredictor()

	d.quantizerScale = d.read(5)
	for d.read(1) == 1 && d.err == nil {
		d.skip(8)
	}
	if d.err != nil {
		return d.err
	}

	for {
		if err := d.decodeMacroblock(); err != nil {
			return err
		}
		// 后面23bit全为0，表示遇到了下一个起始码
		if d.mbAddress >= d.info.MbSize-1 || !d.ring.PeekNonZero(23) {
			return nil
		}
	}
}

func (d *Decoder) resetDcPredictor() {
	d.dcPredictor[0] = 128
	d.dcPredictor[1] = 128
	d.dcPredictor[2] = 128
}
