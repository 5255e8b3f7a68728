// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

import (
	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/bitbuf"
)

// motionState 前向运动矢量的状态，矢量是差分编码的
//
type motionState struct {
	fullPel bool
	rSize   int
	h       int
	v       int
	isSet   bool
}

func (m *motionState) resetVector() {
	m.h = 0
	m.v = 0
}

// ----------------------------------------------------------------------
// <ISO/IEC 11172-2> <2.4.2.7 Macroblock layer>
// macroblock_stuffing         [11b] *
// macroblock_escape           [11b] *
// macroblock_address_increment [1-11b]
// macroblock_type             [1-6b]
// quantizer_scale             [5b]  *
// motion_horizontal_forward   ...   *
// motion_vertical_forward     ...   *
// coded_block_pattern         [3-9b] *
// block(i)                    ...
// ----------------------------------------------------------------------

func (d *Decoder) decodeMacroblock() error {
	increment := 0
	t := d.readVlc(vlcMbAddressIncrement, "mb_address_increment")
	for t == mbaStuffing && d.err == nil {
		t = d.readVlc(vlcMbAddressIncrement, "mb_address_increment")
	}
	for t == mbaEscape && d.err == nil {
		increment += 33
		t = d.readVlc(vlcMbAddressIncrement, "mb_address_increment")
	}
	if d.err != nil {
		return d.err
	}
	increment += t

	if d.sliceBegin {
		// slice的第一个增量相对于该行之前的位置
		d.sliceBegin = false
		d.mbAddress += increment
	} else {
		if d.mbAddress+increment >= d.info.MbSize {
			return d.errMbAddress(d.mbAddress + increment)
		}
		if increment > 1 {
			// 跳过的宏块重置DC预测值，P帧中还要重置运动矢量
			d.resetDcPredictor()
			if d.pictureType == pictureTypePredictive {
				d.forward.resetVector()
			}
		}
		// 跳过的宏块直接使用预测值
		for increment > 1 {
			d.mbAddress++
			d.setMbPosition()
			if err := d.predictMacroblock(); err != nil {
				return err
			}
			increment--
		}
		d.mbAddress++
	}

	if d.mbAddress < 0 || d.mbAddress >= d.info.MbSize {
		return d.errMbAddress(d.mbAddress)
	}
	d.setMbPosition()

	d.mbType = d.readVlc(d.mbTypeTable(), "mb_type")
	d.mbIntra = d.mbType&mbTypeIntra != 0
	d.forward.isSet = d.mbType&mbTypeMotionForward != 0

	if d.mbType&mbTypeQuant != 0 {
		d.quantizerScale = d.read(5)
	}
	if d.err != nil {
		return d.err
	}

	if d.mbIntra {
		d.forward.resetVector()
	} else {
		d.resetDcPredictor()
		d.decodeMotionVectors()
		if d.err != nil {
			return d.err
		}
		if err := d.predictMacroblock(); err != nil {
			return err
		}
	}

	cbp := 0
	if d.mbType&mbTypePattern != 0 {
		cbp = d.readVlc(vlcCodedBlockPattern, "coded_block_pattern")
	} else if d.mbIntra {
		cbp = 0x3F
	}

	mask := 0x20
	for i := 0; i < 6; i++ {
		if cbp&mask != 0 {
			d.decodeBlock(i)
		}
		if d.err != nil {
			return d.err
		}
		mask >>= 1
	}
	return nil
}

func (d *Decoder) mbTypeTable() []bitbuf.Vlc {
	if d.pictureType == pictureTypePredictive {
		return vlcMbTypePredictive
	}
	return vlcMbTypeIntra
}

func (d *Decoder) setMbPosition() {
	d.mbRow = d.mbAddress / d.info.MbWidth
	d.mbCol = d.mbAddress % d.info.MbWidth
}

func (d *Decoder) errMbAddress(addr int) error {
	return base.NewErrInternal("macroblock address out of range. addr=%d, size=%d", addr, d.info.MbSize)
}

func (d *Decoder) decodeMotionVectors() {
	if d.forward.isSet {
		d.forward.h = d.decodeMotionVector(d.forward.rSize, d.forward.h)
		d.forward.v = d.decodeMotionVector(d.forward.rSize, d.forward.v)
	} else if d.pictureType == pictureTypePredictive {
		// P帧中没有运动信息的宏块，矢量为0
		d.forward.resetVector()
	}
}

// decodeMotionVector 读取一个分量的差值，加到前一个值上，并折回到 [-(scale<<4), (scale<<4)-1]
//
func (d *Decoder) decodeMotionVector(rSize, prev int) int {
	scale := 1 << uint(rSize)
	code := d.readVlc(vlcMotionCode, "motion_code")

	delta := code
	if code != 0 && scale != 1 {
		residual := d.read(rSize)
		delta = ((abs(code) - 1) << uint(rSize)) + residual + 1
		if code < 0 {
			delta = -delta
		}
	}

	v := prev + delta
	if v > (scale<<4)-1 {
		v -= scale << 5
	} else if v < -(scale << 4) {
		v += scale << 5
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
