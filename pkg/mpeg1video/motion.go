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

// predictMacroblock 用前向参考帧和当前的运动矢量，生成当前宏块的预测值
//
func (d *Decoder) predictMacroblock() error {
	h := d.forward.h
	v := d.forward.v
	if d.forward.fullPel {
		h <<= 1
		v <<= 1
	}

	src := &d.frames[d.fwd]
	dst := &d.frames[d.cur]

	if err := predictBlock(dst.Y.Bytes(d.arena), src.Y.Bytes(d.arena), dst.Y.Width, d.mbCol<<4, d.mbRow<<4, 16, h, v); err != nil {
		return fmt.Errorf("%w. plane=y, mb=%d", err, d.mbAddress)
	}

	// 色度的分辨率减半，矢量也减半
	h /= 2
	v /= 2
	if err := predictBlock(dst.Cb.Bytes(d.arena), src.Cb.Bytes(d.arena), dst.Cb.Width, d.mbCol<<3, d.mbRow<<3, 8, h, v); err != nil {
		return fmt.Errorf("%w. plane=cb, mb=%d", err, d.mbAddress)
	}
	if err := predictBlock(dst.Cr.Bytes(d.arena), src.Cr.Bytes(d.arena), dst.Cr.Width, d.mbCol<<3, d.mbRow<<3, 8, h, v); err != nil {
		return fmt.Errorf("%w. plane=cr, mb=%d", err, d.mbAddress)
	}
	return nil
}

// predictBlock 半像素精度的块拷贝
//
// @param stride: 平面的宽度，源和目的相同
// @param x, y:   目的块左上角的位置
// @param size:   块的边长
// @param mh, mv: 运动矢量，单位为半像素
//
// 源块（包括半像素插值需要的额外一行和一列）必须完整落在参考平面内，否则返回错误
//
func predictBlock(dst, src []byte, stride int, x, y int, size int, mh, mv int) error {
	height := len(src) / stride
	oddH := mh & 1
	oddV := mv & 1
	sx := x + mh>>1
	sy := y + mv>>1

	if sx < 0 || sy < 0 || sx+size+oddH > stride || sy+size+oddV > height ||
		x < 0 || y < 0 || x+size > stride || y+size > len(dst)/stride {
		return base.NewErrInternal("motion vector out of plane. x=%d, y=%d, mh=%d, mv=%d, plane=%dx%d",
			x, y, mh, mv, stride, height)
	}

	si := sy*stride + sx
	di := y*stride + x
	switch {
	case oddH == 0 && oddV == 0:
		for row := 0; row < size; row++ {
			copy(dst[di:di+size], src[si:si+size])
			si += stride
			di += stride
		}
	case oddH == 1 && oddV == 0:
		for row := 0; row < size; row++ {
			for i := 0; i < size; i++ {
				dst[di+i] = uint8((int(src[si+i]) + int(src[si+i+1]) + 1) >> 1)
			}
			si += stride
			di += stride
		}
	case oddH == 0 && oddV == 1:
		for row := 0; row < size; row++ {
			for i := 0; i < size; i++ {
				dst[di+i] = uint8((int(src[si+i]) + int(src[si+i+stride]) + 1) >> 1)
			}
			si += stride
			di += stride
		}
	default:
		for row := 0; row < size; row++ {
			for i := 0; i < size; i++ {
				sum := int(src[si+i]) + int(src[si+i+1]) + int(src[si+i+stride]) + int(src[si+i+stride+1])
				dst[di+i] = uint8((sum + 2) >> 2)
			}
			si += stride
			di += stride
		}
	}
	return nil
}
