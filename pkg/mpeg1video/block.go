// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

const (
	dctCoeffEscape     = 0xFFFF
	dctCoeffEndOfBlock = 0x0001
)

// decodeBlock 解码一个8x8的块，写入当前帧
//
// @param i: 0~3为亮度的四个块，4为Cb，5为Cr
//
func (d *Decoder) decodeBlock(i int) {
	var quant *[64]uint8
	n := 0

	if d.mbIntra {
		plane := 0
		if i > 3 {
			plane = i - 3
		}
		table := vlcDctSizeLuminance
		if plane != 0 {
			table = vlcDctSizeChrominance
		}

		dc := d.dcPredictor[plane]
		if size := d.readVlc(table, "dct_dc_size"); size > 0 {
			diff := d.read(size)
			if diff&(1<<uint(size-1)) != 0 {
				dc += diff
			} else {
				dc += (-1 << uint(size)) | (diff + 1)
			}
		}
		d.dcPredictor[plane] = dc

		// 反量化，并且乘上IDCT的缩放因子
		d.block[0] = dc << 8

		quant = &d.info.IntraQuantMatrix
		n = 1
	} else {
		quant = &d.info.NonIntraQuantMatrix
	}

	for d.err == nil {
		run := 0
		level := 0
		coeff := d.readVlcUint(vlcDctCoeff, "dct_coeff")

		if coeff == dctCoeffEndOfBlock && n > 0 && d.read(1) == 0 {
			break
		}

		if coeff == dctCoeffEscape {
			run = d.read(6)
			level = d.read(8)
			switch {
			case level == 0:
				level = d.read(8)
			case level == 128:
				level = d.read(8) - 256
			case level > 128:
				level -= 256
			}
		} else {
			run = coeff >> 8
			level = coeff & 0xFF
			if d.read(1) != 0 {
				level = -level
			}
		}

		n += run
		if n < 0 || n >= 64 {
			Log.Warnf("dct coefficient index out of range, skip block. index=%d, block=%d, mb=%d", n, i, d.mbAddress)
			d.clearBlock()
			return
		}

		z := zigZag[n]
		n++

		// 反量化，奇数化，截断
		level <<= 1
		if !d.mbIntra {
			if level < 0 {
				level--
			} else {
				level++
			}
		}
		level = (level * d.quantizerScale * int(quant[z])) >> 4
		if level&1 == 0 {
			if level > 0 {
				level--
			} else {
				level++
			}
		}
		if level > 2047 {
			level = 2047
		} else if level < -2048 {
			level = -2048
		}

		d.block[z] = level * premultiplierMatrix[z]
	}
	if d.err != nil {
		d.clearBlock()
		return
	}

	d.writeBlock(i, n == 1)
}

// writeBlock 把 d.block 写到当前帧对应的位置，帧内为覆盖，帧间为叠加到预测值上
//
// @param dcOnly: 只有直流系数，不需要做IDCT
//
func (d *Decoder) writeBlock(i int, dcOnly bool) {
	frame := &d.frames[d.cur]
	var dst []byte
	var stride, pos int
	if i < 4 {
		dst = frame.Y.Bytes(d.arena)
		stride = frame.Y.Width
		pos = (d.mbRow<<4)*stride + d.mbCol<<4
		if i&1 != 0 {
			pos += 8
		}
		if i&2 != 0 {
			pos += stride << 3
		}
	} else {
		if i == 4 {
			dst = frame.Cb.Bytes(d.arena)
		} else {
			dst = frame.Cr.Bytes(d.arena)
		}
		stride = frame.Cb.Width
		pos = (d.mbRow<<3)*stride + d.mbCol<<3
	}

	if dcOnly {
		value := (d.block[0] + 128) >> 8
		if d.mbIntra {
			fillBlock(dst, pos, stride, value)
		} else {
			addValueToBlock(dst, pos, stride, value)
		}
	} else {
		idct(&d.block)
		if d.mbIntra {
			copyBlock(dst, pos, stride, &d.block)
		} else {
			addBlock(dst, pos, stride, &d.block)
		}
	}
	d.clearBlock()
}

func (d *Decoder) clearBlock() {
	d.block = [64]int{}
}

func fillBlock(dst []byte, pos, stride, value int) {
	v := clamp(value)
	for row := 0; row < 8; row++ {
		line := dst[pos : pos+8]
		for i := range line {
			line[i] = v
		}
		pos += stride
	}
}

func addValueToBlock(dst []byte, pos, stride, value int) {
	for row := 0; row < 8; row++ {
		line := dst[pos : pos+8]
		for i := range line {
			line[i] = clamp(int(line[i]) + value)
		}
		pos += stride
	}
}

func copyBlock(dst []byte, pos, stride int, block *[64]int) {
	for row := 0; row < 8; row++ {
		line := dst[pos : pos+8]
		for i := range line {
			line[i] = clamp(block[row*8+i])
		}
		pos += stride
	}
}

func addBlock(dst []byte, pos, stride int, block *[64]int) {
	for row := 0; row < 8; row++ {
		line := dst[pos : pos+8]
		for i := range line {
			line[i] = clamp(int(line[i]) + block[row*8+i])
		}
		pos += stride
	}
}

func clamp(n int) uint8 {
	if n > 255 {
		return 255
	}
	if n < 0 {
		return 0
	}
	return uint8(n)
}

