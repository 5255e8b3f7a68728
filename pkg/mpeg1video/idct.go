// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

// idct 8x8反离散余弦变换，原地计算
//
// 系数已经预乘了 premultiplierMatrix，这里只剩下蝶形运算。先按列，再按行，结果右移8位并四舍五入。
//
func idct(block *[64]int) {
	for i := 0; i < 8; i++ {
		idct8(block, i, 8, 0)
	}
	for i := 0; i < 64; i += 8 {
		idct8(block, i, 1, 128)
	}
}

// idct8 一维8点变换
//
// @param start: 第一个元素的位置
// @param step:  相邻元素的间隔，列为8，行为1
// @param round: 行变换时为128，结果右移8位；列变换时为0，不移位
//
func idct8(block *[64]int, start, step, round int) {
	at := func(k int) int { return block[start+k*step] }

	b1 := at(4)
	b3 := at(2) + at(6)
	b4 := at(5) - at(3)
	tmp1 := at(1) + at(7)
	tmp2 := at(3) + at(5)
	b6 := at(1) - at(7)
	b7 := tmp1 + tmp2
	m0 := at(0)
	x4 := ((b6*473 - b4*196 + 128) >> 8) - b7
	x0 := x4 - (((tmp1-tmp2)*362 + 128) >> 8)
	x1 := m0 - b1
	x2 := (((at(2)-at(6))*362 + 128) >> 8) - b3
	x3 := m0 + b1
	y3 := x1 + x2
	y4 := x3 + b3
	y5 := x1 - x2
	y6 := x3 - b3
	y7 := -x0 - ((b4*473 + b6*196 + 128) >> 8)

	out := [8]int{b7 + y4, x4 + y3, y5 - x0, y6 - y7, y6 + y7, x0 + y5, y3 - x4, y4 - b7}
	for k, v := range out {
		if round != 0 {
			v = (v + round) >> 8
		}
		block[start+k*step] = v
	}
}
