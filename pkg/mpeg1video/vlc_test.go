// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

import (
	"testing"

	"github.com/q191201771/mpeg1ps/pkg/bitbuf"
	"github.com/q191201771/naza/pkg/assert"
)

// 每个码表的每个码字都能被解码回原值，并且恰好消耗码字的长度
func TestVlcTables(t *testing.T) {
	golden := []struct {
		name   string
		table  []bitbuf.Vlc
		leaves int
		maxLen int
	}{
		{"mb_address_increment", vlcMbAddressIncrement, 35, 11},
		{"mb_type_intra", vlcMbTypeIntra, 2, 2},
		{"mb_type_predictive", vlcMbTypePredictive, 7, 6},
		{"coded_block_pattern", vlcCodedBlockPattern, 63, 9},
		{"motion_code", vlcMotionCode, 33, 11},
		{"dct_dc_size_luminance", vlcDctSizeLuminance, 9, 7},
		{"dct_dc_size_chrominance", vlcDctSizeChrominance, 9, 8},
	}
	for _, g := range golden {
		codes := bitbuf.WalkVlc(g.table)
		assert.Equal(t, g.leaves, len(codes), g.name)
		checkCodes(t, g.name, codes, g.maxLen, func(bc *bitbuf.BitCursor) (int, error) {
			v, err := bc.ReadVlc(g.table)
			return int(v), err
		})
	}

	codes := bitbuf.WalkVlcUint(vlcDctCoeff)
	assert.Equal(t, 112, len(codes))
	checkCodes(t, "dct_coeff", codes, 16, func(bc *bitbuf.BitCursor) (int, error) {
		v, err := bitbuf.ReadVlcUint(bc, vlcDctCoeff)
		return int(v), err
	})
}

func checkCodes(t *testing.T, name string, codes []bitbuf.VlcCode, maxLen int, read func(bc *bitbuf.BitCursor) (int, error)) {
	values := make(map[int]bool)
	longest := 0
	for _, c := range codes {
		bc := bitbuf.NewBitCursor(c.Bytes())
		v, err := read(&bc)
		assert.Equal(t, nil, err, name)
		assert.Equal(t, c.Value, v, name)
		assert.Equal(t, c.Len, bc.Pos(), name)

		assert.Equal(t, false, values[v], name)
		values[v] = true
		if c.Len > longest {
			longest = c.Len
		}
	}
	assert.Equal(t, maxLen, longest, name)
}

func TestVlcSpecialValues(t *testing.T) {
	var escape, eob bool
	for _, c := range bitbuf.WalkVlcUint(vlcDctCoeff) {
		switch c.Value {
		case dctCoeffEscape:
			// 000001
			assert.Equal(t, 6, c.Len)
			assert.Equal(t, uint32(1), c.Bits)
			escape = true
		case dctCoeffEndOfBlock:
			assert.Equal(t, 1, c.Len)
			eob = true
		}
	}
	assert.Equal(t, true, escape)
	assert.Equal(t, true, eob)

	for _, c := range bitbuf.WalkVlc(vlcMbAddressIncrement) {
		switch c.Value {
		case mbaStuffing:
			// 0000 0001 111
			assert.Equal(t, 11, c.Len)
			assert.Equal(t, uint32(0x0F), c.Bits)
		case mbaEscape:
			// 0000 0001 000
			assert.Equal(t, 11, c.Len)
			assert.Equal(t, uint32(0x08), c.Bits)
		}
	}

	// 非法的码字
	bc := bitbuf.NewBitCursor([]byte{0x00, 0x00})
	_, err := bc.ReadVlc(vlcMbAddressIncrement)
	assert.IsNotNil(t, err)
}
