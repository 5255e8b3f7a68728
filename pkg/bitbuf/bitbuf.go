// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package bitbuf 按bit读取的缓存
//
// 有两种实现:
//   - BitCursor: 只读一块已经完整缓存好的内存，比如PS的各种头
//   - RingBitBuffer: 环形缓冲，写按字节，读按bit，视频解码器的唯一输入
//
package bitbuf

import (
	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

// Reader 可按bit读取的缓存
//
// Read 最多读32bit，读之前需要用 Has 判断
//
type Reader interface {
	Len() int
	Has(n int) bool
	Read(n int) uint32
	Skip(n int) int
	Back(n int)
}

// Vlc 二叉树形式的前缀码表
//
// 每个节点占两项，分别对应下一个bit为0和为1。
// Index 为负表示非法码；为0表示叶子，Value 为解码结果；否则为子节点在表中的位置
//
type Vlc struct {
	Index int16
	Value int16
}

// VlcUint 同 Vlc，只是 Value 是无符号的（DCT系数表使用0xffff作为escape）
//
type VlcUint struct {
	Index int16
	Value uint16
}

// ReadVlc 按码表读取一个变长码
//
func ReadVlc(r Reader, table []Vlc) (int16, error) {
	var state Vlc
	for {
		if !r.Has(1) {
			return 0, base.ErrBitShortBuffer
		}
		state = table[int(state.Index)+int(r.Read(1))]
		if state.Index < 0 {
			return 0, base.ErrInvalidVlc
		}
		if state.Index == 0 {
			return state.Value, nil
		}
	}
}

func ReadVlcUint(r Reader, table []VlcUint) (uint16, error) {
	var state VlcUint
	for {
		if !r.Has(1) {
			return 0, base.ErrBitShortBuffer
		}
		state = table[int(state.Index)+int(r.Read(1))]
		if state.Index < 0 {
			return 0, base.ErrInvalidVlc
		}
		if state.Index == 0 {
			return state.Value, nil
		}
	}
}

// VlcCode 码表中的一个叶子
//
type VlcCode struct {
	Bits  uint32 // 码字，低 Len 位有效
	Len   int
	Value int
}

// Bytes 码字高位对齐后的字节，不足一字节的部分补0
//
func (c VlcCode) Bytes() []byte {
	out := make([]byte, (c.Len+7)/8+1)
	v := uint64(c.Bits) << uint(64-c.Len)
	for i := range out {
		out[i] = byte(v >> 56)
		v <<= 8
	}
	return out
}

// WalkVlc 深度优先遍历码表，bit 0 优先，返回所有合法叶子
//
// 用来检查码表是否为合法的前缀码
//
func WalkVlc(table []Vlc) []VlcCode {
	var out []VlcCode
	var walk func(node int, bits uint32, n int)
	walk = func(node int, bits uint32, n int) {
		for b := 0; b < 2; b++ {
			if node+b >= len(table) || n >= 32 {
				return
			}
			e := table[node+b]
			code := bits<<1 | uint32(b)
			switch {
			case e.Index < 0:
			case e.Index == 0:
				out = append(out, VlcCode{Bits: code, Len: n + 1, Value: int(e.Value)})
			default:
				walk(int(e.Index), code, n+1)
			}
		}
	}
	walk(0, 0, 0)
	return out
}

func WalkVlcUint(table []VlcUint) []VlcCode {
	vt := make([]Vlc, len(table))
	values := make([]uint16, len(table))
	for i, e := range table {
		vt[i] = Vlc{Index: e.Index, Value: int16(i)}
		values[i] = e.Value
	}
	out := WalkVlc(vt)
	for i := range out {
		out[i].Value = int(values[out[i].Value])
	}
	return out
}

// readBits 从 data 的第 pos bit开始读 n bit，pos 回绕由 wrap 决定（单位bit，0表示不回绕）
//
func readBits(data []byte, pos int, n int, wrap int) (uint32, int) {
	var value uint32
	for n > 0 {
		currentByte := uint32(data[pos>>3])

		remaining := 8 - (pos & 7) // 当前字节剩余的bit
		read := n
		if remaining < n {
			read = remaining
		}

		shift := uint(remaining - read)
		mask := uint32(0xff) >> uint(8-read)

		value = (value << uint(read)) | ((currentByte & (mask << shift)) >> shift)

		pos += read
		if wrap != 0 {
			pos %= wrap
		}
		n -= read
	}
	return value, pos
}
