// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package bitbuf

import "github.com/q191201771/mpeg1ps/pkg/base"

// BitCursor 对一块完整内存按bit读取，不持有内存
//
type BitCursor struct {
	core []byte
	bi   int
}

func NewBitCursor(b []byte) BitCursor {
	return BitCursor{
		core: b,
	}
}

// Pos 已经读取的bit数
//
func (bc *BitCursor) Pos() int {
	return bc.bi
}

// BytePos 已经读取的字节数，向上取整
//
func (bc *BitCursor) BytePos() int {
	return (bc.bi + 7) >> 3
}

// Len 剩余可读bit数
//
func (bc *BitCursor) Len() int {
	return len(bc.core)*8 - bc.bi
}

func (bc *BitCursor) Has(n int) bool {
	return n <= bc.Len()
}

// Read 读取 n bit，n 最大为32。剩余不足时返回0，不移动位置
//
func (bc *BitCursor) Read(n int) uint32 {
	if !bc.Has(n) {
		return 0
	}
	v, pos := readBits(bc.core, bc.bi, n, 0)
	bc.bi = pos
	return v
}

// ReadE 同 Read，剩余不足时返回错误
//
func (bc *BitCursor) ReadE(n int) (uint32, error) {
	if !bc.Has(n) {
		return 0, base.ErrBitShortBuffer
	}
	return bc.Read(n), nil
}

// Skip 剩余不足时不做任何事情，返回0
//
func (bc *BitCursor) Skip(n int) int {
	if !bc.Has(n) {
		return 0
	}
	bc.bi += n
	return n
}

func (bc *BitCursor) Back(n int) {
	bc.bi -= n
	if bc.bi < 0 {
		bc.bi = 0
	}
}

func (bc *BitCursor) ReadVlc(table []Vlc) (int16, error) {
	return ReadVlc(bc, table)
}
