// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package bitbuf

import "fmt"

// RingBitBuffer 环形缓冲，写按字节，读按bit
//
// rbi 为读位置（bit），wi 为写位置（字节）。rbi>>3 == wi 时为空。
// 始终保留1字节空闲，用来区分满和空，所以实际可用容量为 capacity-1。
// rbi 之前的数据不会再被读取（Back 除外，调用方保证回退的数据还没有被覆盖）。
//
type RingBitBuffer struct {
	core []byte
	rbi  int
	wi   int
}

func NewRingBitBuffer(capacity int) *RingBitBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBitBuffer{
		core: make([]byte, capacity),
	}
}

func (r *RingBitBuffer) Cap() int {
	return len(r.core)
}

func (r *RingBitBuffer) Empty() bool {
	return r.rbi>>3 == r.wi
}

func (r *RingBitBuffer) Full() bool {
	return r.round(r.wi+1) == r.rbi>>3
}

// Len 剩余可读bit数
//
func (r *RingBitBuffer) Len() int {
	if r.Empty() {
		return 0
	}
	return r.usedBytes()*8 - (r.rbi & 7)
}

// Free 还能写入多少字节
//
func (r *RingBitBuffer) Free() int {
	return len(r.core) - 1 - r.usedBytes()
}

func (r *RingBitBuffer) Has(n int) bool {
	return r.Len() >= n
}

// Push 拷贝尽可能多的数据，返回实际拷贝的字节数
//
// 返回值小于 len(b) 时，调用方需要先解码消费一部分数据再继续写入
//
func (r *RingBitBuffer) Push(b []byte) int {
	n := len(b)
	if free := r.Free(); n > free {
		n = free
	}
	// 最多分两段拷贝
	first := copy(r.core[r.wi:], b[:n])
	if first < n {
		copy(r.core, b[first:n])
	}
	r.wi = r.round(r.wi + n)
	return n
}

// Read 读取 n bit，n 最大为32，高位在前。剩余不足时返回0，不移动位置
//
func (r *RingBitBuffer) Read(n int) uint32 {
	if !r.Has(n) {
		return 0
	}
	v, pos := readBits(r.core, r.rbi, n, r.bitCap())
	r.rbi = pos
	return v
}

// Skip 剩余不足时不做任何事情，返回0
//
func (r *RingBitBuffer) Skip(n int) int {
	if !r.Has(n) {
		return 0
	}
	r.rbi = (r.rbi + n) % r.bitCap()
	return n
}

// Back 回退读位置，比如回退一个已经读出的起始码
//
func (r *RingBitBuffer) Back(n int) {
	r.rbi = ((r.rbi-n)%r.bitCap() + r.bitCap()) % r.bitCap()
}

// Discard 丢弃未读数据，只保留末尾 keep 字节
//
// 查找起始码失败时使用，避免缓冲被无用数据占满
//
func (r *RingBitBuffer) Discard(keep int) int {
	r.align()
	used := r.usedBytes()
	if used <= keep {
		return 0
	}
	drop := used - keep
	r.rbi = (r.rbi + drop*8) % r.bitCap()
	Log.Debugf("discard bytes. drop=%d, keep=%d, %s", drop, keep, r.DebugString())
	return drop
}

func (r *RingBitBuffer) ReadVlc(table []Vlc) (int16, error) {
	return ReadVlc(r, table)
}

func (r *RingBitBuffer) ReadVlcUint(table []VlcUint) (uint16, error) {
	return ReadVlcUint(r, table)
}

// ----- start code ----------------------------------------------------------------------------------------------------

// FindStartCode 字节对齐后查找起始码 code（比如0x000001B3），找到后读位置位于起始码之后
//
// 没找到时返回false，读位置不变
//
func (r *RingBitBuffer) FindStartCode(code uint32) bool {
	saved := r.rbi
	r.align()

	pattern := uint32(0xFFFFFFFF)
	for r.rbi>>3 != r.wi {
		pattern = (pattern << 8) | uint32(r.core[r.rbi>>3])
		r.rbi = (r.rbi + 8) % r.bitCap()

		if pattern == code {
			return true
		}
	}

	r.rbi = saved
	return false
}

// FindStart 字节对齐后查找下一个 00 00 01 xx，找到后读位置位于xx之后，返回xx
//
// 没找到时返回-1，读位置不变
//
func (r *RingBitBuffer) FindStart() int {
	saved := r.rbi
	r.align()

	pattern := uint32(0xFFFFFFFF)
	for r.rbi>>3 != r.wi {
		pattern = (pattern << 8) | uint32(r.core[r.rbi>>3])
		r.rbi = (r.rbi + 8) % r.bitCap()

		if pattern&0xFFFFFF00 == 0x00000100 {
			return int(pattern & 0xFF)
		}
	}

	r.rbi = saved
	return -1
}

// NextIsStart 字节对齐后，接下来的3字节是否为 00 00 01。不修改读位置
//
func (r *RingBitBuffer) NextIsStart() bool {
	pos := r.alignedBytePos()
	for i := 0; i < 3; i++ {
		if pos == r.wi {
			return false
		}
		expect := byte(0)
		if i == 2 {
			expect = 1
		}
		if r.core[pos] != expect {
			return false
		}
		pos = r.round(pos + 1)
	}
	return true
}

// IncludeTwoCode 读位置之后是否至少出现两次起始码 code。不修改读位置
//
// MPEG-1的一帧图像在两个起始码之间，用它来确认一整帧已经缓存完毕
//
func (r *RingBitBuffer) IncludeTwoCode(code uint32) bool {
	pos := r.alignedBytePos()
	pattern := uint32(0xFFFFFFFF)
	times := 0
	for pos != r.wi {
		pattern = (pattern << 8) | uint32(r.core[pos])
		pos = r.round(pos + 1)

		if pattern == code {
			times++
			if times == 2 {
				return true
			}
		}
	}
	return false
}

// PeekNonZero 接下来的 n bit 是否不全为0。剩余不足时返回false
//
func (r *RingBitBuffer) PeekNonZero(n int) bool {
	if !r.Has(n) {
		return false
	}
	v := r.Read(n)
	r.Back(n)
	return v != 0
}

func (r *RingBitBuffer) DebugString() string {
	return fmt.Sprintf("cap=%d, rbi=%d, wi=%d, len=%d", len(r.core), r.rbi, r.wi, r.Len())
}

// ---------------------------------------------------------------------------------------------------------------------

func (r *RingBitBuffer) round(p int) int {
	return (p + len(r.core)) % len(r.core)
}

func (r *RingBitBuffer) bitCap() int {
	return len(r.core) * 8
}

func (r *RingBitBuffer) usedBytes() int {
	return (r.wi + len(r.core) - (r.rbi >> 3)) % len(r.core)
}

func (r *RingBitBuffer) alignedBytePos() int {
	return r.round((r.rbi + 7) >> 3)
}

func (r *RingBitBuffer) align() {
	r.rbi = (((r.rbi + 7) >> 3) << 3) % r.bitCap()
}
