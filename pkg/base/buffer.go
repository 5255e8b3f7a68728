// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"fmt"
)

// Buffer 先进先出定长流式buffer，可直接读内部切片避免拷贝
//
// 和可扩容的版本不同，容量在创建时确定，写入时只拷贝剩余空间能容纳的部分，
// 调用方根据 Write 的返回值决定是否需要先消费数据。
//
// 示例
//   读取
//     buf := Bytes()
//     ... // 读取buf的内容
//     Skip(n)
//
//   写入
//     n := Write(buf)
//     if n < len(buf) { ... // 先消费 }
//
// 注意，Write 可能把未读数据搬移到内存块头部，之前通过 Bytes 拿到的切片随之失效。
//
type Buffer struct {
	core []byte
	rpos int
	wpos int
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		core: make([]byte, capacity, capacity),
	}
}

// ---------------------------------------------------------------------------------------------------------------------

// Bytes Buffer中所有未读数据，类似于PeekAll，不拷贝
//
func (b *Buffer) Bytes() []byte {
	if b.rpos == b.wpos {
		return nil
	}
	return b.core[b.rpos:b.wpos]
}

// Skip 将前`n`未读数据标记为已读（也即消费完成）
//
func (b *Buffer) Skip(n int) {
	if n > b.wpos-b.rpos {
		Log.Warnf("[%p] Buffer::Skip too large. n=%d, %s", b, n, b.DebugString())
		b.Reset()
		return
	}
	b.rpos += n
	b.resetIfEmpty()
}

// ---------------------------------------------------------------------------------------------------------------------

// Write 拷贝，最多拷贝 Free() 大小，返回实际拷贝的大小
//
func (b *Buffer) Write(p []byte) int {
	n := len(p)
	if free := b.Free(); n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	if len(b.core)-b.wpos < n {
		// 尾部空闲空间不够，将可读数据移动到头部，回收头部空闲空间
		copy(b.core, b.core[b.rpos:b.wpos])
		b.wpos -= b.rpos
		b.rpos = 0
	}

	copy(b.core[b.wpos:], p[:n])
	b.wpos += n
	return n
}

// Reset 重置
//
// 注意，并不会释放内存块
//
func (b *Buffer) Reset() {
	b.rpos = 0
	b.wpos = 0
}

// ---------------------------------------------------------------------------------------------------------------------

// Len Buffer中还没有读的数据的长度
//
func (b *Buffer) Len() int {
	return b.wpos - b.rpos
}

// Cap 整个Buffer的容量
//
func (b *Buffer) Cap() int {
	return len(b.core)
}

// Free 还能写入多少
//
func (b *Buffer) Free() int {
	return len(b.core) - b.Len()
}

func (b *Buffer) DebugString() string {
	return fmt.Sprintf("len(core)=%d, rpos=%d, wpos=%d", len(b.core), b.rpos, b.wpos)
}

// ---------------------------------------------------------------------------------------------------------------------

func (b *Buffer) resetIfEmpty() {
	if b.rpos == b.wpos {
		b.Reset()
	}
}
