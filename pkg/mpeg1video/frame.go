// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpeg1video

import "fmt"

// Plane 一个颜色分量在 arena 中的位置
//
// 宽高按宏块对齐（亮度16，色度8），不等于显示的宽高。
//
type Plane struct {
	Offset int
	Width  int
	Height int
}

func (p Plane) Len() int {
	return p.Width * p.Height
}

// Bytes 分量的像素数据，arena 为 Frame.Arena 的返回值
//
func (p Plane) Bytes(arena []byte) []byte {
	return arena[p.Offset : p.Offset+p.Len() : p.Offset+p.Len()]
}

// Frame 解码后的YCbCr 4:2:0平面图像
//
// 两个 Frame 共用一块 arena。Decode 返回的 Frame 在下一次 Decode 之后会被复用，需要的话调用方自行拷贝。
//
type Frame struct {
	Width  int // 显示宽度
	Height int // 显示高度

	Y  Plane
	Cb Plane
	Cr Plane

	Pts   uint64 // 90kHz，没有时为0
	Index int    // 解码顺序，从0开始

	arena []byte
}

func (f *Frame) Arena() []byte {
	return f.arena
}

func (f *Frame) YBytes() []byte {
	return f.Y.Bytes(f.arena)
}

func (f *Frame) CbBytes() []byte {
	return f.Cb.Bytes(f.arena)
}

func (f *Frame) CrBytes() []byte {
	return f.Cr.Bytes(f.arena)
}

// Clone 拷贝出一个独立的 Frame，arena 只包含这一帧
//
func (f *Frame) Clone() *Frame {
	size := f.Y.Len() + f.Cb.Len() + f.Cr.Len()
	out := *f
	out.arena = make([]byte, 0, size)
	out.Y.Offset = 0
	out.arena = append(out.arena, f.YBytes()...)
	out.Cb.Offset = len(out.arena)
	out.arena = append(out.arena, f.CbBytes()...)
	out.Cr.Offset = len(out.arena)
	out.arena = append(out.arena, f.CrBytes()...)
	return &out
}

func (f *Frame) String() string {
	return fmt.Sprintf("[%d] %dx%d, pts=%d, y=%+v, cb=%+v, cr=%+v", f.Index, f.Width, f.Height, f.Pts, f.Y, f.Cb, f.Cr)
}

// allocFrames 按 CodecInfo 分配两个帧的 arena
//
func allocFrames(info *CodecInfo) (arena []byte, frames [2]Frame) {
	lumaSize := info.LumaWidth * info.LumaHeight
	chromaSize := info.ChromaWidth * info.ChromaHeight
	frameSize := lumaSize + 2*chromaSize

	arena = make([]byte, 2*frameSize)
	for i := range frames {
		base := i * frameSize
		frames[i] = Frame{
			Width:  info.Width,
			Height: info.Height,
			Y:      Plane{Offset: base, Width: info.LumaWidth, Height: info.LumaHeight},
			Cb:     Plane{Offset: base + lumaSize, Width: info.ChromaWidth, Height: info.ChromaHeight},
			Cr:     Plane{Offset: base + lumaSize + chromaSize, Width: info.ChromaWidth, Height: info.ChromaHeight},
			arena:  arena,
		}
	}
	return
}
