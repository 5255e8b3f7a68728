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
	"github.com/q191201771/mpeg1ps/pkg/bitbuf"
)

type Option struct {
	// RingCapacity 环形缓冲的大小，至少要能放下两个完整的picture
	RingCapacity int
}

var defaultOption = Option{
	RingCapacity: defaultRingCapacity,
}

type ModOption func(option *Option)

func WithRingCapacity(capacity int) ModOption {
	return func(option *Option) {
		option.RingCapacity = capacity
	}
}

// Decoder MPEG-1视频解码器
//
// 调用方的循环:
//   Push(es)
//   for {
//     result, frame, err := Decode()
//     if err != nil { 致命错误 }
//     if result == ResultNeedMoreData { break }
//     使用frame
//   }
//
// 不支持并发调用。
//
type Decoder struct {
	option Option
	ring   *bitbuf.RingBitBuffer

	info              CodecInfo
	hasSequenceHeader bool

	arena        []byte
	frames       [2]Frame
	cur          int // 正在解码的帧
	fwd          int // 前向参考帧
	hasReference bool

	// picture和slice层的状态
	pictureType    int
	quantizerScale int
	forward        motionState

	// 宏块层的状态
	sliceBegin  bool
	mbAddress   int
	mbRow       int
	mbCol       int
	mbType      int
	mbIntra     bool
	dcPredictor [3]int
	block       [64]int

	err error // 解码一个picture过程中第一次出现的错误

	pushed        int64 // 累计写入的字节数
	marks         []ptsMark
	framesDecoded int
}

type ptsMark struct {
	pos int64 // 对应的第一个字节在es流中的位置
	pts uint64
}

func NewDecoder(modOptions ...ModOption) *Decoder {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	return &Decoder{
		option: option,
		ring:   bitbuf.NewRingBitBuffer(option.RingCapacity),
		fwd:    1,
	}
}

// Push 写入es数据，返回实际写入的字节数
//
// 返回值小于 len(b) 时，需要先调用 Decode 消费数据
//
func (d *Decoder) Push(b []byte) int {
	n := d.ring.Push(b)
	d.pushed += int64(n)
	return n
}

// PushWithPts 同 Push，并且记录这段数据对应的PTS
//
// 从这段数据开始的第一个picture会带上这个PTS
//
func (d *Decoder) PushWithPts(b []byte, pts uint64) int {
	if len(b) == 0 {
		return 0
	}
	if len(d.marks) >= maxPtsMarks {
		d.marks = d.marks[1:]
	}
	d.marks = append(d.marks, ptsMark{pos: d.pushed, pts: pts})
	return d.Push(b)
}

// Decode 尝试解码一帧
//
// @return result: ResultGotOneFrame 时 frame 有效，直到下一次调用 Decode
//
// @return err: 都是致命错误，比如 base.ErrUnsupported, base.ErrInternal, base.ErrVideoFormat
//
func (d *Decoder) Decode() (result Result, frame *Frame, err error) {
	for {
		// 读位置之后要有两个picture起始码，才能保证一个完整的picture已经在缓冲中
		if !d.ring.IncludeTwoCode(0x00000100 | startCodePicture) {
			if d.ring.Free() == 0 {
				return ResultNeedMoreData, nil, base.NewErrInternal("ring buffer full without a complete picture. %s",
					d.ring.DebugString())
			}
			return ResultNeedMoreData, nil, nil
		}

		code := d.ring.FindStart()
		if code < 0 {
			d.ring.Discard(3)
			return ResultNeedMoreData, nil, nil
		}

		switch code {
		case startCodeSequence:
			ok, err := d.decodeSequenceHeader()
			if err != nil {
				Log.Errorf("decode sequence header failed. err=%+v", err)
				return ResultNeedMoreData, nil, err
			}
			if !ok {
				return ResultNeedMoreData, nil, nil
			}
		case startCodePicture:
			if !d.hasSequenceHeader {
				Log.Debugf("skip picture before sequence header.")
				continue
			}
			frame, err = d.decodePicture()
			if err != nil {
				Log.Errorf("decode picture failed. err=%+v", err)
				return ResultNeedMoreData, nil, err
			}
			return ResultGotOneFrame, frame, nil
		}
	}
}

// Reset 清空缓冲和所有状态，CodecInfo 也需要重新从 sequence header 获取
//
func (d *Decoder) Reset() {
	*d = *NewDecoder(func(option *Option) { *option = d.option })
}

func (d *Decoder) CodecInfo() CodecInfo {
	return d.info
}

func (d *Decoder) HasSequenceHeader() bool {
	return d.hasSequenceHeader
}

func (d *Decoder) FramesDecoded() int {
	return d.framesDecoded
}

// Free 还能 Push 多少字节
//
func (d *Decoder) Free() int {
	return d.ring.Free()
}

// ----- private -------------------------------------------------------------------------------------------------------

// ptsOf 取出 pos 位置（picture起始码）对应的PTS
//
// 起始码之前的记录都会被移除，所以同一段数据中的后续picture没有PTS
//
func (d *Decoder) ptsOf(pos int64) uint64 {
	var pts uint64
	i := 0
	for ; i < len(d.marks) && d.marks[i].pos <= pos; i++ {
		pts = d.marks[i].pts
	}
	d.marks = d.marks[i:]
	return pts
}

// readPos 读位置在es流中的字节位置
//
func (d *Decoder) readPos() int64 {
	return d.pushed - int64((d.ring.Len()+7)/8)
}

func (d *Decoder) read(n int) int {
	if !d.ring.Has(n) {
		d.fail(base.NewErrInternal("bits exhausted. need=%d, %s", n, d.ring.DebugString()))
		return 0
	}
	return int(d.ring.Read(n))
}

func (d *Decoder) skip(n int) {
	if d.ring.Skip(n) != n {
		d.fail(base.NewErrInternal("bits exhausted. skip=%d, %s", n, d.ring.DebugString()))
	}
}

func (d *Decoder) readVlc(table []bitbuf.Vlc, name string) int {
	v, err := d.ring.ReadVlc(table)
	if err != nil {
		d.failVlc(err, name)
		return 0
	}
	return int(v)
}

func (d *Decoder) readVlcUint(table []bitbuf.VlcUint, name string) int {
	v, err := d.ring.ReadVlcUint(table)
	if err != nil {
		d.failVlc(err, name)
		return 0
	}
	return int(v)
}

func (d *Decoder) failVlc(err error, name string) {
	if err == base.ErrInvalidVlc {
		d.fail(fmt.Errorf("%w. %w. table=%s, mb=%d", base.ErrInternal, err, name, d.mbAddress))
		return
	}
	// picture已经完整在缓冲中，读不到足够的bit说明码流有问题
	d.fail(base.NewErrInternal("bits exhausted. table=%s, mb=%d", name, d.mbAddress))
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}
