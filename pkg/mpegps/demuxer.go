// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegps

import (
	"errors"
	"fmt"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/bele"
)

type Option struct {
	// Capacity 内部缓存大小，单个PES包不能超过这个大小
	Capacity int
}

var defaultOption = Option{
	Capacity: defaultCapacity,
}

type ModOption func(option *Option)

func WithCapacity(capacity int) ModOption {
	return func(option *Option) {
		option.Capacity = capacity
	}
}

// PsDemuxer 增量式PS解析器
//
// 顺序状态机: 等待pack header -> 等待system header -> 循环解析PES。
// 调用方的循环:
//   n := Push(b)
//   for {
//     pkt, err := Get()
//     if err != nil { 可重试的错误则继续Push，否则结束 }
//     payload, _ := Payload(pkt)
//   }
//
// 不支持并发调用。
//
type PsDemuxer struct {
	option Option

	buf    *base.Buffer
	offset int // 读窗口在 buf.Bytes() 中的起始位置，之前的数据已经解析过，等待压缩

	pesOnly         bool // 由TS承载时，不需要pack header和system header
	hasPackHeader   bool
	hasSystemHeader bool
	end             bool

	scr              uint64
	bitRate          uint32
	audioStreamCount uint8
	videoStreamCount uint8

	dump base.LogDump
}

func NewPsDemuxer(modOptions ...ModOption) *PsDemuxer {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.Capacity < packHeaderLen {
		option.Capacity = packHeaderLen
	}
	return &PsDemuxer{
		option: option,
		buf:    base.NewBuffer(option.Capacity),
		dump:   base.NewLogDump(Log, 16),
	}
}

// Push 写入数据，返回实际写入的字节数
//
// 返回值小于 len(b) 时，需要调用 Get 消费数据后再写入剩余部分
//
func (d *PsDemuxer) Push(b []byte) int {
	return d.buf.Write(b)
}

// Get 尝试解析一个单元
//
// 返回的错误:
//   - base.ErrNoStartCode: 没有找到起始码，需要更多数据
//   - *base.OutOfLengthError: 还需要 N 字节，见 base.IsOutOfLength
//   - base.ErrFormat: 致命错误
//   - base.ErrBufferTooSmall: 单个包超过缓存大小，致命错误
//
func (d *PsDemuxer) Get() (pkt PesPacketInfo, err error) {
	switch {
	case !d.pesOnly && !d.hasPackHeader:
		pkt, err = d.getPackHeader()
	case !d.pesOnly && !d.hasSystemHeader:
		pkt, err = d.getSystemHeader()
	default:
		pkt, err = d.getPes()
	}

	if err != nil {
		d.onFail(err)
		return
	}
	d.offset += pkt.TotalLen
	return
}

// Payload 取出 pkt 的payload，内存块属于 PsDemuxer，下一次 Push 或 Get 之后可能失效
//
func (d *PsDemuxer) Payload(pkt PesPacketInfo) ([]byte, error) {
	b := d.buf.Bytes()
	start := pkt.Offset + pkt.PayloadOffset
	end := pkt.Offset + pkt.TotalLen
	if pkt.Offset < 0 || start > end || end > len(b) || start < pkt.Offset {
		return nil, fmt.Errorf("%w. pkt=%s, buffered=%d", base.ErrPayloadRange, pkt.String(), len(b))
	}
	return b[start:end], nil
}

// MarkEnd 输入结束，PES_packet_length为0的包不再等待下一个起始码，直接取到缓存末尾
//
func (d *PsDemuxer) MarkEnd() {
	d.end = true
}

func (d *PsDemuxer) Reset() {
	d.buf.Reset()
	d.offset = 0
	d.hasPackHeader = false
	d.hasSystemHeader = false
	d.end = false
	d.scr = 0
	d.bitRate = 0
	d.audioStreamCount = 0
	d.videoStreamCount = 0
}

func (d *PsDemuxer) SystemClockReference() uint64 {
	return d.scr
}

// BitRate 单位为 50 bytes/second，也即pack header中的mux_rate
//
func (d *PsDemuxer) BitRate() uint32 {
	return d.bitRate
}

func (d *PsDemuxer) AudioStreamCount() int {
	return int(d.audioStreamCount)
}

func (d *PsDemuxer) VideoStreamCount() int {
	return int(d.videoStreamCount)
}

func (d *PsDemuxer) HasPackHeader() bool {
	return d.hasPackHeader
}

func (d *PsDemuxer) HasSystemHeader() bool {
	return d.hasSystemHeader
}

// Len 缓存中还未解析的字节数
//
func (d *PsDemuxer) Len() int {
	return d.buf.Len() - d.offset
}

// Free 还能 Push 多少字节
//
func (d *PsDemuxer) Free() int {
	return d.buf.Free()
}

func (d *PsDemuxer) Cap() int {
	return d.buf.Cap()
}

// ----- private -------------------------------------------------------------------------------------------------------

func (d *PsDemuxer) getPackHeader() (pkt PesPacketInfo, err error) {
	if err = d.seek(func(id uint8) bool { return id == psStartCodePackHeader }); err != nil {
		return
	}
	return d.parsePackHeader()
}

func (d *PsDemuxer) getSystemHeader() (pkt PesPacketInfo, err error) {
	if err = d.seek(func(id uint8) bool { return id == psStartCodeSystemHeader }); err != nil {
		return
	}
	return d.parseSystemHeader()
}

func (d *PsDemuxer) getPes() (pkt PesPacketInfo, err error) {
	if err = d.seek(func(id uint8) bool { _, ok := classify(id); return ok }); err != nil {
		return
	}

	w := d.window()
	id := w[3]
	switch id {
	case psStartCodePackHeader:
		return d.parsePackHeader()
	case psStartCodeSystemHeader:
		return d.parseSystemHeader()
	case psStartCodeEnd:
		return PesPacketInfo{
			Type:          PesTypeSkip,
			StreamId:      id,
			Offset:        d.offset,
			TotalLen:      startCodeLength,
			PayloadOffset: startCodeLength,
		}, nil
	}

	total, err := d.packetLength(w)
	if err != nil {
		return
	}

	t, _ := classify(id)
	pkt = PesPacketInfo{
		Type:          t,
		StreamId:      id,
		Offset:        d.offset,
		TotalLen:      total,
		PayloadOffset: pesPrefixLen,
	}
	if t != PesTypeAudio && t != PesTypeVideo {
		return
	}

	pts, dts, headerLen, err := parsePesHeader(w[pesPrefixLen:total])
	if err != nil {
		d.dumpWindow(err)
		return PesPacketInfo{}, err
	}
	pkt.Pts = pts
	pkt.Dts = dts
	pkt.PayloadOffset = pesPrefixLen + headerLen
	return
}

// packetLength 计算从窗口开头开始的PES包的总长度，并保证整个包已经在缓存中
//
func (d *PsDemuxer) packetLength(w []byte) (int, error) {
	if len(w) < pesPrefixLen {
		return 0, base.NewErrOutOfLength(pesPrefixLen - len(w))
	}
	length := int(bele.BeUint16(w[4:]))
	if length == 0 {
		return d.inferPacketLength(w)
	}

	total := pesPrefixLen + length
	if total > d.buf.Cap() {
		return 0, fmt.Errorf("%w. total=%d, cap=%d", base.ErrBufferTooSmall, total, d.buf.Cap())
	}
	if len(w) < total {
		return 0, base.NewErrOutOfLength(total - len(w))
	}
	return total, nil
}

// inferPacketLength PES_packet_length为0，一直到下一个PS层的起始码为止
//
func (d *PsDemuxer) inferPacketLength(w []byte) (int, error) {
	if pos, _ := findStartCode(w, pesPrefixLen, func(id uint8) bool { _, ok := classify(id); return ok }); pos >= 0 {
		return pos, nil
	}
	// 输入已经结束，或者缓存已经满了（并且已经压缩过），只能把剩余的数据都当作这个包
	if d.end || (d.buf.Free() == 0 && d.offset == 0) {
		return len(w), nil
	}
	return 0, base.NewErrOutOfLength(0)
}

func (d *PsDemuxer) parsePackHeader() (pkt PesPacketInfo, err error) {
	w := d.window()
	if len(w) < packHeaderLen {
		return pkt, base.NewErrOutOfLength(packHeaderLen - len(w))
	}
	h, err := parsePackHeader(w)
	if err != nil {
		d.dumpWindow(err)
		return
	}
	d.hasPackHeader = true
	d.scr = h.scr
	d.bitRate = h.muxRate
	return PesPacketInfo{
		Type:          PesTypePackHeader,
		StreamId:      psStartCodePackHeader,
		Offset:        d.offset,
		TotalLen:      packHeaderLen,
		PayloadOffset: packHeaderLen,
	}, nil
}

func (d *PsDemuxer) parseSystemHeader() (pkt PesPacketInfo, err error) {
	w := d.window()
	total, err := d.packetLength(w)
	if err != nil {
		return
	}
	h, err := parseSystemHeader(w[pesPrefixLen:total])
	if err != nil {
		d.dumpWindow(err)
		return
	}
	d.hasSystemHeader = true
	d.audioStreamCount = h.audioBound
	d.videoStreamCount = h.videoBound
	return PesPacketInfo{
		Type:          PesTypeSystemHeader,
		StreamId:      psStartCodeSystemHeader,
		Offset:        d.offset,
		TotalLen:      total,
		PayloadOffset: pesPrefixLen,
	}, nil
}

// seek 把读窗口移动到第一个满足 match 的起始码处
//
// 没找到时，保留最后3字节（可能是被切断的起始码），其余丢弃
//
func (d *PsDemuxer) seek(match func(id uint8) bool) error {
	w := d.window()
	pos, _ := findStartCode(w, 0, match)
	if pos < 0 {
		if len(w) > 3 {
			d.offset += len(w) - 3
		}
		return base.ErrNoStartCode
	}
	if pos > 0 {
		Log.Debugf("skip bytes before start code. n=%d", pos)
	}
	d.offset += pos
	return nil
}

func (d *PsDemuxer) onFail(err error) {
	if errors.Is(err, base.ErrNoStartCode) {
		d.compact()
		return
	}
	if n, ok := base.IsOutOfLength(err); ok {
		free := d.buf.Free()
		if n > free || free == 0 {
			d.compact()
		}
	}
}

// compact 丢弃读窗口之前的数据
//
func (d *PsDemuxer) compact() {
	if d.offset == 0 {
		return
	}
	d.buf.Skip(d.offset)
	d.offset = 0
}

func (d *PsDemuxer) window() []byte {
	b := d.buf.Bytes()
	if d.offset >= len(b) {
		return nil
	}
	return b[d.offset:]
}

func (d *PsDemuxer) dumpWindow(err error) {
	d.dump.DumpWindow(err, d.window(), d.offset)
}

// findStartCode 从 from 开始查找 00 00 01 xx，并且 match(xx) 为true
//
// @return pos: 起始码的位置，没找到时为-1
//
func findStartCode(b []byte, from int, match func(id uint8) bool) (pos int, id uint8) {
	for i := from; i+3 < len(b); i++ {
		if b[i+2] > 1 {
			// 跳跃查找
			i += 2
			continue
		}
		if b[i] == 0 && b[i+1] == 0 && b[i+2] == 1 && match(b[i+3]) {
			return i, b[i+3]
		}
	}
	return -1, 0
}
