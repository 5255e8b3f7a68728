// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"fmt"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/mpeg1video"
	"github.com/q191201771/mpeg1ps/pkg/mpegps"
)

type (
	OnPacket func(pkt mpegps.PesPacketInfo, payload []byte)
	OnFrame  func(frame *mpeg1video.Frame)
)

type PipelineOption struct {
	Format            string // FormatPs 或 FormatTs
	PsCapacity        int
	VideoRingCapacity int

	// 只在 FormatTs 时使用
	VideoPid    uint16
	HasVideoPid bool

	// payload 和 frame 的内存块属于 Pipeline，回调结束后不再有效
	OnPacket OnPacket
	OnFrame  OnFrame

	// 为nil时不统计
	Metrics *Metrics
}

var defaultPipelineOption = PipelineOption{
	Format:            FormatPs,
	PsCapacity:        4 * 1024 * 1024,
	VideoRingCapacity: 4 * 1024 * 1024,
}

type ModPipelineOption func(option *PipelineOption)

func WithTs() ModPipelineOption {
	return func(option *PipelineOption) {
		option.Format = FormatTs
	}
}

func WithVideoPid(pid uint16) ModPipelineOption {
	return func(option *PipelineOption) {
		option.VideoPid = pid
		option.HasVideoPid = true
	}
}

func WithPsCapacity(capacity int) ModPipelineOption {
	return func(option *PipelineOption) {
		option.PsCapacity = capacity
	}
}

func WithVideoRingCapacity(capacity int) ModPipelineOption {
	return func(option *PipelineOption) {
		option.VideoRingCapacity = capacity
	}
}

func WithOnPacket(fn OnPacket) ModPipelineOption {
	return func(option *PipelineOption) {
		option.OnPacket = fn
	}
}

func WithOnFrame(fn OnFrame) ModPipelineOption {
	return func(option *PipelineOption) {
		option.OnFrame = fn
	}
}

func WithMetrics(m *Metrics) ModPipelineOption {
	return func(option *PipelineOption) {
		option.Metrics = m
	}
}

type PipelineStat struct {
	InBytes      int64
	Packets      int // 包含pack header和system header
	VideoPackets int
	Frames       int
	CcErrors     int
}

// Pipeline 增量式的 PS/TS -> PES -> 视频帧
//
// 不支持并发调用。
//
type Pipeline struct {
	uniqueKey string
	option    PipelineOption

	demuxer *mpegps.PsDemuxer
	ts      *mpegps.TsReassembler
	decoder *mpeg1video.Decoder

	shortfall int
	stat      PipelineStat
	flushed   bool
	err       error // 出错后不再处理任何输入
}

func NewPipeline(modOptions ...ModPipelineOption) *Pipeline {
	option := defaultPipelineOption
	for _, fn := range modOptions {
		fn(&option)
	}

	p := &Pipeline{
		uniqueKey: base.GenUkPipeline(),
		option:    option,
		demuxer:   mpegps.NewPsDemuxer(mpegps.WithCapacity(option.PsCapacity)),
		decoder:   mpeg1video.NewDecoder(mpeg1video.WithRingCapacity(option.VideoRingCapacity)),
	}
	if option.Format == FormatTs {
		var tsModOptions []mpegps.TsModOption
		if option.HasVideoPid {
			tsModOptions = append(tsModOptions, mpegps.WithVideoPid(option.VideoPid))
		}
		p.ts = mpegps.NewTsReassembler(p.demuxer, tsModOptions...)
	}
	Log.Infof("[%s] lifecycle new pipeline. format=%s, ps capacity=%d, video ring capacity=%d",
		p.uniqueKey, option.Format, option.PsCapacity, option.VideoRingCapacity)
	return p
}

// Feed 写入一段输入流，并处理所有能处理的数据
//
// b 会被完整消费（内部缓存满时分多次写入，中间先消费缓存中的数据）。
// 返回错误后 Pipeline 不再可用。
//
func (p *Pipeline) Feed(b []byte) error {
	if p.err != nil {
		return p.err
	}

	idle := 0
	for len(b) > 0 {
		n, err := p.push(b)
		if err != nil {
			return p.fail("push", err)
		}
		b = b[n:]
		p.stat.InBytes += int64(n)
		p.option.Metrics.onBytes(n)

		count, err := p.drain()
		if err != nil {
			return err
		}

		// 第一次没有进展时，Get 内部可能刚刚压缩过缓存，再试一次
		if n == 0 && count == 0 {
			idle++
			if idle > 1 {
				return p.fail("push", fmt.Errorf("%w. left=%d, free=%d, shortfall=%d",
					base.ErrNoProgress, len(b), p.demuxer.Free(), p.shortfall))
			}
		} else {
			idle = 0
		}
	}
	return nil
}

// Flush 输入结束
//
// 长度字段为0的最后一个PES直接取到末尾，解码器中最后一个picture也会被解码。
// 只有第一次调用生效，之后再调用返回第一次的结果。
//
func (p *Pipeline) Flush() error {
	if p.err != nil || p.flushed {
		return p.err
	}
	p.flushed = true
	p.demuxer.MarkEnd()
	if _, err := p.drain(); err != nil {
		return err
	}
	if left := p.demuxer.Len(); left != 0 {
		Log.Warnf("[%s] bytes left in demuxer after flush. len=%d, shortfall=%d", p.uniqueKey, left, p.shortfall)
	}
	return p.decodePayload(flushTrailer, 0)
}

// Shortfall 最近一次 Get 返回 base.OutOfLengthError 时，还差的字节数
//
func (p *Pipeline) Shortfall() int {
	return p.shortfall
}

func (p *Pipeline) Stat() PipelineStat {
	s := p.stat
	if p.ts != nil {
		s.CcErrors = p.ts.CcErrors()
	}
	return s
}

// CodecInfo 还没有解析到sequence header时 ok 为false
//
func (p *Pipeline) CodecInfo() (info mpeg1video.CodecInfo, ok bool) {
	return p.decoder.CodecInfo(), p.decoder.HasSequenceHeader()
}

// VideoPid 只在TS模式下有意义
//
func (p *Pipeline) VideoPid() (uint16, bool) {
	if p.ts == nil {
		return 0, false
	}
	return p.ts.VideoPid()
}

func (p *Pipeline) UniqueKey() string {
	return p.uniqueKey
}

// ----- private -------------------------------------------------------------------------------------------------------

func (p *Pipeline) push(b []byte) (int, error) {
	if p.ts != nil {
		return p.ts.PushTs(b)
	}
	return p.demuxer.Push(b), nil
}

// drain 取出 demuxer 中所有完整的单元
//
// @return count: 取出的单元个数
//
func (p *Pipeline) drain() (count int, err error) {
	for {
		pkt, err := p.demuxer.Get()
		if err != nil {
			p.shortfall, _ = base.IsOutOfLength(err)
			if base.IsRetryable(err) {
				return count, nil
			}
			return count, p.fail("demux", err)
		}
		count++
		p.shortfall = 0

		payload, err := p.demuxer.Payload(pkt)
		if err != nil {
			return count, p.fail("demux", err)
		}
		p.stat.Packets++
		p.option.Metrics.onPacket(pkt.Type.String())
		if p.option.OnPacket != nil {
			p.option.OnPacket(pkt, payload)
		}

		if pkt.Type != mpegps.PesTypeVideo {
			continue
		}
		p.stat.VideoPackets++
		if err = p.decodePayload(payload, pkt.Pts); err != nil {
			return count, err
		}
	}
}

// decodePayload 视频ES写入解码器，解码器缓存满时先解码再写入
//
// @param pts: 为0表示没有PTS
//
func (p *Pipeline) decodePayload(payload []byte, pts uint64) error {
	first := true
	for len(payload) > 0 {
		var n int
		if first && pts != 0 {
			n = p.decoder.PushWithPts(payload, pts)
		} else {
			n = p.decoder.Push(payload)
		}
		first = false
		payload = payload[n:]

		frames, err := p.decode()
		if err != nil {
			return err
		}
		if n == 0 && frames == 0 {
			return p.fail("decode", fmt.Errorf("%w. video ring full. left=%d", base.ErrNoProgress, len(payload)))
		}
	}
	return nil
}

func (p *Pipeline) decode() (frames int, err error) {
	for {
		result, frame, err := p.decoder.Decode()
		if err != nil {
			return frames, p.fail("decode", err)
		}
		if result == mpeg1video.ResultNeedMoreData {
			return frames, nil
		}
		frames++
		p.stat.Frames++
		p.option.Metrics.onFrame()
		Log.Debugf("[%s] frame. %s", p.uniqueKey, frame.String())
		if p.option.OnFrame != nil {
			p.option.OnFrame(frame)
		}
	}
}

func (p *Pipeline) fail(kind string, err error) error {
	p.err = err
	p.option.Metrics.onError(kind)
	Log.Errorf("[%s] %s failed. err=%+v", p.uniqueKey, kind, err)
	return err
}
