// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegps

import (
	"github.com/q191201771/mpeg1ps/pkg/mpegts"
	"github.com/q191201771/naza/pkg/nazabytes"
)

type TsOption struct {
	VideoPid    uint16
	HasVideoPid bool
}

type TsModOption func(option *TsOption)

// WithVideoPid 指定视频PID，不再通过PMT或PES头自动选择
//
func WithVideoPid(pid uint16) TsModOption {
	return func(option *TsOption) {
		option.VideoPid = pid
		option.HasVideoPid = true
	}
}

// TsReassembler 把TS流中视频PID的payload拼接起来，写入 PsDemuxer
//
// 视频PID的选择，按优先级:
//   1. WithVideoPid
//   2. PMT中第一个MPEG-1/2视频流
//   3. 第一个 payload_unit_start_indicator 为1，并且payload以 00 00 01 Ex 开头的TS包
//
type TsReassembler struct {
	demuxer *PsDemuxer

	leftover *nazabytes.Buffer // 不足188字节的部分
	cell     [mpegts.TsPacketSize]byte

	videoPid    uint16
	hasVideoPid bool
	pmtPids     []uint16

	lastCc   int
	ccErrors int
	cells    int
}

func NewTsReassembler(demuxer *PsDemuxer, modOptions ...TsModOption) *TsReassembler {
	var option TsOption
	for _, fn := range modOptions {
		fn(&option)
	}
	demuxer.pesOnly = true
	return &TsReassembler{
		demuxer:     demuxer,
		leftover:    nazabytes.NewBuffer(mpegts.TsPacketSize),
		videoPid:    option.VideoPid,
		hasVideoPid: option.HasVideoPid,
		lastCc:      -1,
	}
}

// PushTs 写入TS流，返回消费的字节数
//
// PsDemuxer 的缓存写满时提前返回，返回值小于 len(b)，剩余部分需要在 PsDemuxer.Get 消费数据后重新写入。
// 不足188字节的尾部会被内部缓存，算作已消费。
//
func (r *TsReassembler) PushTs(b []byte) (int, error) {
	consumed := 0

	if r.leftover.Len() != 0 {
		need := mpegts.TsPacketSize - r.leftover.Len()
		if len(b) < need {
			r.leftover.Write(b)
			return len(b), nil
		}
		n := copy(r.cell[:], r.leftover.Bytes())
		copy(r.cell[n:], b[:need])
		ok, err := r.handleCell(r.cell[:])
		if err != nil || !ok {
			return 0, err
		}
		r.leftover.Reset()
		consumed = need
	}

	for len(b)-consumed >= mpegts.TsPacketSize {
		ok, err := r.handleCell(b[consumed : consumed+mpegts.TsPacketSize])
		if err != nil || !ok {
			return consumed, err
		}
		consumed += mpegts.TsPacketSize
	}

	if consumed < len(b) {
		r.leftover.Write(b[consumed:])
		consumed = len(b)
	}
	return consumed, nil
}

func (r *TsReassembler) VideoPid() (uint16, bool) {
	return r.videoPid, r.hasVideoPid
}

// CcErrors 视频PID的continuity_counter不连续的次数
//
func (r *TsReassembler) CcErrors() int {
	return r.ccErrors
}

// Cells 已经处理的TS包个数
//
func (r *TsReassembler) Cells() int {
	return r.cells
}

// ----- private -------------------------------------------------------------------------------------------------------

// handleCell 处理一个完整的TS包
//
// @return ok: 为false表示 PsDemuxer 的缓存放不下，该包没有被处理
//
func (r *TsReassembler) handleCell(cell []byte) (ok bool, err error) {
	h, payload, err := mpegts.ParseTsPacket(cell)
	if err != nil {
		Log.Errorf("parse ts packet failed. err=%+v", err)
		return false, err
	}
	if payload == nil {
		r.cells++
		return true, nil
	}

	switch {
	case h.Pid == mpegts.PidPat:
		r.handlePat(payload)
	case r.isPmtPid(h.Pid):
		r.handlePmt(payload)
	case !r.hasVideoPid && h.PayloadUnitStart == 1 && isVideoPesStart(payload):
		Log.Infof("select video pid by pes header. pid=%d", h.Pid)
		r.videoPid = h.Pid
		r.hasVideoPid = true
	}

	if !r.hasVideoPid || h.Pid != r.videoPid {
		r.cells++
		return true, nil
	}

	if r.demuxer.Free() < len(payload) {
		return false, nil
	}

	if r.lastCc >= 0 && int(h.Cc) != (r.lastCc+1)&0xF {
		r.ccErrors++
		Log.Warnf("continuity counter not continuous. pid=%d, last=%d, cc=%d", h.Pid, r.lastCc, h.Cc)
	}
	r.lastCc = int(h.Cc)

	r.demuxer.Push(payload)
	r.cells++
	return true, nil
}

func (r *TsReassembler) handlePat(payload []byte) {
	section, err := mpegts.SkipPointerField(payload)
	if err != nil {
		Log.Warnf("%+v", err)
		return
	}
	pat, err := mpegts.ParsePat(section)
	if err != nil {
		Log.Warnf("%+v", err)
		return
	}
	r.pmtPids = pat.PmtPids()
}

func (r *TsReassembler) handlePmt(payload []byte) {
	if r.hasVideoPid {
		return
	}
	section, err := mpegts.SkipPointerField(payload)
	if err != nil {
		Log.Warnf("%+v", err)
		return
	}
	pmt, err := mpegts.ParsePmt(section)
	if err != nil {
		Log.Warnf("%+v", err)
		return
	}
	if pid, ok := pmt.VideoPid(); ok {
		Log.Infof("select video pid by pmt. pid=%d", pid)
		r.videoPid = pid
		r.hasVideoPid = true
	}
}

func (r *TsReassembler) isPmtPid(pid uint16) bool {
	for _, p := range r.pmtPids {
		if p == pid {
			return true
		}
	}
	return false
}

func isVideoPesStart(payload []byte) bool {
	return len(payload) >= 4 && payload[0] == 0 && payload[1] == 0 && payload[2] == 1 &&
		payload[3] >= psStartCodeVideoMin && payload[3] <= psStartCodeVideoMax
}
