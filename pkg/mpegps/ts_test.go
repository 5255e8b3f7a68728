// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegps

import (
	"bytes"
	"errors"
	"testing"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/mpegts"
	"github.com/q191201771/naza/pkg/assert"
)

const testPid uint16 = 0x123

// makeTsStream 生成TS流，每个es对应一个PES
func makeTsStream(withPsi bool, pid uint16, es [][]byte) []byte {
	var out []byte
	if withPsi {
		out = append(out, mpegts.NewPatSection(1, mpegts.PidPmt).PackTsPacket(mpegts.PidPat, 0)...)
		pmt := mpegts.NewPmtSection(1, pid, []mpegts.PmtProgramElement{
			{StreamType: mpegts.StreamTypeMpeg1Audio, Pid: pid + 1},
			{StreamType: mpegts.StreamTypeMpeg1Video, Pid: pid},
		})
		out = append(out, pmt.PackTsPacket(mpegts.PidPmt, 0)...)
	}
	var cc uint8
	var audioCc uint8
	for i, raw := range es {
		// 混入一个音频包
		audio := mpegts.Frame{
			Pts: uint64(i) * 3000,
			Cc:  audioCc,
			Pid: pid + 1,
			Sid: mpegts.StreamIdAudio,
			Raw: makePayload(50, 9),
		}
		out = append(out, audio.Pack()...)
		audioCc = audio.Cc

		frame := mpegts.Frame{
			Pts: goldenPts + uint64(i)*3600,
			Cc:  cc,
			Pid: pid,
			Sid: mpegts.StreamIdVideo,
			Key: i == 0,
			Raw: raw,
		}
		out = append(out, frame.Pack()...)
		cc = frame.Cc
	}
	return out
}

func makeEs(n int) [][]byte {
	var es [][]byte
	for i := 0; i < n; i++ {
		es = append(es, makePayload(100+i*150, uint8(i)))
	}
	return es
}

// demuxTs 分块写入，写入不完时先消费
func demuxTs(t *testing.T, r *TsReassembler, d *PsDemuxer, stream []byte, chunk int) (out []result) {
	for pos := 0; pos < len(stream); {
		end := pos + chunk
		if end > len(stream) {
			end = len(stream)
		}
		n, err := r.PushTs(stream[pos:end])
		assert.Equal(t, nil, err)
		pos += n
		for {
			pkt, err := d.Get()
			if err != nil {
				assert.Equal(t, true, base.IsRetryable(err))
				break
			}
			payload, err := d.Payload(pkt)
			assert.Equal(t, nil, err)
			out = append(out, result{pkt.Type, pkt.StreamId, pkt.Pts, pkt.Dts, append([]byte(nil), payload...)})
		}
	}
	return
}

func TestTsReassembler(t *testing.T) {
	es := makeEs(5)
	for _, withPsi := range []bool{true, false} {
		stream := makeTsStream(withPsi, testPid, es)
		for _, chunk := range []int{1, 100, mpegts.TsPacketSize, len(stream)} {
			d := NewPsDemuxer()
			r := NewTsReassembler(d)
			out := demuxTs(t, r, d, stream, chunk)

			pid, ok := r.VideoPid()
			assert.Equal(t, true, ok)
			assert.Equal(t, testPid, pid)
			assert.Equal(t, 0, r.CcErrors())
			assert.Equal(t, len(stream)/mpegts.TsPacketSize, r.Cells())

			assert.Equal(t, len(es), len(out))
			for i := range out {
				assert.Equal(t, PesTypeVideo, out[i].Type)
				assert.Equal(t, mpegts.StreamIdVideo, out[i].StreamId)
				assert.Equal(t, goldenPts+uint64(i)*3600, out[i].Pts)
				assert.Equal(t, true, bytes.Equal(es[i], out[i].Payload))
			}
		}
	}
}

func TestTsReassembler_WithVideoPid(t *testing.T) {
	es := makeEs(2)
	stream := makeTsStream(false, testPid, es)

	// 指定为音频的PID
	d := NewPsDemuxer()
	r := NewTsReassembler(d, WithVideoPid(testPid+1))
	out := demuxTs(t, r, d, stream, len(stream))
	assert.Equal(t, 2, len(out))
	assert.Equal(t, PesTypeAudio, out[0].Type)
	assert.Equal(t, uint64(3000), out[1].Pts)
}

func TestTsReassembler_Backpressure(t *testing.T) {
	var es [][]byte
	for i := 0; i < 6; i++ {
		es = append(es, makePayload(150, uint8(i)))
	}
	stream := makeTsStream(true, testPid, es)

	d := NewPsDemuxer(WithCapacity(400))
	r := NewTsReassembler(d)
	n, err := r.PushTs(stream)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, n < len(stream))
	assert.Equal(t, 0, n%mpegts.TsPacketSize)

	out := demuxTs(t, r, d, stream[n:], len(stream))
	assert.Equal(t, 6, len(out))
	for i := range out {
		assert.Equal(t, es[i], out[i].Payload)
	}
}

func TestTsReassembler_Error(t *testing.T) {
	es := makeEs(3)
	stream := makeTsStream(false, testPid, es)

	// 丢掉一个视频包
	var lost []byte
	var videoCells int
	for i := 0; i < len(stream); i += mpegts.TsPacketSize {
		h, _ := mpegts.ParseTsPacketHeader(stream[i:])
		if h.Pid == testPid {
			videoCells++
			if videoCells == 3 {
				continue
			}
		}
		lost = append(lost, stream[i:i+mpegts.TsPacketSize]...)
	}
	d := NewPsDemuxer()
	r := NewTsReassembler(d)
	n, err := r.PushTs(lost)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(lost), n)
	assert.Equal(t, 1, r.CcErrors())

	// sync byte错误
	bad := append([]byte(nil), stream...)
	bad[mpegts.TsPacketSize] = 0x48
	d = NewPsDemuxer()
	r = NewTsReassembler(d)
	n, err = r.PushTs(bad)
	assert.Equal(t, true, errors.Is(err, base.ErrTsSync))
	assert.Equal(t, mpegts.TsPacketSize, n)

	// adaptation_field_length过大
	bad = append([]byte(nil), stream[:mpegts.TsPacketSize]...)
	bad[3] |= 0x20
	bad[4] = 184
	d = NewPsDemuxer()
	r = NewTsReassembler(d)
	_, err = r.PushTs(bad)
	assert.Equal(t, true, errors.Is(err, base.ErrTsAdaptation))
}
