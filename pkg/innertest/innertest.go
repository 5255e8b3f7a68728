// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package innertest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/mpeg1ps/pkg/logic"
	"github.com/q191201771/mpeg1ps/pkg/mpeg1video"
	"github.com/q191201771/mpeg1ps/pkg/mpegps"
	"github.com/q191201771/mpeg1ps/pkg/mpegts"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazamd5"
)

// 同一段视频es分别以 裸es、PS、TS（带或不带PAT/PMT）三种方式输入，用不同的分块大小写入，
// 检查解码出的每一帧都完全一致，并且像素值、PTS符合预期。
// 最后走一遍配置文件 + logic.Entry/logic.Run 的流程。

const (
	pictureCount = 10
	mbWidth      = 3
	mbHeight     = 2
	videoPid     = mpegts.PidVideo
)

type frameRecord struct {
	md5   string
	pts   uint64
	index int
}

var (
	tt *testing.T

	es     VideoEs
	golden []frameRecord
)

func Entry(t *testing.T) {
	tt = t
	es = MakeVideoEs(mbWidth, mbHeight, pictureCount)

	golden = decodeEs()
	assert.Equal(t, pictureCount, len(golden))

	testPs()
	testTs()
	testCorrupted()
	testEntry()
}

// decodeEs 直接把es写入解码器
func decodeEs() (records []frameRecord) {
	d := mpeg1video.NewDecoder()
	stream := append(es.Bytes(), 0, 0, 1, startCodePicture)
	assert.Equal(tt, len(stream), d.Push(stream))
	for {
		result, frame, err := d.Decode()
		assert.Equal(tt, nil, err)
		if result == mpeg1video.ResultNeedMoreData {
			break
		}
		checkFrame(frame)
		assert.Equal(tt, uint64(0), frame.Pts)
		records = append(records, frameRecord{md5: nazamd5.Md5(frame.Clone().Arena()), index: frame.Index})
	}

	info := d.CodecInfo()
	assert.Equal(tt, es.Width(), info.Width)
	assert.Equal(tt, es.Height(), info.Height)
	assert.Equal(tt, 25.0, info.FrameRate)
	return
}

func checkFrame(frame *mpeg1video.Frame) {
	assert.Equal(tt, es.Width(), frame.Width)
	assert.Equal(tt, es.Height(), frame.Height)

	y := frame.YBytes()
	for row := 0; row < frame.Y.Height; row++ {
		for col := 0; col < frame.Y.Width; col++ {
			expected := ExpectedLuma(col/16, frame.Index)
			if y[row*frame.Y.Width+col] != expected {
				tt.Fatalf("luma mismatch. frame=%d, row=%d, col=%d, expected=%d, got=%d",
					frame.Index, row, col, expected, y[row*frame.Y.Width+col])
			}
		}
	}
	assert.Equal(tt, bytes.Repeat([]byte{128}, frame.Cb.Len()), frame.CbBytes())
	assert.Equal(tt, bytes.Repeat([]byte{128}, frame.Cr.Len()), frame.CrBytes())
}

// runPipeline 分块写入，最后 Flush 两次
func runPipeline(stream []byte, chunk int, modOptions ...logic.ModPipelineOption) (p *logic.Pipeline, records []frameRecord) {
	modOptions = append(modOptions, logic.WithOnFrame(func(frame *mpeg1video.Frame) {
		checkFrame(frame)
		records = append(records, frameRecord{md5: nazamd5.Md5(frame.Clone().Arena()), pts: frame.Pts, index: frame.Index})
	}))
	p = logic.NewPipeline(modOptions...)
	for pos := 0; pos < len(stream); pos += chunk {
		end := pos + chunk
		if end > len(stream) {
			end = len(stream)
		}
		assert.Equal(tt, nil, p.Feed(stream[pos:end]))
	}
	assert.Equal(tt, nil, p.Flush())

	// 重复 Flush 不再产生帧
	stat, n := p.Stat(), len(records)
	assert.Equal(tt, nil, p.Flush())
	assert.Equal(tt, stat, p.Stat())
	assert.Equal(tt, n, len(records))
	return
}

func checkRecords(records []frameRecord) {
	assert.Equal(tt, len(golden), len(records))
	for i := range records {
		assert.Equal(tt, golden[i].md5, records[i].md5)
		assert.Equal(tt, i, records[i].index)
		assert.Equal(tt, es.Pts(i), records[i].pts)
	}
}

func testPs() {
	stream := PackPs(es)
	for _, chunk := range []int{1, 7, mpegts.TsPacketSize, 1000, len(stream)} {
		var types []mpegps.PesType
		p, records := runPipeline(stream, chunk, logic.WithOnPacket(func(pkt mpegps.PesPacketInfo, payload []byte) {
			types = append(types, pkt.Type)
			assert.Equal(tt, pkt.PayloadLen(), len(payload))
		}))
		checkRecords(records)

		stat := p.Stat()
		assert.Equal(tt, int64(len(stream)), stat.InBytes)
		assert.Equal(tt, pictureCount, stat.Frames)
		// 每个picture: pack header + 音频 + 视频，另外 system header、3个padding、结尾的视频PES和end code
		assert.Equal(tt, pictureCount*3+1+3+2, stat.Packets)
		assert.Equal(tt, pictureCount+1, stat.VideoPackets)
		assert.Equal(tt, len(types), stat.Packets)
		assert.Equal(tt, mpegps.PesTypePackHeader, types[0])
		assert.Equal(tt, mpegps.PesTypeSystemHeader, types[1])
		assert.Equal(tt, mpegps.PesTypeSkip, types[len(types)-1])

		info, ok := p.CodecInfo()
		assert.Equal(tt, true, ok)
		assert.Equal(tt, es.Width(), info.Width)
		_, ok = p.VideoPid()
		assert.Equal(tt, false, ok)
	}

	// 缓存比单个PES大不了多少，需要多次消费后才能写完一个分块
	_, records := runPipeline(stream, len(stream), logic.WithPsCapacity(1024), logic.WithVideoRingCapacity(1024))
	checkRecords(records)
}

func testTs() {
	for _, withPsi := range []bool{true, false} {
		stream := PackTs(es, videoPid, withPsi)
		for _, chunk := range []int{1, 100, mpegts.TsPacketSize, len(stream)} {
			p, records := runPipeline(stream, chunk, logic.WithTs())
			checkRecords(records)

			stat := p.Stat()
			assert.Equal(tt, pictureCount, stat.Frames)
			assert.Equal(tt, pictureCount, stat.VideoPackets)
			assert.Equal(tt, 0, stat.CcErrors)
			pid, ok := p.VideoPid()
			assert.Equal(tt, true, ok)
			assert.Equal(tt, videoPid, pid)
		}

		pid, err := logic.LookupTsVideoPid(context.Background(), bytes.NewReader(stream))
		if withPsi {
			assert.Equal(tt, nil, err)
			assert.Equal(tt, videoPid, pid)

			_, records := runPipeline(stream, len(stream), logic.WithTs(), logic.WithVideoPid(pid))
			checkRecords(records)
		} else {
			assert.Equal(tt, true, errors.Is(err, base.ErrTsNoVideoPid))
		}
	}
}

func testCorrupted() {
	// 第2个picture改成B帧
	stream := PackPs(es)
	pos := bytes.Index(stream, es.Pictures[2])
	assert.Equal(tt, true, pos > 0)
	bad := append([]byte(nil), stream...)
	// picture_start_code 之后: temporal_reference 10bit + picture_coding_type 3bit
	bad[pos+5] = bad[pos+5]&^0x38 | 3<<3

	m := logic.NewMetrics()
	p := logic.NewPipeline(logic.WithMetrics(m))
	err := p.Feed(bad)
	assert.Equal(tt, true, errors.Is(err, base.ErrUnsupported))
	assert.Equal(tt, 2, p.Stat().Frames)

	// 出错之后不再处理
	assert.Equal(tt, err, p.Feed(stream))
	assert.Equal(tt, err, p.Flush())
}

func testEntry() {
	dir := tt.TempDir()
	psFilename := filepath.Join(dir, "test.ps")
	tsFilename := filepath.Join(dir, "test.ts")
	assert.Equal(tt, nil, os.WriteFile(psFilename, PackPs(es), 0644))
	assert.Equal(tt, nil, os.WriteFile(tsFilename, PackTs(es, videoPid, true), 0644))

	confFilename := filepath.Join(dir, "mpeg1ps.conf.json")
	conf := fmt.Sprintf(`{
  "conf_version": "%s",
  "input": {"filename": "%s", "format": "ps", "chunk_size": 333},
  "metrics": {"enable": true},
  "log": {"level": 2, "filename": "", "is_to_stdout": true}
}`, base.ConfVersion, psFilename)
	assert.Equal(tt, nil, os.WriteFile(confFilename, []byte(conf), 0644))
	assert.Equal(tt, nil, logic.Entry(base.WrapReadConfigFile(confFilename, nil)))

	config, err := logic.LoadConf(confFilename)
	assert.Equal(tt, nil, err)
	for _, format := range []string{logic.FormatPs, logic.FormatTs} {
		for _, lookup := range []bool{true, false} {
			config.InputConfig.Format = format
			config.InputConfig.TsPsiLookup = lookup
			config.InputConfig.Filename = psFilename
			if format == logic.FormatTs {
				config.InputConfig.Filename = tsFilename
			}
			stat, err := logic.Run(context.Background(), config)
			assert.Equal(tt, nil, err)
			assert.Equal(tt, pictureCount, stat.Frames)
		}
	}

	config.InputConfig.Filename = filepath.Join(dir, "not_exist.ps")
	_, err = logic.Run(context.Background(), config)
	assert.IsNotNil(tt, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	config.InputConfig.Filename = psFilename
	_, err = logic.Run(ctx, config)
	assert.Equal(tt, true, errors.Is(err, context.Canceled))
}
