// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/mpeg1ps/pkg/base"
)

// 探测时最多读取的字节数
const defaultPsiReadSize = 1024 * 1024

// LookupTsVideoPid 读取TS流的PAT和PMT，返回第一个MPEG-1/2视频流的PID
//
// 只读不写，r 读到结尾或者 ctx 结束时停止。
// 没有找到时返回 base.ErrTsNoVideoPid。
//
func LookupTsVideoPid(ctx context.Context, r io.Reader) (uint16, error) {
	demuxer := ts.NewDemuxer(ctx, bufio.NewReader(r))
	for {
		d, err := demuxer.NextData()
		if err != nil {
			if errors.Is(err, ts.ErrNoMorePackets) {
				return 0, base.ErrTsNoVideoPid
			}
			return 0, fmt.Errorf("%w. %w", base.ErrTsNoVideoPid, err)
		}
		if d.PMT == nil {
			continue
		}
		for _, es := range d.PMT.ElementaryStreams {
			switch es.StreamType {
			case ts.StreamTypeMPEG1Video, ts.StreamTypeMPEG2Video:
				Log.Infof("lookup ts video pid by psi. program=%d, pid=%d, stream type=%d",
					d.PMT.ProgramNumber, es.ElementaryPID, es.StreamType)
				return es.ElementaryPID, nil
			}
		}
		Log.Debugf("pmt without mpeg video. program=%d, streams=%d", d.PMT.ProgramNumber, len(d.PMT.ElementaryStreams))
	}
}
