// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazalog"
)

// Entry 命令行程序的入口
//
// @param rawContent: json格式的配置文件内容
//
func Entry(rawContent []byte) error {
	config, err := LoadConfAndInitLog(rawContent)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go base.RunSignalHandler(ctx, cancel)

	_, err = Run(ctx, config)
	return err
}

func LoadConfAndInitLog(rawContent []byte) (*Config, error) {
	config, err := ParseConf(rawContent)
	if err != nil {
		return nil, err
	}

	if err = nazalog.Init(func(option *nazalog.Option) {
		*option = config.LogConfig
	}); err != nil {
		return nil, nazaerrors.Wrap(err)
	}

	base.LogoutStartInfo()
	Log.Infof("load conf succ. conf_version=%s, input=%+v, buffer=%+v, metrics=%+v",
		config.ConfVersion, config.InputConfig, config.BufferConfig, config.MetricsConfig)
	if config.ConfVersion != "" && config.ConfVersion != base.ConfVersion {
		Log.Warnf("config version invalid. conf version of mpeg1ps=%s, conf version of config file=%s",
			base.ConfVersion, config.ConfVersion)
	}
	return config, nil
}

// Run 按配置读取整个输入文件
//
func Run(ctx context.Context, config *Config) (PipelineStat, error) {
	fp, err := os.Open(config.InputConfig.Filename)
	if err != nil {
		return PipelineStat{}, nazaerrors.Wrap(err)
	}
	defer fp.Close()

	var modOptions []ModPipelineOption
	modOptions = append(modOptions,
		WithPsCapacity(config.BufferConfig.PsCapacity),
		WithVideoRingCapacity(config.BufferConfig.VideoRingCapacity))

	if config.InputConfig.Format == FormatTs {
		modOptions = append(modOptions, WithTs())
		if config.InputConfig.TsPsiLookup {
			pid, err := LookupTsVideoPid(ctx, io.LimitReader(fp, defaultPsiReadSize))
			if err != nil {
				Log.Warnf("lookup ts video pid by psi failed, select video pid by pes header. err=%+v", err)
			} else {
				modOptions = append(modOptions, WithVideoPid(pid))
			}
			if _, err = fp.Seek(0, io.SeekStart); err != nil {
				return PipelineStat{}, nazaerrors.Wrap(err)
			}
		}
	}

	if config.MetricsConfig.Enable {
		m := NewMetrics()
		modOptions = append(modOptions, WithMetrics(m))
		if config.MetricsConfig.Addr != "" {
			go runMetricsServer(config.MetricsConfig.Addr, m)
		}
	}

	p := NewPipeline(modOptions...)

	buf := make([]byte, config.InputConfig.ChunkSize)
	for {
		if err = ctx.Err(); err != nil {
			return p.Stat(), err
		}
		n, rerr := fp.Read(buf)
		if n > 0 {
			if err = p.Feed(buf[:n]); err != nil {
				return p.Stat(), err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return p.Stat(), nazaerrors.Wrap(rerr)
		}
	}
	if err = p.Flush(); err != nil {
		return p.Stat(), err
	}

	stat := p.Stat()
	if info, ok := p.CodecInfo(); ok {
		Log.Infof("[%s] codec info. %s", p.UniqueKey(), info.String())
	}
	Log.Infof("[%s] done. stat=%+v", p.UniqueKey(), stat)
	return stat, nil
}

func runMetricsServer(addr string, m *Metrics) {
	Log.Infof("start metrics listen. addr=%s", addr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		Log.Error(err)
		return
	}
}
