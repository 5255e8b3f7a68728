// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
)

const (
	defaultChunkSize = 4096
	defaultLogFile   = "./logs/mpeg1ps.log"
)

type Config struct {
	ConfVersion   string        `json:"conf_version"`
	InputConfig   InputConfig   `json:"input"`
	BufferConfig  BufferConfig  `json:"buffer"`
	MetricsConfig MetricsConfig `json:"metrics"`

	LogConfig nazalog.Option `json:"log"`
}

type InputConfig struct {
	Filename    string `json:"filename"`
	Format      string `json:"format"` // "ps" 或 "ts"
	ChunkSize   int    `json:"chunk_size"`
	TsPsiLookup bool   `json:"ts_psi_lookup"` // 为true时，先用PAT/PMT确定视频PID
}

type BufferConfig struct {
	PsCapacity        int `json:"ps_capacity"`
	VideoRingCapacity int `json:"video_ring_capacity"`
}

type MetricsConfig struct {
	Enable bool   `json:"enable"`
	Addr   string `json:"addr"` // 不为空时，开启http服务暴露 /metrics
}

func LoadConf(confFile string) (*Config, error) {
	rawContent, err := os.ReadFile(confFile)
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}
	return ParseConf(rawContent)
}

// ParseConf 解析json格式的配置，不存在的字段使用默认值
//
func ParseConf(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, nazaerrors.Wrap(err)
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}

	// 检查配置必须项
	if !j.Exist("input.filename") || config.InputConfig.Filename == "" {
		return nil, fmt.Errorf("%w. missing input.filename", base.ErrConfig)
	}

	// 配置不存在时，设置默认值
	if !j.Exist("input.format") {
		config.InputConfig.Format = FormatPs
	}
	if !j.Exist("input.chunk_size") {
		config.InputConfig.ChunkSize = defaultChunkSize
	}
	if !j.Exist("input.ts_psi_lookup") {
		config.InputConfig.TsPsiLookup = true
	}
	if !j.Exist("buffer.ps_capacity") {
		config.BufferConfig.PsCapacity = 4 * 1024 * 1024
	}
	if !j.Exist("buffer.video_ring_capacity") {
		config.BufferConfig.VideoRingCapacity = 4 * 1024 * 1024
	}
	if !j.Exist("log.level") {
		config.LogConfig.Level = nazalog.LevelInfo
	}
	if !j.Exist("log.filename") {
		config.LogConfig.Filename = defaultLogFile
	}
	if !j.Exist("log.is_to_stdout") {
		config.LogConfig.IsToStdout = true
	}
	if !j.Exist("log.is_rotate_daily") {
		config.LogConfig.IsRotateDaily = true
	}
	if !j.Exist("log.short_file_flag") {
		config.LogConfig.ShortFileFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.LogConfig.AssertBehavior = nazalog.AssertError
	}

	if config.InputConfig.Format != FormatPs && config.InputConfig.Format != FormatTs {
		return nil, fmt.Errorf("%w. input.format=%s", base.ErrConfig, config.InputConfig.Format)
	}
	if config.InputConfig.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w. input.chunk_size=%d", base.ErrConfig, config.InputConfig.ChunkSize)
	}
	if config.BufferConfig.PsCapacity <= 0 || config.BufferConfig.VideoRingCapacity <= 0 {
		return nil, fmt.Errorf("%w. buffer=%+v", base.ErrConfig, config.BufferConfig)
	}

	return &config, nil
}
