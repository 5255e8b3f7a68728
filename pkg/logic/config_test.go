// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/q191201771/mpeg1ps/pkg/base"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazalog"
)

func TestParseConf(t *testing.T) {
	config, err := ParseConf([]byte(`{"input": {"filename": "a.ps"}}`))
	assert.Equal(t, nil, err)
	assert.Equal(t, "a.ps", config.InputConfig.Filename)
	assert.Equal(t, FormatPs, config.InputConfig.Format)
	assert.Equal(t, defaultChunkSize, config.InputConfig.ChunkSize)
	assert.Equal(t, true, config.InputConfig.TsPsiLookup)
	assert.Equal(t, 4*1024*1024, config.BufferConfig.PsCapacity)
	assert.Equal(t, 4*1024*1024, config.BufferConfig.VideoRingCapacity)
	assert.Equal(t, false, config.MetricsConfig.Enable)
	assert.Equal(t, nazalog.LevelInfo, config.LogConfig.Level)
	assert.Equal(t, defaultLogFile, config.LogConfig.Filename)
	assert.Equal(t, true, config.LogConfig.IsToStdout)

	// 显式配置的值不会被默认值覆盖
	config, err = ParseConf([]byte(`{
  "input": {"filename": "a.ts", "format": "ts", "chunk_size": 188, "ts_psi_lookup": false},
  "buffer": {"ps_capacity": 1024, "video_ring_capacity": 2048},
  "metrics": {"enable": true, "addr": ":8090"},
  "log": {"level": 3, "filename": "", "is_to_stdout": false}
}`))
	assert.Equal(t, nil, err)
	assert.Equal(t, FormatTs, config.InputConfig.Format)
	assert.Equal(t, 188, config.InputConfig.ChunkSize)
	assert.Equal(t, false, config.InputConfig.TsPsiLookup)
	assert.Equal(t, 1024, config.BufferConfig.PsCapacity)
	assert.Equal(t, 2048, config.BufferConfig.VideoRingCapacity)
	assert.Equal(t, ":8090", config.MetricsConfig.Addr)
	assert.Equal(t, nazalog.LevelWarn, config.LogConfig.Level)
	assert.Equal(t, "", config.LogConfig.Filename)
	assert.Equal(t, false, config.LogConfig.IsToStdout)
}

func TestParseConf_Error(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"input": {"filename": ""}}`,
		`{"input": {"filename": "a.ps", "format": "flv"}}`,
		`{"input": {"filename": "a.ps", "chunk_size": 0}}`,
		`{"input": {"filename": "a.ps"}, "buffer": {"ps_capacity": -1}}`,
	} {
		_, err := ParseConf([]byte(raw))
		assert.Equal(t, true, errors.Is(err, base.ErrConfig))
	}

	_, err := ParseConf([]byte(`{"input": `))
	assert.IsNotNil(t, err)
}

func TestLoadConf(t *testing.T) {
	_, err := LoadConf(filepath.Join(t.TempDir(), "not_exist.conf.json"))
	assert.IsNotNil(t, err)

	filename := filepath.Join(t.TempDir(), "mpeg1ps.conf.json")
	assert.Equal(t, nil, os.WriteFile(filename, []byte(`{"input": {"filename": "b.ps", "chunk_size": 100}}`), 0644))
	config, err := LoadConf(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, "b.ps", config.InputConfig.Filename)
	assert.Equal(t, 100, config.InputConfig.ChunkSize)
}
