// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package mpegts TS容器的解析和打包
//
// 只处理承载MPEG-1/2视频PES所需的部分: TS header、adaptation field、PAT、PMT
//
package mpegts

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

const (
	syncByte uint8 = 0x47

	TsPacketSize       = 188
	TsPacketHeaderSize = 4
)

// PID
const (
	PidPat   uint16 = 0
	PidNull  uint16 = 0x1FFF
	PidPmt   uint16 = 0x1000
	PidVideo uint16 = 0x100
)

// adaptation_field_control
const (
	AdaptationFieldControlReserved uint8 = 0 // Reserved for future use by ISO/IEC
	AdaptationFieldControlNo       uint8 = 1 // No adaptation_field, payload only
	AdaptationFieldControlOnly     uint8 = 2 // Adaptation_field only, no payload
	AdaptationFieldControlFollowed uint8 = 3 // Adaptation_field followed by payload
)

// PMT中的stream_type
const (
	StreamTypeMpeg1Video uint8 = 0x01
	StreamTypeMpeg2Video uint8 = 0x02
	StreamTypeMpeg1Audio uint8 = 0x03
	StreamTypeMpeg2Audio uint8 = 0x04
)

// PES中的stream_id
const (
	StreamIdAudio uint8 = 0xC0
	StreamIdVideo uint8 = 0xE0
)

// IsVideoStreamType MPEG-1/2视频
//
func IsVideoStreamType(t uint8) bool {
	return t == StreamTypeMpeg1Video || t == StreamTypeMpeg2Video
}
