// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// 错误分三类:
//   1. 可重试，带提示: OutOfLengthError，再补充N字节后重试
//   2. 可重试，不带提示: ErrNoStartCode, ErrBitShortBuffer
//   3. 致命: ErrFormat, ErrInternal, ErrUnsupported ...

// ----- pkg/bitbuf ----------------------------------------------------------------------------------------------------

var (
	ErrBitShortBuffer = errors.New("mpeg1ps.bitbuf: not enough bits")
	ErrInvalidVlc     = errors.New("mpeg1ps.bitbuf: invalid vlc code")
)

// ----- pkg/mpegps ----------------------------------------------------------------------------------------------------

var (
	ErrNoStartCode    = errors.New("mpeg1ps.mpegps: no start code")
	ErrFormat         = errors.New("mpeg1ps.mpegps: format error")
	ErrPayloadRange   = errors.New("mpeg1ps.mpegps: payload out of buffered range")
	ErrBufferTooSmall = errors.New("mpeg1ps.mpegps: packet larger than buffer capacity")
)

// OutOfLengthError 缓存中的数据不足以解析一个完整的单元，需要再补充 N 字节
//
// N 为0表示确实差多少不可知（比如PES长度字段为0，需要找到下一个起始码），但不是致命错误
//
type OutOfLengthError struct {
	N int
}

func (e *OutOfLengthError) Error() string {
	return fmt.Sprintf("mpeg1ps.mpegps: out of length. need=%d", e.N)
}

func NewErrOutOfLength(n int) error {
	return &OutOfLengthError{N: n}
}

// IsOutOfLength 返回需要补充的字节数
//
func IsOutOfLength(err error) (int, bool) {
	var ole *OutOfLengthError
	if errors.As(err, &ole) {
		return ole.N, true
	}
	return 0, false
}

func NewErrFormat(format string, v ...interface{}) error {
	return fmt.Errorf("%w. %s", ErrFormat, fmt.Sprintf(format, v...))
}

// ----- pkg/mpegts ----------------------------------------------------------------------------------------------------

var (
	ErrTsSync        = errors.New("mpeg1ps.mpegts: invalid sync byte")
	ErrTsAdaptation  = errors.New("mpeg1ps.mpegts: invalid adaptation field length")
	ErrTsShortBuffer = errors.New("mpeg1ps.mpegts: buffer too short")
	ErrTsPsi         = errors.New("mpeg1ps.mpegts: invalid psi section")
)

// ----- pkg/mpeg1video ------------------------------------------------------------------------------------------------

var (
	ErrInternal    = errors.New("mpeg1ps.mpeg1video: internal error")
	ErrUnsupported = errors.New("mpeg1ps.mpeg1video: unsupported")
	ErrVideoFormat = errors.New("mpeg1ps.mpeg1video: format error")
)

func NewErrInternal(format string, v ...interface{}) error {
	return fmt.Errorf("%w. %s", ErrInternal, fmt.Sprintf(format, v...))
}

// ----- pkg/logic -----------------------------------------------------------------------------------------------------

var (
	ErrConfig       = errors.New("mpeg1ps.logic: invalid config")
	ErrTsNoVideoPid = errors.New("mpeg1ps.logic: no video stream found in ts")
	ErrNoProgress   = errors.New("mpeg1ps.logic: demuxer can not make progress")
)

// ---------------------------------------------------------------------------------------------------------------------

// IsRetryable 喂更多数据后可以重试的错误
//
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := IsOutOfLength(err); ok {
		return true
	}
	return errors.Is(err, ErrNoStartCode) || errors.Is(err, ErrBitShortBuffer)
}
