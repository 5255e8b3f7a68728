// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

// 日志中用于区分对象的唯一key的前缀
const (
	UkPrePipeline = "PIPELINE"
)

func GenUkPipeline() string {
	return siUkPipeline.GenUniqueKey()
}

var siUkPipeline *unique.SingleGenerator

func init() {
	siUkPipeline = unique.NewSingleGenerator(UkPrePipeline)
}
