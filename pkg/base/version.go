// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "strings"

// 版本信息相关
// 一部分版本信息使用了naza.bininfo，打入可执行文件

// Version 整个工程的版本号。注意，该变量由外部脚本修改维护，不要手动在代码中修改
//
const Version = "v0.1.0"

// ConfVersion 配置文件的版本号
//
const ConfVersion = "v0.1.0"

var (
	LibraryName = "mpeg1ps"
	GithubRepo  = "github.com/q191201771/mpeg1ps"

	// e.g. mpeg1ps v0.1.0 (github.com/q191201771/mpeg1ps)
	FullInfo = LibraryName + " " + Version + " (" + GithubRepo + ")"

	// e.g. 0.1.0
	VersionDot string
)

func init() {
	VersionDot = strings.TrimPrefix(Version, "v")
}
