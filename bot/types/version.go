package types

import "github.com/Masterminds/semver/v3"

var (
	APPNAME = "XiaoTuan"
	VERSION = semver.MustParse(VERSION_MAIN + VERSION_PRERELEASE)

	// VERSION_MAIN 主版本号
	VERSION_MAIN = "0.3.0"
	// VERSION_PRERELEASE 先行版本号
	VERSION_PRERELEASE = "-beta"
)
