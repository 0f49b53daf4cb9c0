package main

import "github.com/gowvp/vigil/cmd/vigil/cmd"

// 编译时通过 -ldflags 注入
var buildVersion = "dev"

func main() {
	cmd.Execute(buildVersion)
}
