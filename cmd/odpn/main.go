package main

import (
	"odpn-automation/cmd/odpn/commands"
	"odpn-automation/lib/osutil"
)

func main() {
	ctx := osutil.SignalContext()
	commands.ExecuteContext(ctx)
}
