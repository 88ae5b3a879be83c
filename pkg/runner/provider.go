package runner

import "github.com/google/wire"

var ProviderSet = wire.NewSet(NewExecRunner, wire.Bind(new(Runner), new(*ExecRunner)))
