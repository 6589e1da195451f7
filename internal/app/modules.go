package app

import (
	"github.com/dv-flow/dv-flow-libfusesoc/internal/task"
	"github.com/dv-flow/dv-flow-libfusesoc/modules/core_resolve"
	"github.com/dv-flow/dv-flow-libfusesoc/modules/sim"
)

// coreModules is the definitive list of all modules that are compiled into
// the fusesoc-flow binary.
var coreModules = []task.Module{
	core_resolve.Module{},
	sim.Module{},
}
