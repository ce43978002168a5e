package app

import (
	"github.com/vk/tensorgrid/internal/registry"
	"github.com/vk/tensorgrid/modules/add"
	"github.com/vk/tensorgrid/modules/concat"
	"github.com/vk/tensorgrid/modules/fill"
	"github.com/vk/tensorgrid/modules/listappend"
	"github.com/vk/tensorgrid/modules/scale"
)

// coreModules is the definitive list of all operator modules that are
// compiled into the tensorgrid binary.
var coreModules = []registry.Module{
	&add.Module{},
	&concat.Module{},
	&fill.Module{},
	&listappend.Module{},
	&scale.Module{},
}
