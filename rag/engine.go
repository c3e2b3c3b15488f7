package rag

import (
	"github.com/docintel/docintel/rag/interfaces"
	"github.com/docintel/docintel/rag/types"
)

// Engine is an alias for interfaces.Engine
type Engine = interfaces.Engine

// Result is an alias for types.Result
type Result = types.Result
